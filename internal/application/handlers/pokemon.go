package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ersonp/pokecache/internal/domain/response"
)

const (
	maxNameLength = 50
	maxPokemonID  = 10000

	nameRuleMessage   = "Pokemon name must be alphanumeric with optional hyphens, 1-50 characters long"
	idRangeMessage    = "Pokemon ID must be between 1 and 10000"
	validationMessage = "Validation failed"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// Resolver is the lookup surface served over HTTP.
type Resolver interface {
	Random(ctx context.Context) *response.Envelope
	Search(ctx context.Context, name string) *response.Envelope
	Details(ctx context.Context, identifier string) *response.Envelope
	Daily(ctx context.Context) *response.Envelope
	Suggestions(ctx context.Context, query string) *response.Envelope
	StoreAvailable(ctx context.Context) bool
}

// RequestObserver records served requests.
type RequestObserver interface {
	ObserveHTTPRequest(route string, code int)
}

// PokemonHandler serves the Pokemon lookup API.
type PokemonHandler struct {
	resolver       Resolver
	logger         *zap.Logger
	redact         bool
	corsOrigins    []string
	observer       RequestObserver
	metricsHandler http.Handler
}

// Option configures a PokemonHandler.
type Option func(*PokemonHandler)

// WithRedaction strips error detail from failed responses.
func WithRedaction(redact bool) Option {
	return func(h *PokemonHandler) { h.redact = redact }
}

// WithCORSOrigins sets the allowed cross-origin callers. "*" allows any.
func WithCORSOrigins(origins []string) Option {
	return func(h *PokemonHandler) { h.corsOrigins = origins }
}

// WithMetrics records requests on observer and serves handler on /metrics.
func WithMetrics(observer RequestObserver, handler http.Handler) Option {
	return func(h *PokemonHandler) {
		h.observer = observer
		h.metricsHandler = handler
	}
}

// NewPokemonHandler creates a new Pokemon HTTP handler.
func NewPokemonHandler(resolver Resolver, logger *zap.Logger, opts ...Option) *PokemonHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &PokemonHandler{
		resolver: resolver,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the fully wrapped HTTP handler.
func (h *PokemonHandler) Routes() http.Handler {
	mux := http.NewServeMux()

	h.handle(mux, "GET /api/pokemon/random", h.random)
	h.handle(mux, "GET /api/pokemon/daily", h.daily)
	h.handle(mux, "GET /api/pokemon/suggestions/{query}", h.suggestions)
	h.handle(mux, "GET /api/pokemon/search/{name}", h.search)
	h.handle(mux, "GET /api/pokemon/details/{id}", h.details)
	h.handle(mux, "GET /health", h.health)
	if h.metricsHandler != nil {
		mux.Handle("GET /metrics", h.metricsHandler)
	}
	h.handle(mux, "/", h.notFound)

	return h.withRequestID(h.withLogging(h.withCORS(mux)))
}

func (h *PokemonHandler) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r)
		if h.observer != nil {
			h.observer.ObserveHTTPRequest(pattern, rec.status)
		}
	})
}

func (h *PokemonHandler) random(w http.ResponseWriter, r *http.Request) {
	h.writeEnvelope(w, r, h.resolver.Random(r.Context()))
}

func (h *PokemonHandler) daily(w http.ResponseWriter, r *http.Request) {
	h.writeEnvelope(w, r, h.resolver.Daily(r.Context()))
}

func (h *PokemonHandler) search(w http.ResponseWriter, r *http.Request) {
	name, msg := validateName(r.PathValue("name"))
	if msg != "" {
		h.writeEnvelope(w, r, response.BadRequest(validationMessage, msg))
		return
	}
	h.writeEnvelope(w, r, h.resolver.Search(r.Context(), name))
}

func (h *PokemonHandler) suggestions(w http.ResponseWriter, r *http.Request) {
	query, msg := validateName(r.PathValue("query"))
	if msg != "" {
		h.writeEnvelope(w, r, response.BadRequest(validationMessage, msg))
		return
	}
	h.writeEnvelope(w, r, h.resolver.Suggestions(r.Context(), query))
}

func (h *PokemonHandler) details(w http.ResponseWriter, r *http.Request) {
	id, msg := validateIdentifier(r.PathValue("id"))
	if msg != "" {
		h.writeEnvelope(w, r, response.BadRequest(validationMessage, msg))
		return
	}
	h.writeEnvelope(w, r, h.resolver.Details(r.Context(), id))
}

func (h *PokemonHandler) health(w http.ResponseWriter, r *http.Request) {
	store := "unavailable"
	if h.resolver.StoreAvailable(r.Context()) {
		store = "available"
	}
	h.writeEnvelope(w, r, response.Success(map[string]string{"store": store}, "OK"))
}

func (h *PokemonHandler) notFound(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn("route not found", zap.String("method", r.Method), zap.String("path", r.URL.Path))
	h.writeEnvelope(w, r, response.NotFound("Cannot "+r.Method+" "+r.URL.Path))
}

func (h *PokemonHandler) writeEnvelope(w http.ResponseWriter, r *http.Request, env *response.Envelope) {
	if env == nil {
		env = response.Internal("Internal server error", "no response")
	}
	if !env.Success {
		h.logger.Debug("request failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("status", string(env.Status)),
			zap.String("message", env.Message),
			zap.String("error", env.Error),
		)
	}
	if h.redact {
		env = env.Redacted()
	}
	writeJSON(w, httpStatus(env.Status), env)
}

// validateName sanitizes a search term. A non-empty message reports a
// rule violation.
func validateName(raw string) (string, string) {
	name := strings.TrimSpace(raw)
	if name == "" || len(name) > maxNameLength || !namePattern.MatchString(name) {
		return "", nameRuleMessage
	}
	return strings.ToLower(name), ""
}

// validateIdentifier accepts a numeric id in range or a name.
func validateIdentifier(raw string) (string, string) {
	id := strings.TrimSpace(raw)
	if id != "" && isDigits(id) {
		n, err := strconv.Atoi(id)
		if err != nil || n < 1 || n > maxPokemonID {
			return "", idRangeMessage
		}
		return strconv.Itoa(n), ""
	}
	return validateName(id)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// httpStatus maps a status class to its HTTP status code.
func httpStatus(class response.StatusClass) int {
	switch class {
	case response.StatusOK:
		return http.StatusOK
	case response.StatusBadRequest:
		return http.StatusBadRequest
	case response.StatusUnauthorized:
		return http.StatusUnauthorized
	case response.StatusForbidden:
		return http.StatusForbidden
	case response.StatusNotFound:
		return http.StatusNotFound
	case response.StatusTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
