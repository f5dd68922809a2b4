package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ersonp/pokecache/internal/domain/entities"
	"github.com/ersonp/pokecache/internal/domain/ports"
	"github.com/ersonp/pokecache/internal/domain/response"
)

// Lookup limits.
const (
	DefaultCatalogSize = 898

	StoreSearchLimit    = 20
	CatalogMatchLimit   = 10
	SuggestionLimit     = 10
	MinSuggestionLength = 2
	MinStoreSuggestions = 5

	catalogFetchConcurrency = 5
	writeBackTimeout        = 10 * time.Second
)

// Operation names reported to the Recorder and logs.
const (
	OpRandom      = "random"
	OpSearch      = "search"
	OpDetails     = "details"
	OpDaily       = "daily"
	OpSuggestions = "suggestions"
)

// Write-back results reported to the Recorder.
const (
	WriteBackStored  = "stored"
	WriteBackSkipped = "skipped"
	WriteBackFailed  = "failed"
)

// ResolutionService resolves Pokemon lookups through the record store and
// the upstream API, writing upstream results back to the store.
type ResolutionService struct {
	store       ports.RecordStore
	upstream    ports.UpstreamClient
	logger      *zap.Logger
	recorder    ports.Recorder
	randIntN    func(n int) int
	now         func() time.Time
	catalogSize int

	pending sync.WaitGroup
}

// Option configures a ResolutionService.
type Option func(*ResolutionService)

// WithRecorder sets the outcome recorder.
func WithRecorder(r ports.Recorder) Option {
	return func(s *ResolutionService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithRandom sets the source of random ids. fn(n) must return a value in [0, n).
func WithRandom(fn func(n int) int) Option {
	return func(s *ResolutionService) { s.randIntN = fn }
}

// WithClock sets the clock used for the daily pick.
func WithClock(now func() time.Time) Option {
	return func(s *ResolutionService) { s.now = now }
}

// WithCatalogSize sets the id range used by random and daily picks.
func WithCatalogSize(n int) Option {
	return func(s *ResolutionService) {
		if n > 0 {
			s.catalogSize = n
		}
	}
}

// NewResolutionService creates a new ResolutionService. store may be nil, in
// which case every operation runs upstream-only.
func NewResolutionService(store ports.RecordStore, upstream ports.UpstreamClient, logger *zap.Logger, opts ...Option) *ResolutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ResolutionService{
		store:       store,
		upstream:    upstream,
		logger:      logger,
		recorder:    ports.NopRecorder{},
		randIntN:    rand.IntN,
		now:         time.Now,
		catalogSize: DefaultCatalogSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Random returns a uniformly random Pokemon straight from upstream.
func (s *ResolutionService) Random(ctx context.Context) *response.Envelope {
	id := s.randIntN(s.catalogSize) + 1

	p, err := s.upstream.FetchByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return s.fail(OpRandom, notFoundError("Pokemon not found", err))
		}
		return s.fail(OpRandom, upstreamError("Failed to fetch random Pokemon", err))
	}

	s.writeBack(ctx, p)
	s.logger.Info("Random Pokemon fetched", zap.String("pokemon", p.Name), zap.Int("id", id))
	s.recorder.ObserveResolution(OpRandom, ports.SourceUpstream)
	return response.Success(p, "Random Pokemon fetched successfully")
}

// Search finds Pokemon whose name contains name. The store is tried first,
// then an exact upstream fetch, then a substring scan of the upstream catalog.
func (s *ResolutionService) Search(ctx context.Context, name string) *response.Envelope {
	term := entities.NormalizeName(name)
	if term == "" {
		return s.fail(OpSearch, validationError("Pokemon name is required"))
	}
	s.logger.Info("Searching for Pokemon", zap.String("term", term))

	if s.storeAvailable(ctx) {
		found, err := s.store.FindBySubstring(ctx, term, StoreSearchLimit)
		switch {
		case err != nil:
			s.storeReadFailed(OpSearch, err)
		case len(found) > 0:
			s.logger.Info("Found Pokemon in database", zap.String("term", term), zap.Int("count", len(found)))
			s.recorder.ObserveResolution(OpSearch, ports.SourceStore)
			return response.Success(found, "Pokemon found in database")
		}
	}

	p, err := s.upstream.FetchByName(ctx, term)
	if err == nil {
		s.writeBack(ctx, p)
		s.recorder.ObserveResolution(OpSearch, ports.SourceUpstream)
		return response.Success([]entities.Pokemon{p}, "Pokemon found from external API")
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return s.fail(OpSearch, upstreamError("Error searching for Pokemon", err))
	}

	results, err := s.searchCatalog(ctx, term)
	if err != nil {
		return s.fail(OpSearch, err)
	}
	s.logger.Info("Found Pokemon from partial search", zap.String("term", term), zap.Int("count", len(results)))
	s.recorder.ObserveResolution(OpSearch, ports.SourceUpstream)
	return response.Success(results, "Pokemon found from partial search")
}

// searchCatalog resolves the first catalog names containing term. Individual
// fetch failures are skipped.
func (s *ResolutionService) searchCatalog(ctx context.Context, term string) ([]entities.Pokemon, error) {
	names, err := s.upstream.ListAllNames(ctx)
	if err != nil {
		return nil, upstreamError("Error searching Pokemon catalog", err)
	}

	matches := filterNames(names, term, CatalogMatchLimit)
	if len(matches) == 0 {
		return nil, notFoundError("No Pokemon found matching your search", nil)
	}

	resolved := make([]*entities.Pokemon, len(matches))
	var g errgroup.Group
	g.SetLimit(catalogFetchConcurrency)
	for i, name := range matches {
		g.Go(func() error {
			p, err := s.upstream.FetchByName(ctx, name)
			if err != nil {
				s.logger.Warn("Failed to fetch Pokemon details", zap.String("pokemon", name), zap.Error(err))
				return nil
			}
			s.writeBack(ctx, p)
			resolved[i] = &p
			return nil
		})
	}
	_ = g.Wait()

	results := make([]entities.Pokemon, 0, len(resolved))
	for _, p := range resolved {
		if p != nil {
			results = append(results, *p)
		}
	}
	if len(results) == 0 {
		return nil, notFoundError("No Pokemon found matching your search", nil)
	}
	return results, nil
}

// Details returns a single Pokemon by numeric id or name.
func (s *ResolutionService) Details(ctx context.Context, identifier string) *response.Envelope {
	key := entities.NormalizeName(identifier)
	if key == "" {
		return s.fail(OpDetails, validationError("Pokemon ID or name is required"))
	}

	if s.storeAvailable(ctx) {
		p, err := s.store.FindByIDOrName(ctx, key)
		switch {
		case err != nil:
			s.storeReadFailed(OpDetails, err)
		case p != nil:
			s.logger.Info("Found Pokemon in database", zap.String("pokemon", p.Name))
			s.recorder.ObserveResolution(OpDetails, ports.SourceStore)
			return response.Success(*p, "Pokemon details found in database")
		}
	}

	p, err := s.fetch(ctx, key)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return s.fail(OpDetails, notFoundError("Pokemon not found", err))
		}
		return s.fail(OpDetails, upstreamError("Error fetching Pokemon details", err))
	}

	s.writeBack(ctx, p)
	s.logger.Info("Fetched Pokemon from API", zap.String("pokemon", p.Name))
	s.recorder.ObserveResolution(OpDetails, ports.SourceUpstream)
	return response.Success(p, "Pokemon details fetched from external API")
}

// Daily returns the Pokemon of the current UTC day. The day's id selects a
// position in the store; upstream is used when the store cannot answer.
func (s *ResolutionService) Daily(ctx context.Context) *response.Envelope {
	date := DailyDate(s.now())
	dailyID := DailyID(date, s.catalogSize)

	if s.storeAvailable(ctx) {
		p, err := s.store.FindAtOffset(ctx, dailyID)
		switch {
		case err != nil:
			s.storeReadFailed(OpDaily, err)
		case p != nil:
			s.logger.Info("Daily Pokemon from database", zap.String("pokemon", p.Name), zap.String("date", date))
			s.recorder.ObserveResolution(OpDaily, ports.SourceStore)
			return response.Success(p.Daily(date), "Daily Pokemon fetched from database")
		}
	}

	p, err := s.upstream.FetchByID(ctx, dailyID)
	if err != nil {
		return s.fail(OpDaily, upstreamError("Error fetching daily Pokemon", err))
	}

	s.writeBack(ctx, p)
	s.logger.Info("Daily Pokemon from API", zap.String("pokemon", p.Name), zap.String("date", date))
	s.recorder.ObserveResolution(OpDaily, ports.SourceUpstream)
	return response.Success(p.Daily(date), "Daily Pokemon fetched from external API")
}

// Suggestions returns up to SuggestionLimit names containing query. It never
// fails: upstream errors degrade to whatever the store returned.
func (s *ResolutionService) Suggestions(ctx context.Context, query string) *response.Envelope {
	term := entities.NormalizeName(query)
	if len(term) < MinSuggestionLength {
		return response.Success([]string{}, "Query too short for suggestions")
	}

	storeNames := []string{}
	if s.storeAvailable(ctx) {
		names, err := s.store.FindNamesBySubstring(ctx, term, SuggestionLimit)
		if err != nil {
			s.storeReadFailed(OpSuggestions, err)
		} else if names != nil {
			storeNames = names
		}
	}

	if len(storeNames) >= MinStoreSuggestions {
		s.logger.Debug("Found suggestions in database", zap.Int("count", len(storeNames)))
		s.recorder.ObserveResolution(OpSuggestions, ports.SourceStore)
		return response.Success(storeNames, "Search suggestions from database")
	}

	catalog, err := s.upstream.ListAllNames(ctx)
	if err != nil {
		s.logger.Warn("API error for suggestions, using database only", zap.Error(err))
		s.recorder.ObserveResolution(OpSuggestions, ports.SourceStore)
		return response.Success(storeNames, "Search suggestions from database only")
	}

	merged := mergeUnique(SuggestionLimit, storeNames, filterNames(catalog, term, SuggestionLimit))
	s.logger.Debug("Found suggestions", zap.Int("count", len(merged)))
	s.recorder.ObserveResolution(OpSuggestions, ports.SourceUpstream)
	return response.Success(merged, "Search suggestions from database and API")
}

// Flush waits for in-flight write-backs to finish.
func (s *ResolutionService) Flush() {
	s.pending.Wait()
}

// StoreAvailable reports whether the record store can currently be used.
func (s *ResolutionService) StoreAvailable(ctx context.Context) bool {
	return s.storeAvailable(ctx)
}

func (s *ResolutionService) storeAvailable(ctx context.Context) bool {
	return s.store != nil && s.store.IsAvailable(ctx)
}

func (s *ResolutionService) storeReadFailed(op string, err error) {
	if errors.Is(err, ports.ErrStoreUnavailable) {
		s.logger.Warn("Record store unavailable, falling back to upstream", zap.String("operation", op), zap.Error(err))
		return
	}
	s.logger.Warn("Record store query failed, falling back to upstream", zap.String("operation", op), zap.Error(err))
}

// fetch resolves an all-digit key by id and anything else by name.
func (s *ResolutionService) fetch(ctx context.Context, key string) (entities.Pokemon, error) {
	if !isNumeric(key) {
		return s.upstream.FetchByName(ctx, key)
	}
	id, err := strconv.Atoi(key)
	if err != nil {
		return entities.Pokemon{}, ports.ErrNotFound
	}
	return s.upstream.FetchByID(ctx, id)
}

func (s *ResolutionService) fail(op string, err error) *response.Envelope {
	var rerr *ResolutionError
	if !errors.As(err, &rerr) {
		rerr = &ResolutionError{Kind: ErrUpstream, Message: "Unexpected error", Err: err}
	}

	fields := []zap.Field{zap.String("operation", op), zap.String("message", rerr.Message)}
	if rerr.Err != nil {
		fields = append(fields, zap.Error(rerr.Err))
	}
	if errors.Is(rerr, ErrUpstream) {
		s.logger.Error("Lookup failed", fields...)
	} else {
		s.logger.Warn("Lookup failed", fields...)
	}

	s.recorder.ObserveResolution(op, ports.SourceNone)
	return response.Error(rerr.Message, rerr.Detail(), StatusClassFor(rerr))
}

// writeBack persists p in the background. It never affects the caller's
// outcome and outlives the request context.
func (s *ResolutionService) writeBack(ctx context.Context, p entities.Pokemon) {
	if s.store == nil {
		s.recorder.ObserveWriteBack(WriteBackSkipped)
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeBackTimeout)
		defer cancel()
		s.persist(ctx, p)
	}()
}

func (s *ResolutionService) persist(ctx context.Context, p entities.Pokemon) {
	if !s.store.IsAvailable(ctx) {
		s.logger.Warn("Database not connected - skipping save", zap.String("pokemon", p.Name))
		s.recorder.ObserveWriteBack(WriteBackSkipped)
		return
	}

	normalized, err := p.Normalize()
	if err != nil {
		s.logger.Error("Refusing to save invalid Pokemon", zap.Int("id", p.ID), zap.Error(err))
		s.recorder.ObserveWriteBack(WriteBackFailed)
		return
	}

	if err := s.store.UpsertIfAbsent(ctx, normalized); err != nil {
		if errors.Is(err, ports.ErrStoreUnavailable) {
			s.logger.Warn("Database connection lost - skipping save", zap.String("pokemon", normalized.Name), zap.Error(err))
			s.recorder.ObserveWriteBack(WriteBackSkipped)
			return
		}
		s.logger.Error("Error saving Pokemon to database", zap.String("pokemon", normalized.Name), zap.Error(err))
		s.recorder.ObserveWriteBack(WriteBackFailed)
		return
	}

	s.logger.Debug("Saved Pokemon", zap.String("pokemon", normalized.Name))
	s.recorder.ObserveWriteBack(WriteBackStored)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// filterNames returns up to limit names containing term, case-insensitively,
// in catalog order.
func filterNames(names []string, term string, limit int) []string {
	term = strings.ToLower(term)
	matches := make([]string, 0, limit)
	for _, name := range names {
		if len(matches) == limit {
			break
		}
		if strings.Contains(strings.ToLower(name), term) {
			matches = append(matches, name)
		}
	}
	return matches
}

// mergeUnique concatenates lists, dropping repeats and keeping first-seen order.
func mergeUnique(limit int, lists ...[]string) []string {
	seen := make(map[string]struct{})
	merged := make([]string, 0, limit)
	for _, list := range lists {
		for _, v := range list {
			if len(merged) == limit {
				return merged
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			merged = append(merged, v)
		}
	}
	return merged
}
