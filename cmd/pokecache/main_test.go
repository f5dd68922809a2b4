package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ersonp/pokecache/internal/domain/entities"
	"github.com/ersonp/pokecache/internal/infrastructure/config"
)

const bulbasaurPayload = `{
	"id": 1,
	"name": "bulbasaur",
	"height": 7,
	"weight": 69,
	"base_experience": 64,
	"types": [{"slot": 1, "type": {"name": "grass"}}, {"slot": 2, "type": {"name": "poison"}}],
	"abilities": [{"ability": {"name": "overgrow"}}],
	"stats": [{"base_stat": 45, "stat": {"name": "hp"}}],
	"sprites": {"front_default": "https://img/1.png"}
}`

// newUpstream serves bulbasaur and a tiny species catalog.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pokemon/{key}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("key") {
		case "1", "bulbasaur":
			_, _ = w.Write([]byte(bulbasaurPayload))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("GET /pokemon-species", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": [{"name": "bulbasaur"}, {"name": "ivysaur"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// setupWorkspace writes a config into a temp dir and makes it the working directory.
func setupWorkspace(t *testing.T, upstreamURL, driver string, opts ...func(*config.Config)) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := config.Default()
	cfg.Upstream.BaseURL = upstreamURL
	cfg.Upstream.Timeout = 2 * time.Second
	cfg.Store.Driver = driver
	for _, opt := range opts {
		opt(cfg)
	}
	writeConfig(t, dir, cfg)

	logger = zap.NewNop()
	verbose = false
	return dir
}

func writeConfig(t *testing.T, dir string, cfg *config.Config) {
	t.Helper()
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(config.ConfigDir(dir), 0755))
	require.NoError(t, os.WriteFile(config.ConfigFilePath(dir), data, 0644))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

type envelopeBody struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   *string         `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, out string) envelopeBody {
	t.Helper()
	var body envelopeBody
	require.NoError(t, json.Unmarshal([]byte(out), &body), out)
	return body
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		profile  string
		level    string
		debug    bool
		expected zapcore.Level
	}{
		{name: "development debug", profile: config.ProfileDevelopment, level: "debug", expected: zapcore.DebugLevel},
		{name: "production warn", profile: config.ProfileProduction, level: "warn", expected: zapcore.WarnLevel},
		{name: "empty level defaults to info", profile: config.ProfileStaging, expected: zapcore.InfoLevel},
		{name: "verbose wins", profile: config.ProfileProduction, level: "error", debug: true, expected: zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Profile = tt.profile
			cfg.Log.Level = tt.level

			l, err := newLogger(cfg, tt.debug)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.expected))
			if tt.expected > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.expected-1))
			}
		})
	}

	t.Run("invalid level", func(t *testing.T) {
		cfg := config.Default()
		cfg.Log.Level = "loud"
		_, err := newLogger(cfg, false)
		require.Error(t, err)
	})
}

func TestNewLogger_StacktraceOnlyOnError(t *testing.T) {
	for _, profile := range []string{config.ProfileDevelopment, config.ProfileProduction} {
		t.Run(profile, func(t *testing.T) {
			cfg := config.Default()
			cfg.Profile = profile
			cfg.Log.Level = "debug"

			zcfg, err := loggerConfig(cfg, false)
			require.NoError(t, err)
			out := filepath.Join(t.TempDir(), "log")
			zcfg.OutputPaths = []string{out}
			l, err := zcfg.Build(loggerOptions(cfg)...)
			require.NoError(t, err)

			l.Warn("lookup missed")
			l.Error("lookup failed")
			_ = l.Sync()

			data, err := os.ReadFile(out)
			require.NoError(t, err)
			logged := string(data)
			split := strings.Index(logged, "lookup failed")
			require.Positive(t, split, logged)
			assert.NotContains(t, logged[:split], "TestNewLogger_StacktraceOnlyOnError")
			assert.Contains(t, logged[split:], "TestNewLogger_StacktraceOnlyOnError")
		})
	}
}

func TestOpenStore(t *testing.T) {
	log := zap.NewNop()

	t.Run("none", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Driver = config.DriverNone
		store, err := openStore(cfg, log)
		require.NoError(t, err)
		assert.Nil(t, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Path = ":memory:"
		store, err := openStore(cfg, log)
		require.NoError(t, err)
		require.NotNil(t, store)
		defer store.Close()
		assert.True(t, store.IsAvailable(t.Context()))
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Driver = config.DriverPostgres
		_, err := openStore(cfg, log)
		require.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Driver = "mongo"
		_, err := openStore(cfg, log)
		require.Error(t, err)
	})
}

func TestOpenStoreOrDegrade(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.DriverPostgres
	assert.Nil(t, openStoreOrDegrade(t.Context(), cfg, zap.NewNop()))

	cfg = config.Default()
	cfg.Store.Path = ":memory:"
	store := openStoreOrDegrade(t.Context(), cfg, zap.NewNop())
	require.NotNil(t, store)
	defer store.Close()

	count, err := store.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	logger = zap.NewNop()

	out, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created")
	assert.Contains(t, out, "Record store ready (sqlite, 0 records)")
	assert.True(t, config.Exists(dir))

	_, err = execute(t, "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestDetailsCommand_CachesInStore(t *testing.T) {
	upstream := newUpstream(t)
	setupWorkspace(t, upstream.URL, config.DriverSQLite)

	out, err := execute(t, "details", "Bulbasaur")
	require.NoError(t, err)
	body := decodeEnvelope(t, out)
	assert.True(t, body.Success)
	assert.Equal(t, "Pokemon details fetched from external API", body.Message)

	// The write-back is flushed before the command returns.
	upstream.Close()
	out, err = execute(t, "details", "1")
	require.NoError(t, err)
	body = decodeEnvelope(t, out)
	assert.Equal(t, "Pokemon details found in database", body.Message)

	var cached entities.Pokemon
	require.NoError(t, json.Unmarshal(body.Data, &cached))
	assert.Equal(t, 1, cached.ID)
	assert.Equal(t, "bulbasaur", cached.Name)
}

func TestLookupCommands_RedactInProduction(t *testing.T) {
	upstream := newUpstream(t)

	t.Run("production", func(t *testing.T) {
		setupWorkspace(t, upstream.URL, config.DriverNone, func(cfg *config.Config) {
			cfg.Profile = config.ProfileProduction
		})
		out, err := execute(t, "details", "agumon")
		require.Error(t, err)
		body := decodeEnvelope(t, out)
		assert.False(t, body.Success)
		assert.Equal(t, "Pokemon not found", body.Message)
		assert.Nil(t, body.Error)
	})

	t.Run("development", func(t *testing.T) {
		setupWorkspace(t, upstream.URL, config.DriverNone)
		out, err := execute(t, "details", "agumon")
		require.Error(t, err)
		body := decodeEnvelope(t, out)
		require.NotNil(t, body.Error)
		assert.NotEmpty(t, *body.Error)
	})
}

func TestLookupCommands_UpstreamOnly(t *testing.T) {
	upstream := newUpstream(t)
	setupWorkspace(t, upstream.URL, config.DriverNone)

	t.Run("search exact", func(t *testing.T) {
		out, err := execute(t, "search", "bulbasaur")
		require.NoError(t, err)
		assert.Equal(t, "Pokemon found from external API", decodeEnvelope(t, out).Message)
	})

	t.Run("suggest", func(t *testing.T) {
		out, err := execute(t, "suggest", "saur")
		require.NoError(t, err)
		body := decodeEnvelope(t, out)
		assert.True(t, body.Success)
		assert.JSONEq(t, `["bulbasaur","ivysaur"]`, string(body.Data))
	})

	t.Run("details not found", func(t *testing.T) {
		out, err := execute(t, "details", "agumon")
		require.Error(t, err)
		assert.False(t, decodeEnvelope(t, out).Success)
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := execute(t, "search")
		require.Error(t, err)
	})
}

func TestServe(t *testing.T) {
	upstream := newUpstream(t)
	setupWorkspace(t, upstream.URL, config.DriverNone)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- withDeps(ctx, func(d *Deps) error {
			return serve(ctx, ln, d)
		})
	}()

	url := fmt.Sprintf("http://%s/api/pokemon/details/1", ln.Addr().String())
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	health, err := http.Get(fmt.Sprintf("http://%s/health", ln.Addr().String()))
	require.NoError(t, err)
	healthBody, err := io.ReadAll(health.Body)
	health.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(healthBody), `"store":"unavailable"`)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
