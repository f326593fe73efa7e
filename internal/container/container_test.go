package container_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/ghostlink/internal/container"
	"github.com/serroba/ghostlink/internal/messaging"
	"github.com/serroba/ghostlink/internal/shortener"
	"github.com/serroba/ghostlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() *container.Options {
	return &container.Options{
		Port:             8888,
		LogFormat:        "console",
		Store:            container.StoreMemory,
		Failover:         true,
		TerminalCacheTTL: 60,
		CodeLength:       6,
		GeminiTimeout:    1,
		Events:           container.EventsMemory,
		RateLimitStore:   "memory",
		RateLimitGlobal:  100,
		RateLimitRead:    100,
		RateLimitWrite:   100,
		RateLimitCreate:  100,
		RateLimitClick:   100,
	}
}

func newInjector(t *testing.T, opts *container.Options) *do.Injector {
	t.Helper()

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.StorePackage(injector)
	container.ExpiryPackage(injector)
	container.ShortenerPackage(injector)
	container.WatermillPackage(injector)
	container.PublisherGroupPackage(injector)
	container.ConsumerGroupPackage(injector)
	container.RateLimitPackage(injector)
	container.HTTPPackage(injector)

	t.Cleanup(func() { _ = injector.Shutdown() })

	return injector
}

func TestOptions_PublicBaseURL(t *testing.T) {
	opts := testOptions()
	assert.Equal(t, "http://localhost:8888", opts.PublicBaseURL())

	opts.BaseURL = "https://ghost.link"
	assert.Equal(t, "https://ghost.link", opts.PublicBaseURL())
}

func TestHTTPPackage_ServesLinks(t *testing.T) {
	injector := newInjector(t, testOptions())

	router := do.MustInvoke[*chi.Mux](injector)
	_ = do.MustInvoke[huma.API](injector)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/links/create",
		strings.NewReader(`{"originalUrl":"https://example.com","expiryText":"1 click"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"shortLink":"http://localhost:8888/`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStorePackage(t *testing.T) {
	t.Run("memory store is used as-is", func(t *testing.T) {
		injector := newInjector(t, testOptions())

		repo := do.MustInvoke[shortener.Repository](injector)

		assert.IsType(t, &store.MemoryStore{}, repo)
	})

	t.Run("sqlite is wrapped in cache and failover", func(t *testing.T) {
		opts := testOptions()
		opts.Store = container.StoreSQLite
		opts.SQLiteDSN = filepath.Join(t.TempDir(), "links.db")

		injector := newInjector(t, opts)

		repo := do.MustInvoke[shortener.Repository](injector)

		failover, ok := repo.(*store.FailoverRepository)
		require.True(t, ok)
		assert.False(t, failover.Degraded())
	})

	t.Run("unknown store is an error", func(t *testing.T) {
		opts := testOptions()
		opts.Store = "mongo"

		injector := newInjector(t, opts)

		_, err := do.Invoke[shortener.Repository](injector)

		assert.Error(t, err)
	})
}

func TestConsumerGroupPackage_InMemory(t *testing.T) {
	injector := newInjector(t, testOptions())

	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	assert.Equal(t, 2, group.Len())
}
