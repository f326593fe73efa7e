package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/serroba/ghostlink/internal/middleware"
	"github.com/serroba/ghostlink/internal/ratelimit"
	"github.com/serroba/ghostlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var errStoreDown = errors.New("store down")

type failingStore struct{}

func (failingStore) Record(context.Context, string, time.Duration) (int64, error) {
	return 0, errStoreDown
}

type codeInput struct {
	Code string `path:"code"`
}

type pingOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

func register(api huma.API, method, path string, cfg any) {
	op := huma.Operation{
		OperationID: method + "-" + strings.Trim(path, "/"),
		Method:      method,
		Path:        path,
	}

	if cfg != nil {
		op.Metadata = map[string]any{ratelimit.MetadataKey: cfg}
	}

	huma.Register(api, op, func(_ context.Context, _ *struct{}) (*pingOutput, error) {
		out := &pingOutput{}
		out.Body.Message = "pong"

		return out, nil
	})
}

func newLimitedAPI(t *testing.T, rlStore ratelimit.Store) humatest.TestAPI {
	t.Helper()

	policy, err := ratelimit.NewPolicyBuilder().
		AddLimit(ratelimit.ScopeGlobal, 100, time.Minute).
		AddLimit(ratelimit.ScopeRead, 2, time.Minute).
		AddLimit(ratelimit.ScopeClick, 1, time.Minute).
		Build()
	require.NoError(t, err)

	_, api := humatest.New(t)
	api.UseMiddleware(middleware.PolicyRateLimiter(
		api,
		ratelimit.NewPolicyLimiter(rlStore, policy),
		ratelimit.NewOperationScopeResolver(),
		zap.NewNop(),
	))

	return api
}

func TestPolicyRateLimiter(t *testing.T) {
	t.Parallel()

	t.Run("rejects once the scope budget is spent", func(t *testing.T) {
		t.Parallel()

		api := newLimitedAPI(t, store.NewRateLimitMemoryStore())
		register(api, http.MethodGet, "/read", nil)

		assert.Equal(t, http.StatusOK, api.Get("/read").Code)
		assert.Equal(t, http.StatusOK, api.Get("/read").Code)

		resp := api.Get("/read")
		assert.Equal(t, http.StatusTooManyRequests, resp.Code)
		assert.Equal(t, "60", resp.Header().Get("Retry-After"))
		assert.Contains(t, resp.Body.String(), "rate limit exceeded: read")
	})

	t.Run("operation scope overrides the method", func(t *testing.T) {
		t.Parallel()

		api := newLimitedAPI(t, store.NewRateLimitMemoryStore())
		register(api, http.MethodGet, "/click", ratelimit.EndpointConfig{Scope: ratelimit.ScopeClick})

		assert.Equal(t, http.StatusOK, api.Get("/click").Code)
		assert.Equal(t, http.StatusTooManyRequests, api.Get("/click").Code)
	})

	t.Run("disabled endpoints are never limited", func(t *testing.T) {
		t.Parallel()

		api := newLimitedAPI(t, failingStore{})
		register(api, http.MethodGet, "/health", ratelimit.EndpointConfig{Disabled: true})

		for range 5 {
			assert.Equal(t, http.StatusOK, api.Get("/health").Code)
		}
	})

	t.Run("route limits are counted per route template", func(t *testing.T) {
		t.Parallel()

		api := newLimitedAPI(t, store.NewRateLimitMemoryStore())
		huma.Register(api, huma.Operation{
			OperationID: "route-limited",
			Method:      http.MethodGet,
			Path:        "/r/{code}",
			Metadata: map[string]any{ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{{Max: 3, Window: time.Second}},
			}},
		}, func(_ context.Context, _ *codeInput) (*pingOutput, error) {
			return &pingOutput{}, nil
		})

		assert.Equal(t, http.StatusOK, api.Get("/r/a").Code)
		assert.Equal(t, http.StatusOK, api.Get("/r/b").Code)
		assert.Equal(t, http.StatusOK, api.Get("/r/c").Code)

		resp := api.Get("/r/d")
		assert.Equal(t, http.StatusTooManyRequests, resp.Code)
		assert.Equal(t, "1", resp.Header().Get("Retry-After"))
	})

	t.Run("clients are limited independently", func(t *testing.T) {
		t.Parallel()

		api := newLimitedAPI(t, store.NewRateLimitMemoryStore())
		register(api, http.MethodGet, "/click", ratelimit.EndpointConfig{Scope: ratelimit.ScopeClick})

		assert.Equal(t, http.StatusOK, api.Get("/click", "X-Forwarded-For: 10.0.0.1").Code)
		assert.Equal(t, http.StatusOK, api.Get("/click", "X-Forwarded-For: 10.0.0.2").Code)
		assert.Equal(t, http.StatusTooManyRequests, api.Get("/click", "X-Forwarded-For: 10.0.0.1").Code)
	})

	t.Run("store failure is an internal error", func(t *testing.T) {
		t.Parallel()

		api := newLimitedAPI(t, failingStore{})
		register(api, http.MethodGet, "/read", nil)

		assert.Equal(t, http.StatusInternalServerError, api.Get("/read").Code)
	})
}

func TestAccessLog(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)

	_, api := humatest.New(t)
	api.UseMiddleware(middleware.AccessLog(zap.New(core)))
	register(api, http.MethodGet, "/ping", nil)

	api.Get("/ping", "X-Real-IP: 203.0.113.7")
	api.Get("/missing")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1, "unrouted requests never reach huma middleware")

	fields := entries[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/ping", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "203.0.113.7", fields["clientIp"])
}
