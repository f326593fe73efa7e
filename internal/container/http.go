package container

import (
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/ghostlink/internal/handlers"
	"github.com/serroba/ghostlink/internal/health"
	"github.com/serroba/ghostlink/internal/middleware"
	"github.com/serroba/ghostlink/internal/ratelimit"
	"github.com/serroba/ghostlink/internal/shortener"
	"github.com/serroba/ghostlink/internal/store"
	"go.uber.org/zap"
)

// RateLimitPackage provides the policy limiter and its counter store.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.Store, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.RateLimitStore {
		case "redis":
			return store.NewRateLimitRedisStore(do.MustInvoke[*RedisConn](i).Client), nil
		case "memory":
			return store.NewRateLimitMemoryStore(), nil
		default:
			return nil, fmt.Errorf("unknown rate limit store %q", opts.RateLimitStore)
		}
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		opts := do.MustInvoke[*Options](i)

		policy, err := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeGlobal, opts.RateLimitGlobal, time.Minute).
			AddLimit(ratelimit.ScopeRead, opts.RateLimitRead, time.Minute).
			AddLimit(ratelimit.ScopeWrite, opts.RateLimitWrite, time.Minute).
			AddLimit(ratelimit.ScopeCreate, opts.RateLimitCreate, time.Minute).
			AddLimit(ratelimit.ScopeClick, opts.RateLimitClick, time.Minute).
			Build()
		if err != nil {
			return nil, err
		}

		return ratelimit.NewPolicyLimiter(do.MustInvoke[ratelimit.Store](i), policy), nil
	})
}

// HTTPPackage provides the router and the huma API with every route
// registered. Middlewares are installed before routes, as huma binds them
// at registration time.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig("GhostLink", "1.0.0"))
		api.UseMiddleware(middleware.AccessLog(logger))

		if !opts.RateLimitDisabled {
			api.UseMiddleware(middleware.PolicyRateLimiter(
				api,
				do.MustInvoke[*ratelimit.PolicyLimiter](i),
				ratelimit.NewOperationScopeResolver(),
				logger,
			))
		}

		repo := do.MustInvoke[shortener.Repository](i)
		health.RegisterRoutes(api, health.NewHandler(repo))

		handlers.RegisterRoutes(api, handlers.NewLinkHandler(
			do.MustInvoke[*shortener.Service](i),
			do.MustInvoke[*shortener.Tracker](i),
			opts.PublicBaseURL(),
			logger,
		))

		return api, nil
	})
}
