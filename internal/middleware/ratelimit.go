package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ghostlink/internal/ratelimit"
	"go.uber.org/zap"
)

// PolicyRateLimiter returns a huma middleware enforcing limiter.
//
// Operations can carry a ratelimit.EndpointConfig under ratelimit.MetadataKey
// to disable limiting, pick a scope, or set their own per-route limits.
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		route := operationPath(ctx)
		cfg := ratelimit.GetEndpointConfig(ctx)

		if cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		var (
			allowed  bool
			exceeded *ratelimit.LimitExceeded
			err      error
		)

		key := clientKey(ctx)

		if cfg != nil && len(cfg.Limits) > 0 {
			allowed, exceeded, err = limiter.AllowRoute(ctx.Context(), key, route, cfg.Limits)
		} else {
			allowed, exceeded, err = limiter.Allow(ctx.Context(), key, resolver.Resolve(ctx))
		}

		if err != nil {
			logger.Error("rate limit check failed", zap.String("path", route), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error")

			return
		}

		if !allowed {
			rejectRequest(api, ctx, exceeded, route, logger)

			return
		}

		next(ctx)
	}
}

func rejectRequest(
	api huma.API,
	ctx huma.Context,
	exceeded *ratelimit.LimitExceeded,
	route string,
	logger *zap.Logger,
) {
	msg := "rate limit exceeded"

	if exceeded != nil {
		msg = fmt.Sprintf("rate limit exceeded: %s, %d/%d requests in %s",
			exceeded.Scope, exceeded.Count, exceeded.Config.Max, exceeded.Config.Window)

		retryAfter := int(math.Ceil(exceeded.Config.Window.Seconds()))
		ctx.SetHeader("Retry-After", strconv.Itoa(retryAfter))

		logger.Warn("rate limit exceeded",
			zap.String("path", route),
			zap.String("method", ctx.Method()),
			zap.String("scope", string(exceeded.Scope)),
			zap.Int64("count", exceeded.Count),
			zap.Int64("max", exceeded.Config.Max),
			zap.Duration("window", exceeded.Config.Window),
			zap.String("clientIp", ClientIP(ctx)),
		)
	}

	_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ctx.URL().Path
}

// clientKey identifies a client by IP and User-Agent without storing either.
func clientKey(ctx huma.Context) string {
	sum := sha256.Sum256([]byte(ClientIP(ctx) + "|" + ctx.Header("User-Agent")))

	return hex.EncodeToString(sum[:])
}

// ClientIP returns the originating client address, honouring
// X-Forwarded-For and X-Real-IP set by a reverse proxy.
func ClientIP(ctx huma.Context) string {
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	addr := ctx.RemoteAddr()

	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return ip
}
