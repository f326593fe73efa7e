package middleware

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

// AccessLog logs one line per request once the handler has finished.
func AccessLog(logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		next(ctx)

		status := ctx.Status()
		fields := []zap.Field{
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.URL().Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("clientIp", ClientIP(ctx)),
		}

		switch {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}
