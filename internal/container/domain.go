package container

import (
	"github.com/samber/do"
	"github.com/serroba/ghostlink/internal/events"
	"github.com/serroba/ghostlink/internal/expiry"
	"github.com/serroba/ghostlink/internal/shortener"
	"go.uber.org/zap"
)

// ExpiryPackage provides the expiry rule parser. Without an API key the
// parser runs on the keyword fallback alone.
func ExpiryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*expiry.Parser, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.GeminiAPIKey == "" {
			logger.Info("no Gemini API key, expiry text parsed by keywords only")

			return expiry.NewParser(nil, opts.geminiTimeout(), logger), nil
		}

		nlu := expiry.NewGeminiClient(opts.GeminiAPIKey, opts.GeminiModel)

		return expiry.NewParser(nlu, opts.geminiTimeout(), logger), nil
	})
}

// ShortenerPackage provides link creation and click tracking.
func ShortenerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.CodeGenerator, error) {
		opts := do.MustInvoke[*Options](i)
		repo := do.MustInvoke[shortener.Repository](i)

		return shortener.NewCodeGenerator(repo, opts.CodeLength)
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		return shortener.NewService(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[*shortener.CodeGenerator](i),
			do.MustInvoke[*expiry.Parser](i),
			do.MustInvoke[*zap.Logger](i),
			notifierOptions(i)...,
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Tracker, error) {
		return shortener.NewTracker(
			do.MustInvoke[shortener.Repository](i),
			do.MustInvoke[*zap.Logger](i),
			notifierOptions(i)...,
		), nil
	})
}

func notifierOptions(i *do.Injector) []shortener.Option {
	if do.MustInvoke[*Options](i).Events == EventsOff {
		return nil
	}

	return []shortener.Option{shortener.WithNotifier(do.MustInvoke[*events.Notifier](i))}
}
