package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const insertAttempts = 3

// RuleParser turns free text into an expiry rule. It never fails; parsers
// fall back to a deterministic rule when their backend is unavailable.
type RuleParser interface {
	Parse(ctx context.Context, text string, now time.Time) ExpiryRule
}

// CodeSource produces candidate short codes.
type CodeSource interface {
	Generate(ctx context.Context) (Code, error)
}

// Service creates links.
type Service struct {
	store  Repository
	codes  CodeSource
	parser RuleParser
	logger *zap.Logger
	cfg    config
}

// NewService creates a link creation service.
func NewService(
	store Repository,
	codes CodeSource,
	parser RuleParser,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	return &Service{
		store:  store,
		codes:  codes,
		parser: parser,
		logger: logger,
		cfg:    newConfig(opts),
	}
}

// Create validates originalURL, parses expiryText into a rule and stores a
// new active link. The work is detached from ctx cancellation so a client
// going away cannot leave a half-created link.
func (s *Service) Create(ctx context.Context, originalURL, expiryText string) (*Link, error) {
	ctx = context.WithoutCancel(ctx)

	target, err := NormalizeURL(originalURL)
	if err != nil {
		return nil, err
	}

	now := s.cfg.now().UTC()

	rule := s.parser.Parse(ctx, expiryText, now)
	rule.RawInput = expiryText

	if err = rule.Validate(); err != nil {
		return nil, err
	}

	for range insertAttempts {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		link := &Link{
			ID:          s.cfg.newID(),
			Code:        code,
			OriginalURL: target,
			Rule:        rule,
			Status:      StatusActive,
			CreatedAt:   now,
		}

		err = s.store.Create(ctx, link)
		if err == nil {
			s.logger.Info("link created",
				zap.String("code", string(link.Code)),
				zap.String("ruleType", string(rule.Type)),
			)

			s.cfg.notifier.LinkCreated(ctx, link.Clone())

			return link, nil
		}

		if !errors.Is(err, ErrCodeTaken) {
			return nil, fmt.Errorf("store link: %w", err)
		}

		s.logger.Debug("short code taken between check and insert", zap.String("code", string(code)))
	}

	return nil, ErrCodeSpaceExhausted
}
