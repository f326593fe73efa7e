// Package expiry turns free-text expiry descriptions into rules.
package expiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/ghostlink/internal/shortener"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single NLU call.
const DefaultTimeout = 8 * time.Second

// ErrStaleDeadline is returned for NLU rules whose deadline is not after now.
var ErrStaleDeadline = errors.New("time limit is not in the future")

// NLU is a natural-language backend that can fail.
type NLU interface {
	Parse(ctx context.Context, text string, now time.Time) (shortener.ExpiryRule, error)
}

// Parser asks the NLU first and falls back to keyword matching on any
// failure. It satisfies shortener.RuleParser.
type Parser struct {
	nlu     NLU
	timeout time.Duration
	logger  *zap.Logger
}

// NewParser creates a parser. A nil nlu means every call uses Fallback.
func NewParser(nlu NLU, timeout time.Duration, logger *zap.Logger) *Parser {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Parser{
		nlu:     nlu,
		timeout: timeout,
		logger:  logger,
	}
}

// Parse never fails. RawInput of the result is always text.
func (p *Parser) Parse(ctx context.Context, text string, now time.Time) shortener.ExpiryRule {
	now = now.UTC()

	if p.nlu != nil {
		rule, err := p.ask(ctx, text, now)
		if err == nil {
			return rule
		}

		p.logger.Warn("expiry nlu failed, using fallback parser",
			zap.String("input", text),
			zap.Error(err),
		)
	}

	rule := Fallback(text, now)
	p.logger.Debug("expiry parsed by fallback",
		zap.String("input", text),
		zap.String("type", string(rule.Type)),
	)

	return rule
}

func (p *Parser) ask(ctx context.Context, text string, now time.Time) (shortener.ExpiryRule, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	rule, err := p.nlu.Parse(ctx, text, now)
	if err != nil {
		return shortener.ExpiryRule{}, err
	}

	rule.RawInput = text

	if err = rule.Validate(); err != nil {
		return shortener.ExpiryRule{}, err
	}

	if rule.TimeLimit != nil && !rule.TimeLimit.After(now) {
		return shortener.ExpiryRule{}, fmt.Errorf("%w: %s", ErrStaleDeadline, rule.TimeLimit.Format(time.RFC3339))
	}

	return rule, nil
}

var _ shortener.RuleParser = (*Parser)(nil)
