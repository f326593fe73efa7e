package shortener

import (
	"errors"
	"fmt"
	"time"
)

// RuleType selects which limits of an ExpiryRule are in force.
type RuleType string

const (
	RuleClicks RuleType = "clicks"
	RuleTime   RuleType = "time"
	RuleHybrid RuleType = "hybrid"
)

// ErrInvalidRule is returned when an ExpiryRule violates its invariants.
var ErrInvalidRule = errors.New("invalid expiry rule")

// ExpiryRule describes when a link stops working.
type ExpiryRule struct {
	Type       RuleType
	ClickLimit *int64     // nil unless Type is clicks or hybrid
	TimeLimit  *time.Time // UTC; nil unless Type is time or hybrid
	Summary    string
	RawInput   string
}

// ClickRule builds a click-only rule.
func ClickRule(limit int64, summary, raw string) ExpiryRule {
	return ExpiryRule{Type: RuleClicks, ClickLimit: &limit, Summary: summary, RawInput: raw}
}

// TimeRule builds a deadline-only rule.
func TimeRule(deadline time.Time, summary, raw string) ExpiryRule {
	deadline = deadline.UTC()

	return ExpiryRule{Type: RuleTime, TimeLimit: &deadline, Summary: summary, RawInput: raw}
}

// HybridRule builds a rule that expires on whichever limit is met first.
func HybridRule(limit int64, deadline time.Time, summary, raw string) ExpiryRule {
	deadline = deadline.UTC()

	return ExpiryRule{
		Type:       RuleHybrid,
		ClickLimit: &limit,
		TimeLimit:  &deadline,
		Summary:    summary,
		RawInput:   raw,
	}
}

// Validate checks the type/limit invariants.
func (r ExpiryRule) Validate() error {
	if r.ClickLimit != nil && *r.ClickLimit <= 0 {
		return fmt.Errorf("%w: click limit must be positive, got %d", ErrInvalidRule, *r.ClickLimit)
	}

	hasClicks := r.ClickLimit != nil
	hasTime := r.TimeLimit != nil

	switch r.Type {
	case RuleClicks:
		if !hasClicks || hasTime {
			return fmt.Errorf("%w: clicks rule needs a click limit and no time limit", ErrInvalidRule)
		}
	case RuleTime:
		if !hasTime || hasClicks {
			return fmt.Errorf("%w: time rule needs a time limit and no click limit", ErrInvalidRule)
		}
	case RuleHybrid:
		if !hasClicks || !hasTime {
			return fmt.Errorf("%w: hybrid rule needs both limits", ErrInvalidRule)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRule, r.Type)
	}

	return nil
}
