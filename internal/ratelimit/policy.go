package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidLimit = errors.New("invalid rate limit")

// LimitConfig allows Max requests per sliding Window.
type LimitConfig struct {
	Max    int64
	Window time.Duration
}

// Policy holds the limits for each scope. A scope may carry several limits,
// e.g. a burst limit and a sustained one.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// PolicyBuilder assembles a Policy, collecting the first invalid limit.
type PolicyBuilder struct {
	limits map[Scope][]LimitConfig
	err    error
}

// NewPolicyBuilder creates an empty builder.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{limits: make(map[Scope][]LimitConfig)}
}

// AddLimit adds a limit for scope. Non-positive values are recorded as an
// error returned by Build.
func (b *PolicyBuilder) AddLimit(scope Scope, maxRequests int64, window time.Duration) *PolicyBuilder {
	if maxRequests <= 0 || window <= 0 {
		if b.err == nil {
			b.err = fmt.Errorf("%w: %s %d per %s", ErrInvalidLimit, scope, maxRequests, window)
		}

		return b
	}

	b.limits[scope] = append(b.limits[scope], LimitConfig{Max: maxRequests, Window: window})

	return b
}

// Build returns the policy.
func (b *PolicyBuilder) Build() (*Policy, error) {
	if b.err != nil {
		return nil, b.err
	}

	limits := make(map[Scope][]LimitConfig, len(b.limits))
	for scope, l := range b.limits {
		limits[scope] = append([]LimitConfig(nil), l...)
	}

	return &Policy{Limits: limits}, nil
}
