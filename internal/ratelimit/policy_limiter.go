package ratelimit

import (
	"context"
	"fmt"
)

// LimitExceeded describes the limit that rejected a request.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

// PolicyLimiter enforces a Policy against a Store.
type PolicyLimiter struct {
	store  Store
	policy *Policy
}

// NewPolicyLimiter creates a new policy-based rate limiter.
func NewPolicyLimiter(store Store, policy *Policy) *PolicyLimiter {
	return &PolicyLimiter{
		store:  store,
		policy: policy,
	}
}

// Allow records the request against every limit of every scope and reports
// the first limit exceeded, if any.
func (l *PolicyLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (bool, *LimitExceeded, error) {
	for _, scope := range scopes {
		for _, limit := range l.policy.Limits[scope] {
			key := fmt.Sprintf("%s:%s:%d", clientKey, scope, limit.Window.Milliseconds())

			exceeded, err := l.record(ctx, key, scope, limit)
			if err != nil || exceeded != nil {
				return false, exceeded, err
			}
		}
	}

	return true, nil, nil
}

// AllowRoute applies endpoint-specific limits counted per route template,
// so every request to e.g. "/{shortCode}" shares one budget per client.
func (l *PolicyLimiter) AllowRoute(
	ctx context.Context, clientKey, route string, limits []LimitConfig,
) (bool, *LimitExceeded, error) {
	for _, limit := range limits {
		key := fmt.Sprintf("%s:route:%s:%d", clientKey, route, limit.Window.Milliseconds())

		exceeded, err := l.record(ctx, key, Scope("route:"+route), limit)
		if err != nil || exceeded != nil {
			return false, exceeded, err
		}
	}

	return true, nil, nil
}

func (l *PolicyLimiter) record(ctx context.Context, key string, scope Scope, limit LimitConfig) (*LimitExceeded, error) {
	count, err := l.store.Record(ctx, key, limit.Window)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", scope, err)
	}

	if count > limit.Max {
		return &LimitExceeded{Scope: scope, Config: limit, Count: count}, nil
	}

	return nil, nil
}
