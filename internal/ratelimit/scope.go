package ratelimit

import "github.com/danielgtaylor/huma/v2"

// Scope groups requests that share a rate limit budget.
type Scope string

const (
	// ScopeGlobal applies to every request.
	ScopeGlobal Scope = "global"
	// ScopeRead applies to safe methods (GET, HEAD, OPTIONS).
	ScopeRead Scope = "read"
	// ScopeWrite applies to every other method.
	ScopeWrite Scope = "write"
	// ScopeCreate applies to link creation, which may call the expiry NLU.
	ScopeCreate Scope = "create"
	// ScopeClick applies to requests that consume a click.
	ScopeClick Scope = "click"
)

// MetadataKey is the huma.Operation metadata key holding an EndpointConfig.
const MetadataKey = "rateLimit"

// EndpointConfig customizes rate limiting for one operation.
//
// Disabled skips limiting entirely. Non-empty Limits replace the policy and
// are counted per route; Scope is then ignored. Otherwise Scope, when set,
// replaces method-based scope detection.
type EndpointConfig struct {
	Scope    Scope
	Limits   []LimitConfig
	Disabled bool
}

// ScopeResolver determines which scopes apply to a given request.
type ScopeResolver interface {
	Resolve(ctx huma.Context) []Scope
}

// MethodScopeResolver maps safe methods to read and the rest to write.
type MethodScopeResolver struct{}

// NewMethodScopeResolver creates a new method-based scope resolver.
func NewMethodScopeResolver() *MethodScopeResolver {
	return &MethodScopeResolver{}
}

func (r *MethodScopeResolver) Resolve(ctx huma.Context) []Scope {
	switch ctx.Method() {
	case "GET", "HEAD", "OPTIONS":
		return []Scope{ScopeGlobal, ScopeRead}
	default:
		return []Scope{ScopeGlobal, ScopeWrite}
	}
}

// OperationScopeResolver prefers the scope in operation metadata and falls
// back to the HTTP method.
type OperationScopeResolver struct {
	fallback *MethodScopeResolver
}

// NewOperationScopeResolver creates an operation-aware scope resolver.
func NewOperationScopeResolver() *OperationScopeResolver {
	return &OperationScopeResolver{fallback: NewMethodScopeResolver()}
}

func (r *OperationScopeResolver) Resolve(ctx huma.Context) []Scope {
	if cfg := GetEndpointConfig(ctx); cfg != nil && cfg.Scope != "" {
		return []Scope{ScopeGlobal, cfg.Scope}
	}

	return r.fallback.Resolve(ctx)
}

// GetEndpointConfig returns the operation's EndpointConfig, or nil.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}
