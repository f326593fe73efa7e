package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ghostlink/internal/ratelimit"
)

// RegisterRoutes registers all link routes with their rate limit scopes.
func RegisterRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "api-root",
		Method:      http.MethodGet,
		Path:        "/api/",
		Summary:     "API root",
		Tags:        []string{"Links"},
	}, h.Root)

	// Creation may call the expiry NLU, so it gets its own budget.
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/api/links/create",
		Summary:       "Create smart link",
		Description:   "Creates a short link whose expiry rule is parsed from free text.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusOK,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeCreate},
		},
	}, h.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "get-link-stats",
		Method:      http.MethodGet,
		Path:        "/api/links/stats/{linkId}",
		Summary:     "Link statistics",
		Tags:        []string{"Links"},
	}, h.GetStats)

	huma.Register(api, huma.Operation{
		OperationID: "get-link",
		Method:      http.MethodGet,
		Path:        "/api/links/{shortCode}",
		Summary:     "Link details",
		Description: "Returns a link and persists its expiry if a deadline has passed. Does not count a click.",
		Tags:        []string{"Links"},
	}, h.GetLink)

	huma.Register(api, huma.Operation{
		OperationID: "track-click",
		Method:      http.MethodPost,
		Path:        "/api/links/{shortCode}/click",
		Summary:     "Track click",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusNotFound},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeClick},
		},
	}, h.TrackClick)

	huma.Register(api, huma.Operation{
		OperationID: "follow-link",
		Method:      http.MethodGet,
		Path:        "/{shortCode}",
		Summary:     "Follow short link",
		Description: "Counts a click and redirects, or renders an expired notice.",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusNotFound, http.StatusGone},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeClick},
		},
	}, h.Redirect)
}
