package health

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ghostlink/internal/ratelimit"
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// Degrader is implemented by stores that can fall back to a secondary.
type Degrader interface {
	Degraded() bool
}

// Handler handles health check operations.
type Handler struct {
	store Checker
}

// NewHandler creates a new health handler.
func NewHandler(store Checker) *Handler {
	return &Handler{store: store}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status string `doc:"ok or degraded"                            example:"ok"      json:"status"`
		Store  string `doc:"healthy, failover or unhealthy link store" example:"healthy" json:"store"`
	}
}

// Check performs a health check of the application and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Store = "healthy"

	if err := h.store.Ping(ctx); err != nil {
		resp.Body.Store = "unhealthy"
		resp.Body.Status = "degraded"

		return resp, nil
	}

	if d, ok := h.store.(Degrader); ok && d.Degraded() {
		resp.Body.Store = "failover"
		resp.Body.Status = "degraded"
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.Check)
}
