package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ghostlink/internal/shortener"
	"go.uber.org/zap"
)

const rootMessage = "GhostLink API - Self-Destructing Smart Links"

// LinkHandler serves the link API.
type LinkHandler struct {
	service *shortener.Service
	tracker *shortener.Tracker
	baseURL string
	logger  *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	service *shortener.Service,
	tracker *shortener.Tracker,
	baseURL string,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		service: service,
		tracker: tracker,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (h *LinkHandler) Root(_ context.Context, _ *struct{}) (*RootResponse, error) {
	resp := &RootResponse{}
	resp.Body.Message = rootMessage

	return resp, nil
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	link, err := h.service.Create(ctx, req.Body.OriginalURL, req.Body.ExpiryText)
	if err != nil {
		if errors.Is(err, shortener.ErrInvalidURL) || errors.Is(err, shortener.ErrInvalidRule) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}

		h.logger.Error("failed to create link", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to create link")
	}

	resp := &CreateLinkResponse{}
	resp.Body.Success = true
	resp.Body.Data = LinkData{
		ID:          link.ID,
		ShortLink:   fmt.Sprintf("%s/%s", h.baseURL, link.Code),
		ShortCode:   string(link.Code),
		OriginalURL: link.OriginalURL,
		ExpiryInfo:  expiryInfo(link),
		Status:      string(link.Status),
		CreatedAt:   link.CreatedAt,
	}

	return resp, nil
}

func (h *LinkHandler) GetLink(ctx context.Context, req *ShortCodeRequest) (*GetLinkResponse, error) {
	got, err := h.tracker.Inspect(ctx, shortener.Code(req.ShortCode))
	if err != nil {
		return nil, h.lookupError(err, "failed to get link")
	}

	resp := &GetLinkResponse{}
	resp.Body.Success = true
	resp.Body.Data = LinkDetails{
		OriginalURL: got.Link.OriginalURL,
		Status:      string(got.Link.Status),
		ExpiryInfo:  expiryInfo(got.Link),
	}

	return resp, nil
}

func (h *LinkHandler) TrackClick(ctx context.Context, req *ShortCodeRequest) (*ClickResponse, error) {
	out, err := h.tracker.Track(ctx, shortener.Code(req.ShortCode))
	if err != nil {
		h.logger.Error("failed to track click", zap.String("code", req.ShortCode), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to track click")
	}

	resp := &ClickResponse{Status: http.StatusOK}
	if out.Outcome == shortener.OutcomeNotFound {
		resp.Status = http.StatusNotFound
	}

	resp.Body.Success = out.Success()
	resp.Body.ShouldRedirect = out.ShouldRedirect()
	resp.Body.OriginalURL = out.RedirectURL()
	resp.Body.CurrentClicks = out.CurrentClicks
	resp.Body.Status = string(out.Outcome)

	return resp, nil
}

func (h *LinkHandler) GetStats(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	link, err := h.tracker.Stats(ctx, req.LinkID)
	if err != nil {
		return nil, h.lookupError(err, "failed to get stats")
	}

	resp := &StatsResponse{}
	resp.Body.Success = true
	resp.Body.Data = LinkStats{
		ID:          link.ID,
		ShortCode:   string(link.Code),
		OriginalURL: link.OriginalURL,
		Clicks:      link.Clicks,
		Status:      string(link.Status),
		ExpiryInfo:  expiryInfo(link),
		CreatedAt:   link.CreatedAt,
	}

	return resp, nil
}

func (h *LinkHandler) lookupError(err error, msg string) error {
	if errors.Is(err, shortener.ErrNotFound) {
		return huma.Error404NotFound("link not found")
	}

	h.logger.Error(msg, zap.Error(err))

	return huma.Error500InternalServerError(msg)
}

func expiryInfo(link *shortener.Link) ExpiryInfo {
	return ExpiryInfo{
		Summary:       link.Rule.Summary,
		Type:          string(link.Rule.Type),
		ClickLimit:    link.Rule.ClickLimit,
		TimeLimit:     link.Rule.TimeLimit,
		CurrentClicks: link.Clicks,
	}
}
