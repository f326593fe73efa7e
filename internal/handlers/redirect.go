package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/ghostlink/internal/shortener"
	"go.uber.org/zap"
)

const expiredPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Link expired</title>
</head>
<body>
<h1>This link has self-destructed</h1>
<p>The link you followed has reached its expiry rule and no longer redirects.</p>
</body>
</html>
`

// Redirect counts a click and sends the visitor on, or explains that the
// link is gone.
func (h *LinkHandler) Redirect(ctx context.Context, req *ShortCodeRequest) (*RedirectResponse, error) {
	out, err := h.tracker.Track(ctx, shortener.Code(req.ShortCode))
	if err != nil {
		h.logger.Error("failed to track click", zap.String("code", req.ShortCode), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to follow link")
	}

	if out.Outcome == shortener.OutcomeNotFound {
		return nil, huma.Error404NotFound("link not found")
	}

	if target := out.RedirectURL(); target != nil {
		return &RedirectResponse{
			Status:   http.StatusTemporaryRedirect,
			Location: *target,
		}, nil
	}

	return &RedirectResponse{
		Status:      http.StatusGone,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(expiredPage),
	}, nil
}
