package handlers

import "time"

// ExpiryInfo describes a link's expiry rule and progress towards it.
type ExpiryInfo struct {
	Summary       string     `doc:"Human readable rule"              example:"Expires after 3 clicks" json:"summary"`
	Type          string     `doc:"clicks, time or hybrid"           example:"clicks"                 json:"type"`
	ClickLimit    *int64     `doc:"Clicks that expire the link"      example:"3"                      json:"clickLimit"`
	TimeLimit     *time.Time `doc:"UTC instant that expires the link"                                 json:"timeLimit"`
	CurrentClicks int64      `doc:"Clicks counted so far"            example:"0"                      json:"currentClicks"`
}

// CreateLinkRequest is the request body for creating a link.
type CreateLinkRequest struct {
	Body struct {
		OriginalURL string `doc:"The URL to shorten"                example:"https://example.com/launch" json:"originalUrl" minLength:"1"`
		ExpiryText  string `doc:"When the link should self-destruct" example:"after 3 clicks or 2 hours" json:"expiryText"`
	}
}

// LinkData is a freshly created link.
type LinkData struct {
	ID          string     `doc:"Link ID"                example:"6f1c1d4e-3a7b-4c1e-9a52-0c8d7d1f7e21" json:"id"`
	ShortLink   string     `doc:"The full short URL"     example:"http://localhost:8888/aZ3kP9"         json:"shortLink"`
	ShortCode   string     `doc:"The short code"         example:"aZ3kP9"                               json:"shortCode"`
	OriginalURL string     `doc:"The destination URL"    example:"https://example.com/launch"           json:"originalUrl"`
	ExpiryInfo  ExpiryInfo `json:"expiryInfo"`
	Status      string     `doc:"active or expired"      example:"active"                               json:"status"`
	CreatedAt   time.Time  `doc:"Creation instant (UTC)"                                                json:"createdAt"`
}

// CreateLinkResponse is the response for a successfully created link.
type CreateLinkResponse struct {
	Body struct {
		Success bool     `json:"success"`
		Data    LinkData `json:"data"`
	}
}

// ShortCodeRequest addresses a link by its short code.
type ShortCodeRequest struct {
	ShortCode string `doc:"The short code" example:"aZ3kP9" path:"shortCode"`
}

// LinkDetails is a link as seen by a visitor.
type LinkDetails struct {
	OriginalURL string     `json:"originalUrl"`
	Status      string     `json:"status"`
	ExpiryInfo  ExpiryInfo `json:"expiryInfo"`
}

// GetLinkResponse is the response for link details.
type GetLinkResponse struct {
	Body struct {
		Success bool        `json:"success"`
		Data    LinkDetails `json:"data"`
	}
}

// ClickResponse is the response for a tracked click.
type ClickResponse struct {
	Status int
	Body   struct {
		Success        bool    `doc:"False only for unknown codes"                  json:"success"`
		ShouldRedirect bool    `doc:"Whether the visitor may follow the link"       json:"shouldRedirect"`
		OriginalURL    *string `doc:"Destination, null unless shouldRedirect"       json:"originalUrl"`
		CurrentClicks  int64   `doc:"Clicks counted so far"                         json:"currentClicks"`
		Status         string  `doc:"active, expired or not_found" example:"active" json:"status"`
	}
}

// StatsRequest addresses a link by its ID.
type StatsRequest struct {
	LinkID string `doc:"The link ID" path:"linkId"`
}

// LinkStats is the stored state of a link.
type LinkStats struct {
	ID          string     `json:"id"`
	ShortCode   string     `json:"shortCode"`
	OriginalURL string     `json:"originalUrl"`
	Clicks      int64      `json:"clicks"`
	Status      string     `json:"status"`
	ExpiryInfo  ExpiryInfo `json:"expiryInfo"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// StatsResponse is the response for link statistics.
type StatsResponse struct {
	Body struct {
		Success bool      `json:"success"`
		Data    LinkStats `json:"data"`
	}
}

// RootResponse is the response for the API root.
type RootResponse struct {
	Body struct {
		Message string `example:"GhostLink API - Self-Destructing Smart Links" json:"message"`
	}
}

// RedirectResponse either redirects or renders the expired notice.
type RedirectResponse struct {
	Status      int
	Location    string `header:"Location"`
	ContentType string `header:"Content-Type"`
	Body        []byte
}
