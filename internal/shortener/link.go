package shortener

import "time"

// Code is the short identifier that maps to a stored link.
type Code string

// Status is the lifecycle state of a link.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Link is a shortened URL carrying a self-destruct rule.
// Links are never deleted; an expired link is kept for stats.
type Link struct {
	ID          string
	Code        Code
	OriginalURL string
	Rule        ExpiryRule
	Clicks      int64
	Status      Status
	CreatedAt   time.Time
}

// Expired reports whether the stored status is expired.
func (l *Link) Expired() bool {
	return l.Status == StatusExpired
}

// Clone returns a deep copy so callers cannot mutate a store's record.
func (l *Link) Clone() *Link {
	c := *l

	if l.Rule.ClickLimit != nil {
		limit := *l.Rule.ClickLimit
		c.Rule.ClickLimit = &limit
	}

	if l.Rule.TimeLimit != nil {
		deadline := *l.Rule.TimeLimit
		c.Rule.TimeLimit = &deadline
	}

	return &c
}
