// Package events publishes and consumes link lifecycle events.
package events

import (
	"time"

	"github.com/serroba/ghostlink/internal/shortener"
)

const (
	TopicLinkCreated = "link.created"
	TopicLinkExpired = "link.expired"
)

// LinkCreatedEvent is emitted after a link is stored.
type LinkCreatedEvent struct {
	ID          string     `json:"id"`
	Code        string     `json:"shortCode"`
	OriginalURL string     `json:"originalUrl"`
	RuleType    string     `json:"ruleType"`
	ClickLimit  *int64     `json:"clickLimit"`
	TimeLimit   *time.Time `json:"timeLimit"`
	Summary     string     `json:"summary"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// LinkExpiredEvent is emitted once per link, by whichever request expired it.
type LinkExpiredEvent struct {
	ID        string    `json:"id"`
	Code      string    `json:"shortCode"`
	Clicks    int64     `json:"clicks"`
	Trigger   string    `json:"trigger"`
	ExpiredAt time.Time `json:"expiredAt"`
}

func newLinkCreatedEvent(link *shortener.Link) *LinkCreatedEvent {
	return &LinkCreatedEvent{
		ID:          link.ID,
		Code:        string(link.Code),
		OriginalURL: link.OriginalURL,
		RuleType:    string(link.Rule.Type),
		ClickLimit:  link.Rule.ClickLimit,
		TimeLimit:   link.Rule.TimeLimit,
		Summary:     link.Rule.Summary,
		CreatedAt:   link.CreatedAt,
	}
}

func newLinkExpiredEvent(link *shortener.Link, trigger string, at time.Time) *LinkExpiredEvent {
	return &LinkExpiredEvent{
		ID:        link.ID,
		Code:      string(link.Code),
		Clicks:    link.Clicks,
		Trigger:   trigger,
		ExpiredAt: at.UTC(),
	}
}
