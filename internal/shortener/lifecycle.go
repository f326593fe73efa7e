package shortener

import "time"

// IsExpired decides whether a link governed by rule is expired after clicks
// clicks at instant now. A limit is met when clicks reaches it, and a deadline
// is met from the deadline instant onward. It has no side effects.
func IsExpired(rule ExpiryRule, clicks int64, now time.Time) bool {
	if rule.TimeLimit != nil && !now.Before(*rule.TimeLimit) {
		return true
	}

	if rule.ClickLimit != nil && clicks >= *rule.ClickLimit {
		return true
	}

	return false
}

// Advance applies one click to link at now and reports whether the click made
// it expire. Stores call it inside their atomic section; an already expired
// link is left untouched and counted is false.
func Advance(link *Link, now time.Time) (counted, transitioned bool) {
	if link.Expired() {
		return false, false
	}

	link.Clicks++

	if IsExpired(link.Rule, link.Clicks, now) {
		link.Status = StatusExpired

		return true, true
	}

	return true, false
}
