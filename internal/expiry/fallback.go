package expiry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/serroba/ghostlink/internal/shortener"
)

const (
	defaultClicks  = 3
	defaultMinutes = 1
	defaultHours   = 24
	defaultDays    = 1
	defaultWindow  = 7 * 24 * time.Hour

	// Upper bounds keep now+N inside time.Duration; larger values count as absent.
	maxClicks  = 1 << 40
	maxMinutes = 100 * 365 * 24 * 60
	maxHours   = 100 * 365 * 24
	maxDays    = 100 * 365
)

var firstInteger = regexp.MustCompile(`\d+`)

// Fallback turns text into a rule by keyword matching. Branches are tried in
// order and the first match wins, so a phrase mentioning clicks is always a
// click rule even if it also names a deadline. It never returns a hybrid rule.
func Fallback(text string, now time.Time) shortener.ExpiryRule {
	now = now.UTC()
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "click"):
		n := leadingNumber(lower, defaultClicks, maxClicks)

		return shortener.ClickRule(n, fmt.Sprintf("Expires after %d %s", n, plural(n, "click")), text)

	case strings.Contains(lower, "min"):
		n := leadingNumber(lower, defaultMinutes, maxMinutes)

		return shortener.TimeRule(now.Add(time.Duration(n)*time.Minute),
			fmt.Sprintf("Expires in %d %s", n, plural(n, "minute")), text)

	case strings.Contains(lower, "hour"):
		n := leadingNumber(lower, defaultHours, maxHours)

		return shortener.TimeRule(now.Add(time.Duration(n)*time.Hour),
			fmt.Sprintf("Expires in %d %s", n, plural(n, "hour")), text)

	case strings.Contains(lower, "day"):
		n := leadingNumber(lower, defaultDays, maxDays)

		return shortener.TimeRule(now.AddDate(0, 0, int(n)),
			fmt.Sprintf("Expires in %d %s", n, plural(n, "day")), text)

	case strings.Contains(lower, "tomorrow"):
		y, m, d := now.AddDate(0, 0, 1).Date()

		return shortener.TimeRule(time.Date(y, m, d, 23, 59, 59, 0, time.UTC),
			"Expires tomorrow at 11:59 PM", text)

	default:
		return shortener.TimeRule(now.Add(defaultWindow), "Expires in 7 days", text)
	}
}

// leadingNumber returns the first integer in s, or def when there is none or
// it is outside 1..upper.
func leadingNumber(s string, def, upper int64) int64 {
	match := firstInteger.FindString(s)
	if match == "" {
		return def
	}

	n, err := strconv.ParseInt(match, 10, 64)
	if err != nil || n <= 0 || n > upper {
		return def
	}

	return n
}

func plural(n int64, word string) string {
	if n == 1 {
		return word
	}

	return word + "s"
}
