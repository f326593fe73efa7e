package shortener_test

import (
	"testing"
	"time"

	"github.com/serroba/ghostlink/internal/shortener"
	"github.com/stretchr/testify/assert"
)

func TestExpiryRule_Validate(t *testing.T) {
	t.Parallel()

	limit := int64(5)
	zero := int64(0)
	deadline := now.Add(time.Hour)

	tests := []struct {
		name    string
		rule    shortener.ExpiryRule
		wantErr bool
	}{
		{"clicks", shortener.ClickRule(5, "", ""), false},
		{"time", shortener.TimeRule(deadline, "", ""), false},
		{"hybrid", shortener.HybridRule(5, deadline, "", ""), false},
		{"zero click limit", shortener.ClickRule(0, "", ""), true},
		{"negative click limit", shortener.ClickRule(-2, "", ""), true},
		{"clicks without limit", shortener.ExpiryRule{Type: shortener.RuleClicks}, true},
		{"clicks with deadline", shortener.ExpiryRule{Type: shortener.RuleClicks, ClickLimit: &limit, TimeLimit: &deadline}, true},
		{"time without deadline", shortener.ExpiryRule{Type: shortener.RuleTime}, true},
		{"time with click limit", shortener.ExpiryRule{Type: shortener.RuleTime, ClickLimit: &limit, TimeLimit: &deadline}, true},
		{"hybrid missing deadline", shortener.ExpiryRule{Type: shortener.RuleHybrid, ClickLimit: &limit}, true},
		{"hybrid zero limit", shortener.ExpiryRule{Type: shortener.RuleHybrid, ClickLimit: &zero, TimeLimit: &deadline}, true},
		{"unknown type", shortener.ExpiryRule{Type: "forever"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.rule.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, shortener.ErrInvalidRule)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTimeRule_NormalizesToUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+2", 2*60*60)
	rule := shortener.TimeRule(time.Date(2026, 3, 1, 14, 0, 0, 0, loc), "", "")

	assert.Equal(t, time.UTC, rule.TimeLimit.Location())
	assert.True(t, now.Equal(*rule.TimeLimit))
}
