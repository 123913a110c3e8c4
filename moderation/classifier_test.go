package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultClassifier(t *testing.T, mode MatchMode) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultReasonRules(), mode, 0)
	require.NoError(t, err)
	return c
}

func TestClassifyDefaultTable(t *testing.T) {
	c := newDefaultClassifier(t, MatchToken)

	tests := []struct {
		reason  string
		want    time.Duration
		keyword string
	}{
		{"سب", 30 * time.Minute, "سب"},
		{"سب/شتائم", 30 * time.Minute, "سب"},
		{"إساءة/استهزاء", 60 * time.Minute, "اساءة"},
		{"روابط/إعلانات", 120 * time.Minute, "روابط"},
		{"سبام", 45 * time.Minute, "سبام"},
		{"تجاهل التحذيرات", 15 * time.Minute, "تجاهل"},
		{"نشر روابط في الشات", 120 * time.Minute, "روابط"},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			got := c.Classify(tt.reason)
			assert.Equal(t, tt.want, got.Duration)
			assert.Equal(t, tt.keyword, got.Keyword)
			assert.False(t, got.Default)
		})
	}
}

func TestClassifyFallsBackToDefault(t *testing.T) {
	c := newDefaultClassifier(t, MatchToken)

	for _, reason := range []string{"", "   ", "unknown-xyz", DefaultReason} {
		got := c.Classify(reason)
		assert.Equal(t, DefaultMuteDuration, got.Duration, reason)
		assert.True(t, got.Default, reason)
		assert.Empty(t, got.Keyword, reason)
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	c, err := NewClassifier([]ReasonRule{
		{Keyword: "spam", Duration: 45 * time.Minute},
		{Keyword: "links", Duration: 120 * time.Minute},
	}, MatchToken, 0)
	require.NoError(t, err)

	got := c.Classify("links and spam")
	assert.Equal(t, "spam", got.Keyword)
	assert.Equal(t, 45*time.Minute, got.Duration)
}

func TestClassifyTokenVersusSubstring(t *testing.T) {
	token := newDefaultClassifier(t, MatchToken)
	substring := newDefaultClassifier(t, MatchSubstring)

	// "سبام" contains "سب", which is listed first
	assert.Equal(t, 45*time.Minute, token.Classify("سبام").Duration)
	assert.Equal(t, 30*time.Minute, substring.Classify("سبام").Duration)

	rules := []ReasonRule{{Keyword: "spam", Duration: 45 * time.Minute}}
	tc, err := NewClassifier(rules, MatchToken, 0)
	require.NoError(t, err)
	sc, err := NewClassifier(rules, MatchSubstring, 0)
	require.NoError(t, err)

	assert.False(t, tc.Classify("anti-spam").Default)
	assert.True(t, tc.Classify("spammer").Default)
	assert.False(t, sc.Classify("spammer").Default)
	assert.False(t, sc.Classify("SPAM!!").Default)
}

func TestClassifyMultiWordKeyword(t *testing.T) {
	c, err := NewClassifier([]ReasonRule{
		{Keyword: "ignoring warnings", Duration: 15 * time.Minute},
	}, MatchToken, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, c.Classify("kept IGNORING warnings again").Duration)
	assert.Equal(t, time.Hour, c.Classify("warnings ignoring").Duration)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := newDefaultClassifier(t, MatchToken)
	first := c.Classify("اعلانات وروابط")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify("اعلانات وروابط"))
	}
}

func TestNewClassifierValidation(t *testing.T) {
	_, err := NewClassifier([]ReasonRule{{Keyword: "spam", Duration: 0}}, MatchToken, 0)
	assert.Error(t, err)

	_, err = NewClassifier([]ReasonRule{{Keyword: "!!!", Duration: time.Minute}}, MatchToken, 0)
	assert.Error(t, err)

	_, err = NewClassifier(nil, MatchToken, -time.Minute)
	assert.Error(t, err)
}

func TestParseMatchMode(t *testing.T) {
	m, err := ParseMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, MatchToken, m)

	m, err = ParseMatchMode("Substring")
	require.NoError(t, err)
	assert.Equal(t, MatchSubstring, m)

	_, err = ParseMatchMode("regex")
	assert.Error(t, err)
}
