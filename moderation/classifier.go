package moderation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMuteDuration applies when no keyword matches a reason.
const DefaultMuteDuration = 30 * time.Minute

// DefaultReason is used when a mute is issued without a reason.
const DefaultReason = "لا يوجد سبب محدد"

// MatchMode selects how reason keywords are matched.
type MatchMode string

const (
	// MatchToken matches a keyword only against whole words of the reason.
	MatchToken MatchMode = "token"
	// MatchSubstring matches a keyword anywhere in the reason, including inside longer words.
	MatchSubstring MatchMode = "substring"
)

func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchToken:
		return MatchToken, nil
	case MatchSubstring:
		return MatchSubstring, nil
	}
	return "", fmt.Errorf("unknown match mode %q", s)
}

// ReasonRule binds a keyword to a sanction length.
type ReasonRule struct {
	Keyword  string
	Duration time.Duration
}

// DefaultReasonRules is the stock reason table. Order matters: the first matching rule wins.
func DefaultReasonRules() []ReasonRule {
	return []ReasonRule{
		{Keyword: "سب", Duration: 30 * time.Minute},
		{Keyword: "شتائم", Duration: 30 * time.Minute},
		{Keyword: "اساءة", Duration: 60 * time.Minute},
		{Keyword: "استهزاء", Duration: 60 * time.Minute},
		{Keyword: "روابط", Duration: 120 * time.Minute},
		{Keyword: "اعلانات", Duration: 120 * time.Minute},
		{Keyword: "سبام", Duration: 45 * time.Minute},
		{Keyword: "تجاهل", Duration: 15 * time.Minute},
		{Keyword: "تحذيرات", Duration: 15 * time.Minute},
	}
}

// Classification is the outcome of classifying one reason.
type Classification struct {
	Duration time.Duration
	// Keyword is the matched table keyword, empty when the default applied.
	Keyword string
	Default bool
}

type compiledRule struct {
	rule   ReasonRule
	tokens []string
	norm   string
}

// Classifier maps free-text reasons to sanction lengths. It is immutable and safe for concurrent use.
type Classifier struct {
	rules    []compiledRule
	mode     MatchMode
	fallback time.Duration
}

// NewClassifier compiles a reason table. A zero fallback means DefaultMuteDuration.
func NewClassifier(rules []ReasonRule, mode MatchMode, fallback time.Duration) (*Classifier, error) {
	if fallback == 0 {
		fallback = DefaultMuteDuration
	}
	if fallback < 0 {
		return nil, fmt.Errorf("default duration must be positive, got %s", fallback)
	}
	if mode == "" {
		mode = MatchToken
	}

	c := &Classifier{mode: mode, fallback: fallback}
	for _, r := range rules {
		if r.Duration <= 0 {
			return nil, fmt.Errorf("reason %q: duration must be positive", r.Keyword)
		}
		tokens := tokenize(r.Keyword)
		if len(tokens) == 0 {
			return nil, fmt.Errorf("reason keyword %q has no letters or digits", r.Keyword)
		}
		c.rules = append(c.rules, compiledRule{
			rule:   r,
			tokens: tokens,
			norm:   strings.Join(tokens, " "),
		})
	}
	return c, nil
}

func (c *Classifier) Default() time.Duration {
	return c.fallback
}

func (c *Classifier) Mode() MatchMode {
	return c.mode
}

// Rules returns the table in match order.
func (c *Classifier) Rules() []ReasonRule {
	out := make([]ReasonRule, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.rule
	}
	return out
}

// Classify returns the duration bound to the first rule matching reason, or the default.
func (c *Classifier) Classify(reason string) Classification {
	tokens := tokenize(reason)
	if len(tokens) > 0 {
		joined := strings.Join(tokens, " ")
		for _, r := range c.rules {
			if c.matches(r, tokens, joined) {
				return Classification{Duration: r.rule.Duration, Keyword: r.rule.Keyword}
			}
		}
	}
	return Classification{Duration: c.fallback, Default: true}
}

func (c *Classifier) matches(r compiledRule, tokens []string, joined string) bool {
	if c.mode == MatchSubstring {
		return strings.Contains(joined, r.norm)
	}
	return containsRun(tokens, r.tokens)
}

// containsRun reports whether needle appears as a contiguous run in haystack.
func containsRun(haystack, needle []string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

var nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)

// tokenize lower-cases text, strips combining marks (Arabic diacritics, hamza
// seats) and splits it on anything that is not a letter or digit.
func tokenize(text string) []string {
	// transformers keep state, so the chain is built per call
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(normFunc, strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}
	return strings.Fields(nonTokenChars.ReplaceAllString(folded, " "))
}
