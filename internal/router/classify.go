package router

import (
	"regexp"
	"sort"
	"strings"
)

// simpleMaxWords bounds the length of a message that can still count as a
// simple lookup.
const simpleMaxWords = 20

// rule is one classification rule. Rules are evaluated by descending
// Priority and the first match wins.
type rule struct {
	Name     string
	Priority int
	Pattern  *regexp.Regexp
	// MaxWords, when non-zero, requires fewer words than this.
	MaxWords   int
	Complexity Complexity
	Tier       Tier
	Requires   bool
	// Tokens estimates the token budget from context size and word count.
	Tokens func(contextTokens, words int64) int64
}

func (r rule) matches(msg string, words int) bool {
	if r.MaxWords > 0 && words >= r.MaxWords {
		return false
	}
	return r.Pattern.MatchString(msg)
}

func words(pattern ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(pattern, "|") + `)\b`)
}

func estimate(floor, perWord int64) func(int64, int64) int64 {
	return func(ctx, wc int64) int64 {
		return max(floor, ctx+wc*perWord)
	}
}

var (
	complexRule = rule{
		Name:     "complex",
		Priority: 300,
		Pattern: words(
			`redesign\w*`, `re-?plann?\w*`, `rebuil(?:d|ds|t|ding)`, `re-?(?:do|does|did|done|doing)`,
			`from scratch`, `start(?:ing)? over`,
			`(?:entire|whole|full|complete) (?:trip|itinerary|plan|schedule|week)`,
			`overhaul\w*`, `rethink\w*`, `rethought`,
		),
		Complexity: Complex,
		Tier:       TierPowerful,
		Requires:   true,
		Tokens:     estimate(2000, 10),
	}
	simpleRule = rule{
		Name:     "simple",
		Priority: 200,
		Pattern: words(
			// time and hours
			`what time`, `when (?:does|do|is|are)`, `(?:opening|business|visiting) hours`,
			`what are the hours`, `hours of`,
			`(?:is|are) (?:it|they|the(?: \w+){1,3}) (?:still )?(?:open|closed)`,
			// price
			`how much (?:is|are|does|do|would|will|for)`, `price of`, `prices? for`,
			`what(?:'s| is) the (?:price|cost|fee)`, `(?:entrance|entry|admission|ticket) (?:fees?|prices?|costs?)`,
			// place
			`address`, `where (?:is|are)`, `located`,
			// weather
			`weather`, `temperature`, `forecast`, `(?:will|is) it (?:going to )?rain\w*`,
			// money
			`currency`, `exchange rate`,
		),
		MaxWords:   simpleMaxWords,
		Complexity: Simple,
		Tier:       TierFast,
		Requires:   false,
		Tokens:     estimate(500, 5),
	}
	mediumRule = rule{
		Name:     "medium",
		Priority: 100,
		Pattern: words(
			`suggest`, `recommend`, `replace`, `swap`, `add`, `remove`, `change`,
			`move`, `reschedule`, `alternative`, `instead`, `optimi[sz]e`,
		),
		Complexity: Medium,
		Tier:       TierStandard,
		Requires:   true,
		Tokens:     estimate(1000, 8),
	}
	defaultRule = rule{
		Name:       "default",
		Complexity: Medium,
		Tier:       TierStandard,
		Requires:   true,
		Tokens:     estimate(1000, 8),
	}
)

// Classifier maps a message to a Classification with an ordered rule set.
// It is safe for concurrent use.
type Classifier struct {
	rules    []rule
	fallback rule
}

// NewClassifier returns the stock classifier.
func NewClassifier() *Classifier {
	return newClassifier(complexRule, simpleRule, mediumRule)
}

func newClassifier(rules ...rule) *Classifier {
	sorted := append([]rule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return &Classifier{rules: sorted, fallback: defaultRule}
}

// Classify is deterministic and never fails. Negative context sizes count as zero.
func (c *Classifier) Classify(message string, contextTokens int64) Classification {
	if contextTokens < 0 {
		contextTokens = 0
	}
	wc := len(strings.Fields(message))

	r := c.fallback
	for _, candidate := range c.rules {
		if candidate.matches(message, wc) {
			r = candidate
			break
		}
	}

	return Classification{
		Complexity:      r.Complexity,
		RecommendedTier: r.Tier,
		EstimatedTokens: r.Tokens(contextTokens, int64(wc)),
		RequiresContext: r.Requires,
		Rule:            r.Name,
	}
}

// RuleOrder returns the rule names in evaluation order, default last.
func (c *Classifier) RuleOrder() []string {
	names := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		names = append(names, r.Name)
	}
	return append(names, c.fallback.Name)
}
