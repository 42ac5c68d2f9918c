package router

import (
	"reflect"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name       string
		msg        string
		ctx        int64
		complexity Complexity
		tier       Tier
		tokens     int64
		requires   bool
	}{
		{
			name: "opening time question", msg: "What time does the Colosseum open?",
			complexity: Simple, tier: TierFast, tokens: 500, requires: false,
		},
		{
			name: "full redesign", msg: "Completely redesign the entire trip from scratch",
			complexity: Complex, tier: TierPowerful, tokens: 2000, requires: true,
		},
		{
			name: "swap activity", msg: "Can you swap the museum for something outdoors?",
			complexity: Medium, tier: TierStandard, tokens: 1000, requires: true,
		},
		{
			name: "no keywords", msg: "Tell me a story about Lisbon",
			complexity: Medium, tier: TierStandard, tokens: 1000, requires: true,
		},
		{
			name: "replan with context", msg: "Please replan day two", ctx: 3000,
			complexity: Complex, tier: TierPowerful, tokens: 3000 + 4*10, requires: true,
		},
		{
			name: "case insensitive", msg: "WHERE IS the Louvre",
			complexity: Simple, tier: TierFast, tokens: 500,
		},
		{
			name: "simple with large context", msg: "Weather in Rome tomorrow?", ctx: 900,
			complexity: Simple, tier: TierFast, tokens: 900 + 4*5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.msg, tt.ctx)
			if got.Complexity != tt.complexity {
				t.Errorf("Complexity = %s, want %s", got.Complexity, tt.complexity)
			}
			if got.RecommendedTier != tt.tier {
				t.Errorf("RecommendedTier = %s, want %s", got.RecommendedTier, tt.tier)
			}
			if got.EstimatedTokens != tt.tokens {
				t.Errorf("EstimatedTokens = %d, want %d", got.EstimatedTokens, tt.tokens)
			}
			if got.RequiresContext != tt.requires {
				t.Errorf("RequiresContext = %v, want %v", got.RequiresContext, tt.requires)
			}
		})
	}
}

func TestClassifyLongSimpleQuestionIsNotSimple(t *testing.T) {
	// 20+ words with a lookup keyword must not be treated as a quick lookup.
	msg := "what time does the museum open on sunday because we were hoping to go there " +
		"right after lunch with the kids and grandparents"
	if n := len(strings.Fields(msg)); n < simpleMaxWords {
		t.Fatalf("test message has %d words, want >= %d", n, simpleMaxWords)
	}
	got := NewClassifier().Classify(msg, 0)
	if got.Complexity == Simple {
		t.Fatalf("Complexity = simple for a %d-word message", len(strings.Fields(msg)))
	}
}

func TestClassifyPrecedence(t *testing.T) {
	c := NewClassifier()

	want := []string{"complex", "simple", "medium", "default"}
	if got := c.RuleOrder(); !reflect.DeepEqual(got, want) {
		t.Fatalf("RuleOrder() = %v, want %v", got, want)
	}

	// complex beats simple
	if got := c.Classify("How much would it cost to redesign the trip?", 0); got.Complexity != Complex {
		t.Errorf("complex+simple keywords = %s, want complex", got.Complexity)
	}
	// simple beats medium
	if got := c.Classify("Recommend a place, what time does it open?", 0); got.Complexity != Simple {
		t.Errorf("simple+medium keywords = %s, want simple", got.Complexity)
	}
	// complex beats medium
	if got := c.Classify("Add a day and rebuild the itinerary", 0); got.Complexity != Complex {
		t.Errorf("complex+medium keywords = %s, want complex", got.Complexity)
	}
}

func TestClassifyOrderIndependentOfDeclaration(t *testing.T) {
	c := newClassifier(mediumRule, simpleRule, complexRule)
	want := []string{"complex", "simple", "medium", "default"}
	if got := c.RuleOrder(); !reflect.DeepEqual(got, want) {
		t.Fatalf("RuleOrder() = %v, want %v", got, want)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier()
	msg := "Suggest a restaurant near the hotel"
	first := c.Classify(msg, 120)
	for range 50 {
		if got := c.Classify(msg, 120); got != first {
			t.Fatalf("Classify changed result: %+v vs %+v", got, first)
		}
	}
}

func TestClassifyNegativeContext(t *testing.T) {
	got := NewClassifier().Classify("Remove the boat tour", -500)
	if got.EstimatedTokens != 1000 {
		t.Fatalf("EstimatedTokens = %d, want 1000", got.EstimatedTokens)
	}
}

func TestClassifyWordBoundaries(t *testing.T) {
	// "address" must not trigger the "add" medium keyword, and is itself simple.
	got := NewClassifier().Classify("hotel address please", 0)
	if got.Complexity != Simple {
		t.Fatalf("Complexity = %s, want simple", got.Complexity)
	}
	// "openly" is not "open".
	got = NewClassifier().Classify("talk openly about Kyoto", 0)
	if got.Rule != "default" {
		t.Fatalf("Rule = %s, want default", got.Rule)
	}
}

func TestClassifyInflectedComplexIntents(t *testing.T) {
	c := NewClassifier()
	for _, msg := range []string{
		"I want the whole thing redesigned",
		"We are redesigning the trip, help",
		"Can you keep replanning day two",
		"The plan needs to be rebuilt",
		"Rebuilding Tuesday around the concert",
		"Let's start over with the Italy leg",
		"Redesigns welcome, what time is checkout?",
	} {
		got := c.Classify(msg, 0)
		if got.RecommendedTier != TierPowerful || got.Rule != "complex" {
			t.Errorf("Classify(%q) = %s/%s rule=%s, want complex/powerful", msg, got.Complexity, got.RecommendedTier, got.Rule)
		}
	}
}

func TestClassifyLookups(t *testing.T) {
	c := NewClassifier()
	for _, msg := range []string{
		"Is the Louvre open on Mondays?",
		"Are they still open after 9?",
		"How much is a metro ticket?",
		"What's the entrance fee for the Alhambra?",
		"Will it rain in Kyoto tomorrow?",
		"What are the opening hours of the Prado?",
		"Where is the nearest pharmacy?",
		"Euro to yen exchange rate",
	} {
		if got := c.Classify(msg, 0); got.RecommendedTier != TierFast {
			t.Errorf("Classify(%q) = %s rule=%s, want fast", msg, got.RecommendedTier, got.Rule)
		}
	}
}

func TestClassifyEditsMentioningLookupWords(t *testing.T) {
	c := NewClassifier()
	for _, msg := range []string{
		"Add a cafe close to the hotel",
		"Swap dinner for somewhere open late",
		"Replace the tour with something that does not cost much",
		"Remove whatever is not open on Sunday",
		"Suggest a rain plan for Thursday",
		"Change the dinner, the fee was too high",
	} {
		got := c.Classify(msg, 0)
		if got.Complexity != Medium || got.RecommendedTier != TierStandard || got.Rule != "medium" {
			t.Errorf("Classify(%q) = %s/%s rule=%s, want medium/standard via medium", msg, got.Complexity, got.RecommendedTier, got.Rule)
		}
	}
}

func BenchmarkClassify(b *testing.B) {
	c := NewClassifier()
	for b.Loop() {
		c.Classify("Can you suggest an alternative to the afternoon museum visit?", 1500)
	}
}
