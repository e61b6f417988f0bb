package enrichment

import (
	"strings"
	"testing"
)

func TestTierForFieldsMonotonic(t *testing.T) {
	prev := 0
	for fields := 0; fields <= 30; fields++ {
		tier := TierForFields(fields)
		if tier.WordCount < prev {
			t.Fatalf("word count decreased at %d fields: %d < %d", fields, tier.WordCount, prev)
		}
		prev = tier.WordCount
	}
}

func TestTierForFieldsBreakpoints(t *testing.T) {
	cases := []struct {
		fields int
		name   string
		words  int
	}{
		{0, "minimal", 250},
		{5, "minimal", 250},
		{7, "minimal", 250},
		{8, "basic", 400},
		{15, "basic", 400},
		{16, "detailed", 600},
		{19, "detailed", 600},
		{20, "comprehensive", 800},
		{23, "comprehensive", 800},
		{24, "master", 1200},
		{30, "master", 1200},
	}
	for _, tc := range cases {
		tier := TierForFields(tc.fields)
		if tier.Name != tc.name || tier.WordCount != tc.words {
			t.Errorf("TierForFields(%d) = %s/%d, want %s/%d", tc.fields, tier.Name, tier.WordCount, tc.name, tc.words)
		}
	}
}

func TestEnrichmentPromptIncludesProfileValues(t *testing.T) {
	ec := NewContext(5, 24,
		map[string]string{"lifePath": "7", "expression": "3"},
		map[string]string{"sunSign": "Pisces"},
		nil, nil)
	prompt := EnrichmentPrompt(ec)

	for _, want := range []string{"lifePath", "7", "expression", "3", "sunSign", "Pisces"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.Contains(prompt, "250 word") {
		t.Error("5 completed fields should request the 250-word tier")
	}
	if !strings.Contains(prompt, "5/24 fields") {
		t.Error("prompt missing data quality line")
	}
}

func TestEnrichmentPromptEmptyContext(t *testing.T) {
	prompt := EnrichmentPrompt(NewContext(0, 24, nil, nil, nil, nil))
	if prompt == "" {
		t.Fatal("prompt must never be empty")
	}
	if !strings.Contains(prompt, "*No data available*") {
		t.Error("empty sections should render the placeholder")
	}
}

func TestEnrichmentPromptSectionHeaders(t *testing.T) {
	prompt := EnrichmentPrompt(NewContext(25, 30, nil, nil, nil, nil))
	for _, section := range masterTier.Sections {
		if !strings.Contains(prompt, "## "+section) {
			t.Errorf("master prompt missing section header %q", section)
		}
	}
}

func TestFormatDataKeepsKeysVerbatim(t *testing.T) {
	out := FormatData(map[string]string{"lifePath": "7"})
	if out != "- **lifePath:** 7" {
		t.Fatalf("FormatData = %q", out)
	}
}

func TestFormatDataDeterministic(t *testing.T) {
	data := map[string]string{"b": "2", "a": "1", "c": "3"}
	first := FormatData(data)
	for i := 0; i < 20; i++ {
		if FormatData(data) != first {
			t.Fatal("FormatData output is not deterministic")
		}
	}
	if !strings.HasPrefix(first, "- **a:**") {
		t.Fatalf("keys not sorted: %q", first)
	}
}

func TestDailyInsightPrompt(t *testing.T) {
	prompt := DailyInsightPrompt("Life path 7, Pisces sun", "Monday, March 9, 2026", 3, 5, 8)
	for _, want := range []string{"Monday, March 9, 2026", "Personal Year:** 3", "Personal Month:** 5", "Personal Day:** 8", "Today's Energy", "Optimal Times"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("daily prompt missing %q", want)
		}
	}
}

func TestFollowUpPromptReplaysLastThree(t *testing.T) {
	history := []string{"user: q1", "assistant: a1", "user: q2", "assistant: a2", "user: q3"}
	prompt := FollowUpPrompt(history, "What about my career?", "Life path 7")

	if strings.Contains(prompt, "q1") {
		t.Error("oldest entry should be dropped")
	}
	for _, want := range []string{"q2", "a2", "q3", "What about my career?", "Life path 7"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("follow-up prompt missing %q", want)
		}
	}
}

func TestCompatibilityPromptScores(t *testing.T) {
	prompt := CompatibilityPrompt("profile a", "profile b", map[string]float64{"overall": 82.5, "emotional": 74.0})
	if !strings.Contains(prompt, "- emotional: 74.0%") || !strings.Contains(prompt, "- overall: 82.5%") {
		t.Fatalf("scores not rendered: %s", prompt)
	}
}

func TestSystemPromptStable(t *testing.T) {
	if SystemPrompt() != SystemPrompt() {
		t.Fatal("system prompt must be constant")
	}
	if !strings.Contains(SystemPrompt(), "Master Spiritual Advisor") {
		t.Fatal("unexpected system prompt")
	}
}
