package enrichment

import (
	"fmt"
	"sort"
	"strings"
)

// Tier is one verbosity level. Higher tiers request longer responses and a
// longer section checklist from the model.
type Tier struct {
	Name      string
	WordCount int
	Sections  []string
}

var tiers = []struct {
	maxFields int
	tier      Tier
}{
	{8, Tier{Name: "minimal", WordCount: 250, Sections: []string{
		"Soul Purpose & Life Path",
		"Spiritual Practices",
	}}},
	{16, Tier{Name: "basic", WordCount: 400, Sections: []string{
		"Soul Purpose & Life Path",
		"Natural Gifts & Strengths",
		"Spiritual Practices",
	}}},
	{20, Tier{Name: "detailed", WordCount: 600, Sections: []string{
		"Soul Purpose & Life Path",
		"Natural Gifts & Strengths",
		"Growth Edges & Karmic Lessons",
		"Spiritual Practices",
	}}},
	{24, Tier{Name: "comprehensive", WordCount: 800, Sections: []string{
		"Soul Purpose & Life Path",
		"Natural Gifts & Strengths",
		"Growth Edges & Karmic Lessons",
		"Relationship Blueprint",
		"Spiritual Practices",
	}}},
}

var masterTier = Tier{Name: "master", WordCount: 1200, Sections: []string{
	"Soul Purpose & Life Path",
	"Natural Gifts & Strengths",
	"Growth Edges & Karmic Lessons",
	"Relationship Blueprint",
	"Energetic Constitution",
	"Spiritual Practices",
}}

// TierForFields selects the verbosity tier for a completed-field count.
// The mapping is monotonic: more fields never selects a smaller tier.
func TierForFields(completed int) Tier {
	for _, t := range tiers {
		if completed < t.maxFields {
			return t.tier
		}
	}
	return masterTier
}

// SystemPrompt returns the fixed role instruction shared by all providers.
func SystemPrompt() string {
	return `You are a Master Spiritual Advisor with deep expertise in:
- Chaldean & Pythagorean Numerology
- Sidereal & Tropical Astrology
- Ayurvedic Dosha Theory
- Human Design System
- Tantric Energy Dynamics
- Karmic Patterns & Soul Evolution

Your communication style is insightful yet accessible, specific and
evidence-based, empowering and non-judgmental.

Format all responses in clean markdown with clear section headers (##) and
bullet points for key insights. No emojis unless specifically requested.
Always ground your insights in the specific data provided. Reference exact
numbers, placements, and configurations.`
}

// EnrichmentPrompt renders the profile-analysis prompt for one context.
// The output is never empty, even when every map in the context is empty.
func EnrichmentPrompt(ctx Context) string {
	tier := TierForFields(ctx.CompletedFields)

	var b strings.Builder
	b.WriteString("## Profile Analysis Request\n\n")
	fmt.Fprintf(&b, "**Data Quality:** %d/%d fields (%s)\n\n", ctx.CompletedFields, ctx.TotalFields, accuracyNote(ctx.AccuracyLevel))
	b.WriteString("### Available Data\n\n")
	b.WriteString("**Numerology Profile:**\n")
	b.WriteString(FormatData(ctx.Numerology))
	b.WriteString("\n\n**Astrological Chart:**\n")
	b.WriteString(FormatData(ctx.Astrology))
	b.WriteString("\n\n**Energy & Constitution:**\n")
	b.WriteString(FormatData(ctx.EnergyProfile))
	b.WriteString("\n\n**Personal Context:**\n")
	b.WriteString(FormatData(ctx.PersonalDetails))
	b.WriteString("\n\n### Analysis Framework\n\n")
	fmt.Fprintf(&b, "Provide a spiritual analysis of approximately %d words covering these sections, in this order, using these exact markdown headers:\n\n", tier.WordCount)
	for _, s := range tier.Sections {
		fmt.Fprintf(&b, "## %s\n", s)
	}
	b.WriteString("\nMake specific references to their numerology numbers, astrological placements, and personal details. ")
	fmt.Fprintf(&b, "Keep the full response near the %d word target.\n", tier.WordCount)
	return b.String()
}

// DailyInsightPrompt renders the daily-guidance prompt. profileSummary is a short
// pre-rendered description of the user; dateStr is the human-readable date.
func DailyInsightPrompt(profileSummary, dateStr string, personalYear, personalMonth, personalDay int) string {
	var b strings.Builder
	b.WriteString("## Daily Spiritual Guidance\n\n")
	fmt.Fprintf(&b, "**Date:** %s\n", dateStr)
	fmt.Fprintf(&b, "**Personal Year:** %d\n**Personal Month:** %d\n**Personal Day:** %d\n\n", personalYear, personalMonth, personalDay)
	b.WriteString("### Profile Summary\n")
	if strings.TrimSpace(profileSummary) == "" {
		profileSummary = "*No data available*"
	}
	b.WriteString(profileSummary)
	b.WriteString("\n\n### Output Format\n\n")
	b.WriteString(`## Today's Energy: [One-line theme]

[2-3 sentence overview of the day's spiritual energy]

## Key Opportunities
- [Opportunity 1]
- [Opportunity 2]
- [Opportunity 3]

## Challenges to Navigate
- [Challenge 1 with solution]
- [Challenge 2 with solution]

## Optimal Times
- **Morning (6-10am):** [Best for...]
- **Midday (11am-2pm):** [Best for...]
- **Afternoon (3-6pm):** [Best for...]
- **Evening (7-10pm):** [Best for...]

## Today's Practice
**Meditation Focus:** [Specific practice]
**Affirmation:** "[Personalized affirmation]"
**Evening Reflection:** [Journal prompt]

Keep insights concise, actionable, and specific to their numerology and chart.
`)
	return b.String()
}

// CompatibilityPrompt renders the two-profile relationship analysis prompt.
func CompatibilityPrompt(profileA, profileB string, scores map[string]float64) string {
	var b strings.Builder
	b.WriteString("## Relationship Compatibility Analysis\n\n")
	b.WriteString("### Profile A\n")
	b.WriteString(orPlaceholder(profileA))
	b.WriteString("\n\n### Profile B\n")
	b.WriteString(orPlaceholder(profileB))
	b.WriteString("\n\n### Calculated Compatibility Scores\n")
	if len(scores) == 0 {
		b.WriteString("*No data available*\n")
	} else {
		for _, k := range sortedScoreKeys(scores) {
			fmt.Fprintf(&b, "- %s: %.1f%%\n", k, scores[k])
		}
	}
	b.WriteString(`
### Output Format

## Soul Connection: [Relationship archetype]

## Strengths
- [Strength with chart evidence]

## Challenges
- [Challenge]: [Solution]

## Recommendations
- [Practice to do together]

Ground all insights in specific numerology numbers, astrological aspects, and profile attributes.
`)
	return b.String()
}

// FollowUpPrompt renders a continuation prompt from the most recent history
// entries plus the new question. Only the last three entries are replayed.
func FollowUpPrompt(history []string, question, profileContext string) string {
	if len(history) > 3 {
		history = history[len(history)-3:]
	}
	var b strings.Builder
	b.WriteString("## Continuing Conversation\n\n")
	b.WriteString("**Profile Context:**\n")
	b.WriteString(orPlaceholder(profileContext))
	b.WriteString("\n\n**Previous Discussion:**\n")
	if len(history) == 0 {
		b.WriteString("*No data available*")
	} else {
		b.WriteString(strings.Join(history, "\n\n---\n\n"))
	}
	b.WriteString("\n\n**New Question:**\n")
	b.WriteString(question)
	b.WriteString("\n\nReference previous insights when relevant, maintain continuity with the prior analysis, and keep the response focused and concise (2-3 paragraphs).\n")
	return b.String()
}

// FormatData renders a context map as a markdown bullet list. Keys are kept
// verbatim so downstream checks can find them in the rendered prompt.
func FormatData(data map[string]string) string {
	if len(data) == 0 {
		return "*No data available*"
	}
	lines := make([]string, 0, len(data))
	for _, k := range SortedKeys(data) {
		lines = append(lines, fmt.Sprintf("- **%s:** %s", k, data[k]))
	}
	return strings.Join(lines, "\n")
}

func accuracyNote(level string) string {
	switch level {
	case AccuracyMaximum, AccuracyExcellent:
		return "comprehensive data available for deep analysis"
	case AccuracyGood:
		return "solid data foundation for meaningful insights"
	case AccuracyBasic:
		return "essential data present for foundational insights"
	default:
		return "limited data - focus on available information"
	}
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return "*No data available*"
	}
	return s
}

func sortedScoreKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
