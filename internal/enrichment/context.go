package enrichment

import "sort"

// Accuracy levels describe how much of a profile has been filled in.
// They gate the depth of insight we ask a model to produce.
const (
	AccuracyMinimal   = "MINIMAL"
	AccuracyBasic     = "BASIC"
	AccuracyGood      = "GOOD"
	AccuracyExcellent = "EXCELLENT"
	AccuracyMaximum   = "MAXIMUM"
)

// AccuracyForFields maps a completed-field count onto an accuracy level.
func AccuracyForFields(completed int) string {
	switch {
	case completed < 3:
		return AccuracyMinimal
	case completed < 8:
		return AccuracyBasic
	case completed < 16:
		return AccuracyGood
	case completed < 24:
		return AccuracyExcellent
	default:
		return AccuracyMaximum
	}
}

// Context is the immutable per-request snapshot of a user's profile data.
// Maps may be empty but are never nil after NewContext.
type Context struct {
	CompletedFields int
	TotalFields     int
	AccuracyLevel   string

	Numerology      map[string]string
	Astrology       map[string]string
	EnergyProfile   map[string]string
	PersonalDetails map[string]string
}

// NewContext builds a Context, deriving the accuracy level from the
// completed-field count and replacing nil maps with empty ones.
func NewContext(completed, total int, numerology, astrology, energy, personal map[string]string) Context {
	return Context{
		CompletedFields: completed,
		TotalFields:     total,
		AccuracyLevel:   AccuracyForFields(completed),
		Numerology:      orEmpty(numerology),
		Astrology:       orEmpty(astrology),
		EnergyProfile:   orEmpty(energy),
		PersonalDetails: orEmpty(personal),
	}
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// SortedKeys returns the map's keys in lexical order so rendered prompts
// are stable across runs.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Result is a provider's free-text answer plus its static confidence score.
type Result struct {
	Text       string
	Confidence float64
}
