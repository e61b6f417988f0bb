package insight

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	numberedRe = regexp.MustCompile(`^\d+\.\s+`)
	durationRe = regexp.MustCompile(`\d+\s*(minutes?|mins?|hours?|hrs?)`)
)

const (
	maxKeyPoints     = 10
	maxPractices     = 5
	maxOpportunities = 5
	maxChallenges    = 3
)

// ParseDailyInsight assembles a DailyInsight from one model response.
// Any section the text is missing falls back to its documented default.
func ParseDailyInsight(text, profileID string, date time.Time, personalYear, personalMonth, personalDay int) DailyInsight {
	sections := extractSections(text)

	return DailyInsight{
		ProfileID:     profileID,
		Date:          date,
		PersonalYear:  personalYear,
		PersonalMonth: personalMonth,
		PersonalDay:   personalDay,
		Theme:         extractTheme(text, sections),
		Overview:      extractOverview(text, sections),
		Opportunities: extractOpportunities(sections),
		Challenges:    extractChallenges(sections),
		OptimalTimes:  extractOptimalTimes(sections),
		Practice:      extractPractice(sections),
		EnergyFocus:   extractEnergyFocus(sections),
		Transits:      extractTransits(sections),
	}
}

// ParseCompatibility pulls the relationship dimensions out of a response.
func ParseCompatibility(text string) Compatibility {
	sections := extractSections(text)
	return Compatibility{
		Strengths:       ExtractBulletPoints(firstSection(sections, "strengths", "what works")),
		Challenges:      ExtractBulletPoints(firstSection(sections, "growth edges", "challenges")),
		Recommendations: ExtractBulletPoints(firstSection(sections, "recommendations", "advice")),
		SoulConnection:  ExtractBulletPoints(firstSection(sections, "soul connection")),
	}
}

// ExtractKeyPoints pulls the most salient lines from any response: bullets,
// numbered items, and sentences carrying key-indicator words.
func ExtractKeyPoints(text string) []string {
	points := ExtractBulletPoints(text)
	points = append(points, ExtractNumberedPoints(text)...)

	indicators := []string{"importantly", "key", "essential", "critical", "must"}
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, ind := range indicators {
			if strings.Contains(lower, ind) {
				cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(line), "-"), "*"))
				if len(cleaned) > 20 {
					points = append(points, cleaned)
				}
				break
			}
		}
	}
	return dedupe(points, maxKeyPoints)
}

// ExtractAffirmations finds affirmation-style lines in text.
func ExtractAffirmations(text string) []string {
	markers := []string{"affirmation:", "mantra:", "repeat:", `"i am`, `"i have`, `"i choose`}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		matched := false
		for _, m := range markers {
			if strings.Contains(lower, m) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		aff := line
		if idx := strings.Index(line, ":"); idx >= 0 {
			aff = line[idx+1:]
		}
		aff = strings.TrimSpace(strings.Trim(strings.TrimSpace(aff), "*"))
		aff = strings.Trim(aff, `"`)
		if len(aff) > 10 {
			out = append(out, aff)
		}
	}
	return out
}

// ExtractPractices builds practice recommendations from the practices or
// recommendations section of a response.
func ExtractPractices(text string) []Practice {
	sections := extractSections(text)
	section := firstSection(sections, "spiritual practices", "practices", "recommendations")
	var out []Practice
	for _, point := range ExtractBulletPoints(section) {
		name, desc, ok := strings.Cut(point, ":")
		p := Practice{
			Duration:    extractDuration(point),
			OptimalTime: inferOptimalTime(point),
		}
		if ok {
			p.Name = strings.TrimSpace(name)
			p.Description = strings.TrimSpace(desc)
		} else {
			p.Name = takeRunes(point, 50)
			p.Description = point
			p.OptimalTime = PeriodMorning
		}
		out = append(out, p)
		if len(out) == maxPractices {
			break
		}
	}
	return out
}

// ExtractWarnings collects caution-flavored lines.
func ExtractWarnings(text string) []string {
	markers := []string{"warning", "caution", "avoid", "be careful", "watch out"}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, m := range markers {
			if strings.Contains(lower, m) {
				cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(line), "-"), "*"))
				if cleaned != "" {
					out = append(out, cleaned)
				}
				break
			}
		}
	}
	return out
}

// ExtractBulletPoints returns the text of every `-`, `*`, or `•` line.
func ExtractBulletPoints(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "•") {
			point := strings.TrimSpace(strings.TrimLeft(trimmed, "-*•"))
			if point != "" {
				out = append(out, point)
			}
		}
	}
	return out
}

// ExtractNumberedPoints returns the text of every "N. item" line.
func ExtractNumberedPoints(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if numberedRe.MatchString(trimmed) {
			point := numberedRe.ReplaceAllString(trimmed, "")
			if point != "" {
				out = append(out, point)
			}
		}
	}
	return out
}

// extractSections splits markdown-ish text into a lowercased-heading map.
// Lines starting with "##" or wrapped in "**" open a new section; text
// before the first heading lands under "overview".
func extractSections(text string) map[string]string {
	sections := make(map[string]string)
	current := "overview"
	var content strings.Builder

	flush := func() {
		if content.Len() > 0 {
			sections[strings.ToLower(current)] = strings.TrimSpace(content.String())
			content.Reset()
		}
	}

	for _, line := range strings.Split(text, "\n") {
		isHeading := strings.HasPrefix(line, "##") ||
			(strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") && len(line) > 4)
		if isHeading {
			flush()
			current = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(line, "##"), "**"), "**"))
			continue
		}
		content.WriteString(line)
		content.WriteString("\n")
	}
	flush()
	return sections
}

// firstSection prefers an exact heading match, then falls back to a prefix
// match so "soul connection: twin flame" still resolves "soul connection".
func firstSection(sections map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := sections[k]; ok {
			return v
		}
	}
	for _, k := range keys {
		for name, v := range sections {
			if strings.HasPrefix(name, k) {
				return v
			}
		}
	}
	return ""
}

func extractTheme(text string, sections map[string]string) string {
	markers := []string{"today's energy:", "day theme:", "theme:", "energy:"}
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, m := range markers {
			if strings.Contains(lower, m) {
				if idx := strings.Index(line, ":"); idx >= 0 {
					return strings.TrimSpace(line[idx+1:])
				}
				return strings.TrimSpace(line)
			}
		}
	}
	if overview, ok := sections["overview"]; ok {
		if first, _, _ := strings.Cut(overview, "."); strings.TrimSpace(first) != "" {
			return strings.TrimSpace(first)
		}
	}
	return "Day of Growth and Alignment"
}

func extractOverview(text string, sections map[string]string) string {
	if v := firstSection(sections, "overview", "summary"); v != "" {
		return v
	}
	first, _, _ := strings.Cut(text, "\n\n")
	return takeRunes(strings.TrimSpace(first), 300)
}

func extractOpportunities(sections map[string]string) []Opportunity {
	points := ExtractBulletPoints(firstSection(sections, "key opportunities", "opportunities"))
	out := []Opportunity{}
	for i, point := range points {
		if i == maxOpportunities {
			break
		}
		out = append(out, Opportunity{
			Title:       fmt.Sprintf("Opportunity %d", i+1),
			Description: point,
			Category:    inferCategory(point),
		})
	}
	return out
}

func extractChallenges(sections map[string]string) []Challenge {
	points := ExtractBulletPoints(firstSection(sections, "challenges to navigate", "challenges", "growth edges"))
	out := []Challenge{}
	for i, point := range points {
		if i == maxChallenges {
			break
		}
		if title, rest, ok := strings.Cut(point, ":"); ok {
			desc, _, _ := strings.Cut(rest, "Solution")
			out = append(out, Challenge{
				Title:       strings.TrimSpace(title),
				Description: strings.TrimSpace(desc),
				Solution:    extractSolution(rest),
				Severity:    SeverityModerate,
			})
			continue
		}
		out = append(out, Challenge{
			Title:       fmt.Sprintf("Challenge %d", i+1),
			Description: point,
			Solution:    "Stay mindful and centered",
			Severity:    SeverityMinor,
		})
	}
	return out
}

func extractOptimalTimes(sections map[string]string) TimesGuide {
	text := firstSection(sections, "optimal times")
	return TimesGuide{
		Morning:   extractTimeGuidance(text, PeriodMorning),
		Midday:    extractTimeGuidance(text, PeriodMidday),
		Afternoon: extractTimeGuidance(text, PeriodAfternoon),
		Evening:   extractTimeGuidance(text, PeriodEvening),
	}
}

func extractTimeGuidance(text string, period TimePeriod) TimeGuidance {
	var periodLine string
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(strings.ToLower(line), string(period)) {
			periodLine = line
			break
		}
	}
	raw := periodLine
	if idx := strings.Index(periodLine, ":"); idx >= 0 {
		raw = periodLine[idx+1:]
	}
	var activities []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.Trim(part, " \t*"); p != "" {
			activities = append(activities, p)
		}
	}
	if len(activities) == 0 {
		activities = []string{"General activities"}
	}
	return TimeGuidance{Period: period, BestFor: activities, EnergyLevel: inferEnergyLevel(period)}
}

func extractPractice(sections map[string]string) DailyPractice {
	text := firstSection(sections, "today's practice", "spiritual practice")

	affirmation := "I am aligned with my highest purpose"
	if affs := ExtractAffirmations(text); len(affs) > 0 {
		affirmation = affs[0]
	}

	meditation := lineValue(text, "meditation")
	if meditation == "" {
		meditation = "Breath awareness"
	}
	reflection := lineValue(text, "reflection", "journal")
	if reflection == "" {
		reflection = "What did I learn today?"
	}

	practices := ExtractPractices(text)
	if practices == nil {
		practices = []Practice{}
	}
	return DailyPractice{
		MeditationFocus:     meditation,
		Affirmation:         affirmation,
		EveningReflection:   reflection,
		AdditionalPractices: practices,
	}
}

func extractEnergyFocus(sections map[string]string) EnergyFocus {
	text := firstSection(sections, "energy focus", "energetic constitution")
	return EnergyFocus{Chakra: inferChakra(text), Element: inferElement(text)}
}

func extractTransits(sections map[string]string) *TransitInfo {
	text, ok := sections["astrological transits"]
	if !ok {
		return nil
	}
	return &TransitInfo{Summary: strings.TrimSpace(text)}
}

// lineValue finds the first line containing any keyword and returns the
// text after its colon.
func lineValue(text string, keywords ...string) string {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				if idx := strings.Index(line, ":"); idx >= 0 {
					return strings.TrimSpace(strings.Trim(strings.TrimSpace(line[idx+1:]), `"*`))
				}
				return ""
			}
		}
	}
	return ""
}

func extractSolution(text string) string {
	lower := strings.ToLower(text)
	for _, marker := range []string{"solution:", "try:"} {
		if idx := strings.Index(lower, marker); idx >= 0 {
			if s := strings.TrimSpace(text[idx+len(marker):]); s != "" {
				return s
			}
		}
	}
	return "Stay centered and mindful"
}

func extractDuration(text string) string {
	if m := durationRe.FindString(text); m != "" {
		return m
	}
	return "10 minutes"
}

func inferOptimalTime(text string) TimePeriod {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "morning") || strings.Contains(lower, "sunrise"):
		return PeriodMorning
	case strings.Contains(lower, "evening") || strings.Contains(lower, "sunset"):
		return PeriodEvening
	case strings.Contains(lower, "midday") || strings.Contains(lower, "noon"):
		return PeriodMidday
	case strings.Contains(lower, "afternoon"):
		return PeriodAfternoon
	default:
		return PeriodMorning
	}
}

func inferEnergyLevel(period TimePeriod) EnergyLevel {
	switch period {
	case PeriodMorning:
		return EnergyHigh
	case PeriodEvening:
		return EnergyLow
	default:
		return EnergyModerate
	}
}

func inferCategory(text string) Category {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "career") || strings.Contains(lower, "work"):
		return CategoryCareer
	case strings.Contains(lower, "relationship") || strings.Contains(lower, "love"):
		return CategoryRelationships
	case strings.Contains(lower, "creative") || strings.Contains(lower, "art"):
		return CategoryCreativity
	case strings.Contains(lower, "spiritual") || strings.Contains(lower, "meditation"):
		return CategorySpiritualGrowth
	case strings.Contains(lower, "health") || strings.Contains(lower, "wellness"):
		return CategoryHealth
	case strings.Contains(lower, "communication") || strings.Contains(lower, "express"):
		return CategoryCommunication
	case strings.Contains(lower, "learn") || strings.Contains(lower, "study"):
		return CategoryLearning
	default:
		return CategoryManifestation
	}
}

func inferChakra(text string) Chakra {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "root") || strings.Contains(lower, "muladhara"):
		return ChakraRoot
	case strings.Contains(lower, "sacral") || strings.Contains(lower, "svadhisthana"):
		return ChakraSacral
	case strings.Contains(lower, "solar") || strings.Contains(lower, "manipura"):
		return ChakraSolarPlexus
	case strings.Contains(lower, "heart") || strings.Contains(lower, "anahata"):
		return ChakraHeart
	case strings.Contains(lower, "throat") || strings.Contains(lower, "vishuddha"):
		return ChakraThroat
	case strings.Contains(lower, "third eye") || strings.Contains(lower, "ajna"):
		return ChakraThirdEye
	case strings.Contains(lower, "crown") || strings.Contains(lower, "sahasrara"):
		return ChakraCrown
	default:
		return ChakraHeart
	}
}

func inferElement(text string) Element {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "fire") || strings.Contains(lower, "dynamic"):
		return ElementFire
	case strings.Contains(lower, "water") || strings.Contains(lower, "emotion"):
		return ElementWater
	case strings.Contains(lower, "earth") || strings.Contains(lower, "ground"):
		return ElementEarth
	case strings.Contains(lower, "air") || strings.Contains(lower, "mental"):
		return ElementAir
	case strings.Contains(lower, "ether") || strings.Contains(lower, "spiritual"):
		return ElementEther
	default:
		return ElementEarth
	}
}

func takeRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func dedupe(in []string, limit int) []string {
	seen := make(map[string]struct{}, len(in))
	out := []string{}
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}
