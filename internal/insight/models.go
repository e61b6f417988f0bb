// Package insight turns free-form model output into typed daily-insight and
// compatibility records. Parsing never fails: every field has a fallback
// default, so malformed input degrades quality instead of control flow.
package insight

import "time"

// Category classifies an opportunity by life area.
type Category string

const (
	CategoryCareer          Category = "career"
	CategoryRelationships   Category = "relationships"
	CategoryCreativity      Category = "creativity"
	CategorySpiritualGrowth Category = "spiritual_growth"
	CategoryHealth          Category = "health"
	CategoryCommunication   Category = "communication"
	CategoryLearning        Category = "learning"
	CategoryManifestation   Category = "manifestation"
)

// Chakra is the energy center a day's guidance focuses on.
type Chakra string

const (
	ChakraRoot        Chakra = "root"
	ChakraSacral      Chakra = "sacral"
	ChakraSolarPlexus Chakra = "solar_plexus"
	ChakraHeart       Chakra = "heart"
	ChakraThroat      Chakra = "throat"
	ChakraThirdEye    Chakra = "third_eye"
	ChakraCrown       Chakra = "crown"
)

// Element is the dominant elemental energy.
type Element string

const (
	ElementFire  Element = "fire"
	ElementWater Element = "water"
	ElementEarth Element = "earth"
	ElementAir   Element = "air"
	ElementEther Element = "ether"
)

// TimePeriod is a block of the day.
type TimePeriod string

const (
	PeriodMorning   TimePeriod = "morning"
	PeriodMidday    TimePeriod = "midday"
	PeriodAfternoon TimePeriod = "afternoon"
	PeriodEvening   TimePeriod = "evening"
)

// EnergyLevel is the expected energy for a period.
type EnergyLevel string

const (
	EnergyHigh     EnergyLevel = "high"
	EnergyModerate EnergyLevel = "moderate"
	EnergyLow      EnergyLevel = "low"
)

// Severity ranks a daily challenge.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
)

// Opportunity is one favorable opening for the day.
type Opportunity struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
}

// Challenge is one difficulty for the day with a suggested way through.
type Challenge struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Solution    string   `json:"solution"`
	Severity    Severity `json:"severity"`
}

// TimeGuidance says what a block of the day is best used for.
type TimeGuidance struct {
	Period      TimePeriod  `json:"period"`
	BestFor     []string    `json:"bestFor"`
	EnergyLevel EnergyLevel `json:"energyLevel"`
}

// TimesGuide covers the four day blocks.
type TimesGuide struct {
	Morning   TimeGuidance `json:"morning"`
	Midday    TimeGuidance `json:"midday"`
	Afternoon TimeGuidance `json:"afternoon"`
	Evening   TimeGuidance `json:"evening"`
}

// Practice is one recommended spiritual practice.
type Practice struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Duration    string     `json:"duration"`
	OptimalTime TimePeriod `json:"optimalTime"`
}

// DailyPractice bundles the day's meditation, affirmation, and reflection.
type DailyPractice struct {
	MeditationFocus     string     `json:"meditationFocus"`
	Affirmation         string     `json:"affirmation"`
	EveningReflection   string     `json:"eveningReflection"`
	AdditionalPractices []Practice `json:"additionalPractices"`
}

// EnergyFocus names the chakra and element to work with today.
type EnergyFocus struct {
	Chakra  Chakra  `json:"chakra"`
	Element Element `json:"element"`
}

// TransitInfo is present only when the response discusses transits.
type TransitInfo struct {
	Summary string `json:"summary"`
}

// DailyInsight is the fully structured view of one day's guidance.
type DailyInsight struct {
	ProfileID     string        `json:"profileId"`
	Date          time.Time     `json:"date"`
	PersonalYear  int           `json:"personalYear"`
	PersonalMonth int           `json:"personalMonth"`
	PersonalDay   int           `json:"personalDay"`
	Theme         string        `json:"theme"`
	Overview      string        `json:"overview"`
	Opportunities []Opportunity `json:"opportunities"`
	Challenges    []Challenge   `json:"challenges"`
	OptimalTimes  TimesGuide    `json:"optimalTimes"`
	Practice      DailyPractice `json:"practice"`
	EnergyFocus   EnergyFocus   `json:"energyFocus"`
	Transits      *TransitInfo  `json:"transits,omitempty"`
}

// Compatibility holds the parsed relationship dimensions. Lists may be
// empty but are never nil.
type Compatibility struct {
	Strengths       []string `json:"strengths"`
	Challenges      []string `json:"challenges"`
	Recommendations []string `json:"recommendations"`
	SoulConnection  []string `json:"soulConnection"`
}
