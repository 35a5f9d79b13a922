package scoring

import "strings"

// PhlegmColor 痰液颜色（用户自报）
type PhlegmColor string

const (
	PhlegmClear  PhlegmColor = "Clear"
	PhlegmWhite  PhlegmColor = "White"
	PhlegmYellow PhlegmColor = "Yellow"
	PhlegmGreen  PhlegmColor = "Green"
	PhlegmOther  PhlegmColor = "Other"
)

// PhlegmColors lists the accepted colors in increasing severity.
var PhlegmColors = []PhlegmColor{PhlegmClear, PhlegmWhite, PhlegmYellow, PhlegmGreen, PhlegmOther}

// ParsePhlegmColor accepts the canonical names case-insensitively.
func ParsePhlegmColor(s string) (PhlegmColor, error) {
	for _, c := range PhlegmColors {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", invalid("phlegm_color", "unrecognized value %q", s)
}

// PollenLevel 花粉等级
type PollenLevel string

const (
	PollenLow      PollenLevel = "Low"
	PollenModerate PollenLevel = "Moderate"
	PollenHigh     PollenLevel = "High"
)

func ParsePollenLevel(s string) (PollenLevel, error) {
	for _, p := range []PollenLevel{PollenLow, PollenModerate, PollenHigh} {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", invalid("pollen_level", "unrecognized value %q", s)
}

// SymptomObservation is the most recent self-reported symptom entry.
type SymptomObservation struct {
	PhlegmColor  PhlegmColor `json:"phlegm_color"`
	InhalerUsage int         `json:"inhaler_usage"` // rescue-inhaler actuations in the window
}

// AcousticObservation 声学监测结果（咳嗽频率/喘鸣/呼吸率）
type AcousticObservation struct {
	CoughFrequency float64 `json:"cough_frequency"` // coughs/hour
	Wheezing       bool    `json:"wheezing"`
	BreathingRate  float64 `json:"breathing_rate"` // breaths/minute
}

// EnvironmentalReading 环境数据（空气质量 + 花粉）
type EnvironmentalReading struct {
	AQI    int         `json:"aqi"`
	Pollen PollenLevel `json:"pollen"`
}

// NightlyAcousticSummary is one night of overnight monitoring.
type NightlyAcousticSummary struct {
	AverageBreathingRate        float64 `json:"average_breathing_rate"`   // μ_BR, bpm
	BreathingRateStability      float64 `json:"breathing_rate_stability"` // σ_BR
	CoughsPerHour               float64 `json:"coughs_per_hour"`
	PercentWheezeTime           float64 `json:"percent_wheeze_time"` // 0-100
	NonRespiratoryEventsPerHour float64 `json:"non_respiratory_events_per_hour"`
}

// FactorSet marks which optional factors accompany a risk calculation.
type FactorSet uint8

const (
	FactorAcoustic FactorSet = 1 << iota
	FactorEnvironment
)

func (f FactorSet) Has(x FactorSet) bool { return f&x != 0 }

// RiskInput 风险评分输入
// Acoustic / Environment 为可选因素，nil 表示未提供
type RiskInput struct {
	Symptom     SymptomObservation    `json:"symptom"`
	Acoustic    *AcousticObservation  `json:"acoustic,omitempty"`
	Environment *EnvironmentalReading `json:"environment,omitempty"`
}

// Factors reports the optional factors present on the input.
func (in RiskInput) Factors() FactorSet {
	var f FactorSet
	if in.Acoustic != nil {
		f |= FactorAcoustic
	}
	if in.Environment != nil {
		f |= FactorEnvironment
	}
	return f
}

// RiskLevel 风险等级
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// RiskScore 风险评分结果
type RiskScore struct {
	Score        int       `json:"risk_score"`
	Level        RiskLevel `json:"level"`
	Explanation  string    `json:"explanation"`
	Phlegm       float64   `json:"phlegm_contribution"`
	Inhaler      float64   `json:"inhaler_contribution"`
	BandPosition float64   `json:"band_position"`
}

// Scheme selects the sleep scoring table.
type Scheme string

const (
	SchemeSimple   Scheme = "simple"
	SchemeDetailed Scheme = "detailed"
)

func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeSimple:
		return SchemeSimple, nil
	case SchemeDetailed:
		return SchemeDetailed, nil
	}
	return "", invalid("scheme", "unrecognized value %q", s)
}

// SleepInput 睡眠评分输入；Scheme 决定读取 Acoustic 还是 Night
type SleepInput struct {
	Scheme   Scheme                 `json:"scheme"`
	Acoustic AcousticObservation    `json:"acoustic"`
	Night    NightlyAcousticSummary `json:"night"`
}

// Component is one scored row of a sleep table.
type Component struct {
	Factor string  `json:"factor"`
	Points int     `json:"points"`
	Max    int     `json:"max"`
	Value  float64 `json:"value"`
}

// SleepScore 睡眠评分结果
type SleepScore struct {
	Score        int         `json:"sleep_score"`
	Scheme       Scheme      `json:"scheme"`
	Components   []Component `json:"components"`
	NightInsight string      `json:"night_insight"`
}
