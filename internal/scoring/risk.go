package scoring

import (
	"fmt"
	"strings"
)

var phlegmBands = map[PhlegmColor]band{
	PhlegmClear:  {0, 10},
	PhlegmWhite:  {10, 25},
	PhlegmYellow: {25, 50},
	PhlegmGreen:  {50, 70},
	PhlegmOther:  {50, 70},
}

func inhalerBand(usage int) band {
	switch {
	case usage == 0:
		return band{0, 5}
	case usage == 1:
		return band{5, 15}
	case usage == 2:
		return band{15, 30}
	default:
		return band{30, 50}
	}
}

// ComputeRiskScore 计算急性加重风险评分（取各区间中点）
func ComputeRiskScore(in RiskInput) (RiskScore, error) {
	return ComputeRiskScoreAt(in, DefaultBandPosition)
}

// ComputeRiskScoreAt scores with an explicit band position p in [0,1].
// Both bands use the same p, which keeps the score monotonic in phlegm color and inhaler usage.
func ComputeRiskScoreAt(in RiskInput, p float64) (RiskScore, error) {
	if err := ValidateRiskInput(in); err != nil {
		return RiskScore{}, err
	}
	if !finite(p) || p < 0 || p > 1 {
		return RiskScore{}, invalid("band_position", "must be within [0,1], got %g", p)
	}

	phlegm := phlegmBands[in.Symptom.PhlegmColor].at(p)
	inhaler := inhalerBand(in.Symptom.InhalerUsage).at(p)

	// max is 70+50; clamp caps the overflow at 100
	score := clamp(roundInt(phlegm+inhaler), 0, 100)
	level := RiskLevelFor(score)

	return RiskScore{
		Score:        score,
		Level:        level,
		Explanation:  explainRisk(in, score, level, phlegm, inhaler),
		Phlegm:       phlegm,
		Inhaler:      inhaler,
		BandPosition: p,
	}, nil
}

// NormalizeRiskInput 统一痰液颜色与花粉等级的大小写写法；不修改调用方的 Environment
func NormalizeRiskInput(in RiskInput) (RiskInput, error) {
	color, err := ParsePhlegmColor(string(in.Symptom.PhlegmColor))
	if err != nil {
		return in, err
	}
	in.Symptom.PhlegmColor = color
	if in.Environment != nil {
		env := *in.Environment
		if env.Pollen, err = ParsePollenLevel(string(env.Pollen)); err != nil {
			return in, err
		}
		in.Environment = &env
	}
	return in, nil
}

// ValidateRiskInput checks the required symptom fields and any optional factors.
func ValidateRiskInput(in RiskInput) error {
	if _, ok := phlegmBands[in.Symptom.PhlegmColor]; !ok {
		return invalid("phlegm_color", "unrecognized value %q", in.Symptom.PhlegmColor)
	}
	if in.Symptom.InhalerUsage < 0 {
		return invalid("inhaler_usage", "must be >= 0, got %d", in.Symptom.InhalerUsage)
	}
	if in.Acoustic != nil {
		if err := ValidateAcoustic(*in.Acoustic); err != nil {
			return err
		}
	}
	if in.Environment != nil {
		if err := ValidateEnvironment(*in.Environment); err != nil {
			return err
		}
	}
	return nil
}

func ValidateAcoustic(a AcousticObservation) error {
	if err := checkNonNegative("cough_frequency", a.CoughFrequency); err != nil {
		return err
	}
	return checkPositive("breathing_rate", a.BreathingRate)
}

func ValidateEnvironment(e EnvironmentalReading) error {
	if e.AQI < 0 {
		return invalid("aqi", "must be >= 0, got %d", e.AQI)
	}
	if _, err := ParsePollenLevel(string(e.Pollen)); err != nil {
		return err
	}
	return nil
}

func describePhlegm(c PhlegmColor) string {
	if c == PhlegmOther {
		return "discolored phlegm"
	}
	return strings.ToLower(string(c)) + " phlegm"
}

func describeInhaler(usage int) string {
	switch {
	case usage == 0:
		return "no rescue inhaler use"
	case usage == 1:
		return "light inhaler usage"
	case usage == 2:
		return "moderate inhaler usage"
	default:
		return fmt.Sprintf("heavy inhaler usage (%d uses)", usage)
	}
}

func explainRisk(in RiskInput, score int, level RiskLevel, phlegm, inhaler float64) string {
	p := describePhlegm(in.Symptom.PhlegmColor)
	u := describeInhaler(in.Symptom.InhalerUsage)

	// ties go to phlegm
	dominant, other := p, u
	if inhaler > phlegm {
		dominant, other = u, p
	}

	var b strings.Builder
	if level == RiskLow {
		fmt.Fprintf(&b, "Risk is low (%d/100), mainly from %s alongside %s.", score, dominant, other)
	} else {
		fmt.Fprintf(&b, "Risk is %s (%d/100), elevated mainly due to %s alongside %s.",
			strings.ToLower(string(level)), score, dominant, other)
	}

	if extra := adverseFactors(in); len(extra) > 0 {
		fmt.Fprintf(&b, " %s may also be contributing.", capitalize(joinPhrases(extra)))
	}
	return b.String()
}

func adverseFactors(in RiskInput) []string {
	var out []string
	f := in.Factors()
	if f.Has(FactorAcoustic) {
		a := in.Acoustic
		if a.CoughFrequency >= 10 {
			out = append(out, fmt.Sprintf("frequent coughing (%.1f/hr)", a.CoughFrequency))
		}
		if a.Wheezing {
			out = append(out, "wheezing")
		}
		if a.BreathingRate < 12 || a.BreathingRate > 20 {
			out = append(out, fmt.Sprintf("an abnormal breathing rate (%.1f bpm)", a.BreathingRate))
		}
	}
	if f.Has(FactorEnvironment) {
		e := in.Environment
		if e.AQI > 100 {
			out = append(out, fmt.Sprintf("poor air quality (AQI %d, %s)", e.AQI, AQICategoryFor(e.AQI)))
		}
		if e.Pollen == PollenHigh {
			out = append(out, "high pollen")
		}
	}
	return out
}

func joinPhrases(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
