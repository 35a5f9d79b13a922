package scoring

import (
	"fmt"
	"sort"
	"strings"
)

// ComputeSleepScore 按 Scheme 计算睡眠质量评分
func ComputeSleepScore(in SleepInput) (SleepScore, error) {
	switch in.Scheme {
	case SchemeSimple:
		return ScoreSimple(in.Acoustic)
	case SchemeDetailed:
		return ScoreDetailed(in.Night)
	}
	return SleepScore{}, invalid("scheme", "unrecognized value %q", in.Scheme)
}

// ScoreSimple applies the 40/30/30 table to one acoustic observation.
func ScoreSimple(a AcousticObservation) (SleepScore, error) {
	if err := ValidateAcoustic(a); err != nil {
		return SleepScore{}, err
	}

	wheeze := 30
	if a.Wheezing {
		wheeze = 0
	}
	components := []Component{
		{Factor: factorCough, Points: simpleCoughPoints(a.CoughFrequency), Max: 40, Value: a.CoughFrequency},
		{Factor: factorWheeze, Points: wheeze, Max: 30, Value: boolValue(a.Wheezing)},
		{Factor: factorBreathingRate, Points: simpleRatePoints(a.BreathingRate), Max: 30, Value: a.BreathingRate},
	}
	return finishSleep(SchemeSimple, components), nil
}

// ScoreDetailed applies the five-row detailed table to a nightly summary.
func ScoreDetailed(n NightlyAcousticSummary) (SleepScore, error) {
	if err := ValidateNight(n); err != nil {
		return SleepScore{}, err
	}

	components := []Component{
		{Factor: factorBreathingRate, Points: detailedRatePoints(n.AverageBreathingRate), Max: 25, Value: n.AverageBreathingRate},
		{Factor: factorStability, Points: stabilityPoints(n.BreathingRateStability), Max: 15, Value: n.BreathingRateStability},
		{Factor: factorCough, Points: detailedCoughPoints(n.CoughsPerHour), Max: 20, Value: n.CoughsPerHour},
		{Factor: factorWheeze, Points: wheezeTimePoints(n.PercentWheezeTime), Max: 20, Value: n.PercentWheezeTime},
		{Factor: factorDisturbance, Points: disturbancePoints(n.NonRespiratoryEventsPerHour), Max: 20, Value: n.NonRespiratoryEventsPerHour},
	}
	return finishSleep(SchemeDetailed, components), nil
}

func ValidateNight(n NightlyAcousticSummary) error {
	if err := checkPositive("average_breathing_rate", n.AverageBreathingRate); err != nil {
		return err
	}
	if err := checkNonNegative("breathing_rate_stability", n.BreathingRateStability); err != nil {
		return err
	}
	if err := checkNonNegative("coughs_per_hour", n.CoughsPerHour); err != nil {
		return err
	}
	if err := checkNonNegative("percent_wheeze_time", n.PercentWheezeTime); err != nil {
		return err
	}
	if n.PercentWheezeTime > 100 {
		return invalid("percent_wheeze_time", "must be <= 100, got %g", n.PercentWheezeTime)
	}
	return checkNonNegative("non_respiratory_events_per_hour", n.NonRespiratoryEventsPerHour)
}

const (
	factorCough         = "cough"
	factorWheeze        = "wheeze"
	factorBreathingRate = "breathing_rate"
	factorStability     = "breathing_stability"
	factorDisturbance   = "disturbance"
)

// ---- scheme A ----

func simpleCoughPoints(c float64) int {
	switch {
	case c <= 5:
		return 40
	case c <= 10:
		return 30
	case c <= 20:
		return 20
	case c <= 30:
		return 10
	default:
		return 0
	}
}

func simpleRatePoints(r float64) int {
	switch {
	case r >= 12 && r <= 16:
		return 30
	case (r >= 10 && r < 12) || (r > 16 && r <= 18):
		return 20
	case (r >= 8 && r < 10) || (r > 18 && r <= 20):
		return 10
	default:
		return 0
	}
}

// ---- scheme B ----

func detailedRatePoints(mu float64) int {
	switch {
	case mu >= 12 && mu <= 20:
		return 25
	case (mu >= 10 && mu < 12) || (mu > 20 && mu <= 22):
		return 15
	case (mu >= 8 && mu < 10) || (mu > 22 && mu <= 25):
		return 5
	default:
		return 0
	}
}

func stabilityPoints(sigma float64) int {
	switch {
	case sigma <= 2:
		return 15
	case sigma <= 4:
		return 10
	case sigma <= 6:
		return 5
	default:
		return 0
	}
}

func detailedCoughPoints(cph float64) int {
	switch {
	case cph == 0:
		return 20
	case cph <= 2:
		return 15
	case cph <= 5:
		return 10
	case cph <= 10:
		return 5
	default:
		return 0
	}
}

func wheezeTimePoints(pct float64) int {
	switch {
	case pct == 0:
		return 20
	case pct <= 5:
		return 15
	case pct <= 15:
		return 10
	case pct <= 30:
		return 5
	default:
		return 0
	}
}

func disturbancePoints(eph float64) int {
	switch {
	case eph <= 1:
		return 20
	case eph <= 5:
		return 15
	case eph <= 10:
		return 10
	case eph <= 20:
		return 5
	default:
		return 0
	}
}

// ---- shared ----

func finishSleep(scheme Scheme, components []Component) SleepScore {
	total := 0
	for _, c := range components {
		total += c.Points
	}
	// every table sums to at most 100; clamp is a last resort
	total = clamp(total, 0, 100)
	return SleepScore{
		Score:        total,
		Scheme:       scheme,
		Components:   components,
		NightInsight: nightInsight(total, components),
	}
}

func nightInsight(total int, components []Component) string {
	var worst []Component
	for _, c := range components {
		if c.Points < c.Max {
			worst = append(worst, c)
		}
	}
	if len(worst) == 0 {
		return fmt.Sprintf("Sleep score %d/100. Sleep was restful with no respiratory disturbances detected.", total)
	}

	// largest deficit first; stable sort keeps table order for ties
	sort.SliceStable(worst, func(i, j int) bool {
		return worst[i].Max-worst[i].Points > worst[j].Max-worst[j].Points
	})
	if len(worst) > 2 {
		worst = worst[:2]
	}

	phrases := make([]string, 0, len(worst))
	for _, c := range worst {
		phrases = append(phrases, describeComponent(c))
	}
	return fmt.Sprintf("Sleep score %d/100. Sleep was disturbed mainly by %s.", total, joinPhrases(phrases))
}

func describeComponent(c Component) string {
	switch c.Factor {
	case factorCough:
		return fmt.Sprintf("high cough frequency (%.1f coughs/hr)", c.Value)
	case factorWheeze:
		if c.Max == 30 {
			return "detected wheezing"
		}
		return fmt.Sprintf("wheezing for %.1f%% of the night", c.Value)
	case factorBreathingRate:
		return fmt.Sprintf("an irregular breathing rate (%.1f bpm)", c.Value)
	case factorStability:
		return fmt.Sprintf("unstable breathing (σ %.1f bpm)", c.Value)
	case factorDisturbance:
		return fmt.Sprintf("frequent non-respiratory disturbances (%.1f/hr)", c.Value)
	}
	return strings.ReplaceAll(c.Factor, "_", " ")
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
