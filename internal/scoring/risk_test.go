package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symptom(c PhlegmColor, usage int) RiskInput {
	return RiskInput{Symptom: SymptomObservation{PhlegmColor: c, InhalerUsage: usage}}
}

func TestComputeRiskScore_RangeForAllCombinations(t *testing.T) {
	for _, c := range PhlegmColors {
		for usage := 0; usage <= 10; usage++ {
			for _, p := range []float64{0, 0.25, 0.5, 0.75, 1} {
				got, err := ComputeRiskScoreAt(symptom(c, usage), p)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, got.Score, 0, "%s/%d/%v", c, usage, p)
				assert.LessOrEqual(t, got.Score, 100, "%s/%d/%v", c, usage, p)
			}
		}
	}
}

func TestComputeRiskScore_MonotonicInPhlegm(t *testing.T) {
	order := []PhlegmColor{PhlegmClear, PhlegmWhite, PhlegmYellow, PhlegmGreen}
	for usage := 0; usage <= 4; usage++ {
		for _, p := range []float64{0, 0.5, 1} {
			prev := -1
			for _, c := range order {
				got, err := ComputeRiskScoreAt(symptom(c, usage), p)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, got.Score, prev, "%s usage=%d p=%v", c, usage, p)
				prev = got.Score
			}
		}
	}
}

func TestComputeRiskScore_MonotonicInInhalerUsage(t *testing.T) {
	for _, c := range PhlegmColors {
		prev := -1
		for usage := 0; usage <= 5; usage++ {
			got, err := ComputeRiskScore(symptom(c, usage))
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got.Score, prev)
			prev = got.Score
		}
	}
}

func TestComputeRiskScore_ClearNoInhaler(t *testing.T) {
	for _, p := range []float64{0, 0.5, 1} {
		got, err := ComputeRiskScoreAt(symptom(PhlegmClear, 0), p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Score, 0)
		assert.LessOrEqual(t, got.Score, 15)
		assert.Equal(t, RiskLow, got.Level)
	}
}

func TestComputeRiskScore_GreenHeavyUsage(t *testing.T) {
	for _, p := range []float64{0, 0.5, 1} {
		got, err := ComputeRiskScoreAt(symptom(PhlegmGreen, 5), p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Score, 80)
		assert.LessOrEqual(t, got.Score, 100)
		assert.Equal(t, RiskHigh, got.Level)
	}

	top, err := ComputeRiskScoreAt(symptom(PhlegmGreen, 5), 1)
	require.NoError(t, err)
	assert.Equal(t, 100, top.Score, "70+50 is clamped")
}

func TestComputeRiskScore_Midpoints(t *testing.T) {
	got, err := ComputeRiskScore(symptom(PhlegmYellow, 2))
	require.NoError(t, err)
	assert.InDelta(t, 37.5, got.Phlegm, 1e-9)
	assert.InDelta(t, 22.5, got.Inhaler, 1e-9)
	assert.Equal(t, 60, got.Score)
	assert.Equal(t, RiskModerate, got.Level)
	assert.Equal(t, DefaultBandPosition, got.BandPosition)
}

func TestComputeRiskScore_Idempotent(t *testing.T) {
	in := symptom(PhlegmWhite, 1)
	in.Acoustic = &AcousticObservation{CoughFrequency: 12, Wheezing: true, BreathingRate: 22}
	in.Environment = &EnvironmentalReading{AQI: 155, Pollen: PollenHigh}

	a, err := ComputeRiskScore(in)
	require.NoError(t, err)
	b, err := ComputeRiskScore(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeRiskScore_Explanation(t *testing.T) {
	got, err := ComputeRiskScore(symptom(PhlegmYellow, 1))
	require.NoError(t, err)
	assert.Contains(t, got.Explanation, "elevated mainly due to yellow phlegm")
	assert.Contains(t, got.Explanation, "light inhaler usage")

	// inhaler dominates: white (17.5) vs >2 uses (40)
	got, err = ComputeRiskScore(symptom(PhlegmWhite, 4))
	require.NoError(t, err)
	assert.Contains(t, got.Explanation, "elevated mainly due to heavy inhaler usage (4 uses)")

	got, err = ComputeRiskScore(symptom(PhlegmClear, 0))
	require.NoError(t, err)
	assert.Contains(t, got.Explanation, "Risk is low")
	assert.NotContains(t, got.Explanation, "may also be contributing")
}

func TestComputeRiskScore_LowRiskNamesDominantFactor(t *testing.T) {
	// clear (5) vs 2 uses (22.5): low overall, inhaler dominates
	got, err := ComputeRiskScore(symptom(PhlegmClear, 2))
	require.NoError(t, err)
	assert.Equal(t, 28, got.Score)
	assert.Equal(t, RiskLow, got.Level)
	assert.Equal(t, "Risk is low (28/100), mainly from moderate inhaler usage alongside clear phlegm.", got.Explanation)

	// white (17.5) vs none (2.5): phlegm dominates
	got, err = ComputeRiskScore(symptom(PhlegmWhite, 0))
	require.NoError(t, err)
	assert.Equal(t, RiskLow, got.Level)
	assert.Contains(t, got.Explanation, "mainly from white phlegm alongside no rescue inhaler use")
}

func TestComputeRiskScore_OptionalFactorsNamedButNotScored(t *testing.T) {
	base, err := ComputeRiskScore(symptom(PhlegmGreen, 2))
	require.NoError(t, err)

	in := symptom(PhlegmGreen, 2)
	in.Acoustic = &AcousticObservation{CoughFrequency: 14, Wheezing: true, BreathingRate: 16}
	in.Environment = &EnvironmentalReading{AQI: 155, Pollen: PollenHigh}
	assert.Equal(t, FactorAcoustic|FactorEnvironment, in.Factors())

	got, err := ComputeRiskScore(in)
	require.NoError(t, err)
	assert.Equal(t, base.Score, got.Score)
	// 第一个因素首字母大写
	assert.Contains(t, got.Explanation, "Frequent coughing (14.0/hr)")
	assert.Contains(t, got.Explanation, "wheezing")
	assert.Contains(t, got.Explanation, "poor air quality (AQI 155, Unhealthy)")
	assert.Contains(t, got.Explanation, "high pollen")
	assert.NotContains(t, got.Explanation, "abnormal breathing rate")
}

func TestComputeRiskScore_InvalidInput(t *testing.T) {
	cases := map[string]struct {
		in    RiskInput
		field string
	}{
		"unknown color":   {symptom("Purple", 0), "phlegm_color"},
		"missing color":   {symptom("", 0), "phlegm_color"},
		"negative usage":  {symptom(PhlegmClear, -1), "inhaler_usage"},
		"negative cough":  {RiskInput{Symptom: SymptomObservation{PhlegmClear, 0}, Acoustic: &AcousticObservation{CoughFrequency: -1, BreathingRate: 14}}, "cough_frequency"},
		"zero rate":       {RiskInput{Symptom: SymptomObservation{PhlegmClear, 0}, Acoustic: &AcousticObservation{BreathingRate: 0}}, "breathing_rate"},
		"nan rate":        {RiskInput{Symptom: SymptomObservation{PhlegmClear, 0}, Acoustic: &AcousticObservation{BreathingRate: math.NaN()}}, "breathing_rate"},
		"negative aqi":    {RiskInput{Symptom: SymptomObservation{PhlegmClear, 0}, Environment: &EnvironmentalReading{AQI: -5, Pollen: PollenLow}}, "aqi"},
		"unknown pollen":  {RiskInput{Symptom: SymptomObservation{PhlegmClear, 0}, Environment: &EnvironmentalReading{AQI: 5, Pollen: "Extreme"}}, "pollen_level"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ComputeRiskScore(tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			var ie *InputError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tc.field, ie.Field)
			assert.Equal(t, RiskScore{}, got)
		})
	}
}

func TestComputeRiskScoreAt_RejectsBadPosition(t *testing.T) {
	for _, p := range []float64{-0.1, 1.1, math.NaN(), math.Inf(1)} {
		_, err := ComputeRiskScoreAt(symptom(PhlegmClear, 0), p)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestJitterPosition_Reproducible(t *testing.T) {
	a := JitterPosition(42)
	assert.Equal(t, a, JitterPosition(42))
	assert.GreaterOrEqual(t, a, 0.0)
	assert.Less(t, a, 1.0)

	s1, err := ComputeRiskScoreAt(symptom(PhlegmYellow, 1), a)
	require.NoError(t, err)
	s2, err := ComputeRiskScoreAt(symptom(PhlegmYellow, 1), JitterPosition(42))
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

func TestParsers(t *testing.T) {
	c, err := ParsePhlegmColor(" green ")
	require.NoError(t, err)
	assert.Equal(t, PhlegmGreen, c)
	_, err = ParsePhlegmColor("blue")
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := ParsePollenLevel("HIGH")
	require.NoError(t, err)
	assert.Equal(t, PollenHigh, p)
	_, err = ParsePollenLevel("none")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLevels(t *testing.T) {
	assert.Equal(t, RiskLow, RiskLevelFor(33))
	assert.Equal(t, RiskModerate, RiskLevelFor(34))
	assert.Equal(t, RiskModerate, RiskLevelFor(66))
	assert.Equal(t, RiskHigh, RiskLevelFor(67))

	assert.Equal(t, "Good", AQICategoryFor(50))
	assert.Equal(t, "Moderate", AQICategoryFor(100))
	assert.Equal(t, "Unhealthy for Sensitive Groups", AQICategoryFor(150))
	assert.Equal(t, "Unhealthy", AQICategoryFor(151))
}
