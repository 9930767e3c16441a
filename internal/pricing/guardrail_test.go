package pricing

import (
	"strings"
	"testing"

	"fleet-pricer/internal/models"
	"fleet-pricer/internal/policy"

	"github.com/stretchr/testify/assert"
)

var (
	testWeights = models.SignalWeights{
		Utilization: 0.30,
		Forecast:    0.25,
		Competitor:  0.25,
		Weather:     0.10,
		Holiday:     0.10,
	}
	testScale = policy.AdjustmentScale{PremiumScale: 80, DiscountScale: 60}
)

func ptr(v float64) *float64 { return &v }

func neutralSignals() Signals {
	return Signals{
		Utilization: Neutral,
		Forecast:    Neutral,
		Competitor:  ptr(Neutral),
		Weather:     Neutral,
		Holiday:     Neutral,
	}
}

func allSignals(v float64) Signals {
	return Signals{
		Utilization: v,
		Forecast:    v,
		Competitor:  ptr(v),
		Weather:     v,
		Holiday:     v,
	}
}

func TestCombineNeutralIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Combine(neutralSignals(), testWeights, testScale))
}

func TestCombineScalesAsymmetrically(t *testing.T) {
	// Full premium pressure: deviation 0.5 on the premium scale.
	assert.InDelta(t, 40.0, Combine(allSignals(1.0), testWeights, testScale), 1e-9)
	// Full discount pressure on the smaller discount scale.
	assert.InDelta(t, -30.0, Combine(allSignals(0.0), testWeights, testScale), 1e-9)
}

func TestCombineSingleSignalContribution(t *testing.T) {
	s := neutralSignals()
	s.Utilization = 1.0
	assert.InDelta(t, 12.0, Combine(s, testWeights, testScale), 1e-9) // 0.5 * 0.30 * 80

	s = neutralSignals()
	s.Utilization = 0.0
	assert.InDelta(t, -9.0, Combine(s, testWeights, testScale), 1e-9) // -0.5 * 0.30 * 60
}

func TestCombineMissingCompetitorIsNeutral(t *testing.T) {
	s := neutralSignals()
	s.Competitor = nil
	assert.Equal(t, 0.0, Combine(s, testWeights, testScale))
}

func TestApplyWithinBounds(t *testing.T) {
	base := models.BaseRates{Daily: 100, Weekly: 600, Monthly: 2500}
	guardrails := models.GuardrailConfig{MinPrice: 50, MaxDiscountPct: 25, MaxPremiumPct: 50}

	s := neutralSignals()
	s.Utilization = 0.6
	out := Apply(base, s, testWeights, guardrails, testScale)

	assert.InDelta(t, 2.4, out.RawAdjustmentPct, 1e-9)
	assert.InDelta(t, 2.4, out.PremiumDiscountPct, 1e-9)
	assert.InDelta(t, 102.4, out.RecDaily, 1e-9)
	assert.InDelta(t, 614.4, out.RecWeekly, 1e-9)
	assert.InDelta(t, 2560.0, out.RecMonthly, 1e-9)
	assert.False(t, out.GuardrailApplied)
	assert.Empty(t, out.BoundFired)
}

func TestApplyClampsPremium(t *testing.T) {
	base := models.BaseRates{Daily: 100, Weekly: 600, Monthly: 2500}
	guardrails := models.GuardrailConfig{MinPrice: 50, MaxDiscountPct: 25, MaxPremiumPct: 10}

	out := Apply(base, allSignals(1.0), testWeights, guardrails, testScale)

	assert.InDelta(t, 40.0, out.RawAdjustmentPct, 1e-9)
	assert.InDelta(t, 10.0, out.PremiumDiscountPct, 1e-9)
	assert.InDelta(t, 110.0, out.RecDaily, 1e-9)
	assert.True(t, out.GuardrailApplied)
	assert.Equal(t, BoundMaxPremium, out.BoundFired)
	assert.Contains(t, out.Explanation, "Adjusted within guardrails")
}

func TestApplyClampsDiscount(t *testing.T) {
	base := models.BaseRates{Daily: 100, Weekly: 600, Monthly: 2500}
	guardrails := models.GuardrailConfig{MinPrice: 50, MaxDiscountPct: 25, MaxPremiumPct: 50}

	out := Apply(base, allSignals(0.0), testWeights, guardrails, testScale)

	assert.InDelta(t, -30.0, out.RawAdjustmentPct, 1e-9)
	assert.InDelta(t, -25.0, out.PremiumDiscountPct, 1e-9)
	assert.InDelta(t, 75.0, out.RecDaily, 1e-9)
	assert.True(t, out.GuardrailApplied)
	assert.Equal(t, BoundMaxDiscount, out.BoundFired)
}

func TestApplyMinPriceFloorRecomputesPct(t *testing.T) {
	base := models.BaseRates{Daily: 60, Weekly: 360, Monthly: 1500}
	guardrails := models.GuardrailConfig{MinPrice: 55, MaxDiscountPct: 30, MaxPremiumPct: 50}

	out := Apply(base, allSignals(0.0), testWeights, guardrails, testScale)

	assert.InDelta(t, 55.0, out.RecDaily, 1e-9)
	assert.InDelta(t, -8.3333, out.PremiumDiscountPct, 1e-4,
		"final pct reflects the floored price, not the raw clamp")
	assert.InDelta(t, 330.0, out.RecWeekly, 0.01)
	assert.True(t, out.GuardrailApplied)
	assert.Equal(t, BoundMinPrice, out.BoundFired)
}

func TestApplyDeterministic(t *testing.T) {
	base := models.BaseRates{Daily: 100, Weekly: 600, Monthly: 2500}
	guardrails := models.GuardrailConfig{MinPrice: 50, MaxDiscountPct: 25, MaxPremiumPct: 50}

	s := Signals{Utilization: 0.65, Forecast: 0.8, Competitor: ptr(0.4), Weather: 0.4, Holiday: 0.75}
	first := Apply(base, s, testWeights, guardrails, testScale)
	second := Apply(base, s, testWeights, guardrails, testScale)
	assert.Equal(t, first, second)
}

func TestExplanationNamesDrivingFactors(t *testing.T) {
	s := neutralSignals()
	s.Forecast = 0.9
	s.Competitor = ptr(0.8)
	s.Weather = 0.3

	out := Apply(
		models.BaseRates{Daily: 100, Weekly: 600, Monthly: 2500},
		s, testWeights,
		models.GuardrailConfig{MinPrice: 50, MaxDiscountPct: 25, MaxPremiumPct: 50},
		testScale,
	)

	assert.Contains(t, out.Explanation, "High forecast demand (+)")
	assert.Contains(t, out.Explanation, "Competitors priced higher (+)")
	assert.Contains(t, out.Explanation, "Bad weather expected (-)")
	assert.NotContains(t, out.Explanation, "utilization")
}

func TestExplanationNormalConditions(t *testing.T) {
	out := Apply(
		models.BaseRates{Daily: 100, Weekly: 600, Monthly: 2500},
		neutralSignals(), testWeights,
		models.GuardrailConfig{MinPrice: 50, MaxDiscountPct: 25, MaxPremiumPct: 50},
		testScale,
	)
	assert.True(t, strings.HasPrefix(out.Explanation, "Normal conditions"))
	assert.False(t, out.GuardrailApplied)
}
