package pricing

import (
	"fmt"
	"math"
	"strings"

	"fleet-pricer/internal/models"
	"fleet-pricer/internal/policy"
)

// Bound names recorded when a clamp fires.
const (
	BoundMaxPremium  = "max_premium"
	BoundMaxDiscount = "max_discount"
	BoundMinPrice    = "min_price"
)

// Signals is the per-day signal breakdown. Competitor is nil when no
// competitor data existed for the series; it contributes neutrally.
type Signals struct {
	Utilization float64
	Forecast    float64
	Competitor  *float64
	Weather     float64
	Holiday     float64
}

// Outcome is the bounded pricing decision for one day. A pure function of
// its inputs: same signals, weights, guardrails and base rates always yield
// the same outcome.
type Outcome struct {
	RawAdjustmentPct   float64
	PremiumDiscountPct float64
	RecDaily           float64
	RecWeekly          float64
	RecMonthly         float64
	GuardrailApplied   bool
	BoundFired         string
	Explanation        string
}

// Combine turns the weighted signal deviations from neutral into a raw
// percentage adjustment. Weights are applied exactly as configured; the
// premium and discount sides use independent scales.
func Combine(signals Signals, weights models.SignalWeights, scale policy.AdjustmentScale) float64 {
	competitor := Neutral
	if signals.Competitor != nil {
		competitor = *signals.Competitor
	}

	deviation := (signals.Utilization-Neutral)*weights.Utilization +
		(signals.Forecast-Neutral)*weights.Forecast +
		(competitor-Neutral)*weights.Competitor +
		(signals.Weather-Neutral)*weights.Weather +
		(signals.Holiday-Neutral)*weights.Holiday

	if deviation >= 0 {
		return round4(deviation * scale.PremiumScale)
	}
	return round4(deviation * scale.DiscountScale)
}

// Apply combines signals into a raw adjustment, clamps it against the
// guardrails and produces the final recommended prices plus the explanation.
func Apply(
	base models.BaseRates,
	signals Signals,
	weights models.SignalWeights,
	guardrails models.GuardrailConfig,
	scale policy.AdjustmentScale,
) Outcome {
	raw := Combine(signals, weights, scale)
	final := raw
	applied := false
	bound := ""

	if final > guardrails.MaxPremiumPct {
		final = guardrails.MaxPremiumPct
		applied = true
		bound = BoundMaxPremium
	}
	if final < -guardrails.MaxDiscountPct {
		final = -guardrails.MaxDiscountPct
		applied = true
		bound = BoundMaxDiscount
	}

	recDaily := base.Daily * (1 + final/100)
	if recDaily < guardrails.MinPrice {
		recDaily = guardrails.MinPrice
		if base.Daily > 0 {
			final = (recDaily/base.Daily - 1) * 100
		}
		applied = true
		bound = BoundMinPrice
	}
	final = round4(final)

	return Outcome{
		RawAdjustmentPct:   raw,
		PremiumDiscountPct: final,
		RecDaily:           round2(recDaily),
		RecWeekly:          round2(base.Weekly * (1 + final/100)),
		RecMonthly:         round2(base.Monthly * (1 + final/100)),
		GuardrailApplied:   applied,
		BoundFired:         bound,
		Explanation:        explain(signals, raw, final, applied),
	}
}

func explain(signals Signals, raw, final float64, clamped bool) string {
	var factors []string

	if signals.Utilization >= 0.7 {
		factors = append(factors, "High utilization (+)")
	} else if signals.Utilization <= 0.3 {
		factors = append(factors, "Low utilization (-)")
	}

	if signals.Forecast >= 0.7 {
		factors = append(factors, "High forecast demand (+)")
	} else if signals.Forecast <= 0.3 {
		factors = append(factors, "Low forecast demand (-)")
	}

	if signals.Competitor != nil {
		if *signals.Competitor >= 0.7 {
			factors = append(factors, "Competitors priced higher (+)")
		} else if *signals.Competitor <= 0.3 {
			factors = append(factors, "Competitors priced lower (-)")
		}
	}

	if signals.Weather <= 0.3 {
		factors = append(factors, "Bad weather expected (-)")
	} else if signals.Weather >= 0.7 {
		factors = append(factors, "Good weather expected (+)")
	}

	if signals.Holiday >= 0.7 {
		factors = append(factors, "Holiday/weekend period (+)")
	}

	if len(factors) == 0 {
		factors = append(factors, "Normal conditions")
	}

	explanation := strings.Join(factors, ". ")
	if clamped {
		explanation += fmt.Sprintf(". Adjusted within guardrails (raw: %.1f%% -> final: %.1f%%)", raw, final)
	}
	return explanation
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
