package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy is the tenant-tunable pricing policy loaded from YAML. Everything
// that used to be an inlined constant in earlier revisions of the engine
// (utilization breakpoints, event uplifts, adjustment scale) lives here.
type Policy struct {
	Adjustment  AdjustmentScale   `yaml:"adjustment"`
	Utilization UtilizationPolicy `yaml:"utilization"`
	Holiday     HolidayPolicy     `yaml:"holiday"`
	Defaults    DefaultsPolicy    `yaml:"defaults"`
	Training    TrainingPolicy    `yaml:"training"`
}

// AdjustmentScale converts the 0.5-centered weighted signal into a
// percentage. The premium and discount sides scale independently.
type AdjustmentScale struct {
	PremiumScale  float64 `yaml:"premium_scale"`
	DiscountScale float64 `yaml:"discount_scale"`
}

// UtilizationPolicy maps a utilization ratio onto the signal scale through an
// ordered list of bands. No bands configured means the signal stays neutral.
type UtilizationPolicy struct {
	Bands []Band `yaml:"bands"`
}

// Band assigns one signal value to a half-open utilization interval
// [Lower, Upper). The last band's upper bound is inclusive.
type Band struct {
	Lower  float64 `yaml:"lower"`
	Upper  float64 `yaml:"upper"`
	Signal float64 `yaml:"signal"`
}

// HolidayPolicy configures the additive calendar signal: each matching
// condition adds its uplift above neutral, capped at SignalCap.
type HolidayPolicy struct {
	PublicHolidayUplift  float64 `yaml:"public_holiday_uplift"`
	SchoolHolidayUplift  float64 `yaml:"school_holiday_uplift"`
	ApproachingUplift    float64 `yaml:"approaching_uplift"`
	ApproachWindowDays   int     `yaml:"approach_window_days"`
	WeekendUplift        float64 `yaml:"weekend_uplift"`
	EventScoreMultiplier float64 `yaml:"event_score_multiplier"`
	SignalCap            float64 `yaml:"signal_cap"`
}

// DefaultsPolicy supplies weights and guardrails for tenants that have no
// rows of their own configured.
type DefaultsPolicy struct {
	Weights    WeightsDefaults   `yaml:"weights"`
	Guardrails GuardrailDefaults `yaml:"guardrails"`
}

type WeightsDefaults struct {
	Utilization float64 `yaml:"utilization"`
	Forecast    float64 `yaml:"forecast"`
	Competitor  float64 `yaml:"competitor"`
	Weather     float64 `yaml:"weather"`
	Holiday     float64 `yaml:"holiday"`
}

type GuardrailDefaults struct {
	MinPrice       float64 `yaml:"min_price"`
	MaxDiscountPct float64 `yaml:"max_discount_pct"`
	MaxPremiumPct  float64 `yaml:"max_premium_pct"`
}

// TrainingPolicy controls the feature-store split and forecast horizon.
type TrainingPolicy struct {
	ValidationDays int `yaml:"validation_days"`
	HorizonDays    int `yaml:"horizon_days"`
	SeasonalPeriod int `yaml:"seasonal_period"`
}

// Load reads and validates a policy file.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %s: %w", path, err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy yaml: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("policy validation failed: %w", err)
	}
	return &p, nil
}

// Default returns the neutral fallback policy used when no file is
// configured: no utilization bands (the signal stays at 0.5) and the
// historical default weights and guardrails.
func Default() *Policy {
	return &Policy{
		Adjustment: AdjustmentScale{PremiumScale: 80, DiscountScale: 60},
		Holiday: HolidayPolicy{
			PublicHolidayUplift:  0.40,
			SchoolHolidayUplift:  0.20,
			ApproachingUplift:    0.25,
			ApproachWindowDays:   3,
			WeekendUplift:        0.10,
			EventScoreMultiplier: 0.10,
			SignalCap:            1.0,
		},
		Defaults: DefaultsPolicy{
			Weights: WeightsDefaults{
				Utilization: 0.30,
				Forecast:    0.25,
				Competitor:  0.25,
				Weather:     0.10,
				Holiday:     0.10,
			},
			Guardrails: GuardrailDefaults{
				MinPrice:       50,
				MaxDiscountPct: 25,
				MaxPremiumPct:  50,
			},
		},
		Training: TrainingPolicy{
			ValidationDays: 60,
			HorizonDays:    30,
			SeasonalPeriod: 7,
		},
	}
}

// Validate checks the policy for internally consistent values.
func (p *Policy) Validate() error {
	if p.Adjustment.PremiumScale < 0 || p.Adjustment.DiscountScale < 0 {
		return fmt.Errorf("adjustment scales must be non-negative")
	}

	prev := 0.0
	for i, b := range p.Utilization.Bands {
		if b.Lower < 0 || b.Upper > 1 || b.Lower >= b.Upper {
			return fmt.Errorf("utilization band %d has invalid range [%.2f, %.2f]", i, b.Lower, b.Upper)
		}
		if i > 0 && b.Lower != prev {
			return fmt.Errorf("utilization band %d is not contiguous with the previous band", i)
		}
		if b.Signal < 0 || b.Signal > 1 {
			return fmt.Errorf("utilization band %d signal %.2f outside [0, 1]", i, b.Signal)
		}
		prev = b.Upper
	}
	if n := len(p.Utilization.Bands); n > 0 {
		if p.Utilization.Bands[0].Lower != 0 || p.Utilization.Bands[n-1].Upper != 1 {
			return fmt.Errorf("utilization bands must cover [0, 1]")
		}
	}

	if p.Holiday.SignalCap < 0.5 || p.Holiday.SignalCap > 1 {
		return fmt.Errorf("holiday signal_cap %.2f outside [0.5, 1]", p.Holiday.SignalCap)
	}

	w := p.Defaults.Weights
	for name, v := range map[string]float64{
		"utilization": w.Utilization,
		"forecast":    w.Forecast,
		"competitor":  w.Competitor,
		"weather":     w.Weather,
		"holiday":     w.Holiday,
	} {
		if v < 0 {
			return fmt.Errorf("default weight %s is negative", name)
		}
	}

	g := p.Defaults.Guardrails
	if g.MinPrice < 0 || g.MaxDiscountPct < 0 || g.MaxPremiumPct < 0 {
		return fmt.Errorf("default guardrails must be non-negative")
	}

	if p.Training.HorizonDays <= 0 {
		return fmt.Errorf("training horizon_days must be positive")
	}
	if p.Training.SeasonalPeriod <= 0 {
		return fmt.Errorf("training seasonal_period must be positive")
	}
	return nil
}

// UtilizationSignal maps a utilization ratio to a signal using the configured
// bands; neutral 0.5 when no bands are configured.
func (p *Policy) UtilizationSignal(utilization float64) float64 {
	if len(p.Utilization.Bands) == 0 {
		return 0.5
	}
	if utilization < 0 {
		utilization = 0
	}
	if utilization > 1 {
		utilization = 1
	}
	for i, b := range p.Utilization.Bands {
		last := i == len(p.Utilization.Bands)-1
		if utilization < b.Upper || (last && utilization <= b.Upper) {
			return b.Signal
		}
	}
	return 0.5
}
