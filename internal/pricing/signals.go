package pricing

import (
	"fleet-pricer/internal/policy"
)

// Signal values share one scale: 0 is strong discount pressure, 0.5 neutral,
// 1.0 strong premium pressure. Each function is independent of the others so
// they can be validated in isolation.

// Neutral is the no-pressure signal value.
const Neutral = 0.5

// UtilizationSignal maps the rented/(rented+available) ratio through the
// tenant's configured bands.
func UtilizationSignal(utilization float64, pol *policy.Policy) float64 {
	return pol.UtilizationSignal(utilization)
}

// ForecastSignal compares predicted demand against the series baseline
// average. Ratios above 1.0 push toward premium, below toward discount.
// Monotonically non-decreasing in the ratio.
func ForecastSignal(predicted, baseline float64) float64 {
	if baseline <= 0 {
		return Neutral
	}
	ratio := predicted / baseline
	switch {
	case ratio >= 1.5:
		return 1.0
	case ratio >= 1.0:
		return 0.5 + (ratio - 1.0)
	case ratio >= 0.5:
		return ratio - 0.5
	default:
		return 0.0
	}
}

// CompetitorSignal positions our base price against the competitor index
// price. Being cheaper than the market leaves room to raise.
func CompetitorSignal(ourPrice, competitorPrice float64) float64 {
	if competitorPrice <= 0 || ourPrice <= 0 {
		return Neutral
	}
	ratio := ourPrice / competitorPrice
	switch {
	case ratio < 0.8:
		s := 0.7 + (0.8-ratio)*1.5
		if s > 1 {
			s = 1
		}
		return s
	case ratio <= 1.2:
		return 0.4 + (1.2-ratio)*0.5
	default:
		s := 0.3 - (ratio-1.2)*0.5
		if s < 0 {
			s = 0
		}
		return s
	}
}

// WeatherSignal converts the provider's bad-weather severity score (0 clear,
// 1 severe) into demand pressure: bad weather discounts, clear weather nudges
// up.
func WeatherSignal(severity float64) float64 {
	switch {
	case severity >= 0.7:
		return 0.3
	case severity >= 0.4:
		return 0.4
	case severity <= 0.1:
		return 0.6
	default:
		return Neutral
	}
}

// CalendarContext is the per-date input to the holiday signal.
type CalendarContext struct {
	IsPublicHoliday bool
	IsSchoolHoliday bool
	DaysToHoliday   int
	IsWeekend       bool
	EventScore      float64
}

// HolidaySignal adds the configured uplift of every matching calendar
// condition above neutral, capped at the policy's signal cap.
func HolidaySignal(day CalendarContext, pol *policy.Policy) float64 {
	h := pol.Holiday
	signal := Neutral

	if day.IsPublicHoliday {
		signal += h.PublicHolidayUplift
	} else if day.DaysToHoliday >= 0 && day.DaysToHoliday <= h.ApproachWindowDays {
		signal += h.ApproachingUplift
	}
	if day.IsSchoolHoliday {
		signal += h.SchoolHolidayUplift
	}
	if day.IsWeekend {
		signal += h.WeekendUplift
	}
	if day.EventScore > 0 {
		signal += day.EventScore * h.EventScoreMultiplier
	}

	cap := h.SignalCap
	if cap <= 0 {
		cap = 1.0
	}
	if signal > cap {
		signal = cap
	}
	return signal
}
