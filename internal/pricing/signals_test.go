package pricing

import (
	"testing"

	"fleet-pricer/internal/policy"

	"github.com/stretchr/testify/assert"
)

func bandedPolicy() *policy.Policy {
	p := policy.Default()
	p.Utilization.Bands = []policy.Band{
		{Lower: 0, Upper: 0.5, Signal: 0.30},
		{Lower: 0.5, Upper: 0.7, Signal: 0.45},
		{Lower: 0.7, Upper: 0.9, Signal: 0.65},
		{Lower: 0.9, Upper: 1.0, Signal: 1.00},
	}
	return p
}

func TestUtilizationSignalBands(t *testing.T) {
	pol := bandedPolicy()

	assert.Equal(t, 0.30, UtilizationSignal(0.0, pol))
	assert.Equal(t, 0.30, UtilizationSignal(0.49, pol))
	assert.Equal(t, 0.45, UtilizationSignal(0.5, pol))
	assert.Equal(t, 0.65, UtilizationSignal(0.7, pol))
	assert.Equal(t, 1.00, UtilizationSignal(0.95, pol))
	assert.Equal(t, 1.00, UtilizationSignal(1.0, pol))
}

func TestUtilizationSignalNoBandsIsNeutral(t *testing.T) {
	assert.Equal(t, Neutral, UtilizationSignal(0.95, policy.Default()))
}

func TestForecastSignalMapping(t *testing.T) {
	assert.Equal(t, 1.0, ForecastSignal(150, 100))
	assert.Equal(t, 1.0, ForecastSignal(300, 100))
	assert.InDelta(t, 0.7, ForecastSignal(120, 100), 1e-9)
	assert.InDelta(t, 0.5, ForecastSignal(100, 100), 1e-9)
	assert.InDelta(t, 0.3, ForecastSignal(80, 100), 1e-9)
	assert.Equal(t, 0.0, ForecastSignal(40, 100))
}

func TestForecastSignalZeroBaselineIsNeutral(t *testing.T) {
	assert.Equal(t, Neutral, ForecastSignal(50, 0))
}

func TestForecastSignalMonotone(t *testing.T) {
	prev := -1.0
	for demand := 0.0; demand <= 200; demand += 5 {
		s := ForecastSignal(demand, 100)
		assert.GreaterOrEqual(t, s, prev, "signal must not decrease as demand grows")
		prev = s
	}
}

func TestCompetitorSignal(t *testing.T) {
	// Priced well below market: strong premium pressure.
	assert.InDelta(t, 0.85, CompetitorSignal(70, 100), 1e-9)
	// At market.
	assert.InDelta(t, 0.5, CompetitorSignal(100, 100), 1e-9)
	// Priced above market: discount pressure.
	assert.InDelta(t, 0.25, CompetitorSignal(130, 100), 1e-9)
	// Clamped to the signal scale.
	assert.Equal(t, 1.0, CompetitorSignal(10, 100))
	assert.Equal(t, 0.0, CompetitorSignal(500, 100))
}

func TestCompetitorSignalMissingPricesAreNeutral(t *testing.T) {
	assert.Equal(t, Neutral, CompetitorSignal(100, 0))
	assert.Equal(t, Neutral, CompetitorSignal(0, 100))
}

func TestWeatherSignal(t *testing.T) {
	assert.Equal(t, 0.3, WeatherSignal(0.9))
	assert.Equal(t, 0.3, WeatherSignal(0.7))
	assert.Equal(t, 0.4, WeatherSignal(0.5))
	assert.Equal(t, Neutral, WeatherSignal(0.2))
	assert.Equal(t, 0.6, WeatherSignal(0.05))
}

func TestHolidaySignal(t *testing.T) {
	pol := policy.Default()

	assert.Equal(t, Neutral, HolidaySignal(CalendarContext{DaysToHoliday: -1}, pol))
	assert.InDelta(t, 0.9, HolidaySignal(CalendarContext{IsPublicHoliday: true, DaysToHoliday: 0}, pol), 1e-9)
	assert.InDelta(t, 0.75, HolidaySignal(CalendarContext{DaysToHoliday: 2}, pol), 1e-9)
	assert.InDelta(t, 0.7, HolidaySignal(CalendarContext{IsSchoolHoliday: true, DaysToHoliday: -1}, pol), 1e-9)
	assert.InDelta(t, 0.6, HolidaySignal(CalendarContext{IsWeekend: true, DaysToHoliday: -1}, pol), 1e-9)
}

func TestHolidaySignalUpliftsAreAdditiveAndCapped(t *testing.T) {
	pol := policy.Default()

	stacked := HolidaySignal(CalendarContext{
		IsPublicHoliday: true,
		IsSchoolHoliday: true,
		IsWeekend:       true,
		DaysToHoliday:   0,
		EventScore:      2,
	}, pol)
	assert.Equal(t, 1.0, stacked, "stacked uplifts hit the cap")

	pol.Holiday.SignalCap = 0.95
	assert.Equal(t, 0.95, HolidaySignal(CalendarContext{
		IsPublicHoliday: true,
		IsSchoolHoliday: true,
		DaysToHoliday:   0,
	}, pol))
}

func TestHolidaySignalApproachWindow(t *testing.T) {
	pol := policy.Default()

	inWindow := HolidaySignal(CalendarContext{DaysToHoliday: 3}, pol)
	outOfWindow := HolidaySignal(CalendarContext{DaysToHoliday: 4}, pol)
	assert.Greater(t, inWindow, Neutral)
	assert.Equal(t, Neutral, outOfWindow)
}
