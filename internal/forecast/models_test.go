package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// series builds daily observations from raw values with lag/rolling features
// filled the way the feature store would.
func series(t *testing.T, values []float64) []Observation {
	t.Helper()
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC) // a Monday
	obs := make([]Observation, len(values))
	for i, v := range values {
		date := start.AddDate(0, 0, i)
		o := Observation{
			Date:      date,
			Demand:    v,
			DayOfWeek: int(date.Weekday()),
			IsWeekend: date.Weekday() == time.Saturday || date.Weekday() == time.Sunday,
		}
		if i >= 1 {
			o.Lag1 = values[i-1]
		}
		if i >= 7 {
			o.Lag7 = values[i-7]
		}
		o.Roll7 = windowMean(values[:i], 7)
		o.Roll30 = windowMean(values[:i], 30)
		obs[i] = o
	}
	return obs
}

func windowMean(prior []float64, window int) float64 {
	if len(prior) == 0 {
		return 0
	}
	if len(prior) < window {
		window = len(prior)
	}
	var sum float64
	for _, v := range prior[len(prior)-window:] {
		sum += v
	}
	return sum / float64(window)
}

func repeatPattern(pattern []float64, cycles int) []float64 {
	out := make([]float64, 0, len(pattern)*cycles)
	for i := 0; i < cycles; i++ {
		out = append(out, pattern...)
	}
	return out
}

func TestSeasonalNaiveRepeatsLastPeriod(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}
	m := NewSeasonalNaive(7)
	require.NoError(t, m.Fit(series(t, values)))

	preds, err := m.Forecast(10)
	require.NoError(t, err)
	require.Len(t, preds, 10)

	// The last observed week is 7..13; horizons repeat it cyclically.
	assert.Equal(t, 7.0, preds[0].Demand)
	assert.Equal(t, 13.0, preds[6].Demand)
	assert.Equal(t, 7.0, preds[7].Demand)
	assert.Equal(t, 1, preds[0].HorizonDay)
}

func TestSeasonalNaiveInsufficientHistory(t *testing.T) {
	m := NewSeasonalNaive(7)
	err := m.Fit(series(t, []float64{1, 2, 3}))
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestSeasonalNaiveForecastBeforeFit(t *testing.T) {
	_, err := NewSeasonalNaive(7).Forecast(5)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestHoltWintersConstantSeries(t *testing.T) {
	values := repeatPattern([]float64{10, 10, 10, 10, 10, 10, 10}, 4)
	m := NewHoltWinters(7)
	require.NoError(t, m.Fit(series(t, values)))

	preds, err := m.Forecast(14)
	require.NoError(t, err)
	for _, p := range preds {
		assert.InDelta(t, 10.0, p.Demand, 0.5)
	}
}

func TestHoltWintersTracksSeasonalPattern(t *testing.T) {
	pattern := []float64{10, 10, 10, 10, 12, 20, 20}
	values := repeatPattern(pattern, 8)
	m := NewHoltWinters(7)
	require.NoError(t, m.Fit(series(t, values)))

	preds, err := m.Forecast(7)
	require.NoError(t, err)

	// Weekend horizons should forecast clearly above weekday horizons.
	var weekday, weekend float64
	for _, p := range preds {
		if p.Date.Weekday() == time.Saturday || p.Date.Weekday() == time.Sunday {
			weekend += p.Demand
		} else {
			weekday += p.Demand
		}
	}
	assert.Greater(t, weekend/2, weekday/5)
}

func TestHoltWintersPeakStaysOnItsWeekday(t *testing.T) {
	// Saturday peak, everything else flat. The forecast must place the peak
	// on Saturday, not drift it onto a neighboring weekday.
	values := repeatPattern([]float64{10, 10, 10, 10, 10, 40, 10}, 4)
	m := NewHoltWinters(7)
	require.NoError(t, m.Fit(series(t, values)))

	preds, err := m.Forecast(7)
	require.NoError(t, err)
	require.Len(t, preds, 7)

	peak := preds[0]
	for _, p := range preds {
		if p.Demand > peak.Demand {
			peak = p
		}
	}
	assert.Equal(t, time.Saturday, peak.Date.Weekday())
	for _, p := range preds {
		if p.Date.Weekday() == time.Saturday {
			assert.Greater(t, p.Demand, 25.0)
		} else {
			assert.Less(t, p.Demand, 20.0)
		}
	}
}

func TestHoltWintersShortSeriesFallsBackToFlatLevel(t *testing.T) {
	values := []float64{4, 6, 5, 5, 4, 6, 5, 5, 5} // 9 < 2*7
	m := NewHoltWinters(7)
	require.NoError(t, m.Fit(series(t, values)))

	preds, err := m.Forecast(3)
	require.NoError(t, err)
	for _, p := range preds {
		assert.InDelta(t, 5.0, p.Demand, 0.5)
	}
}

func TestGradientRegressorDeterministic(t *testing.T) {
	pattern := []float64{8, 9, 10, 9, 11, 16, 15}
	values := repeatPattern(pattern, 6)
	obs := series(t, values)

	a := NewGradientRegressor()
	require.NoError(t, a.Fit(obs))
	predsA, err := a.Forecast(30)
	require.NoError(t, err)

	b := NewGradientRegressor()
	require.NoError(t, b.Fit(obs))
	predsB, err := b.Forecast(30)
	require.NoError(t, err)

	require.Len(t, predsB, 30)
	for i := range predsA {
		assert.Equal(t, predsA[i].Demand, predsB[i].Demand,
			"identical training data must reproduce identical forecasts")
	}
}

func TestGradientRegressorNonNegative(t *testing.T) {
	values := repeatPattern([]float64{0, 0, 1, 0, 0, 2, 1}, 5)
	m := NewGradientRegressor()
	require.NoError(t, m.Fit(series(t, values)))

	preds, err := m.Forecast(30)
	require.NoError(t, err)
	for _, p := range preds {
		assert.GreaterOrEqual(t, p.Demand, 0.0)
	}
}

func TestGradientRegressorInsufficientHistory(t *testing.T) {
	m := NewGradientRegressor()
	err := m.Fit(series(t, []float64{1, 2, 3, 4, 5}))
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}
