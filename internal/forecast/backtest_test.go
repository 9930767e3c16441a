package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingOriginPerfectlyPeriodicSeries(t *testing.T) {
	pattern := []float64{5, 6, 7, 8, 9, 14, 13}
	all := series(t, repeatPattern(pattern, 6))
	train, validation := all[:28], all[28:]

	m, err := RollingOrigin(NewSeasonalNaive(7), train, validation, 7)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, m.MAE, 1e-9, "seasonal naive is exact on a periodic series")
	assert.Equal(t, len(validation), m.Samples)
}

func TestRollingOriginRevealsActualsBetweenWindows(t *testing.T) {
	// Level shift inside the validation slice: the second window must see
	// the revealed first window, so its error drops back to zero.
	pattern := []float64{5, 5, 5, 5, 5, 5, 5}
	shifted := []float64{9, 9, 9, 9, 9, 9, 9}
	values := append(repeatPattern(pattern, 4), append(shifted, shifted...)...)
	all := series(t, values)
	train, validation := all[:28], all[28:]

	m, err := RollingOrigin(NewSeasonalNaive(7), train, validation, 7)
	require.NoError(t, err)

	// First window misses by 4 on every day, second window is exact.
	assert.InDelta(t, 2.0, m.MAE, 1e-9)
}

func TestRollingOriginEmptyValidation(t *testing.T) {
	all := series(t, repeatPattern([]float64{1, 2, 3, 4, 5, 6, 7}, 2))
	_, err := RollingOrigin(NewSeasonalNaive(7), all, nil, 7)
	assert.Error(t, err)
}

func TestRollingOriginPropagatesFitErrors(t *testing.T) {
	all := series(t, []float64{1, 2, 3})
	_, err := RollingOrigin(NewSeasonalNaive(7), nil, all, 7)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}
