package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	m := Evaluate([]float64{10, 20}, []float64{12, 18})

	assert.Equal(t, 2, m.Samples)
	assert.InDelta(t, 2.0, m.MAE, 1e-9)
	require.NotNil(t, m.RMSE)
	assert.InDelta(t, 2.0, *m.RMSE, 1e-9)
	require.NotNil(t, m.MAPE)
	assert.InDelta(t, 15.0, *m.MAPE, 1e-9)
	require.NotNil(t, m.SMAPE)
	assert.InDelta(t, 14.354, *m.SMAPE, 0.01)
}

func TestEvaluateZeroActualsSkipsMAPE(t *testing.T) {
	m := Evaluate([]float64{0, 0}, []float64{0, 0})

	assert.InDelta(t, 0.0, m.MAE, 1e-9)
	assert.Nil(t, m.MAPE, "MAPE undefined when every actual is zero")
	assert.Nil(t, m.SMAPE)
}

func TestEvaluateEmpty(t *testing.T) {
	m := Evaluate(nil, nil)
	assert.Equal(t, 0, m.Samples)
	assert.True(t, math.IsInf(m.MAE, 1), "empty evaluation must never win selection")
}

func TestSelectBestLowestMAE(t *testing.T) {
	mape10, mape5 := 10.0, 5.0
	best := SelectBest(map[string]Metrics{
		"a": {MAE: 3.0, MAPE: &mape5},
		"b": {MAE: 1.5, MAPE: &mape10},
		"c": {MAE: 2.0},
	})
	assert.Equal(t, "b", best)
}

func TestSelectBestTiebreakByMAPE(t *testing.T) {
	mape10, mape5 := 10.0, 5.0
	best := SelectBest(map[string]Metrics{
		"a": {MAE: 2.0, MAPE: &mape10},
		"b": {MAE: 2.0, MAPE: &mape5},
	})
	assert.Equal(t, "b", best)
}

func TestSelectBestTiebreakPrefersDefinedMAPE(t *testing.T) {
	mape := 40.0
	best := SelectBest(map[string]Metrics{
		"undefined": {MAE: 2.0},
		"defined":   {MAE: 2.0, MAPE: &mape},
	})
	assert.Equal(t, "defined", best)
}

func TestSelectBestExactTieIsDeterministic(t *testing.T) {
	mape := 12.0
	metrics := map[string]Metrics{
		"gamma": {MAE: 2.0, MAPE: &mape},
		"alpha": {MAE: 2.0, MAPE: &mape},
		"beta":  {MAE: 2.0, MAPE: &mape},
	}
	// Map iteration order is randomized; an exact tie must still resolve to
	// the same winner on every call.
	for i := 0; i < 50; i++ {
		assert.Equal(t, "alpha", SelectBest(metrics))
	}
}

func TestSelectBestEmpty(t *testing.T) {
	assert.Equal(t, "", SelectBest(nil))
}
