package service

import (
	"testing"
	"time"

	"fleet-pricer/internal/forecast"
	"fleet-pricer/internal/models"
	"fleet-pricer/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestForecastService() *ForecastService {
	return NewForecastService(nil, nil, nil, policy.Default(), 2, zap.NewNop())
}

func TestBuildMetricRowsSingleBest(t *testing.T) {
	svc := newTestForecastService()
	runDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	aggregates := map[string]*modelAggregate{
		"seasonal_naive": {
			version:     "1.0",
			weightedMAE: 3.0 * 20,
			samples:     20,
			trainRows:   120,
			trainingSec: 0.1,
		},
		"holt_winters": {
			version:     "1.0",
			weightedMAE: 2.0 * 20,
			samples:     20,
			trainRows:   120,
			trainingSec: 0.4,
		},
		"gradient_regressor": {
			version:     "1.0",
			weightedMAE: 2.5 * 20,
			samples:     20,
			trainRows:   120,
			trainingSec: 1.2,
		},
	}

	rows, best := svc.buildMetricRows(1, runDate, aggregates)
	assert.Equal(t, "holt_winters", best)
	require.Len(t, rows, 3)

	bestCount := 0
	for _, row := range rows {
		assert.Equal(t, runDate, row.EvaluationDate)
		assert.Equal(t, int64(1), row.TenantID)
		if row.IsBestModel {
			bestCount++
			assert.Equal(t, "holt_winters", row.ModelName)
			assert.InDelta(t, 2.0, row.MAE, 1e-9)
		}
	}
	assert.Equal(t, 1, bestCount, "exactly one row carries the best flag")
}

func TestBuildMetricRowsWeightedPooling(t *testing.T) {
	svc := newTestForecastService()
	mapeTotal := 10.0*30 + 20.0*10

	aggregates := map[string]*modelAggregate{
		"seasonal_naive": {
			version:      "1.0",
			weightedMAE:  1.0*30 + 5.0*10, // two series, different volumes
			weightedMAPE: mapeTotal,
			mapeSamples:  40,
			samples:      40,
		},
	}

	rows, best := svc.buildMetricRows(1, time.Now().UTC(), aggregates)
	require.Len(t, rows, 1)
	assert.Equal(t, "seasonal_naive", best)
	assert.InDelta(t, 2.0, rows[0].MAE, 1e-9)
	require.NotNil(t, rows[0].MAPE)
	assert.InDelta(t, 12.5, *rows[0].MAPE, 1e-9)
}

func TestBuildForecastRecordsIntervals(t *testing.T) {
	svc := newTestForecastService()
	runDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	key := models.SeriesKey{BranchID: 2, CategoryID: 3}

	rmse := 2.0
	backtest := forecast.Metrics{MAE: 1.5, RMSE: &rmse, Samples: 14}
	preds := []forecast.Prediction{
		{Date: runDate.AddDate(0, 0, 1), HorizonDay: 1, Demand: 10},
		{Date: runDate.AddDate(0, 0, 2), HorizonDay: 2, Demand: 1},
	}

	model := forecast.NewSeasonalNaive(7)
	records := svc.buildForecastRecords(1, runDate, key, model, preds, backtest)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "seasonal_naive", first.ModelName)
	assert.Equal(t, 1, first.HorizonDay)
	require.NotNil(t, first.LowerBound)
	require.NotNil(t, first.UpperBound)
	assert.InDelta(t, 10-1.96*2, *first.LowerBound, 1e-9)
	assert.InDelta(t, 10+1.96*2, *first.UpperBound, 1e-9)

	// Lower bound never goes below zero demand.
	second := records[1]
	require.NotNil(t, second.LowerBound)
	assert.Equal(t, 0.0, *second.LowerBound)
}

func TestBuildForecastRecordsNoRMSENoBounds(t *testing.T) {
	svc := newTestForecastService()
	runDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	records := svc.buildForecastRecords(1, runDate, models.SeriesKey{BranchID: 1, CategoryID: 1},
		forecast.NewSeasonalNaive(7),
		[]forecast.Prediction{{Date: runDate.AddDate(0, 0, 1), HorizonDay: 1, Demand: 5}},
		forecast.Metrics{MAE: 1},
	)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].LowerBound)
	assert.Nil(t, records[0].UpperBound)
}

func TestToForecastObservation(t *testing.T) {
	obs := models.DemandObservation{
		Date:            time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC),
		RentalsCount:    12,
		RentalsLag1:     11,
		RentalsLag7:     9,
		Rolling7Avg:     10.5,
		Rolling30Avg:    10.1,
		DayOfWeek:       6,
		IsWeekend:       true,
		IsPublicHoliday: true,
	}

	fo := toForecastObservation(obs)
	assert.Equal(t, 12.0, fo.Demand)
	assert.Equal(t, 11.0, fo.Lag1)
	assert.Equal(t, 9.0, fo.Lag7)
	assert.Equal(t, 10.5, fo.Roll7)
	assert.True(t, fo.IsWeekend)
	assert.True(t, fo.IsHoliday)
}
