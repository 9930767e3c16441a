package service

import (
	"testing"
	"time"

	"fleet-pricer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLagValueStrictlyPrior(t *testing.T) {
	demands := []float64{1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, 7.0, lagValue(demands, 1))
	assert.Equal(t, 1.0, lagValue(demands, 7))
	assert.Equal(t, 0.0, lagValue(demands, 8), "not enough prior days yields zero, never a future value")
	assert.Equal(t, 0.0, lagValue(nil, 1))
}

func TestRollingMean(t *testing.T) {
	demands := []float64{10, 20, 30}

	assert.InDelta(t, 20.0, rollingMean(demands, 7), 1e-9, "short history shrinks the window")
	assert.InDelta(t, 25.0, rollingMean(demands, 2), 1e-9)
	assert.Equal(t, 0.0, rollingMean(nil, 7))
}

func TestLatestSnapshotAt(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC) }
	snapshots := []models.FleetStatusSnapshot{
		{Date: day(2), RentedCount: 5, AvailableCount: 15},
		{Date: day(9), RentedCount: 12, AvailableCount: 8},
		{Date: day(16), RentedCount: 18, AvailableCount: 2},
	}

	assert.Nil(t, latestSnapshotAt(snapshots, day(1)), "no snapshot at or before the date")

	snap := latestSnapshotAt(snapshots, day(2))
	require.NotNil(t, snap)
	assert.Equal(t, 5, snap.RentedCount)

	snap = latestSnapshotAt(snapshots, day(12))
	require.NotNil(t, snap)
	assert.Equal(t, 12, snap.RentedCount, "most recent snapshot at or before the date wins")

	snap = latestSnapshotAt(snapshots, day(30))
	require.NotNil(t, snap)
	assert.Equal(t, 18, snap.RentedCount)
}

func TestSplitFlagCutoffBoundary(t *testing.T) {
	cutoff := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, models.SplitTrain, splitFlag(cutoff.AddDate(0, 0, -1), cutoff))
	assert.Equal(t, models.SplitTrain, splitFlag(cutoff, cutoff), "the cutoff day is the last training day")
	assert.Equal(t, models.SplitValidation, splitFlag(cutoff.AddDate(0, 0, 1), cutoff))
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	ts := time.Date(2025, 6, 7, 23, 45, 0, 0, loc)

	got := dateOnly(ts)
	assert.Equal(t, time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, got, dateOnly(got))
}
