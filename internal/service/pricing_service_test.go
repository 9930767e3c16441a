package service

import (
	"testing"
	"time"

	"fleet-pricer/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestGenerateFilterMatches(t *testing.T) {
	key := models.SeriesKey{BranchID: 1, CategoryID: 2}
	branch := int64(1)
	otherBranch := int64(9)
	category := int64(2)

	assert.True(t, GenerateFilter{}.matches(key), "empty filter matches everything")
	assert.True(t, GenerateFilter{BranchID: &branch}.matches(key))
	assert.True(t, GenerateFilter{BranchID: &branch, CategoryID: &category}.matches(key))
	assert.False(t, GenerateFilter{BranchID: &otherBranch}.matches(key))
	assert.False(t, GenerateFilter{BranchID: &branch, CategoryID: &otherBranch}.matches(key))
}

func TestForecastRunStale(t *testing.T) {
	runDate := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	assert.True(t, forecastRunStale(runDate.AddDate(0, 0, -1), runDate),
		"an older evaluation leaves the new horizon's tail without forecasts")
	assert.False(t, forecastRunStale(runDate, runDate),
		"repeating the same run date must not retrain")
	assert.False(t, forecastRunStale(runDate.AddDate(0, 0, 1), runDate))

	// Only the calendar day matters, not the time of day.
	assert.False(t, forecastRunStale(runDate.Add(6*time.Hour), runDate.Add(20*time.Hour)))
}
