package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPolicyYAML = `
adjustment:
  premium_scale: 80
  discount_scale: 60
utilization:
  bands:
    - {lower: 0.0, upper: 0.5, signal: 0.30}
    - {lower: 0.5, upper: 0.7, signal: 0.45}
    - {lower: 0.7, upper: 0.9, signal: 0.65}
    - {lower: 0.9, upper: 1.0, signal: 1.00}
holiday:
  public_holiday_uplift: 0.40
  school_holiday_uplift: 0.20
  approaching_uplift: 0.25
  approach_window_days: 3
  weekend_uplift: 0.10
  event_score_multiplier: 0.10
  signal_cap: 0.95
defaults:
  weights:
    utilization: 0.30
    forecast: 0.25
    competitor: 0.25
    weather: 0.10
    holiday: 0.10
  guardrails:
    min_price: 50
    max_discount_pct: 25
    max_premium_pct: 50
training:
  validation_days: 60
  horizon_days: 30
  seasonal_period: 7
`

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	p, err := Load(writePolicy(t, validPolicyYAML))
	require.NoError(t, err)

	assert.Equal(t, 80.0, p.Adjustment.PremiumScale)
	assert.Equal(t, 60.0, p.Adjustment.DiscountScale)
	assert.Len(t, p.Utilization.Bands, 4)
	assert.Equal(t, 0.95, p.Holiday.SignalCap)
	assert.Equal(t, 0.30, p.Defaults.Weights.Utilization)
	assert.Equal(t, 50.0, p.Defaults.Guardrails.MinPrice)
	assert.Equal(t, 60, p.Training.ValidationDays)
	assert.Equal(t, 30, p.Training.HorizonDays)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsGappyBands(t *testing.T) {
	p := Default()
	p.Utilization.Bands = []Band{
		{Lower: 0, Upper: 0.4, Signal: 0.3},
		{Lower: 0.5, Upper: 1.0, Signal: 0.7}, // gap 0.4..0.5
	}
	assert.Error(t, p.Validate())
}

func TestValidateRejectsPartialCoverage(t *testing.T) {
	p := Default()
	p.Utilization.Bands = []Band{
		{Lower: 0, Upper: 0.8, Signal: 0.5},
	}
	assert.Error(t, p.Validate())
}

func TestValidateRejectsBadSignalCap(t *testing.T) {
	p := Default()
	p.Holiday.SignalCap = 0.3
	assert.Error(t, p.Validate())

	p.Holiday.SignalCap = 1.5
	assert.Error(t, p.Validate())
}

func TestValidateRejectsNegativeWeights(t *testing.T) {
	p := Default()
	p.Defaults.Weights.Forecast = -0.1
	assert.Error(t, p.Validate())
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestUtilizationSignalBandLookup(t *testing.T) {
	p, err := Load(writePolicy(t, validPolicyYAML))
	require.NoError(t, err)

	assert.Equal(t, 0.30, p.UtilizationSignal(0.2))
	assert.Equal(t, 0.45, p.UtilizationSignal(0.5))
	assert.Equal(t, 0.65, p.UtilizationSignal(0.89))
	assert.Equal(t, 1.00, p.UtilizationSignal(1.0))
	// Out-of-range inputs clamp to the edge bands.
	assert.Equal(t, 0.30, p.UtilizationSignal(-0.5))
	assert.Equal(t, 1.00, p.UtilizationSignal(1.7))
}

func TestUtilizationSignalNoBands(t *testing.T) {
	assert.Equal(t, 0.5, Default().UtilizationSignal(0.95))
}
