package models

import (
	"time"
)

// ForecastRecord is one predicted day for a series, produced by the selected
// model of a training run. Superseded by later run dates, never mutated.
type ForecastRecord struct {
	TenantID     int64     `db:"tenant_id"`
	RunDate      time.Time `db:"run_date"`
	BranchID     int64     `db:"branch_id"`
	CategoryID   int64     `db:"category_id"`
	ForecastDate time.Time `db:"forecast_date"`
	HorizonDay   int       `db:"horizon_day"`
	Demand       float64   `db:"forecast_demand"`
	LowerBound   *float64  `db:"lower_bound"`
	UpperBound   *float64  `db:"upper_bound"`
	ModelName    string    `db:"model_name"`
	ModelVersion string    `db:"model_version"`
	CreatedAt    time.Time `db:"created_at"`
}

// ModelEvaluationMetric is one candidate model's backtest result for an
// evaluation date. Exactly one row per tenant/evaluation date carries
// IsBestModel.
type ModelEvaluationMetric struct {
	ID                int64     `db:"id"`
	TenantID          int64     `db:"tenant_id"`
	ModelName         string    `db:"model_name"`
	ModelVersion      string    `db:"model_version"`
	EvaluationDate    time.Time `db:"evaluation_date"`
	MAE               float64   `db:"mae"`
	MAPE              *float64  `db:"mape"`
	SMAPE             *float64  `db:"smape"`
	RMSE              *float64  `db:"rmse"`
	TrainingSamples   int       `db:"training_samples"`
	ValidationSamples int       `db:"validation_samples"`
	TrainingTimeSec   float64   `db:"training_time_sec"`
	IsBestModel       bool      `db:"is_best_model"`
	CreatedAt         time.Time `db:"created_at"`
}
