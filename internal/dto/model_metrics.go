package dto

import (
	"fleet-pricer/internal/models"
)

type ModelMetricResponse struct {
	ModelName         string   `json:"model_name"`
	ModelVersion      string   `json:"model_version"`
	EvaluationDate    string   `json:"evaluation_date"`
	MAE               float64  `json:"mae"`
	MAPE              *float64 `json:"mape,omitempty"`
	SMAPE             *float64 `json:"smape,omitempty"`
	RMSE              *float64 `json:"rmse,omitempty"`
	TrainingSamples   int      `json:"training_samples"`
	ValidationSamples int      `json:"validation_samples"`
	TrainingTimeSec   float64  `json:"training_time_sec"`
	IsBestModel       bool     `json:"is_best_model"`
}

func NewModelMetricResponse(m models.ModelEvaluationMetric) ModelMetricResponse {
	return ModelMetricResponse{
		ModelName:         m.ModelName,
		ModelVersion:      m.ModelVersion,
		EvaluationDate:    m.EvaluationDate.Format("2006-01-02"),
		MAE:               m.MAE,
		MAPE:              m.MAPE,
		SMAPE:             m.SMAPE,
		RMSE:              m.RMSE,
		TrainingSamples:   m.TrainingSamples,
		ValidationSamples: m.ValidationSamples,
		TrainingTimeSec:   m.TrainingTimeSec,
		IsBestModel:       m.IsBestModel,
	}
}

func NewModelMetricResponses(metrics []models.ModelEvaluationMetric) []ModelMetricResponse {
	out := make([]ModelMetricResponse, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, NewModelMetricResponse(m))
	}
	return out
}
