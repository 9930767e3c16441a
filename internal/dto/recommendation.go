package dto

import (
	"time"

	"fleet-pricer/internal/models"
)

type GenerateRequest struct {
	RunDate     string `json:"run_date,omitempty"`
	HorizonDays int    `json:"horizon_days,omitempty"`
	BranchID    *int64 `json:"branch_id,omitempty"`
	CategoryID  *int64 `json:"category_id,omitempty"`
}

type GenerateResponse struct {
	RunDate                  string   `json:"run_date"`
	BranchesProcessed        int      `json:"branches_processed"`
	CategoriesProcessed      int      `json:"categories_processed"`
	RecommendationsGenerated int      `json:"recommendations_generated"`
	RecommendationsSaved     int64    `json:"recommendations_saved"`
	Errors                   []string `json:"errors"`
}

type RecommendationResponse struct {
	ID           string `json:"id"`
	RunDate      string `json:"run_date"`
	BranchID     int64  `json:"branch_id"`
	CategoryID   int64  `json:"category_id"`
	ForecastDate string `json:"forecast_date"`
	HorizonDay   int    `json:"horizon_day"`

	BaseDaily   float64 `json:"base_daily"`
	BaseWeekly  float64 `json:"base_weekly"`
	BaseMonthly float64 `json:"base_monthly"`
	RecDaily    float64 `json:"rec_daily"`
	RecWeekly   float64 `json:"rec_weekly"`
	RecMonthly  float64 `json:"rec_monthly"`

	PremiumDiscountPct float64 `json:"premium_discount_pct"`

	UtilizationSignal float64  `json:"utilization_signal"`
	ForecastSignal    float64  `json:"forecast_signal"`
	CompetitorSignal  *float64 `json:"competitor_signal,omitempty"`
	WeatherSignal     float64  `json:"weather_signal"`
	HolidaySignal     float64  `json:"holiday_signal"`
	RawAdjustmentPct  float64  `json:"raw_adjustment_pct"`

	GuardrailApplied bool   `json:"guardrail_applied"`
	BoundFired       string `json:"bound_fired,omitempty"`
	Explanation      string `json:"explanation"`
	ModelName        string `json:"model_name,omitempty"`
	ModelVersion     string `json:"model_version,omitempty"`

	Status     string  `json:"status"`
	ApprovedBy *string `json:"approved_by,omitempty"`
	ApprovedAt *string `json:"approved_at,omitempty"`
	SkipReason *string `json:"skip_reason,omitempty"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

type SkipRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type BulkApproveRequest struct {
	BranchID   *int64 `json:"branch_id,omitempty"`
	CategoryID *int64 `json:"category_id,omitempty"`
	DateFrom   string `json:"date_from" validate:"required"`
	DateTo     string `json:"date_to" validate:"required"`
}

type BulkApproveResponse struct {
	Approved int64 `json:"approved"`
}

func NewRecommendationResponse(rec *models.Recommendation) RecommendationResponse {
	resp := RecommendationResponse{
		ID:                 rec.ID.String(),
		RunDate:            rec.RunDate.Format("2006-01-02"),
		BranchID:           rec.BranchID,
		CategoryID:         rec.CategoryID,
		ForecastDate:       rec.ForecastDate.Format("2006-01-02"),
		HorizonDay:         rec.HorizonDay,
		BaseDaily:          rec.BaseDaily,
		BaseWeekly:         rec.BaseWeekly,
		BaseMonthly:        rec.BaseMonthly,
		RecDaily:           rec.RecDaily,
		RecWeekly:          rec.RecWeekly,
		RecMonthly:         rec.RecMonthly,
		PremiumDiscountPct: rec.PremiumDiscountPct,
		UtilizationSignal:  rec.UtilizationSignal,
		ForecastSignal:     rec.ForecastSignal,
		CompetitorSignal:   rec.CompetitorSignal,
		WeatherSignal:      rec.WeatherSignal,
		HolidaySignal:      rec.HolidaySignal,
		RawAdjustmentPct:   rec.RawAdjustmentPct,
		GuardrailApplied:   rec.GuardrailApplied,
		BoundFired:         rec.BoundFired,
		Explanation:        rec.ExplanationText,
		ModelName:          rec.ModelName,
		ModelVersion:       rec.ModelVersion,
		Status:             string(rec.Status),
		ApprovedBy:         rec.ApprovedBy,
		SkipReason:         rec.SkipReason,
		CreatedAt:          rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          rec.UpdatedAt.Format(time.RFC3339),
	}
	if rec.ApprovedAt != nil {
		at := rec.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &at
	}
	return resp
}

func NewRecommendationResponses(recs []*models.Recommendation) []RecommendationResponse {
	out := make([]RecommendationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, NewRecommendationResponse(rec))
	}
	return out
}
