package models

import (
	"time"

	"github.com/google/uuid"
)

type RecommendationStatus string

const (
	StatusPending  RecommendationStatus = "pending"
	StatusApproved RecommendationStatus = "approved"
	StatusSkipped  RecommendationStatus = "skipped"
)

// Terminal reports whether no further transition is allowed.
func (s RecommendationStatus) Terminal() bool {
	return s == StatusApproved || s == StatusSkipped
}

// Recommendation is one bounded price proposal for a series/day, carrying the
// full signal breakdown and guardrail audit trail. Rows are never deleted;
// approval actions only touch status/approver fields.
type Recommendation struct {
	ID           uuid.UUID `db:"id"`
	TenantID     int64     `db:"tenant_id"`
	RunDate      time.Time `db:"run_date"`
	BranchID     int64     `db:"branch_id"`
	CategoryID   int64     `db:"category_id"`
	ForecastDate time.Time `db:"forecast_date"`
	HorizonDay   int       `db:"horizon_day"`

	BaseDaily   float64 `db:"base_daily"`
	BaseWeekly  float64 `db:"base_weekly"`
	BaseMonthly float64 `db:"base_monthly"`
	RecDaily    float64 `db:"rec_daily"`
	RecWeekly   float64 `db:"rec_weekly"`
	RecMonthly  float64 `db:"rec_monthly"`

	PremiumDiscountPct float64 `db:"premium_discount_pct"`

	UtilizationSignal float64  `db:"utilization_signal"`
	ForecastSignal    float64  `db:"forecast_signal"`
	CompetitorSignal  *float64 `db:"competitor_signal"`
	WeatherSignal     float64  `db:"weather_signal"`
	HolidaySignal     float64  `db:"holiday_signal"`

	RawAdjustmentPct float64 `db:"raw_adjustment_pct"`

	GuardrailMinPrice       float64 `db:"guardrail_min_price"`
	GuardrailMaxDiscountPct float64 `db:"guardrail_max_discount_pct"`
	GuardrailMaxPremiumPct  float64 `db:"guardrail_max_premium_pct"`
	GuardrailApplied        bool    `db:"guardrail_applied"`
	BoundFired              string  `db:"bound_fired"`

	ExplanationText string `db:"explanation_text"`
	ModelName       string `db:"model_name"`
	ModelVersion    string `db:"model_version"`

	Status     RecommendationStatus `db:"status"`
	ApprovedBy *string              `db:"approved_by"`
	ApprovedAt *time.Time           `db:"approved_at"`
	SkipReason *string              `db:"skip_reason"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
