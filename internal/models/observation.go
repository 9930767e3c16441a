package models

import (
	"time"
)

// SeriesKey identifies one branch/category demand series within a tenant.
type SeriesKey struct {
	BranchID   int64 `db:"branch_id"`
	CategoryID int64 `db:"category_id"`
}

type SplitFlag string

const (
	SplitTrain      SplitFlag = "TRAIN"
	SplitValidation SplitFlag = "VALIDATION"
)

// DemandObservation is one feature-store row: the modeling-ready daily fact
// for a (tenant, date, branch, category) series. Immutable after a build
// except for the split label.
type DemandObservation struct {
	TenantID   int64     `db:"tenant_id"`
	Date       time.Time `db:"demand_date"`
	BranchID   int64     `db:"branch_id"`
	CategoryID int64     `db:"category_id"`

	RentalsCount int     `db:"executed_rentals_count"`
	AvgPricePaid float64 `db:"avg_price_paid"`
	MinPricePaid float64 `db:"min_price_paid"`
	MaxPricePaid float64 `db:"max_price_paid"`

	RentedCount    int     `db:"rented_count"`
	AvailableCount int     `db:"available_count"`
	Utilization    float64 `db:"utilization"`

	DayOfWeek  int  `db:"day_of_week"`
	DayOfMonth int  `db:"day_of_month"`
	WeekOfYear int  `db:"week_of_year"`
	Month      int  `db:"month_of_year"`
	Quarter    int  `db:"quarter"`
	IsWeekend  bool `db:"is_weekend"`

	// External scalars; neutral (0/false) when the provider had no data.
	WeatherScore    float64 `db:"weather_score"`
	IsPublicHoliday bool    `db:"is_public_holiday"`
	IsSchoolHoliday bool    `db:"is_school_holiday"`
	EventScore      float64 `db:"event_score"`

	// Lag/rolling statistics computed strictly from prior dates.
	RentalsLag1  float64 `db:"rentals_lag_1d"`
	RentalsLag7  float64 `db:"rentals_lag_7d"`
	Rolling7Avg  float64 `db:"rentals_rolling_7d_avg"`
	Rolling30Avg float64 `db:"rentals_rolling_30d_avg"`

	Split     SplitFlag `db:"split_flag"`
	CreatedAt time.Time `db:"created_at"`
}
