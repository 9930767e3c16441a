package models

import (
	"time"
)

// RentalEvent is one completed rental from the raw transactional feed
// (read-only external store).
type RentalEvent struct {
	TenantID   int64     `db:"tenant_id"`
	Date       time.Time `db:"rental_date"`
	BranchID   int64     `db:"branch_id"`
	CategoryID int64     `db:"category_id"`
	DailyRate  float64   `db:"daily_rate"`
}

// FleetStatusSnapshot is the fleet composition of a branch/category as of a
// date, derived from vehicle status transitions. The builder uses the most
// recent snapshot at or before each observation date.
type FleetStatusSnapshot struct {
	TenantID       int64     `db:"tenant_id"`
	Date           time.Time `db:"snapshot_date"`
	BranchID       int64     `db:"branch_id"`
	CategoryID     int64     `db:"category_id"`
	RentedCount    int       `db:"rented_count"`
	AvailableCount int       `db:"available_count"`
}

// CalendarDay is the per-date holiday/event context from the calendar
// provider snapshot.
type CalendarDay struct {
	Date            time.Time `db:"calendar_date"`
	IsPublicHoliday bool      `db:"is_public_holiday"`
	IsSchoolHoliday bool      `db:"is_school_holiday"`
	DaysToHoliday   int       `db:"days_to_holiday"`
	EventScore      float64   `db:"event_score"`
}
