package repository

import (
	"context"
	"errors"
	"time"

	"fleet-pricer/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SignalSourceRepository reads the snapshot tables behind the calendar,
// weather and competitor providers.
type SignalSourceRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSignalSourceRepository(db *pgxpool.Pool, logger *zap.Logger) *SignalSourceRepository {
	return &SignalSourceRepository{
		db:     db,
		logger: logger,
	}
}

// GetCalendarDay returns the calendar context for a date, or ErrNotFound when
// the calendar has no row for it.
func (r *SignalSourceRepository) GetCalendarDay(ctx context.Context, date time.Time) (*models.CalendarDay, error) {
	query := squirrel.Select("calendar_date", "is_public_holiday", "is_school_holiday", "days_to_holiday", "event_score").
		From("calendar_days").
		Where(squirrel.Eq{"calendar_date": date}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var day models.CalendarDay
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&day.Date, &day.IsPublicHoliday, &day.IsSchoolHoliday, &day.DaysToHoliday, &day.EventScore,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// ListCalendarDays returns the calendar rows within [from, to] keyed by date.
func (r *SignalSourceRepository) ListCalendarDays(ctx context.Context, from, to time.Time) (map[time.Time]models.CalendarDay, error) {
	query := squirrel.Select("calendar_date", "is_public_holiday", "is_school_holiday", "days_to_holiday", "event_score").
		From("calendar_days").
		Where(squirrel.GtOrEq{"calendar_date": from}).
		Where(squirrel.LtOrEq{"calendar_date": to}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make(map[time.Time]models.CalendarDay)
	for rows.Next() {
		var day models.CalendarDay
		if err := rows.Scan(&day.Date, &day.IsPublicHoliday, &day.IsSchoolHoliday, &day.DaysToHoliday, &day.EventScore); err != nil {
			return nil, err
		}
		days[day.Date.UTC().Truncate(24*time.Hour)] = day
	}
	return days, rows.Err()
}

// GetWeatherSeverity returns the bad-weather severity score for a branch and
// date, or ErrNotFound when no forecast exists.
func (r *SignalSourceRepository) GetWeatherSeverity(ctx context.Context, branchID int64, date time.Time) (float64, error) {
	query := squirrel.Select("severity").
		From("weather_days").
		Where(squirrel.Eq{"branch_id": branchID, "weather_date": date}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var severity float64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&severity)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return severity, nil
}

// ListWeatherSeverity returns severity scores within [from, to] keyed by
// branch and date, for bulk feature building.
func (r *SignalSourceRepository) ListWeatherSeverity(ctx context.Context, from, to time.Time) (map[int64]map[time.Time]float64, error) {
	query := squirrel.Select("branch_id", "weather_date", "severity").
		From("weather_days").
		Where(squirrel.GtOrEq{"weather_date": from}).
		Where(squirrel.LtOrEq{"weather_date": to}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	severities := make(map[int64]map[time.Time]float64)
	for rows.Next() {
		var branchID int64
		var date time.Time
		var severity float64
		if err := rows.Scan(&branchID, &date, &severity); err != nil {
			return nil, err
		}
		if severities[branchID] == nil {
			severities[branchID] = make(map[time.Time]float64)
		}
		severities[branchID][date.UTC().Truncate(24*time.Hour)] = severity
	}
	return severities, rows.Err()
}

// GetCompetitorPrice returns the most recent competitor index price for a
// series at or before the given date, or ErrNotFound.
func (r *SignalSourceRepository) GetCompetitorPrice(ctx context.Context, tenantID, branchID, categoryID int64, date time.Time) (float64, error) {
	query := squirrel.Select("avg_price").
		From("competitor_prices").
		Where(squirrel.Eq{"tenant_id": tenantID, "branch_id": branchID, "category_id": categoryID}).
		Where(squirrel.LtOrEq{"price_date": date}).
		OrderBy("price_date DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var price float64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return price, nil
}
