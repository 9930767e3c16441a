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

const observationInsertChunk = 500

var observationColumns = []string{
	"tenant_id", "demand_date", "branch_id", "category_id",
	"executed_rentals_count", "avg_price_paid", "min_price_paid", "max_price_paid",
	"rented_count", "available_count", "utilization",
	"day_of_week", "day_of_month", "week_of_year", "month_of_year", "quarter", "is_weekend",
	"weather_score", "is_public_holiday", "is_school_holiday", "event_score",
	"rentals_lag_1d", "rentals_lag_7d", "rentals_rolling_7d_avg", "rentals_rolling_30d_avg",
	"split_flag", "created_at",
}

// ObservationRepository owns the fact_daily_demand feature store.
type ObservationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewObservationRepository(db *pgxpool.Pool, logger *zap.Logger) *ObservationRepository {
	return &ObservationRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceRange atomically rebuilds the tenant's observations within [from, to]:
// existing rows in the range are deleted and the new rows inserted in one
// transaction, so a failed build never leaves a partial range behind.
func (r *ObservationRepository) ReplaceRange(ctx context.Context, tenantID int64, from, to time.Time, observations []models.DemandObservation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	del := squirrel.Delete("fact_daily_demand").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.GtOrEq{"demand_date": from}).
		Where(squirrel.LtOrEq{"demand_date": to}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := del.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	for start := 0; start < len(observations); start += observationInsertChunk {
		end := start + observationInsertChunk
		if end > len(observations) {
			end = len(observations)
		}

		builder := squirrel.Insert("fact_daily_demand").
			Columns(observationColumns...).
			PlaceholderFormat(squirrel.Dollar)

		for _, obs := range observations[start:end] {
			builder = builder.Values(
				obs.TenantID, obs.Date, obs.BranchID, obs.CategoryID,
				obs.RentalsCount, obs.AvgPricePaid, obs.MinPricePaid, obs.MaxPricePaid,
				obs.RentedCount, obs.AvailableCount, obs.Utilization,
				obs.DayOfWeek, obs.DayOfMonth, obs.WeekOfYear, obs.Month, obs.Quarter, obs.IsWeekend,
				obs.WeatherScore, obs.IsPublicHoliday, obs.IsSchoolHoliday, obs.EventScore,
				obs.RentalsLag1, obs.RentalsLag7, obs.Rolling7Avg, obs.Rolling30Avg,
				obs.Split, obs.CreatedAt,
			)
		}

		sql, args, err := builder.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListSeries returns the distinct branch/category series the tenant has
// observations for.
func (r *ObservationRepository) ListSeries(ctx context.Context, tenantID int64) ([]models.SeriesKey, error) {
	query := squirrel.Select("branch_id", "category_id").
		From("fact_daily_demand").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		GroupBy("branch_id", "category_id").
		OrderBy("branch_id", "category_id").
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

	var series []models.SeriesKey
	for rows.Next() {
		var key models.SeriesKey
		if err := rows.Scan(&key.BranchID, &key.CategoryID); err != nil {
			return nil, err
		}
		series = append(series, key)
	}
	return series, rows.Err()
}

// ListBySeries returns the full observation history of one series ordered by
// date ascending.
func (r *ObservationRepository) ListBySeries(ctx context.Context, tenantID, branchID, categoryID int64) ([]models.DemandObservation, error) {
	query := squirrel.Select(observationColumns...).
		From("fact_daily_demand").
		Where(squirrel.Eq{"tenant_id": tenantID, "branch_id": branchID, "category_id": categoryID}).
		OrderBy("demand_date").
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

	var observations []models.DemandObservation
	for rows.Next() {
		var obs models.DemandObservation
		if err := rows.Scan(
			&obs.TenantID, &obs.Date, &obs.BranchID, &obs.CategoryID,
			&obs.RentalsCount, &obs.AvgPricePaid, &obs.MinPricePaid, &obs.MaxPricePaid,
			&obs.RentedCount, &obs.AvailableCount, &obs.Utilization,
			&obs.DayOfWeek, &obs.DayOfMonth, &obs.WeekOfYear, &obs.Month, &obs.Quarter, &obs.IsWeekend,
			&obs.WeatherScore, &obs.IsPublicHoliday, &obs.IsSchoolHoliday, &obs.EventScore,
			&obs.RentalsLag1, &obs.RentalsLag7, &obs.Rolling7Avg, &obs.Rolling30Avg,
			&obs.Split, &obs.CreatedAt,
		); err != nil {
			return nil, err
		}
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

// GetLatest returns the most recent observation of a series, or ErrNotFound.
func (r *ObservationRepository) GetLatest(ctx context.Context, tenantID, branchID, categoryID int64) (*models.DemandObservation, error) {
	query := squirrel.Select(observationColumns...).
		From("fact_daily_demand").
		Where(squirrel.Eq{"tenant_id": tenantID, "branch_id": branchID, "category_id": categoryID}).
		OrderBy("demand_date DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var obs models.DemandObservation
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&obs.TenantID, &obs.Date, &obs.BranchID, &obs.CategoryID,
		&obs.RentalsCount, &obs.AvgPricePaid, &obs.MinPricePaid, &obs.MaxPricePaid,
		&obs.RentedCount, &obs.AvailableCount, &obs.Utilization,
		&obs.DayOfWeek, &obs.DayOfMonth, &obs.WeekOfYear, &obs.Month, &obs.Quarter, &obs.IsWeekend,
		&obs.WeatherScore, &obs.IsPublicHoliday, &obs.IsSchoolHoliday, &obs.EventScore,
		&obs.RentalsLag1, &obs.RentalsLag7, &obs.Rolling7Avg, &obs.Rolling30Avg,
		&obs.Split, &obs.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &obs, nil
}

// TrainBaseline returns the average daily demand of a series over its TRAIN
// rows, or ErrNotFound when the series has no training rows.
func (r *ObservationRepository) TrainBaseline(ctx context.Context, tenantID, branchID, categoryID int64) (float64, error) {
	query := squirrel.Select("AVG(executed_rentals_count)").
		From("fact_daily_demand").
		Where(squirrel.Eq{
			"tenant_id":   tenantID,
			"branch_id":   branchID,
			"category_id": categoryID,
			"split_flag":  models.SplitTrain,
		}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var baseline *float64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&baseline); err != nil {
		return 0, err
	}
	if baseline == nil {
		return 0, ErrNotFound
	}
	return *baseline, nil
}

// AvgPricePaid returns the demand-weighted historical average daily price of a
// series, used as the base-rate fallback when no rate card row exists.
func (r *ObservationRepository) AvgPricePaid(ctx context.Context, tenantID, branchID, categoryID int64) (float64, error) {
	query := squirrel.Select("SUM(avg_price_paid * executed_rentals_count)", "SUM(executed_rentals_count)").
		From("fact_daily_demand").
		Where(squirrel.Eq{"tenant_id": tenantID, "branch_id": branchID, "category_id": categoryID}).
		Where(squirrel.Gt{"executed_rentals_count": 0}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var weighted, count *float64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&weighted, &count); err != nil {
		return 0, err
	}
	if weighted == nil || count == nil || *count == 0 {
		return 0, ErrNotFound
	}
	return *weighted / *count, nil
}

// LastBuildTime returns when the tenant's observations were last written, or
// ErrNotFound when the feature store is empty.
func (r *ObservationRepository) LastBuildTime(ctx context.Context, tenantID int64) (time.Time, error) {
	query := squirrel.Select("MAX(created_at)").
		From("fact_daily_demand").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return time.Time{}, err
	}

	var built *time.Time
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&built); err != nil {
		return time.Time{}, err
	}
	if built == nil {
		return time.Time{}, ErrNotFound
	}
	return *built, nil
}
