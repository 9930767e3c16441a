package repository

import (
	"context"
	"time"

	"fleet-pricer/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var forecastColumns = []string{
	"tenant_id", "run_date", "branch_id", "category_id", "forecast_date",
	"horizon_day", "forecast_demand", "lower_bound", "upper_bound",
	"model_name", "model_version", "created_at",
}

// ForecastRepository owns forecast_demand_30d. Re-running a training day
// replaces that run's rows; earlier runs stay untouched.
type ForecastRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewForecastRepository(db *pgxpool.Pool, logger *zap.Logger) *ForecastRepository {
	return &ForecastRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceSeriesRun replaces one series' forecasts for a run date: delete the
// series rows of that run, insert the new horizon, one transaction.
func (r *ForecastRepository) ReplaceSeriesRun(ctx context.Context, tenantID int64, runDate time.Time, branchID, categoryID int64, records []models.ForecastRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	del := squirrel.Delete("forecast_demand_30d").
		Where(squirrel.Eq{
			"tenant_id":   tenantID,
			"run_date":    runDate,
			"branch_id":   branchID,
			"category_id": categoryID,
		}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := del.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	if len(records) > 0 {
		builder := squirrel.Insert("forecast_demand_30d").
			Columns(forecastColumns...).
			PlaceholderFormat(squirrel.Dollar)

		for _, rec := range records {
			builder = builder.Values(
				rec.TenantID, rec.RunDate, rec.BranchID, rec.CategoryID, rec.ForecastDate,
				rec.HorizonDay, rec.Demand, rec.LowerBound, rec.UpperBound,
				rec.ModelName, rec.ModelVersion, rec.CreatedAt,
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

// ListLatestForSeries returns one series' forecast horizon from its most
// recent run, ordered by horizon day. Empty when the series was never
// forecasted.
func (r *ForecastRepository) ListLatestForSeries(ctx context.Context, tenantID, branchID, categoryID int64) ([]models.ForecastRecord, error) {
	query := squirrel.Select(forecastColumns...).
		From("forecast_demand_30d").
		Where(squirrel.Eq{
			"tenant_id":   tenantID,
			"branch_id":   branchID,
			"category_id": categoryID,
		}).
		Where(`run_date = (
			SELECT MAX(run_date) FROM forecast_demand_30d
			WHERE tenant_id = ? AND branch_id = ? AND category_id = ?
		)`, tenantID, branchID, categoryID).
		OrderBy("horizon_day").
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

	var records []models.ForecastRecord
	for rows.Next() {
		var rec models.ForecastRecord
		if err := rows.Scan(
			&rec.TenantID, &rec.RunDate, &rec.BranchID, &rec.CategoryID, &rec.ForecastDate,
			&rec.HorizonDay, &rec.Demand, &rec.LowerBound, &rec.UpperBound,
			&rec.ModelName, &rec.ModelVersion, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
