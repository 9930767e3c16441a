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

var metricColumns = []string{
	"id", "tenant_id", "model_name", "model_version", "evaluation_date",
	"mae", "mape", "smape", "rmse",
	"training_samples", "validation_samples", "training_time_sec",
	"is_best_model", "created_at",
}

// MetricRepository owns model_evaluation_metrics.
type MetricRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMetricRepository(db *pgxpool.Pool, logger *zap.Logger) *MetricRepository {
	return &MetricRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceEvaluation replaces the tenant's metric rows for an evaluation date
// with the given set. The caller marks exactly one row as best; the partial
// unique index enforces it.
func (r *MetricRepository) ReplaceEvaluation(ctx context.Context, tenantID int64, evaluationDate time.Time, metrics []models.ModelEvaluationMetric) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	del := squirrel.Delete("model_evaluation_metrics").
		Where(squirrel.Eq{"tenant_id": tenantID, "evaluation_date": evaluationDate}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := del.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	if len(metrics) > 0 {
		builder := squirrel.Insert("model_evaluation_metrics").
			Columns(
				"tenant_id", "model_name", "model_version", "evaluation_date",
				"mae", "mape", "smape", "rmse",
				"training_samples", "validation_samples", "training_time_sec",
				"is_best_model", "created_at",
			).
			PlaceholderFormat(squirrel.Dollar)

		for _, m := range metrics {
			builder = builder.Values(
				m.TenantID, m.ModelName, m.ModelVersion, m.EvaluationDate,
				m.MAE, m.MAPE, m.SMAPE, m.RMSE,
				m.TrainingSamples, m.ValidationSamples, m.TrainingTimeSec,
				m.IsBestModel, m.CreatedAt,
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

// List returns the tenant's metric history, newest evaluation first.
func (r *MetricRepository) List(ctx context.Context, tenantID int64, limit uint64) ([]models.ModelEvaluationMetric, error) {
	query := squirrel.Select(metricColumns...).
		From("model_evaluation_metrics").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("evaluation_date DESC", "mae ASC").
		PlaceholderFormat(squirrel.Dollar)
	if limit > 0 {
		query = query.Limit(limit)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []models.ModelEvaluationMetric
	for rows.Next() {
		var m models.ModelEvaluationMetric
		if err := rows.Scan(
			&m.ID, &m.TenantID, &m.ModelName, &m.ModelVersion, &m.EvaluationDate,
			&m.MAE, &m.MAPE, &m.SMAPE, &m.RMSE,
			&m.TrainingSamples, &m.ValidationSamples, &m.TrainingTimeSec,
			&m.IsBestModel, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// GetBest returns the best model row of the most recent evaluation, or
// ErrNotFound when no training run has completed yet.
func (r *MetricRepository) GetBest(ctx context.Context, tenantID int64) (*models.ModelEvaluationMetric, error) {
	query := squirrel.Select(metricColumns...).
		From("model_evaluation_metrics").
		Where(squirrel.Eq{"tenant_id": tenantID, "is_best_model": true}).
		OrderBy("evaluation_date DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var m models.ModelEvaluationMetric
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&m.ID, &m.TenantID, &m.ModelName, &m.ModelVersion, &m.EvaluationDate,
		&m.MAE, &m.MAPE, &m.SMAPE, &m.RMSE,
		&m.TrainingSamples, &m.ValidationSamples, &m.TrainingTimeSec,
		&m.IsBestModel, &m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
