package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"fleet-pricer/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var recommendationColumns = []string{
	"id", "tenant_id", "run_date", "branch_id", "category_id", "forecast_date", "horizon_day",
	"base_daily", "base_weekly", "base_monthly",
	"rec_daily", "rec_weekly", "rec_monthly",
	"premium_discount_pct",
	"utilization_signal", "forecast_signal", "competitor_signal", "weather_signal", "holiday_signal",
	"raw_adjustment_pct",
	"guardrail_min_price", "guardrail_max_discount_pct", "guardrail_max_premium_pct", "guardrail_applied", "bound_fired",
	"explanation_text", "model_name", "model_version",
	"status", "approved_by", "approved_at", "skip_reason",
	"created_at", "updated_at",
}

// RecommendationListFilter narrows List results. Nil fields match everything.
type RecommendationListFilter struct {
	BranchID   *int64
	CategoryID *int64
	Status     *models.RecommendationStatus
	From       *time.Time
	To         *time.Time
	Limit      uint64
}

// BulkApproveFilter selects the pending rows a bulk approval covers.
type BulkApproveFilter struct {
	BranchID   *int64
	CategoryID *int64
	From       time.Time
	To         time.Time
}

// RecommendationRepository owns the recommendations audit trail. The status
// lifecycle (pending -> approved|skipped, terminal states immutable) is
// enforced here with conditional writes, not in callers.
type RecommendationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRecommendationRepository(db *pgxpool.Pool, logger *zap.Logger) *RecommendationRepository {
	return &RecommendationRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertPending writes a run's recommendations. A row whose series/day slot is
// still pending is replaced in place; slots already approved or skipped are
// left untouched and not counted. Returns the number of rows written.
func (r *RecommendationRepository) UpsertPending(ctx context.Context, recommendations []*models.Recommendation) (int64, error) {
	if len(recommendations) == 0 {
		return 0, nil
	}

	builder := squirrel.Insert("recommendations").
		Columns(recommendationColumns...).
		PlaceholderFormat(squirrel.Dollar).
		Suffix(`ON CONFLICT (tenant_id, run_date, branch_id, category_id, forecast_date) DO UPDATE SET
			id = EXCLUDED.id,
			horizon_day = EXCLUDED.horizon_day,
			base_daily = EXCLUDED.base_daily,
			base_weekly = EXCLUDED.base_weekly,
			base_monthly = EXCLUDED.base_monthly,
			rec_daily = EXCLUDED.rec_daily,
			rec_weekly = EXCLUDED.rec_weekly,
			rec_monthly = EXCLUDED.rec_monthly,
			premium_discount_pct = EXCLUDED.premium_discount_pct,
			utilization_signal = EXCLUDED.utilization_signal,
			forecast_signal = EXCLUDED.forecast_signal,
			competitor_signal = EXCLUDED.competitor_signal,
			weather_signal = EXCLUDED.weather_signal,
			holiday_signal = EXCLUDED.holiday_signal,
			raw_adjustment_pct = EXCLUDED.raw_adjustment_pct,
			guardrail_min_price = EXCLUDED.guardrail_min_price,
			guardrail_max_discount_pct = EXCLUDED.guardrail_max_discount_pct,
			guardrail_max_premium_pct = EXCLUDED.guardrail_max_premium_pct,
			guardrail_applied = EXCLUDED.guardrail_applied,
			bound_fired = EXCLUDED.bound_fired,
			explanation_text = EXCLUDED.explanation_text,
			model_name = EXCLUDED.model_name,
			model_version = EXCLUDED.model_version,
			updated_at = EXCLUDED.updated_at
		WHERE recommendations.status = 'pending'`)

	for _, rec := range recommendations {
		builder = builder.Values(
			rec.ID, rec.TenantID, rec.RunDate, rec.BranchID, rec.CategoryID, rec.ForecastDate, rec.HorizonDay,
			rec.BaseDaily, rec.BaseWeekly, rec.BaseMonthly,
			rec.RecDaily, rec.RecWeekly, rec.RecMonthly,
			rec.PremiumDiscountPct,
			rec.UtilizationSignal, rec.ForecastSignal, rec.CompetitorSignal, rec.WeatherSignal, rec.HolidaySignal,
			rec.RawAdjustmentPct,
			rec.GuardrailMinPrice, rec.GuardrailMaxDiscountPct, rec.GuardrailMaxPremiumPct, rec.GuardrailApplied, rec.BoundFired,
			rec.ExplanationText, rec.ModelName, rec.ModelVersion,
			rec.Status, rec.ApprovedBy, rec.ApprovedAt, rec.SkipReason,
			rec.CreatedAt, rec.UpdatedAt,
		)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// GetByID returns one recommendation, or ErrNotFound.
func (r *RecommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	query := squirrel.Select(recommendationColumns...).
		From("recommendations").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rec, err := scanRecommendation(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the tenant's recommendations matching the filter, ordered by
// forecast date then series.
func (r *RecommendationRepository) List(ctx context.Context, tenantID int64, filter RecommendationListFilter) ([]*models.Recommendation, error) {
	query := squirrel.Select(recommendationColumns...).
		From("recommendations").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("forecast_date", "branch_id", "category_id", "run_date DESC").
		PlaceholderFormat(squirrel.Dollar)

	if filter.BranchID != nil {
		query = query.Where(squirrel.Eq{"branch_id": *filter.BranchID})
	}
	if filter.CategoryID != nil {
		query = query.Where(squirrel.Eq{"category_id": *filter.CategoryID})
	}
	if filter.Status != nil {
		query = query.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"forecast_date": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.LtOrEq{"forecast_date": *filter.To})
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
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

	var recommendations []*models.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recommendations = append(recommendations, rec)
	}
	return recommendations, rows.Err()
}

// Approve transitions a pending recommendation to approved. ErrConflict when
// the row is already terminal, ErrNotFound when it does not exist.
func (r *RecommendationRepository) Approve(ctx context.Context, id uuid.UUID, actor string, now time.Time) (*models.Recommendation, error) {
	query := squirrel.Update("recommendations").
		Set("status", models.StatusApproved).
		Set("approved_by", actor).
		Set("approved_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": models.StatusPending}).
		Suffix("RETURNING " + joinColumns(recommendationColumns)).
		PlaceholderFormat(squirrel.Dollar)

	return r.transition(ctx, id, query)
}

// Skip transitions a pending recommendation to skipped with a reason.
func (r *RecommendationRepository) Skip(ctx context.Context, id uuid.UUID, actor, reason string, now time.Time) (*models.Recommendation, error) {
	query := squirrel.Update("recommendations").
		Set("status", models.StatusSkipped).
		Set("approved_by", actor).
		Set("skip_reason", reason).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "status": models.StatusPending}).
		Suffix("RETURNING " + joinColumns(recommendationColumns)).
		PlaceholderFormat(squirrel.Dollar)

	return r.transition(ctx, id, query)
}

func (r *RecommendationRepository) transition(ctx context.Context, id uuid.UUID, query squirrel.UpdateBuilder) (*models.Recommendation, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rec, err := scanRecommendation(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		// Conditional update matched nothing: either the row is terminal or
		// it never existed. Look it up to tell the two apart.
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return existing, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// BulkApprove approves every pending recommendation in the filter's forecast
// date range and returns how many rows transitioned. Terminal rows are
// silently left alone.
func (r *RecommendationRepository) BulkApprove(ctx context.Context, tenantID int64, filter BulkApproveFilter, actor string, now time.Time) (int64, error) {
	query := squirrel.Update("recommendations").
		Set("status", models.StatusApproved).
		Set("approved_by", actor).
		Set("approved_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"tenant_id": tenantID, "status": models.StatusPending}).
		Where(squirrel.GtOrEq{"forecast_date": filter.From}).
		Where(squirrel.LtOrEq{"forecast_date": filter.To}).
		PlaceholderFormat(squirrel.Dollar)

	if filter.BranchID != nil {
		query = query.Where(squirrel.Eq{"branch_id": *filter.BranchID})
	}
	if filter.CategoryID != nil {
		query = query.Where(squirrel.Eq{"category_id": *filter.CategoryID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRecommendation(row pgx.Row) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.RunDate, &rec.BranchID, &rec.CategoryID, &rec.ForecastDate, &rec.HorizonDay,
		&rec.BaseDaily, &rec.BaseWeekly, &rec.BaseMonthly,
		&rec.RecDaily, &rec.RecWeekly, &rec.RecMonthly,
		&rec.PremiumDiscountPct,
		&rec.UtilizationSignal, &rec.ForecastSignal, &rec.CompetitorSignal, &rec.WeatherSignal, &rec.HolidaySignal,
		&rec.RawAdjustmentPct,
		&rec.GuardrailMinPrice, &rec.GuardrailMaxDiscountPct, &rec.GuardrailMaxPremiumPct, &rec.GuardrailApplied, &rec.BoundFired,
		&rec.ExplanationText, &rec.ModelName, &rec.ModelVersion,
		&rec.Status, &rec.ApprovedBy, &rec.ApprovedAt, &rec.SkipReason,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
