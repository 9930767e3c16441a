package repository

import (
	"context"
	"errors"

	"fleet-pricer/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ConfigRepository reads tenant pricing configuration. All rows are owned by
// the tenant admin tooling; the engine only reads them.
type ConfigRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewConfigRepository(db *pgxpool.Pool, logger *zap.Logger) *ConfigRepository {
	return &ConfigRepository{
		db:     db,
		logger: logger,
	}
}

// GetGuardrails resolves the guardrails for a category: the category-specific
// row wins over the tenant-wide default (category_id NULL). ErrNotFound when
// the tenant has neither.
func (r *ConfigRepository) GetGuardrails(ctx context.Context, tenantID, categoryID int64) (*models.GuardrailConfig, error) {
	query := squirrel.Select("tenant_id", "category_id", "min_price", "max_discount_pct", "max_premium_pct").
		From("guardrails").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Or{
			squirrel.Eq{"category_id": categoryID},
			squirrel.Eq{"category_id": nil},
		}).
		OrderBy("category_id NULLS LAST").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var g models.GuardrailConfig
	err = r.db.QueryRow(ctx, sql, args...).Scan(&g.TenantID, &g.CategoryID, &g.MinPrice, &g.MaxDiscountPct, &g.MaxPremiumPct)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetSignalWeights returns the tenant's weights row, or ErrNotFound when the
// tenant runs on defaults.
func (r *ConfigRepository) GetSignalWeights(ctx context.Context, tenantID int64) (*models.SignalWeights, error) {
	query := squirrel.Select("tenant_id", "utilization_weight", "forecast_weight", "competitor_weight", "weather_weight", "holiday_weight").
		From("signal_weights").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var w models.SignalWeights
	err = r.db.QueryRow(ctx, sql, args...).Scan(&w.TenantID, &w.Utilization, &w.Forecast, &w.Competitor, &w.Weather, &w.Holiday)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetBaseRates returns the rate card row for a branch/category, or
// ErrNotFound; the caller falls back to historical averages.
func (r *ConfigRepository) GetBaseRates(ctx context.Context, tenantID, branchID, categoryID int64) (*models.BaseRates, error) {
	query := squirrel.Select("tenant_id", "branch_id", "category_id", "daily_rate", "weekly_rate", "monthly_rate").
		From("base_rates").
		Where(squirrel.Eq{"tenant_id": tenantID, "branch_id": branchID, "category_id": categoryID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var b models.BaseRates
	err = r.db.QueryRow(ctx, sql, args...).Scan(&b.TenantID, &b.BranchID, &b.CategoryID, &b.Daily, &b.Weekly, &b.Monthly)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
