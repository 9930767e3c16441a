package repository

import (
	"context"
	"time"

	"fleet-pricer/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// RentalFeedRepository reads the raw transactional feed. All queries are
// read-only; the engine never writes to the feed tables.
type RentalFeedRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRentalFeedRepository(db *pgxpool.Pool, logger *zap.Logger) *RentalFeedRepository {
	return &RentalFeedRepository{
		db:     db,
		logger: logger,
	}
}

// ListRentalEvents returns completed rentals for the tenant within [from, to],
// inclusive, ordered by date.
func (r *RentalFeedRepository) ListRentalEvents(ctx context.Context, tenantID int64, from, to time.Time) ([]models.RentalEvent, error) {
	query := squirrel.Select("tenant_id", "rental_date", "branch_id", "category_id", "daily_rate").
		From("rental_events").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.GtOrEq{"rental_date": from}).
		Where(squirrel.LtOrEq{"rental_date": to}).
		OrderBy("rental_date", "branch_id", "category_id").
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

	var events []models.RentalEvent
	for rows.Next() {
		var ev models.RentalEvent
		if err := rows.Scan(&ev.TenantID, &ev.Date, &ev.BranchID, &ev.CategoryID, &ev.DailyRate); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListFleetSnapshots returns fleet composition snapshots for the tenant up to
// and including the given date, ordered by date so the builder can pick the
// most recent snapshot at or before each observation date.
func (r *RentalFeedRepository) ListFleetSnapshots(ctx context.Context, tenantID int64, to time.Time) ([]models.FleetStatusSnapshot, error) {
	query := squirrel.Select("tenant_id", "snapshot_date", "branch_id", "category_id", "rented_count", "available_count").
		From("fleet_status_snapshots").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.LtOrEq{"snapshot_date": to}).
		OrderBy("snapshot_date", "branch_id", "category_id").
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

	var snapshots []models.FleetStatusSnapshot
	for rows.Next() {
		var snap models.FleetStatusSnapshot
		if err := rows.Scan(&snap.TenantID, &snap.Date, &snap.BranchID, &snap.CategoryID, &snap.RentedCount, &snap.AvailableCount); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}
