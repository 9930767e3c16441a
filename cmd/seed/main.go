package main

import (
	"context"
	"log"
	"math"
	"os"
	"time"

	"fleet-pricer/pkg/config"
	"fleet-pricer/pkg/logger"
	"fleet-pricer/pkg/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	seedTenantID    = 1
	seedHistoryDays = 400
	schemaFile      = "migrations/001_init.sql"
)

type seedCategory struct {
	id        int64
	daily     float64
	fleetSize int
}

// Deterministic demo dataset: two branches, three categories, a year of
// seasonal demand with weekend peaks, plus matching config rows. Re-running
// the seeder resets the demo tenant.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	appLogger.Info("Applying schema", zap.String("file", schemaFile))
	schema, err := os.ReadFile(schemaFile)
	if err != nil {
		appLogger.Fatal("Failed to read schema file", zap.Error(err))
	}
	if _, err := db.Exec(ctx, string(schema)); err != nil {
		appLogger.Fatal("Failed to apply schema", zap.Error(err))
	}

	appLogger.Info("Seeding demo tenant", zap.Int("tenant_id", seedTenantID))
	if err := resetTenant(ctx, db); err != nil {
		appLogger.Fatal("Failed to reset demo tenant", zap.Error(err))
	}

	branches := []int64{1, 2}
	categories := []seedCategory{
		{id: 1, daily: 120, fleetSize: 20}, // economy
		{id: 2, daily: 220, fleetSize: 12}, // suv
		{id: 3, daily: 450, fleetSize: 5},  // luxury
	}

	end := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -seedHistoryDays)

	if err := seedCalendar(ctx, db, start, end.AddDate(0, 0, 35)); err != nil {
		appLogger.Fatal("Failed to seed calendar", zap.Error(err))
	}
	if err := seedWeather(ctx, db, branches, start, end.AddDate(0, 0, 35)); err != nil {
		appLogger.Fatal("Failed to seed weather", zap.Error(err))
	}

	for _, branch := range branches {
		for _, cat := range categories {
			if err := seedSeries(ctx, db, branch, cat, start, end); err != nil {
				appLogger.Fatal("Failed to seed series",
					zap.Int64("branch_id", branch), zap.Int64("category_id", cat.id), zap.Error(err))
			}
		}
	}

	if err := seedConfig(ctx, db, branches, categories); err != nil {
		appLogger.Fatal("Failed to seed config", zap.Error(err))
	}

	appLogger.Info("Seeding complete",
		zap.Int("branches", len(branches)),
		zap.Int("categories", len(categories)),
		zap.Int("history_days", seedHistoryDays),
	)
}

func resetTenant(ctx context.Context, db *pgxpool.Pool) error {
	statements := []string{
		"DELETE FROM rental_events WHERE tenant_id = $1",
		"DELETE FROM fleet_status_snapshots WHERE tenant_id = $1",
		"DELETE FROM competitor_prices WHERE tenant_id = $1",
		"DELETE FROM fact_daily_demand WHERE tenant_id = $1",
		"DELETE FROM forecast_demand_30d WHERE tenant_id = $1",
		"DELETE FROM model_evaluation_metrics WHERE tenant_id = $1",
		"DELETE FROM recommendations WHERE tenant_id = $1",
		"DELETE FROM guardrails WHERE tenant_id = $1",
		"DELETE FROM signal_weights WHERE tenant_id = $1",
		"DELETE FROM base_rates WHERE tenant_id = $1",
	}
	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt, seedTenantID); err != nil {
			return err
		}
	}
	return nil
}

// demandFor produces a deterministic daily rental count: a yearly sine wave
// with weekend peaks, scaled to the fleet size.
func demandFor(date time.Time, cat seedCategory, branch int64) int {
	dayOfYear := float64(date.YearDay())
	seasonal := 0.6 + 0.35*math.Sin(2*math.Pi*(dayOfYear-80)/365)
	weekend := 1.0
	if wd := date.Weekday(); wd == time.Friday || wd == time.Saturday {
		weekend = 1.3
	}
	branchScale := 1.0
	if branch == 2 {
		branchScale = 0.7
	}

	demand := float64(cat.fleetSize) * 0.5 * seasonal * weekend * branchScale
	// Deterministic day-to-day jitter.
	jitter := math.Sin(dayOfYear*float64(cat.id+int64(branch))) * 1.5
	n := int(math.Round(demand + jitter))
	if n < 0 {
		n = 0
	}
	if n > cat.fleetSize {
		n = cat.fleetSize
	}
	return n
}

func seedSeries(ctx context.Context, db *pgxpool.Pool, branch int64, cat seedCategory, start, end time.Time) error {
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		rentals := demandFor(date, cat, branch)

		for i := 0; i < rentals; i++ {
			rate := cat.daily * (0.9 + 0.02*float64(i%10))
			if _, err := db.Exec(ctx,
				`INSERT INTO rental_events (tenant_id, rental_date, branch_id, category_id, daily_rate)
				 VALUES ($1, $2, $3, $4, $5)`,
				seedTenantID, date, branch, cat.id, rate,
			); err != nil {
				return err
			}
		}

		// Weekly fleet snapshot.
		if date.Weekday() == time.Monday {
			rented := rentals
			if rented > cat.fleetSize {
				rented = cat.fleetSize
			}
			if _, err := db.Exec(ctx,
				`INSERT INTO fleet_status_snapshots (tenant_id, snapshot_date, branch_id, category_id, rented_count, available_count)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 ON CONFLICT (tenant_id, snapshot_date, branch_id, category_id) DO UPDATE
				 SET rented_count = EXCLUDED.rented_count, available_count = EXCLUDED.available_count`,
				seedTenantID, date, branch, cat.id, rented, cat.fleetSize-rented,
			); err != nil {
				return err
			}
		}

		// Weekly competitor snapshot, priced a touch above us.
		if date.Weekday() == time.Wednesday {
			if _, err := db.Exec(ctx,
				`INSERT INTO competitor_prices (tenant_id, branch_id, category_id, price_date, avg_price)
				 VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (tenant_id, branch_id, category_id, price_date) DO UPDATE
				 SET avg_price = EXCLUDED.avg_price`,
				seedTenantID, branch, cat.id, date, cat.daily*1.08,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedCalendar(ctx context.Context, db *pgxpool.Pool, start, end time.Time) error {
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		isPublic := (date.Month() == time.January && date.Day() == 1) ||
			(date.Month() == time.May && date.Day() == 1) ||
			(date.Month() == time.December && date.Day() == 25)
		isSchool := date.Month() == time.July || date.Month() == time.August

		daysToHoliday := -1
		for ahead := 0; ahead <= 7; ahead++ {
			future := date.AddDate(0, 0, ahead)
			if (future.Month() == time.January && future.Day() == 1) ||
				(future.Month() == time.May && future.Day() == 1) ||
				(future.Month() == time.December && future.Day() == 25) {
				daysToHoliday = ahead
				break
			}
		}

		eventScore := 0.0
		if date.Month() == time.June && date.Day() >= 10 && date.Day() <= 12 {
			eventScore = 2.0 // city festival
		}

		if _, err := db.Exec(ctx,
			`INSERT INTO calendar_days (calendar_date, is_public_holiday, is_school_holiday, days_to_holiday, event_score)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (calendar_date) DO UPDATE
			 SET is_public_holiday = EXCLUDED.is_public_holiday,
			     is_school_holiday = EXCLUDED.is_school_holiday,
			     days_to_holiday = EXCLUDED.days_to_holiday,
			     event_score = EXCLUDED.event_score`,
			date, isPublic, isSchool, daysToHoliday, eventScore,
		); err != nil {
			return err
		}
	}
	return nil
}

func seedWeather(ctx context.Context, db *pgxpool.Pool, branches []int64, start, end time.Time) error {
	for _, branch := range branches {
		for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
			// Winter is rough, summer is clear.
			dayOfYear := float64(date.YearDay())
			severity := 0.4 - 0.35*math.Sin(2*math.Pi*(dayOfYear-80)/365)
			if severity < 0 {
				severity = 0
			}

			if _, err := db.Exec(ctx,
				`INSERT INTO weather_days (branch_id, weather_date, severity)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (branch_id, weather_date) DO UPDATE
				 SET severity = EXCLUDED.severity`,
				branch, date, severity,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedConfig(ctx context.Context, db *pgxpool.Pool, branches []int64, categories []seedCategory) error {
	// Tenant-wide guardrail default plus a tighter luxury override.
	if _, err := db.Exec(ctx,
		`INSERT INTO guardrails (tenant_id, category_id, min_price, max_discount_pct, max_premium_pct)
		 VALUES ($1, NULL, 50, 25, 50)`,
		seedTenantID,
	); err != nil {
		return err
	}
	if _, err := db.Exec(ctx,
		`INSERT INTO guardrails (tenant_id, category_id, min_price, max_discount_pct, max_premium_pct)
		 VALUES ($1, 3, 300, 15, 35)`,
		seedTenantID,
	); err != nil {
		return err
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO signal_weights (tenant_id, utilization_weight, forecast_weight, competitor_weight, weather_weight, holiday_weight)
		 VALUES ($1, 0.30, 0.25, 0.25, 0.10, 0.10)`,
		seedTenantID,
	); err != nil {
		return err
	}

	for _, branch := range branches {
		for _, cat := range categories {
			if _, err := db.Exec(ctx,
				`INSERT INTO base_rates (tenant_id, branch_id, category_id, daily_rate, weekly_rate, monthly_rate)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				seedTenantID, branch, cat.id, cat.daily, cat.daily*6, cat.daily*25,
			); err != nil {
				return err
			}
		}
	}
	return nil
}
