package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleet-pricer/internal/models"
	"fleet-pricer/internal/policy"
	"fleet-pricer/internal/pricing"
	"fleet-pricer/internal/repository"
	"fleet-pricer/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrRecommendationNotFound is returned for unknown recommendation ids.
	ErrRecommendationNotFound = errors.New("recommendation not found")
	// ErrRecommendationConflict is returned when an approval action targets a
	// recommendation already in a terminal status.
	ErrRecommendationConflict = errors.New("recommendation already resolved")
	// ErrNoTrainedModel is returned when no training run has completed yet.
	ErrNoTrainedModel = errors.New("no trained model")
)

const (
	// Feature history window fed into each run.
	featureHistoryDays = 365

	// Rate-card fallbacks when no base_rates row exists: derive weekly and
	// monthly from the historical daily average at standard tier multiples.
	fallbackWeeklyMultiple  = 6
	fallbackMonthlyMultiple = 25
	fallbackDailyRate       = 150
)

// GenerateFilter optionally narrows a run to one branch and/or category.
type GenerateFilter struct {
	BranchID   *int64
	CategoryID *int64
}

func (f GenerateFilter) matches(key models.SeriesKey) bool {
	if f.BranchID != nil && key.BranchID != *f.BranchID {
		return false
	}
	if f.CategoryID != nil && key.CategoryID != *f.CategoryID {
		return false
	}
	return true
}

// GenerateStats reports one recommendation run.
type GenerateStats struct {
	BranchesProcessed        int
	CategoriesProcessed      int
	RecommendationsGenerated int
	RecommendationsSaved     int64
	Errors                   []string
}

// PricingService orchestrates the pipeline: feature build, model training,
// signal gathering, bounded price computation and the approval lifecycle.
type PricingService struct {
	features        *FeatureService
	forecastTrainer *ForecastService
	signals         *SignalService

	observations    *repository.ObservationRepository
	forecasts       *repository.ForecastRepository
	modelMetrics    *repository.MetricRepository
	configs         *repository.ConfigRepository
	recommendations *repository.RecommendationRepository

	policy *policy.Policy
	logger *zap.Logger
}

func NewPricingService(
	features *FeatureService,
	forecastTrainer *ForecastService,
	signals *SignalService,
	observations *repository.ObservationRepository,
	forecasts *repository.ForecastRepository,
	modelMetrics *repository.MetricRepository,
	configs *repository.ConfigRepository,
	recommendations *repository.RecommendationRepository,
	pol *policy.Policy,
	logger *zap.Logger,
) *PricingService {
	return &PricingService{
		features:        features,
		forecastTrainer: forecastTrainer,
		signals:         signals,
		observations:    observations,
		forecasts:       forecasts,
		modelMetrics:    modelMetrics,
		configs:         configs,
		recommendations: recommendations,
		policy:          pol,
		logger:          logger,
	}
}

// Generate runs the full pipeline for a tenant as of runDate: rebuild the
// feature store when stale, retrain, then price every series over the
// horizon. Per-series failures are collected into the stats instead of
// aborting the run.
func (s *PricingService) Generate(ctx context.Context, tenantID int64, runDate time.Time, horizonDays int, filter GenerateFilter) (*GenerateStats, error) {
	runDate = dateOnly(runDate)
	if horizonDays <= 0 || horizonDays > s.policy.Training.HorizonDays {
		horizonDays = s.policy.Training.HorizonDays
	}

	stats := &GenerateStats{}

	if err := s.ensureTrained(ctx, tenantID, runDate); err != nil {
		metrics.GenerateRunsTotal.WithLabelValues("error").Inc()
		return stats, err
	}

	all, err := s.observations.ListSeries(ctx, tenantID)
	if err != nil {
		metrics.GenerateRunsTotal.WithLabelValues("error").Inc()
		return stats, err
	}
	series := make([]models.SeriesKey, 0, len(all))
	for _, key := range all {
		if filter.matches(key) {
			series = append(series, key)
		}
	}
	if len(series) == 0 {
		metrics.GenerateRunsTotal.WithLabelValues("error").Inc()
		return stats, fmt.Errorf("tenant %d has no demand series matching the filter", tenantID)
	}

	weights := s.resolveWeights(ctx, tenantID)

	branches := make(map[int64]struct{})
	for _, key := range series {
		recs, err := s.generateSeries(ctx, tenantID, runDate, key, weights, horizonDays)
		if err != nil {
			stats.Errors = append(stats.Errors,
				fmt.Sprintf("series %d/%d: %v", key.BranchID, key.CategoryID, err))
			continue
		}

		saved, err := s.recommendations.UpsertPending(ctx, recs)
		if err != nil {
			stats.Errors = append(stats.Errors,
				fmt.Sprintf("series %d/%d: save: %v", key.BranchID, key.CategoryID, err))
			continue
		}

		branches[key.BranchID] = struct{}{}
		stats.CategoriesProcessed++
		stats.RecommendationsGenerated += len(recs)
		stats.RecommendationsSaved += saved
		metrics.RecommendationsSavedTotal.Add(float64(saved))
	}
	stats.BranchesProcessed = len(branches)

	result := "ok"
	if len(stats.Errors) > 0 {
		result = "partial"
	}
	if stats.CategoriesProcessed == 0 {
		metrics.GenerateRunsTotal.WithLabelValues("error").Inc()
		return stats, fmt.Errorf("all %d series failed: %s", len(series), stats.Errors[0])
	}
	metrics.GenerateRunsTotal.WithLabelValues(result).Inc()

	s.logger.Info("recommendation run complete",
		zap.Int64("tenant_id", tenantID),
		zap.Time("run_date", runDate),
		zap.Int("branches", stats.BranchesProcessed),
		zap.Int("categories", stats.CategoriesProcessed),
		zap.Int64("saved", stats.RecommendationsSaved),
		zap.Int("errors", len(stats.Errors)),
	)
	return stats, nil
}

// ensureTrained rebuilds the features and retrains when the feature store is
// stale, trains once when no evaluation exists yet, and retrains when the
// latest evaluation predates runDate so the run's full horizon has forecasts.
func (s *PricingService) ensureTrained(ctx context.Context, tenantID int64, runDate time.Time) error {
	stale, err := s.features.IsStale(ctx, tenantID)
	if err != nil {
		return err
	}
	if stale {
		from := runDate.AddDate(0, 0, -featureHistoryDays)
		if _, err := s.features.Build(ctx, tenantID, from, runDate.AddDate(0, 0, -1)); err != nil {
			return fmt.Errorf("feature build: %w", err)
		}
		if _, err := s.forecastTrainer.Train(ctx, tenantID, runDate); err != nil {
			return fmt.Errorf("training: %w", err)
		}
		return nil
	}

	best, err := s.modelMetrics.GetBest(ctx, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		if _, err := s.forecastTrainer.Train(ctx, tenantID, runDate); err != nil {
			return fmt.Errorf("training: %w", err)
		}
		return nil
	}
	if err != nil {
		return err
	}
	if forecastRunStale(best.EvaluationDate, runDate) {
		if _, err := s.forecastTrainer.Train(ctx, tenantID, runDate); err != nil {
			return fmt.Errorf("training: %w", err)
		}
	}
	return nil
}

// forecastRunStale reports whether the latest evaluation predates the
// requested run date. Forecasts from an older run stop short of the new
// horizon's tail, which would otherwise price neutrally.
func forecastRunStale(latestEval, runDate time.Time) bool {
	return dateOnly(latestEval).Before(dateOnly(runDate))
}

func (s *PricingService) generateSeries(
	ctx context.Context,
	tenantID int64,
	runDate time.Time,
	key models.SeriesKey,
	weights models.SignalWeights,
	horizonDays int,
) ([]*models.Recommendation, error) {
	guardrails := s.resolveGuardrails(ctx, tenantID, key.CategoryID)
	base, err := s.resolveBaseRates(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}

	baseline, err := s.observations.TrainBaseline(ctx, tenantID, key.BranchID, key.CategoryID)
	if errors.Is(err, repository.ErrNotFound) {
		baseline = 0
	} else if err != nil {
		return nil, err
	}

	utilization := 0.0
	if latest, err := s.observations.GetLatest(ctx, tenantID, key.BranchID, key.CategoryID); err == nil {
		utilization = latest.Utilization
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	utilSignal := pricing.UtilizationSignal(utilization, s.policy)

	forecasts, err := s.forecasts.ListLatestForSeries(ctx, tenantID, key.BranchID, key.CategoryID)
	if err != nil {
		return nil, err
	}
	forecastByDate := make(map[time.Time]models.ForecastRecord, len(forecasts))
	for _, fc := range forecasts {
		forecastByDate[dateOnly(fc.ForecastDate)] = fc
	}

	now := time.Now().UTC()
	recs := make([]*models.Recommendation, 0, horizonDays)

	for day := 1; day <= horizonDays; day++ {
		forecastDate := runDate.AddDate(0, 0, day)

		// A horizon day the latest run did not cover prices neutrally.
		forecastSignal := pricing.Neutral
		modelName, modelVersion := "", ""
		if fc, ok := forecastByDate[forecastDate]; ok {
			forecastSignal = pricing.ForecastSignal(fc.Demand, baseline)
			modelName, modelVersion = fc.ModelName, fc.ModelVersion
		}

		var competitorSignal *float64
		if price := s.signals.CompetitorPrice(ctx, tenantID, key.BranchID, key.CategoryID, forecastDate); price != nil {
			v := pricing.CompetitorSignal(base.Daily, *price)
			competitorSignal = &v
		}

		weatherSignal := pricing.WeatherSignal(s.signals.WeatherSeverity(ctx, key.BranchID, forecastDate))
		holidaySignal := pricing.HolidaySignal(s.signals.CalendarContext(ctx, forecastDate), s.policy)

		signals := pricing.Signals{
			Utilization: utilSignal,
			Forecast:    forecastSignal,
			Competitor:  competitorSignal,
			Weather:     weatherSignal,
			Holiday:     holidaySignal,
		}
		outcome := pricing.Apply(base, signals, weights, guardrails, s.policy.Adjustment)

		recs = append(recs, &models.Recommendation{
			ID:                      uuid.New(),
			TenantID:                tenantID,
			RunDate:                 runDate,
			BranchID:                key.BranchID,
			CategoryID:              key.CategoryID,
			ForecastDate:            forecastDate,
			HorizonDay:              day,
			BaseDaily:               base.Daily,
			BaseWeekly:              base.Weekly,
			BaseMonthly:             base.Monthly,
			RecDaily:                outcome.RecDaily,
			RecWeekly:               outcome.RecWeekly,
			RecMonthly:              outcome.RecMonthly,
			PremiumDiscountPct:      outcome.PremiumDiscountPct,
			UtilizationSignal:       utilSignal,
			ForecastSignal:          forecastSignal,
			CompetitorSignal:        competitorSignal,
			WeatherSignal:           weatherSignal,
			HolidaySignal:           holidaySignal,
			RawAdjustmentPct:        outcome.RawAdjustmentPct,
			GuardrailMinPrice:       guardrails.MinPrice,
			GuardrailMaxDiscountPct: guardrails.MaxDiscountPct,
			GuardrailMaxPremiumPct:  guardrails.MaxPremiumPct,
			GuardrailApplied:        outcome.GuardrailApplied,
			BoundFired:              outcome.BoundFired,
			ExplanationText:         outcome.Explanation,
			ModelName:               modelName,
			ModelVersion:            modelVersion,
			Status:                  models.StatusPending,
			CreatedAt:               now,
			UpdatedAt:               now,
		})
	}
	return recs, nil
}

func (s *PricingService) resolveWeights(ctx context.Context, tenantID int64) models.SignalWeights {
	if w, err := s.configs.GetSignalWeights(ctx, tenantID); err == nil {
		return *w
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("signal weights lookup failed, using defaults", zap.Error(err))
	}
	d := s.policy.Defaults.Weights
	return models.SignalWeights{
		TenantID:    tenantID,
		Utilization: d.Utilization,
		Forecast:    d.Forecast,
		Competitor:  d.Competitor,
		Weather:     d.Weather,
		Holiday:     d.Holiday,
	}
}

func (s *PricingService) resolveGuardrails(ctx context.Context, tenantID, categoryID int64) models.GuardrailConfig {
	if g, err := s.configs.GetGuardrails(ctx, tenantID, categoryID); err == nil {
		return *g
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("guardrails lookup failed, using defaults", zap.Error(err))
	}
	d := s.policy.Defaults.Guardrails
	return models.GuardrailConfig{
		TenantID:       tenantID,
		MinPrice:       d.MinPrice,
		MaxDiscountPct: d.MaxDiscountPct,
		MaxPremiumPct:  d.MaxPremiumPct,
	}
}

// resolveBaseRates prefers the rate card, then the historical average with
// standard weekly/monthly multiples, then a flat default.
func (s *PricingService) resolveBaseRates(ctx context.Context, tenantID int64, key models.SeriesKey) (models.BaseRates, error) {
	if b, err := s.configs.GetBaseRates(ctx, tenantID, key.BranchID, key.CategoryID); err == nil {
		return *b, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.BaseRates{}, err
	}

	daily := float64(fallbackDailyRate)
	if avg, err := s.observations.AvgPricePaid(ctx, tenantID, key.BranchID, key.CategoryID); err == nil {
		daily = avg
	} else if !errors.Is(err, repository.ErrNotFound) {
		return models.BaseRates{}, err
	}

	return models.BaseRates{
		TenantID:   tenantID,
		BranchID:   key.BranchID,
		CategoryID: key.CategoryID,
		Daily:      daily,
		Weekly:     daily * fallbackWeeklyMultiple,
		Monthly:    daily * fallbackMonthlyMultiple,
	}, nil
}

// List returns the tenant's recommendations matching the filter.
func (s *PricingService) List(ctx context.Context, tenantID int64, filter repository.RecommendationListFilter) ([]*models.Recommendation, error) {
	return s.recommendations.List(ctx, tenantID, filter)
}

// Get returns one recommendation scoped to the tenant.
func (s *PricingService) Get(ctx context.Context, tenantID int64, id uuid.UUID) (*models.Recommendation, error) {
	rec, err := s.recommendations.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRecommendationNotFound
	}
	if err != nil {
		return nil, err
	}
	if rec.TenantID != tenantID {
		return nil, ErrRecommendationNotFound
	}
	return rec, nil
}

// Approve transitions a pending recommendation to approved, recording who.
func (s *PricingService) Approve(ctx context.Context, tenantID int64, id uuid.UUID, actor string) (*models.Recommendation, error) {
	existing, err := s.Get(ctx, tenantID, id)
	if err != nil {
		metrics.ApprovalActionsTotal.WithLabelValues("approve", "not_found").Inc()
		return nil, err
	}
	if existing.Status.Terminal() {
		metrics.ApprovalActionsTotal.WithLabelValues("approve", "conflict").Inc()
		return existing, ErrRecommendationConflict
	}

	rec, err := s.recommendations.Approve(ctx, id, actor, time.Now().UTC())
	if errors.Is(err, repository.ErrConflict) {
		metrics.ApprovalActionsTotal.WithLabelValues("approve", "conflict").Inc()
		return rec, ErrRecommendationConflict
	}
	if err != nil {
		metrics.ApprovalActionsTotal.WithLabelValues("approve", "error").Inc()
		return nil, err
	}
	metrics.ApprovalActionsTotal.WithLabelValues("approve", "ok").Inc()
	return rec, nil
}

// Skip transitions a pending recommendation to skipped with a reason.
func (s *PricingService) Skip(ctx context.Context, tenantID int64, id uuid.UUID, actor, reason string) (*models.Recommendation, error) {
	existing, err := s.Get(ctx, tenantID, id)
	if err != nil {
		metrics.ApprovalActionsTotal.WithLabelValues("skip", "not_found").Inc()
		return nil, err
	}
	if existing.Status.Terminal() {
		metrics.ApprovalActionsTotal.WithLabelValues("skip", "conflict").Inc()
		return existing, ErrRecommendationConflict
	}

	rec, err := s.recommendations.Skip(ctx, id, actor, reason, time.Now().UTC())
	if errors.Is(err, repository.ErrConflict) {
		metrics.ApprovalActionsTotal.WithLabelValues("skip", "conflict").Inc()
		return rec, ErrRecommendationConflict
	}
	if err != nil {
		metrics.ApprovalActionsTotal.WithLabelValues("skip", "error").Inc()
		return nil, err
	}
	metrics.ApprovalActionsTotal.WithLabelValues("skip", "ok").Inc()
	return rec, nil
}

// BulkApprove approves every pending recommendation in the date range and
// returns how many transitioned. Terminal rows are skipped, not an error.
func (s *PricingService) BulkApprove(ctx context.Context, tenantID int64, filter repository.BulkApproveFilter, actor string) (int64, error) {
	count, err := s.recommendations.BulkApprove(ctx, tenantID, filter, actor, time.Now().UTC())
	if err != nil {
		metrics.ApprovalActionsTotal.WithLabelValues("bulk_approve", "error").Inc()
		return 0, err
	}
	metrics.ApprovalActionsTotal.WithLabelValues("bulk_approve", "ok").Add(float64(count))
	return count, nil
}

// ModelMetrics returns the tenant's evaluation history.
func (s *PricingService) ModelMetrics(ctx context.Context, tenantID int64, limit uint64) ([]models.ModelEvaluationMetric, error) {
	return s.modelMetrics.List(ctx, tenantID, limit)
}

// BestModel returns the current best model, or ErrNoTrainedModel when no
// training run has completed.
func (s *PricingService) BestModel(ctx context.Context, tenantID int64) (*models.ModelEvaluationMetric, error) {
	best, err := s.modelMetrics.GetBest(ctx, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoTrainedModel
	}
	return best, err
}
