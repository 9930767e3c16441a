package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"fleet-pricer/internal/forecast"
	"fleet-pricer/internal/models"
	"fleet-pricer/internal/policy"
	"fleet-pricer/internal/repository"
	"fleet-pricer/pkg/metrics"

	"go.uber.org/zap"
)

// ErrNoCandidateModel is returned for a series too short for every candidate.
var ErrNoCandidateModel = errors.New("no candidate model could be fitted")

const backtestWindow = 7

// TrainSummary reports one training run.
type TrainSummary struct {
	SeriesTrained int
	SeriesFailed  int
	BestModel     string
	Errors        []string
}

// ForecastService trains the candidate model family per series, backtests
// them rolling-origin, persists forecasts from each series' best candidate
// and the tenant-level evaluation metrics.
type ForecastService struct {
	observations *repository.ObservationRepository
	forecasts    *repository.ForecastRepository
	metrics      *repository.MetricRepository
	policy       *policy.Policy
	workers      int
	logger       *zap.Logger
}

func NewForecastService(
	observations *repository.ObservationRepository,
	forecasts *repository.ForecastRepository,
	metricRepo *repository.MetricRepository,
	pol *policy.Policy,
	workers int,
	logger *zap.Logger,
) *ForecastService {
	if workers <= 0 {
		workers = 1
	}
	return &ForecastService{
		observations: observations,
		forecasts:    forecasts,
		metrics:      metricRepo,
		policy:       pol,
		workers:      workers,
		logger:       logger,
	}
}

func (s *ForecastService) candidates() []forecast.Model {
	period := s.policy.Training.SeasonalPeriod
	return []forecast.Model{
		forecast.NewSeasonalNaive(period),
		forecast.NewHoltWinters(period),
		forecast.NewGradientRegressor(),
	}
}

// modelAggregate pools backtest errors across series for the tenant-level
// metric rows, weighted by sample count.
type modelAggregate struct {
	version      string
	weightedMAE  float64
	weightedMAPE float64
	mapeSamples  int
	weightedSq   float64
	weightedSM   float64
	smapeSamples int
	samples      int
	trainingSec  float64
	trainRows    int
}

// Train runs the full training pipeline for a tenant: every series is
// backtested and forecasted in parallel, then one aggregated metric row per
// model is written with exactly one marked best. A series failure is recorded
// and skipped; the run fails only when no series trains at all.
func (s *ForecastService) Train(ctx context.Context, tenantID int64, runDate time.Time) (*TrainSummary, error) {
	runDate = dateOnly(runDate)

	series, err := s.observations.ListSeries(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("tenant %d has no observations to train on", tenantID)
	}

	var (
		mu         sync.Mutex
		summary    TrainSummary
		aggregates = make(map[string]*modelAggregate)
	)

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for _, key := range series {
		wg.Add(1)
		sem <- struct{}{}
		go func(key models.SeriesKey) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := s.trainSeries(ctx, tenantID, runDate, key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.SeriesFailed++
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("series %d/%d: %v", key.BranchID, key.CategoryID, err))
				return
			}
			summary.SeriesTrained++
			for name, sm := range result {
				agg := aggregates[name]
				if agg == nil {
					agg = &modelAggregate{version: sm.version}
					aggregates[name] = agg
				}
				n := float64(sm.metrics.Samples)
				agg.weightedMAE += sm.metrics.MAE * n
				if sm.metrics.MAPE != nil {
					agg.weightedMAPE += *sm.metrics.MAPE * n
					agg.mapeSamples += sm.metrics.Samples
				}
				if sm.metrics.SMAPE != nil {
					agg.weightedSM += *sm.metrics.SMAPE * n
					agg.smapeSamples += sm.metrics.Samples
				}
				if sm.metrics.RMSE != nil {
					agg.weightedSq += *sm.metrics.RMSE * *sm.metrics.RMSE * n
				}
				agg.samples += sm.metrics.Samples
				agg.trainingSec += sm.trainingSec
				agg.trainRows += sm.trainRows
			}
		}(key)
	}
	wg.Wait()

	if summary.SeriesTrained == 0 {
		return &summary, fmt.Errorf("all %d series failed to train", len(series))
	}

	rows, best := s.buildMetricRows(tenantID, runDate, aggregates)
	summary.BestModel = best
	if err := s.metrics.ReplaceEvaluation(ctx, tenantID, runDate, rows); err != nil {
		return &summary, err
	}

	s.logger.Info("training run complete",
		zap.Int64("tenant_id", tenantID),
		zap.Time("run_date", runDate),
		zap.Int("series_trained", summary.SeriesTrained),
		zap.Int("series_failed", summary.SeriesFailed),
		zap.String("best_model", best),
	)
	return &summary, nil
}

type seriesModelResult struct {
	version     string
	metrics     forecast.Metrics
	trainingSec float64
	trainRows   int
}

// trainSeries backtests every candidate on one series, refits the winner on
// the full history and persists its forecast horizon.
func (s *ForecastService) trainSeries(ctx context.Context, tenantID int64, runDate time.Time, key models.SeriesKey) (map[string]seriesModelResult, error) {
	history, err := s.observations.ListBySeries(ctx, tenantID, key.BranchID, key.CategoryID)
	if err != nil {
		return nil, err
	}

	var train, validation []forecast.Observation
	for _, obs := range history {
		fo := toForecastObservation(obs)
		if obs.Split == models.SplitValidation {
			validation = append(validation, fo)
		} else {
			train = append(train, fo)
		}
	}
	if len(validation) == 0 {
		return nil, fmt.Errorf("series has no validation rows")
	}

	results := make(map[string]seriesModelResult)
	backtests := make(map[string]forecast.Metrics)

	for _, model := range s.candidates() {
		started := time.Now()
		m, err := forecast.RollingOrigin(model, train, validation, backtestWindow)
		elapsed := time.Since(started).Seconds()
		if err != nil {
			s.logger.Debug("candidate model skipped",
				zap.String("model", model.Name()),
				zap.Int64("branch_id", key.BranchID),
				zap.Int64("category_id", key.CategoryID),
				zap.Error(err),
			)
			continue
		}
		metrics.ModelTrainingDuration.WithLabelValues(model.Name()).Observe(elapsed)
		backtests[model.Name()] = m
		results[model.Name()] = seriesModelResult{
			version:     model.Version(),
			metrics:     m,
			trainingSec: elapsed,
			trainRows:   len(train),
		}
	}

	bestName := forecast.SelectBest(backtests)
	if bestName == "" {
		return nil, ErrNoCandidateModel
	}

	var best forecast.Model
	for _, model := range s.candidates() {
		if model.Name() == bestName {
			best = model
			break
		}
	}

	full := append(append([]forecast.Observation(nil), train...), validation...)
	if err := best.Fit(full); err != nil {
		return nil, fmt.Errorf("refit %s: %w", bestName, err)
	}
	preds, err := best.Forecast(s.policy.Training.HorizonDays)
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", bestName, err)
	}

	records := s.buildForecastRecords(tenantID, runDate, key, best, preds, backtests[bestName])
	if err := s.forecasts.ReplaceSeriesRun(ctx, tenantID, runDate, key.BranchID, key.CategoryID, records); err != nil {
		return nil, err
	}
	return results, nil
}

// buildForecastRecords converts predictions into rows. Interval bounds are a
// normal approximation from the backtest RMSE, floored at zero demand.
func (s *ForecastService) buildForecastRecords(
	tenantID int64,
	runDate time.Time,
	key models.SeriesKey,
	model forecast.Model,
	preds []forecast.Prediction,
	backtest forecast.Metrics,
) []models.ForecastRecord {
	now := time.Now().UTC()
	records := make([]models.ForecastRecord, 0, len(preds))
	for _, pred := range preds {
		rec := models.ForecastRecord{
			TenantID:     tenantID,
			RunDate:      runDate,
			BranchID:     key.BranchID,
			CategoryID:   key.CategoryID,
			ForecastDate: dateOnly(pred.Date),
			HorizonDay:   pred.HorizonDay,
			Demand:       pred.Demand,
			ModelName:    model.Name(),
			ModelVersion: model.Version(),
			CreatedAt:    now,
		}
		if backtest.RMSE != nil {
			margin := 1.96 * *backtest.RMSE
			lower := pred.Demand - margin
			if lower < 0 {
				lower = 0
			}
			upper := pred.Demand + margin
			rec.LowerBound = &lower
			rec.UpperBound = &upper
		}
		records = append(records, rec)
	}
	return records
}

func (s *ForecastService) buildMetricRows(tenantID int64, runDate time.Time, aggregates map[string]*modelAggregate) ([]models.ModelEvaluationMetric, string) {
	pooled := make(map[string]forecast.Metrics, len(aggregates))
	for name, agg := range aggregates {
		if agg.samples == 0 {
			continue
		}
		m := forecast.Metrics{
			MAE:     agg.weightedMAE / float64(agg.samples),
			Samples: agg.samples,
		}
		if agg.mapeSamples > 0 {
			mape := agg.weightedMAPE / float64(agg.mapeSamples)
			m.MAPE = &mape
		}
		if agg.smapeSamples > 0 {
			smape := agg.weightedSM / float64(agg.smapeSamples)
			m.SMAPE = &smape
		}
		pooled[name] = m
	}

	best := forecast.SelectBest(pooled)
	now := time.Now().UTC()

	rows := make([]models.ModelEvaluationMetric, 0, len(pooled))
	for name, m := range pooled {
		agg := aggregates[name]
		row := models.ModelEvaluationMetric{
			TenantID:          tenantID,
			ModelName:         name,
			ModelVersion:      agg.version,
			EvaluationDate:    runDate,
			MAE:               m.MAE,
			MAPE:              m.MAPE,
			SMAPE:             m.SMAPE,
			TrainingSamples:   agg.trainRows,
			ValidationSamples: agg.samples,
			TrainingTimeSec:   agg.trainingSec,
			IsBestModel:       name == best,
			CreatedAt:         now,
		}
		if agg.samples > 0 {
			rmse := sqrtSafe(agg.weightedSq / float64(agg.samples))
			row.RMSE = &rmse
		}
		rows = append(rows, row)
	}
	return rows, best
}

func toForecastObservation(obs models.DemandObservation) forecast.Observation {
	return forecast.Observation{
		Date:      obs.Date,
		Demand:    float64(obs.RentalsCount),
		Lag1:      obs.RentalsLag1,
		Lag7:      obs.RentalsLag7,
		Roll7:     obs.Rolling7Avg,
		Roll30:    obs.Rolling30Avg,
		DayOfWeek: obs.DayOfWeek,
		IsWeekend: obs.IsWeekend,
		IsHoliday: obs.IsPublicHoliday,
	}
}

func sqrtSafe(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}
