package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"fleet-pricer/internal/models"
	"fleet-pricer/internal/policy"
	"fleet-pricer/internal/repository"

	"go.uber.org/zap"
)

// FeatureService builds the fact_daily_demand feature store from the raw
// rental feed. Builds are idempotent: re-running the same range produces
// identical rows.
type FeatureService struct {
	feed         *repository.RentalFeedRepository
	observations *repository.ObservationRepository
	sources      *repository.SignalSourceRepository
	calendar     CalendarProvider
	policy       *policy.Policy
	staleness    time.Duration
	logger       *zap.Logger
}

func NewFeatureService(
	feed *repository.RentalFeedRepository,
	observations *repository.ObservationRepository,
	sources *repository.SignalSourceRepository,
	calendar CalendarProvider,
	pol *policy.Policy,
	staleness time.Duration,
	logger *zap.Logger,
) *FeatureService {
	return &FeatureService{
		feed:         feed,
		observations: observations,
		sources:      sources,
		calendar:     calendar,
		policy:       pol,
		staleness:    staleness,
		logger:       logger,
	}
}

type demandAgg struct {
	count    int
	priceSum float64
	priceMin float64
	priceMax float64
}

// Build rebuilds the tenant's observations for [from, to] and returns how
// many rows were written. Lag and rolling features are computed strictly from
// prior dates; days with no rentals still get a row so the series has no
// gaps. The TRAIN/VALIDATION split cutoff is the range end minus the
// configured validation days.
func (s *FeatureService) Build(ctx context.Context, tenantID int64, from, to time.Time) (int, error) {
	from = dateOnly(from)
	to = dateOnly(to)

	events, err := s.feed.ListRentalEvents(ctx, tenantID, from, to)
	if err != nil {
		return 0, err
	}
	snapshots, err := s.feed.ListFleetSnapshots(ctx, tenantID, to)
	if err != nil {
		return 0, err
	}

	calendarDays, err := s.calendar.Days(ctx, from, to)
	if err != nil {
		s.logger.Warn("calendar lookup failed during feature build, holiday fields default to false", zap.Error(err))
		calendarDays = nil
	}
	weather, err := s.sources.ListWeatherSeverity(ctx, from, to)
	if err != nil {
		s.logger.Warn("weather lookup failed during feature build, weather_score defaults to 0", zap.Error(err))
		weather = nil
	}

	aggregates := make(map[models.SeriesKey]map[time.Time]demandAgg)
	for _, ev := range events {
		key := models.SeriesKey{BranchID: ev.BranchID, CategoryID: ev.CategoryID}
		date := dateOnly(ev.Date)
		if aggregates[key] == nil {
			aggregates[key] = make(map[time.Time]demandAgg)
		}
		agg := aggregates[key][date]
		if agg.count == 0 {
			agg.priceMin = ev.DailyRate
			agg.priceMax = ev.DailyRate
		} else {
			if ev.DailyRate < agg.priceMin {
				agg.priceMin = ev.DailyRate
			}
			if ev.DailyRate > agg.priceMax {
				agg.priceMax = ev.DailyRate
			}
		}
		agg.count++
		agg.priceSum += ev.DailyRate
		aggregates[key][date] = agg
	}

	fleetBySeries := make(map[models.SeriesKey][]models.FleetStatusSnapshot)
	for _, snap := range snapshots {
		key := models.SeriesKey{BranchID: snap.BranchID, CategoryID: snap.CategoryID}
		fleetBySeries[key] = append(fleetBySeries[key], snap)
	}

	seriesSet := make(map[models.SeriesKey]struct{})
	for key := range aggregates {
		seriesSet[key] = struct{}{}
	}
	for key := range fleetBySeries {
		seriesSet[key] = struct{}{}
	}
	series := make([]models.SeriesKey, 0, len(seriesSet))
	for key := range seriesSet {
		series = append(series, key)
	}
	sort.Slice(series, func(i, j int) bool {
		if series[i].BranchID != series[j].BranchID {
			return series[i].BranchID < series[j].BranchID
		}
		return series[i].CategoryID < series[j].CategoryID
	})

	cutoff := to.AddDate(0, 0, -s.policy.Training.ValidationDays)
	now := time.Now().UTC()

	var observations []models.DemandObservation
	for _, key := range series {
		var demands []float64

		for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
			agg := aggregates[key][date]

			obs := models.DemandObservation{
				TenantID:     tenantID,
				Date:         date,
				BranchID:     key.BranchID,
				CategoryID:   key.CategoryID,
				RentalsCount: agg.count,
				MinPricePaid: agg.priceMin,
				MaxPricePaid: agg.priceMax,
				CreatedAt:    now,
			}
			if agg.count > 0 {
				obs.AvgPricePaid = agg.priceSum / float64(agg.count)
			}

			if snap := latestSnapshotAt(fleetBySeries[key], date); snap != nil {
				obs.RentedCount = snap.RentedCount
				obs.AvailableCount = snap.AvailableCount
				if total := snap.RentedCount + snap.AvailableCount; total > 0 {
					obs.Utilization = float64(snap.RentedCount) / float64(total)
				}
			}

			obs.DayOfWeek = int(date.Weekday())
			obs.DayOfMonth = date.Day()
			_, obs.WeekOfYear = date.ISOWeek()
			obs.Month = int(date.Month())
			obs.Quarter = (int(date.Month())-1)/3 + 1
			obs.IsWeekend = date.Weekday() == time.Saturday || date.Weekday() == time.Sunday

			if day, ok := calendarDays[date]; ok {
				obs.IsPublicHoliday = day.IsPublicHoliday
				obs.IsSchoolHoliday = day.IsSchoolHoliday
				obs.EventScore = day.EventScore
			}
			if byDate, ok := weather[key.BranchID]; ok {
				obs.WeatherScore = byDate[date]
			}

			// Lags look only at days already appended, never at today.
			obs.RentalsLag1 = lagValue(demands, 1)
			obs.RentalsLag7 = lagValue(demands, 7)
			obs.Rolling7Avg = rollingMean(demands, 7)
			obs.Rolling30Avg = rollingMean(demands, 30)

			obs.Split = splitFlag(date, cutoff)

			demands = append(demands, float64(agg.count))
			observations = append(observations, obs)
		}
	}

	if err := s.observations.ReplaceRange(ctx, tenantID, from, to, observations); err != nil {
		return 0, err
	}

	s.logger.Info("feature store rebuilt",
		zap.Int64("tenant_id", tenantID),
		zap.Int("series", len(series)),
		zap.Int("rows", len(observations)),
	)
	return len(observations), nil
}

// IsStale reports whether the tenant's feature store is older than the
// configured staleness window. An empty store is stale.
func (s *FeatureService) IsStale(ctx context.Context, tenantID int64) (bool, error) {
	built, err := s.observations.LastBuildTime(ctx, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return time.Since(built) > s.staleness, nil
}

// splitFlag assigns the observation's backtest split. The cutoff day itself
// is the last TRAIN day; everything after it is VALIDATION.
func splitFlag(date, cutoff time.Time) models.SplitFlag {
	if date.After(cutoff) {
		return models.SplitValidation
	}
	return models.SplitTrain
}

func latestSnapshotAt(snapshots []models.FleetStatusSnapshot, date time.Time) *models.FleetStatusSnapshot {
	var latest *models.FleetStatusSnapshot
	for i := range snapshots {
		if dateOnly(snapshots[i].Date).After(date) {
			break
		}
		latest = &snapshots[i]
	}
	return latest
}

func lagValue(demands []float64, back int) float64 {
	if len(demands) < back {
		return 0
	}
	return demands[len(demands)-back]
}

func rollingMean(demands []float64, window int) float64 {
	if len(demands) == 0 {
		return 0
	}
	if len(demands) < window {
		window = len(demands)
	}
	var sum float64
	for _, v := range demands[len(demands)-window:] {
		sum += v
	}
	return sum / float64(window)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
