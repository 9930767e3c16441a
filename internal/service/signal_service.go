package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleet-pricer/internal/models"
	"fleet-pricer/internal/pricing"
	"fleet-pricer/pkg/cache"
	"fleet-pricer/pkg/metrics"

	"go.uber.org/zap"
)

// competitorRetention keeps stale entries retrievable well past their
// freshness window so an outage degrades to stale data instead of neutral.
const competitorRetention = 24 * time.Hour

// SignalService gathers external signal inputs with per-call timeouts. A
// provider failure never fails the pricing run: the affected signal falls
// back to a stale cached value or to neutral.
type SignalService struct {
	competitor CompetitorPriceProvider
	weather    WeatherProvider
	calendar   CalendarProvider

	cache         cache.Store
	competitorTTL time.Duration
	timeout       time.Duration
	logger        *zap.Logger
}

func NewSignalService(
	competitor CompetitorPriceProvider,
	weather WeatherProvider,
	calendar CalendarProvider,
	cacheStore cache.Store,
	competitorTTL time.Duration,
	timeout time.Duration,
	logger *zap.Logger,
) *SignalService {
	return &SignalService{
		competitor:    competitor,
		weather:       weather,
		calendar:      calendar,
		cache:         cacheStore,
		competitorTTL: competitorTTL,
		timeout:       timeout,
		logger:        logger,
	}
}

// CompetitorPrice returns the market index price for a series, or nil when no
// value is obtainable. Fresh cache hits skip the provider; on provider
// failure a stale cached value is still used.
func (s *SignalService) CompetitorPrice(ctx context.Context, tenantID, branchID, categoryID int64, date time.Time) *float64 {
	key := fmt.Sprintf("competitor:%d:%d:%d:%s", tenantID, branchID, categoryID, date.Format("2006-01-02"))

	entry, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("competitor cache read failed", zap.Error(err))
		found = false
	}
	if found && entry.Fresh(s.competitorTTL) {
		return &entry.Value
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	price, err := s.competitor.AveragePrice(callCtx, tenantID, branchID, categoryID, date)
	if err == nil {
		if setErr := s.cache.Set(ctx, key, cache.Entry{Value: price, FetchedAt: time.Now()}, competitorRetention); setErr != nil {
			s.logger.Warn("competitor cache write failed", zap.Error(setErr))
		}
		return &price
	}

	if !errors.Is(err, ErrNoData) {
		metrics.ProviderFailuresTotal.WithLabelValues("competitor").Inc()
		s.logger.Warn("competitor provider failed",
			zap.Int64("branch_id", branchID),
			zap.Int64("category_id", categoryID),
			zap.Error(err),
		)
	}
	if found {
		// Stale but available beats neutral.
		return &entry.Value
	}
	return nil
}

// WeatherSeverity returns the severity score for a branch/date, defaulting to
// the neutral band when the provider has no data or fails.
func (s *SignalService) WeatherSeverity(ctx context.Context, branchID int64, date time.Time) float64 {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	severity, err := s.weather.Severity(callCtx, branchID, date)
	if err != nil {
		if !errors.Is(err, ErrNoData) {
			metrics.ProviderFailuresTotal.WithLabelValues("weather").Inc()
			s.logger.Warn("weather provider failed", zap.Int64("branch_id", branchID), zap.Error(err))
		}
		// 0.2 sits in the neutral band of the severity mapping.
		return 0.2
	}
	return severity
}

// CalendarContext returns the holiday context for a date; a missing calendar
// row or provider failure yields the all-false context (neutral apart from
// the weekend flag).
func (s *SignalService) CalendarContext(ctx context.Context, date time.Time) pricing.CalendarContext {
	weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	day, err := s.calendar.Day(callCtx, date)
	if err != nil {
		if !errors.Is(err, ErrNoData) {
			metrics.ProviderFailuresTotal.WithLabelValues("calendar").Inc()
			s.logger.Warn("calendar provider failed", zap.Time("date", date), zap.Error(err))
		}
		return pricing.CalendarContext{DaysToHoliday: -1, IsWeekend: weekend}
	}
	return calendarContextFrom(day, weekend)
}

func calendarContextFrom(day models.CalendarDay, weekend bool) pricing.CalendarContext {
	return pricing.CalendarContext{
		IsPublicHoliday: day.IsPublicHoliday,
		IsSchoolHoliday: day.IsSchoolHoliday,
		DaysToHoliday:   day.DaysToHoliday,
		IsWeekend:       weekend,
		EventScore:      day.EventScore,
	}
}
