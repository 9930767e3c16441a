package service

import (
	"context"
	"errors"
	"time"

	"fleet-pricer/internal/models"
	"fleet-pricer/internal/repository"
)

// ErrNoData is returned by providers when no value exists for the requested
// key. Callers treat it as "signal stays neutral", not as a failure.
var ErrNoData = errors.New("no provider data")

// CompetitorPriceProvider supplies the market index price for a series. The
// production implementation reads the scraped snapshot table; a live API
// client satisfies the same contract.
type CompetitorPriceProvider interface {
	AveragePrice(ctx context.Context, tenantID, branchID, categoryID int64, date time.Time) (float64, error)
}

// WeatherProvider supplies the bad-weather severity score (0 clear, 1 severe)
// for a branch and date.
type WeatherProvider interface {
	Severity(ctx context.Context, branchID int64, date time.Time) (float64, error)
}

// CalendarProvider supplies holiday/event context per date.
type CalendarProvider interface {
	Day(ctx context.Context, date time.Time) (models.CalendarDay, error)
	Days(ctx context.Context, from, to time.Time) (map[time.Time]models.CalendarDay, error)
}

// SnapshotCompetitorProvider reads competitor prices from the local snapshot
// table.
type SnapshotCompetitorProvider struct {
	sources *repository.SignalSourceRepository
}

func NewSnapshotCompetitorProvider(sources *repository.SignalSourceRepository) *SnapshotCompetitorProvider {
	return &SnapshotCompetitorProvider{sources: sources}
}

func (p *SnapshotCompetitorProvider) AveragePrice(ctx context.Context, tenantID, branchID, categoryID int64, date time.Time) (float64, error) {
	price, err := p.sources.GetCompetitorPrice(ctx, tenantID, branchID, categoryID, date)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrNoData
	}
	return price, err
}

// SnapshotWeatherProvider reads severity scores from the local snapshot table.
type SnapshotWeatherProvider struct {
	sources *repository.SignalSourceRepository
}

func NewSnapshotWeatherProvider(sources *repository.SignalSourceRepository) *SnapshotWeatherProvider {
	return &SnapshotWeatherProvider{sources: sources}
}

func (p *SnapshotWeatherProvider) Severity(ctx context.Context, branchID int64, date time.Time) (float64, error) {
	severity, err := p.sources.GetWeatherSeverity(ctx, branchID, date)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrNoData
	}
	return severity, err
}

// SnapshotCalendarProvider reads the local calendar snapshot.
type SnapshotCalendarProvider struct {
	sources *repository.SignalSourceRepository
}

func NewSnapshotCalendarProvider(sources *repository.SignalSourceRepository) *SnapshotCalendarProvider {
	return &SnapshotCalendarProvider{sources: sources}
}

func (p *SnapshotCalendarProvider) Day(ctx context.Context, date time.Time) (models.CalendarDay, error) {
	day, err := p.sources.GetCalendarDay(ctx, date)
	if errors.Is(err, repository.ErrNotFound) {
		return models.CalendarDay{}, ErrNoData
	}
	if err != nil {
		return models.CalendarDay{}, err
	}
	return *day, nil
}

func (p *SnapshotCalendarProvider) Days(ctx context.Context, from, to time.Time) (map[time.Time]models.CalendarDay, error) {
	return p.sources.ListCalendarDays(ctx, from, to)
}
