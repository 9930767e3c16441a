package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet-pricer/internal/models"
	"fleet-pricer/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCompetitor struct {
	price float64
	err   error
	calls int
}

func (f *fakeCompetitor) AveragePrice(context.Context, int64, int64, int64, time.Time) (float64, error) {
	f.calls++
	return f.price, f.err
}

type fakeWeather struct {
	severity float64
	err      error
}

func (f *fakeWeather) Severity(context.Context, int64, time.Time) (float64, error) {
	return f.severity, f.err
}

type fakeCalendar struct {
	day models.CalendarDay
	err error
}

func (f *fakeCalendar) Day(context.Context, time.Time) (models.CalendarDay, error) {
	return f.day, f.err
}

func (f *fakeCalendar) Days(context.Context, time.Time, time.Time) (map[time.Time]models.CalendarDay, error) {
	return nil, f.err
}

func newTestSignalService(competitor CompetitorPriceProvider, weather WeatherProvider, calendar CalendarProvider, store cache.Store) *SignalService {
	return NewSignalService(competitor, weather, calendar, store, time.Hour, time.Second, zap.NewNop())
}

func TestCompetitorPriceFromProviderAndCached(t *testing.T) {
	ctx := context.Background()
	provider := &fakeCompetitor{price: 110}
	store := cache.NewMemoryStore()
	svc := newTestSignalService(provider, &fakeWeather{}, &fakeCalendar{}, store)

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	price := svc.CompetitorPrice(ctx, 1, 2, 3, date)
	require.NotNil(t, price)
	assert.Equal(t, 110.0, *price)
	assert.Equal(t, 1, provider.calls)

	// Second lookup is a fresh cache hit.
	price = svc.CompetitorPrice(ctx, 1, 2, 3, date)
	require.NotNil(t, price)
	assert.Equal(t, 110.0, *price)
	assert.Equal(t, 1, provider.calls, "fresh cache hit must not call the provider")
}

func TestCompetitorPriceStaleFallbackOnFailure(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Seed a stale entry: fetched two hours ago with a one hour TTL.
	key := "competitor:1:2:3:2025-06-01"
	require.NoError(t, store.Set(ctx, key, cache.Entry{
		Value:     95,
		FetchedAt: time.Now().Add(-2 * time.Hour),
	}, 24*time.Hour))

	provider := &fakeCompetitor{err: errors.New("scrape timeout")}
	svc := newTestSignalService(provider, &fakeWeather{}, &fakeCalendar{}, store)

	price := svc.CompetitorPrice(ctx, 1, 2, 3, date)
	require.NotNil(t, price, "stale but available beats neutral")
	assert.Equal(t, 95.0, *price)
	assert.Equal(t, 1, provider.calls, "stale entry still triggers a refresh attempt")
}

func TestCompetitorPriceNoDataIsNil(t *testing.T) {
	svc := newTestSignalService(&fakeCompetitor{err: ErrNoData}, &fakeWeather{}, &fakeCalendar{}, cache.NewMemoryStore())

	price := svc.CompetitorPrice(context.Background(), 1, 2, 3, time.Now())
	assert.Nil(t, price)
}

func TestWeatherSeverityFailureDefaultsNeutral(t *testing.T) {
	svc := newTestSignalService(&fakeCompetitor{}, &fakeWeather{err: errors.New("api down")}, &fakeCalendar{}, cache.NewMemoryStore())

	severity := svc.WeatherSeverity(context.Background(), 1, time.Now())
	assert.Equal(t, 0.2, severity)
}

func TestWeatherSeverityPassthrough(t *testing.T) {
	svc := newTestSignalService(&fakeCompetitor{}, &fakeWeather{severity: 0.8}, &fakeCalendar{}, cache.NewMemoryStore())

	assert.Equal(t, 0.8, svc.WeatherSeverity(context.Background(), 1, time.Now()))
}

func TestCalendarContextFallbackKeepsWeekend(t *testing.T) {
	svc := newTestSignalService(&fakeCompetitor{}, &fakeWeather{}, &fakeCalendar{err: ErrNoData}, cache.NewMemoryStore())

	saturday := time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)
	day := svc.CalendarContext(context.Background(), saturday)

	assert.True(t, day.IsWeekend, "weekend is derived locally, not from the provider")
	assert.False(t, day.IsPublicHoliday)
	assert.Equal(t, -1, day.DaysToHoliday)
}

func TestCalendarContextFromProvider(t *testing.T) {
	calendar := &fakeCalendar{day: models.CalendarDay{
		IsPublicHoliday: true,
		DaysToHoliday:   0,
		EventScore:      2,
	}}
	svc := newTestSignalService(&fakeCompetitor{}, &fakeWeather{}, calendar, cache.NewMemoryStore())

	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	day := svc.CalendarContext(context.Background(), monday)

	assert.True(t, day.IsPublicHoliday)
	assert.False(t, day.IsWeekend)
	assert.Equal(t, 2.0, day.EventScore)
}
