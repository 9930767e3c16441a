package forecast

import (
	"errors"
	"math"
	"sort"
	"time"
)

var (
	// ErrNotFitted is returned when Forecast is called before Fit.
	ErrNotFitted = errors.New("model not fitted")
	// ErrInsufficientHistory is returned when a series is too short to fit.
	ErrInsufficientHistory = errors.New("insufficient history to fit model")
)

// Observation is one daily point of a single series, carrying the features
// models may consume. Lag/rolling values are computed from prior days only.
type Observation struct {
	Date      time.Time
	Demand    float64
	Lag1      float64
	Lag7      float64
	Roll7     float64
	Roll30    float64
	DayOfWeek int
	IsWeekend bool
	IsHoliday bool
}

// Prediction is one forecast day.
type Prediction struct {
	Date       time.Time
	HorizonDay int
	Demand     float64
}

// Model is the uniform contract of the candidate family. Implementations are
// single-series and re-fittable: Fit replaces any prior state.
type Model interface {
	Name() string
	Version() string
	Fit(history []Observation) error
	Forecast(horizon int) ([]Prediction, error)
}

// Metrics summarizes a backtest. MAPE/SMAPE are nil when the actuals make
// the ratio undefined.
type Metrics struct {
	MAE     float64
	MAPE    *float64
	SMAPE   *float64
	RMSE    *float64
	Samples int
}

// Evaluate computes error metrics over paired actual/predicted values.
func Evaluate(actual, predicted []float64) Metrics {
	n := len(actual)
	if len(predicted) < n {
		n = len(predicted)
	}
	if n == 0 {
		return Metrics{MAE: math.Inf(1)}
	}

	var absSum, sqSum float64
	var mapeSum float64
	var mapeN int
	var smapeSum float64
	var smapeN int

	for i := 0; i < n; i++ {
		diff := actual[i] - predicted[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff

		if actual[i] != 0 {
			mapeSum += math.Abs(diff / actual[i])
			mapeN++
		}
		denom := (math.Abs(actual[i]) + math.Abs(predicted[i])) / 2
		if denom != 0 {
			smapeSum += math.Abs(diff) / denom
			smapeN++
		}
	}

	m := Metrics{
		MAE:     absSum / float64(n),
		Samples: n,
	}
	rmse := math.Sqrt(sqSum / float64(n))
	m.RMSE = &rmse
	if mapeN > 0 {
		mape := mapeSum / float64(mapeN) * 100
		m.MAPE = &mape
	}
	if smapeN > 0 {
		smape := smapeSum / float64(smapeN) * 100
		m.SMAPE = &smape
	}
	return m
}

// SelectBest picks the model with the lowest MAE, breaking ties by MAPE and
// finally by name, so the winner is stable across runs. Returns "" when the
// map is empty.
func SelectBest(metrics map[string]Metrics) string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	for _, name := range names {
		if best == "" {
			best = name
			continue
		}
		m, b := metrics[name], metrics[best]
		if m.MAE < b.MAE {
			best = name
			continue
		}
		if m.MAE == b.MAE && lowerMAPE(m, b) {
			best = name
		}
	}
	return best
}

func lowerMAPE(a, b Metrics) bool {
	if a.MAPE == nil {
		return false
	}
	if b.MAPE == nil {
		return true
	}
	return *a.MAPE < *b.MAPE
}
