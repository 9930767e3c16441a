package forecast

import (
	"time"
)

// SeasonalNaive forecasts the value observed on the same weekday one period
// back. The baseline every other candidate has to beat.
type SeasonalNaive struct {
	period   int
	history  []float64
	lastDate time.Time
}

func NewSeasonalNaive(period int) *SeasonalNaive {
	if period <= 0 {
		period = 7
	}
	return &SeasonalNaive{period: period}
}

func (m *SeasonalNaive) Name() string    { return "seasonal_naive" }
func (m *SeasonalNaive) Version() string { return "1.0" }

func (m *SeasonalNaive) Fit(history []Observation) error {
	if len(history) < m.period {
		return ErrInsufficientHistory
	}
	m.history = make([]float64, len(history))
	for i, obs := range history {
		m.history[i] = obs.Demand
	}
	m.lastDate = history[len(history)-1].Date
	return nil
}

func (m *SeasonalNaive) Forecast(horizon int) ([]Prediction, error) {
	if m.history == nil {
		return nil, ErrNotFitted
	}

	preds := make([]Prediction, 0, horizon)
	n := len(m.history)
	for h := 1; h <= horizon; h++ {
		idx := n - m.period + ((h - 1) % m.period)
		value := m.history[idx]
		if value < 0 {
			value = 0
		}
		preds = append(preds, Prediction{
			Date:       m.lastDate.AddDate(0, 0, h),
			HorizonDay: h,
			Demand:     value,
		})
	}
	return preds, nil
}
