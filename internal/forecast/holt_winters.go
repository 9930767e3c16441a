package forecast

import (
	"math"
	"time"
)

// HoltWinters is a smoothing baseline: additive trend, multiplicative weekly
// seasonality, fitted with fixed smoothing constants.
type HoltWinters struct {
	alpha  float64
	beta   float64
	gamma  float64
	period int

	level    float64
	trend    float64
	seasonal []float64
	fitLen   int
	lastDate time.Time
	fitted   bool
}

func NewHoltWinters(period int) *HoltWinters {
	if period <= 0 {
		period = 7
	}
	return &HoltWinters{
		alpha:  0.3,
		beta:   0.1,
		gamma:  0.2,
		period: period,
	}
}

func (m *HoltWinters) Name() string    { return "holt_winters" }
func (m *HoltWinters) Version() string { return "1.0" }

func (m *HoltWinters) Fit(history []Observation) error {
	n := len(history)
	p := m.period
	if n < p {
		return ErrInsufficientHistory
	}

	y := make([]float64, n)
	for i, obs := range history {
		y[i] = obs.Demand
	}
	m.lastDate = history[n-1].Date
	m.fitLen = n

	if n < 2*p {
		// Too short for seasonal initialization: flat level, no trend.
		m.level = mean(y)
		m.trend = 0
		m.seasonal = make([]float64, p)
		for i := range m.seasonal {
			m.seasonal[i] = 1
		}
		m.fitted = true
		return nil
	}

	m.level = mean(y[:p])
	m.trend = (mean(y[p:2*p]) - mean(y[:p])) / float64(p)
	m.seasonal = make([]float64, p)
	for i := 0; i < p; i++ {
		m.seasonal[i] = y[i] / math.Max(m.level, 1)
	}

	for t := p; t < n; t++ {
		idx := t % p
		prevLevel := m.level

		m.level = m.alpha*(y[t]/math.Max(m.seasonal[idx], 0.01)) +
			(1-m.alpha)*(m.level+m.trend)
		m.trend = m.beta*(m.level-prevLevel) + (1-m.beta)*m.trend
		m.seasonal[idx] = m.gamma*(y[t]/math.Max(m.level, 1)) +
			(1-m.gamma)*m.seasonal[idx]
	}

	m.fitted = true
	return nil
}

func (m *HoltWinters) Forecast(horizon int) ([]Prediction, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}

	preds := make([]Prediction, 0, horizon)
	for h := 1; h <= horizon; h++ {
		// Horizon h continues the fitted series at index fitLen-1+h, so it
		// belongs to that index's seasonal slot.
		idx := (m.fitLen - 1 + h) % m.period
		value := (m.level + float64(h)*m.trend) * m.seasonal[idx]
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

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
