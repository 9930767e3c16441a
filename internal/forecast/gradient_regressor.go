package forecast

import (
	"math"
	"time"
)

const regressorFeatures = 13 // bias + 7 day-of-week + lag1 + lag7 + roll7 + roll30 + weekend

// GradientRegressor is the expressive candidate: a linear model over lag,
// rolling and calendar features, fitted by batch gradient descent. Weights
// start at zero so re-training on identical data reproduces the same model.
type GradientRegressor struct {
	epochs       int
	learningRate float64

	weights  []float64
	scale    float64
	values   []float64
	lastDate time.Time
}

func NewGradientRegressor() *GradientRegressor {
	return &GradientRegressor{
		epochs:       200,
		learningRate: 0.05,
	}
}

func (m *GradientRegressor) Name() string    { return "gradient_regressor" }
func (m *GradientRegressor) Version() string { return "1.0" }

func (m *GradientRegressor) Fit(history []Observation) error {
	if len(history) < 14 {
		return ErrInsufficientHistory
	}

	// Scale the target by the series mean to keep gradients stable across
	// series of very different volume.
	var sum float64
	for _, obs := range history {
		sum += obs.Demand
	}
	m.scale = math.Max(sum/float64(len(history)), 1)

	features := make([][]float64, len(history))
	targets := make([]float64, len(history))
	for i, obs := range history {
		features[i] = m.featuresFor(obs)
		targets[i] = obs.Demand / m.scale
	}

	m.weights = make([]float64, regressorFeatures)
	n := float64(len(history))
	for epoch := 0; epoch < m.epochs; epoch++ {
		grad := make([]float64, regressorFeatures)
		for i, x := range features {
			pred := dot(m.weights, x)
			err := pred - targets[i]
			for j := range grad {
				grad[j] += err * x[j]
			}
		}
		for j := range m.weights {
			m.weights[j] -= m.learningRate * grad[j] / n
		}
	}

	m.values = make([]float64, len(history))
	for i, obs := range history {
		m.values[i] = obs.Demand
	}
	m.lastDate = history[len(history)-1].Date
	return nil
}

func (m *GradientRegressor) Forecast(horizon int) ([]Prediction, error) {
	if m.weights == nil {
		return nil, ErrNotFitted
	}

	// Recursive multi-step forecast: each predicted day is appended to the
	// working series so later horizons see it as a lag.
	values := append([]float64(nil), m.values...)
	preds := make([]Prediction, 0, horizon)

	for h := 1; h <= horizon; h++ {
		date := m.lastDate.AddDate(0, 0, h)
		obs := Observation{
			Date:      date,
			Lag1:      tail(values, 1),
			Lag7:      tail(values, 7),
			Roll7:     tailMean(values, 7),
			Roll30:    tailMean(values, 30),
			DayOfWeek: int(date.Weekday()),
			IsWeekend: isWeekend(date),
		}
		value := dot(m.weights, m.featuresFor(obs)) * m.scale
		if value < 0 {
			value = 0
		}
		values = append(values, value)
		preds = append(preds, Prediction{Date: date, HorizonDay: h, Demand: value})
	}
	return preds, nil
}

func (m *GradientRegressor) featuresFor(obs Observation) []float64 {
	x := make([]float64, regressorFeatures)
	x[0] = 1
	x[1+obs.DayOfWeek%7] = 1
	x[8] = obs.Lag1 / m.scale
	x[9] = obs.Lag7 / m.scale
	x[10] = obs.Roll7 / m.scale
	x[11] = obs.Roll30 / m.scale
	if obs.IsWeekend {
		x[12] = 1
	}
	return x
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func tail(values []float64, back int) float64 {
	if len(values) < back {
		if len(values) == 0 {
			return 0
		}
		return values[0]
	}
	return values[len(values)-back]
}

func tailMean(values []float64, window int) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) < window {
		window = len(values)
	}
	return mean(values[len(values)-window:])
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
