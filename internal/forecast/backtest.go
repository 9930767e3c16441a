package forecast

import (
	"fmt"
)

// RollingOrigin backtests a model over the validation slice: fit on train,
// predict one window, slide the origin forward by the window size with the
// actuals revealed, repeat. Errors are pooled across all windows.
func RollingOrigin(model Model, train, validation []Observation, window int) (Metrics, error) {
	if window <= 0 {
		window = 7
	}
	if len(validation) == 0 {
		return Metrics{}, fmt.Errorf("empty validation slice")
	}

	context := append([]Observation(nil), train...)
	var actuals, predicted []float64

	for start := 0; start < len(validation); start += window {
		end := start + window
		if end > len(validation) {
			end = len(validation)
		}
		fold := validation[start:end]

		if err := model.Fit(context); err != nil {
			return Metrics{}, fmt.Errorf("fit at origin %d: %w", start, err)
		}
		preds, err := model.Forecast(len(fold))
		if err != nil {
			return Metrics{}, fmt.Errorf("forecast at origin %d: %w", start, err)
		}

		for i, obs := range fold {
			actuals = append(actuals, obs.Demand)
			predicted = append(predicted, preds[i].Demand)
		}

		context = append(context, fold...)
	}

	return Evaluate(actuals, predicted), nil
}
