package indicator

import "errors"

// ErrEmptySeries reports an indicator invoked on an empty input series.
var ErrEmptySeries = errors.New("empty input series")

// EMA computes the recursive exponential moving average over the given span.
// The smoothing weight is alpha = 2/(span+1) and the first output is seeded
// with the first input, so EMA(values, span)[0] == values[0] for any span.
func EMA(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, errors.New("span must be positive")
	}
	if len(values) == 0 {
		return nil, ErrEmptySeries
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// wilderEMA smooths with alpha = 1/period, seeded with the first input.
func wilderEMA(values []float64, period int) []float64 {
	alpha := 1.0 / float64(period)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}
