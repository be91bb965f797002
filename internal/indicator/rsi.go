package indicator

import (
	"errors"
	"math"
)

// DefaultRSIPeriod is the conventional RSI lookback.
const DefaultRSIPeriod = 14

// RSI annotation thresholds. They drive chart reference lines and report
// remarks only, never computation branches.
const (
	Overbought = 70.0
	Oversold   = 30.0
)

// RSI computes the Wilder-smoothed relative strength index of closes,
// aligned to the input index. Index 0 has no prior close and holds NaN.
// Average gain and loss use alpha = 1/period smoothing seeded with the
// first gain/loss pair; a zero average loss yields RSI = 100 rather than
// a division fault.
func RSI(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(closes) == 0 {
		return nil, ErrEmptySeries
	}

	out := make([]float64, len(closes))
	out[0] = math.NaN()
	if len(closes) == 1 {
		return out, nil
	}

	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	avgGain := wilderEMA(gains, period)
	avgLoss := wilderEMA(losses, period)
	for i := range avgGain {
		if avgLoss[i] == 0 {
			out[i+1] = 100
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i+1] = 100 - 100/(1+rs)
	}
	return out, nil
}
