package indicator

import "fmt"

// Conventional MACD spans.
const (
	DefaultFastSpan   = 12
	DefaultSlowSpan   = 26
	DefaultSignalSpan = 9
)

// MACDResult holds the three MACD series, each aligned to the input index.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the moving average convergence-divergence of closes:
// Line = EMA(closes, fast) - EMA(closes, slow), Signal = EMA(Line, signal),
// Histogram = Line - Signal. fast < slow is conventional, not enforced.
// A single-point input yields a degenerate but defined all-zero result.
func MACD(closes []float64, fast, slow, signal int) (*MACDResult, error) {
	fastEMA, err := EMA(closes, fast)
	if err != nil {
		return nil, fmt.Errorf("fast ema: %w", err)
	}
	slowEMA, err := EMA(closes, slow)
	if err != nil {
		return nil, fmt.Errorf("slow ema: %w", err)
	}

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine, err := EMA(line, signal)
	if err != nil {
		return nil, fmt.Errorf("signal ema: %w", err)
	}

	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - signalLine[i]
	}

	return &MACDResult{Line: line, Signal: signalLine, Histogram: hist}, nil
}
