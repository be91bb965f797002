package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"vnquant/internal/indicator"
	"vnquant/internal/model"
)

// Summarize formats a per-symbol snapshot of the latest session, RSI and
// MACD posture. Quotes must be ordered ascending by date, the order adapters
// return them in.
func Summarize(symbol string, quotes []model.Quote) string {
	dates := make([]time.Time, len(quotes))
	closes := make([]float64, len(quotes))
	for i, q := range quotes {
		dates[i] = q.Date
		closes[i] = q.Close
	}
	return summarize(symbol, dates, closes)
}

// SummarizeFrame formats the same snapshot from a single-symbol frame.
func SummarizeFrame(symbol string, f *model.Frame) string {
	col, ok := f.Column("close")
	if !ok {
		return fmt.Sprintf("%s: no close column\n", symbol)
	}
	// Frames are date-descending; the snapshot wants oldest first.
	n := f.Rows()
	dates := make([]time.Time, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		dates[i] = f.Dates[n-1-i]
		closes[i] = col.Values[n-1-i]
	}
	return summarize(symbol, dates, closes)
}

func summarize(symbol string, dates []time.Time, closes []float64) string {
	var b strings.Builder

	if len(closes) == 0 {
		b.WriteString(fmt.Sprintf("%s: no data\n", symbol))
		return b.String()
	}

	last := len(closes) - 1
	b.WriteString(fmt.Sprintf("%s | %d sessions | %s .. %s\n",
		symbol, len(closes),
		dates[0].Format(model.DateLayoutISO),
		dates[last].Format(model.DateLayoutISO)))
	b.WriteString(fmt.Sprintf("  close: %.2f (%s)\n", closes[last], dates[last].Format(model.DateLayoutISO)))

	if last > 0 {
		change := closes[last] - closes[last-1]
		if closes[last-1] != 0 && !math.IsNaN(change) {
			b.WriteString(fmt.Sprintf("  change: %+.2f (%+.2f%%)\n", change, change/closes[last-1]*100))
		}
	}

	if rsi, err := indicator.RSI(closes, indicator.DefaultRSIPeriod); err == nil {
		if v := rsi[len(rsi)-1]; !math.IsNaN(v) {
			b.WriteString(fmt.Sprintf("  rsi(%d): %.1f %s\n", indicator.DefaultRSIPeriod, v, rsiRemark(v)))
		}
	}

	if macd, err := indicator.MACD(closes, indicator.DefaultFastSpan, indicator.DefaultSlowSpan, indicator.DefaultSignalSpan); err == nil {
		line := macd.Line[len(macd.Line)-1]
		signal := macd.Signal[len(macd.Signal)-1]
		if !math.IsNaN(line) && !math.IsNaN(signal) {
			b.WriteString(fmt.Sprintf("  macd: %.3f vs signal %.3f (%s)\n", line, signal, macdRemark(line, signal)))
		}
	}

	return b.String()
}

func rsiRemark(rsi float64) string {
	switch {
	case rsi >= indicator.Overbought:
		return "[overbought]"
	case rsi <= indicator.Oversold:
		return "[oversold]"
	}
	return "[neutral]"
}

func macdRemark(line, signal float64) string {
	switch {
	case line > signal:
		return "above signal"
	case line < signal:
		return "below signal"
	}
	return "flat"
}
