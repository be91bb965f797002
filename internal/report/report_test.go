package report

import (
	"strings"
	"testing"
	"time"

	"vnquant/internal/model"
)

func risingQuotes(n int) []model.Quote {
	quotes := make([]model.Quote, 0, n)
	for i := 0; i < n; i++ {
		q := model.NewQuote("VNM", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i))
		q.Close = 100 + float64(i)
		quotes = append(quotes, q)
	}
	return quotes
}

func TestSummarize_NoData(t *testing.T) {
	got := Summarize("VNM", nil)
	if got != "VNM: no data\n" {
		t.Errorf("got %q", got)
	}
}

func TestSummarize_HeaderAndClose(t *testing.T) {
	got := Summarize("VNM", risingQuotes(20))

	if !strings.HasPrefix(got, "VNM | 20 sessions | 2024-03-01 .. 2024-03-20\n") {
		t.Errorf("header wrong:\n%s", got)
	}
	if !strings.Contains(got, "close: 119.00 (2024-03-20)") {
		t.Errorf("close line wrong:\n%s", got)
	}
	if !strings.Contains(got, "change: +1.00 (+0.85%)") {
		t.Errorf("change line wrong:\n%s", got)
	}
}

func TestSummarize_RemarksOnMonotonicRise(t *testing.T) {
	got := Summarize("VNM", risingQuotes(30))

	// A strictly rising series pins Wilder RSI at 100 and MACD over signal.
	if !strings.Contains(got, "rsi(14): 100.0 [overbought]") {
		t.Errorf("rsi line wrong:\n%s", got)
	}
	if !strings.Contains(got, "above signal") {
		t.Errorf("macd remark wrong:\n%s", got)
	}
}

func TestSummarizeFrame_MatchesQuoteSummary(t *testing.T) {
	quotes := risingQuotes(20)
	frame := model.NewStackFrame([]model.Attribute{model.AttrClose}, []string{"VNM"},
		map[string][]model.Quote{"VNM": quotes})

	fromQuotes := Summarize("VNM", quotes)
	fromFrame := SummarizeFrame("VNM", frame)
	if fromQuotes != fromFrame {
		t.Errorf("summaries disagree:\n%s\nvs\n%s", fromQuotes, fromFrame)
	}
}

func TestSummarizeFrame_MissingClose(t *testing.T) {
	frame := model.NewStackFrame([]model.Attribute{model.AttrOpen}, []string{"VNM"},
		map[string][]model.Quote{"VNM": risingQuotes(5)})

	got := SummarizeFrame("VNM", frame)
	if !strings.Contains(got, "no close column") {
		t.Errorf("got %q", got)
	}
}

func TestRemarks(t *testing.T) {
	if got := rsiRemark(75); got != "[overbought]" {
		t.Errorf("rsi 75 = %s", got)
	}
	if got := rsiRemark(25); got != "[oversold]" {
		t.Errorf("rsi 25 = %s", got)
	}
	if got := rsiRemark(50); got != "[neutral]" {
		t.Errorf("rsi 50 = %s", got)
	}
	if got := macdRemark(1, 0.5); got != "above signal" {
		t.Errorf("macd above = %s", got)
	}
	if got := macdRemark(0.5, 1); got != "below signal" {
		t.Errorf("macd below = %s", got)
	}
	if got := macdRemark(1, 1); got != "flat" {
		t.Errorf("macd flat = %s", got)
	}
}
