package source

import (
	"context"
	"strings"
	"time"

	"vnquant/internal/model"
)

// MockAdapter returns controllable fixed data for development and testing.
type MockAdapter struct {
	Quotes  map[string][]model.Quote
	Errs    map[string]error
	Attrs   []model.Attribute
	Base    float64
	Fetched []string // symbols in fetch order
}

func (m *MockAdapter) Name() string { return "mock" }

func (m *MockAdapter) Columns() []model.Attribute {
	if m.Attrs != nil {
		return m.Attrs
	}
	return model.MinimalAttributes()
}

func (m *MockAdapter) Fetch(_ context.Context, symbol string, start, end time.Time) ([]model.Quote, error) {
	code := strings.ToUpper(symbol)
	m.Fetched = append(m.Fetched, code)
	if err := m.Errs[code]; err != nil {
		return nil, &FetchError{Symbol: code, Err: err}
	}
	if quotes := m.Quotes[code]; quotes != nil {
		return quotes, nil
	}
	return generateMockQuotes(code, m.Base, start, end), nil
}

func generateMockQuotes(code string, base float64, start, end time.Time) []model.Quote {
	if base == 0 {
		base = 100
	}
	days := model.DaysBetween(start, end)
	quotes := make([]model.Quote, 0, days)
	for i := 0; i < days; i++ {
		p := base * (1 + float64(i-days/2)*0.001)
		q := model.NewQuote(code, model.Midnight(start).AddDate(0, 0, i))
		q.Open = p * 0.999
		q.High = p * 1.005
		q.Low = p * 0.995
		q.Close = p
		q.Adjust = p
		q.VolumeMatch = 1000000
		q.ValueMatch = p * 1000000
		quotes = append(quotes, q)
	}
	return quotes
}
