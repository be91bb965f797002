package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"vnquant/internal/model"
)

// DefaultCafeFURL is the CafeF daily price history endpoint.
const DefaultCafeFURL = "https://s.cafef.vn/Ajax/PageNew/DataHistory/PriceHistory.ashx"

// cafefChangePattern splits the combined change column "1.9(2.45 %)" into
// its absolute and percentage parts.
var cafefChangePattern = regexp.MustCompile(`([-+]?[0-9.,]+)\s*\(\s*([-+]?[0-9.,]+)\s*%?\s*\)`)

// CafeFAdapter fetches daily price history from the CafeF ajax endpoint.
type CafeFAdapter struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewCafeF creates a CafeF adapter with optional proxy support.
func NewCafeF(opts Options) *CafeFAdapter {
	base := opts.BaseURL
	if base == "" {
		base = DefaultCafeFURL
	}
	return &CafeFAdapter{
		BaseURL:   base,
		UserAgent: opts.userAgent(),
		Client:    NewHTTPClient(opts),
	}
}

func (a *CafeFAdapter) Name() string { return "cafef" }

// Columns lists the provider-supplied attributes in payload order.
func (a *CafeFAdapter) Columns() []model.Attribute {
	return []model.Attribute{
		model.AttrAdjust, model.AttrClose,
		model.AttrChange, model.AttrPctChange,
		model.AttrVolumeMatch, model.AttrValueMatch,
		model.AttrVolumeReconcile, model.AttrValueReconcile,
		model.AttrOpen, model.AttrHigh, model.AttrLow,
	}
}

// cafefEnvelope is the response wrapper of the price history endpoint.
type cafefEnvelope struct {
	Data struct {
		TotalCount int        `json:"TotalCount"`
		Data       []cafefRow `json:"Data"`
	} `json:"Data"`
}

// cafefRow mirrors one payload row. Numeric cells may arrive either as JSON
// numbers or as comma-grouped strings, so they decode loosely.
type cafefRow struct {
	Date            string      `json:"Ngay"`
	AdjustedPrice   interface{} `json:"GiaDieuChinh"`
	ClosePrice      interface{} `json:"GiaDongCua"`
	Change          string      `json:"ThayDoi"`
	MatchedVolume   interface{} `json:"KhoiLuongKhopLenh"`
	MatchedValue    interface{} `json:"GiaTriKhopLenh"`
	ReconcileVolume interface{} `json:"KLThoaThuan"`
	ReconcileValue  interface{} `json:"GtThoaThuan"`
	OpenPrice       interface{} `json:"GiaMoCua"`
	HighestPrice    interface{} `json:"GiaCaoNhat"`
	LowestPrice     interface{} `json:"GiaThapNhat"`
}

// Fetch retrieves the [start, end] window for symbol in one request.
func (a *CafeFAdapter) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.Quote, error) {
	quotes, err := a.fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Err: err}
	}
	return quotes, nil
}

func (a *CafeFAdapter) fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.Quote, error) {
	q := url.Values{}
	q.Set("Symbol", strings.ToUpper(symbol))
	q.Set("StartDate", start.Format(model.DateLayoutVN))
	q.Set("EndDate", end.Format(model.DateLayoutVN))
	q.Set("PageIndex", "1")
	q.Set("PageSize", strconv.Itoa(model.DaysBetween(start, end)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.UserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cafef fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cafef read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cafef: status %d, body: %s", resp.StatusCode, string(body))
	}

	var envelope cafefEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("cafef decode: %w", err)
	}
	if len(envelope.Data.Data) == 0 {
		return nil, fmt.Errorf("cafef: no data returned")
	}

	quotes := make([]model.Quote, 0, len(envelope.Data.Data))
	for _, row := range envelope.Data.Data {
		date, err := model.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("cafef row: %w", err)
		}
		quote := model.NewQuote(strings.ToUpper(symbol), date)
		quote.Adjust = looseFloat(row.AdjustedPrice)
		quote.Close = looseFloat(row.ClosePrice)
		quote.Change, quote.PctChange = parseCafeFChange(row.Change)
		quote.VolumeMatch = looseFloat(row.MatchedVolume)
		quote.ValueMatch = looseFloat(row.MatchedValue)
		quote.VolumeReconcile = looseFloat(row.ReconcileVolume)
		quote.ValueReconcile = looseFloat(row.ReconcileValue)
		quote.Open = looseFloat(row.OpenPrice)
		quote.High = looseFloat(row.HighestPrice)
		quote.Low = looseFloat(row.LowestPrice)
		quotes = append(quotes, quote)
	}

	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Date.Before(quotes[j].Date) })
	return quotes, nil
}

// looseFloat converts a loosely typed payload cell. Strings may carry comma
// thousands grouping; anything unparseable becomes NaN.
func looseFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", ""), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

// parseCafeFChange splits "x(y %)" into the absolute and percent change.
func parseCafeFChange(s string) (change, pct float64) {
	m := cafefChangePattern.FindStringSubmatch(s)
	if m == nil {
		return math.NaN(), math.NaN()
	}
	return looseFloat(m[1]), looseFloat(m[2])
}
