package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v5"
	"go.uber.org/zap"

	"vnquant/internal/model"
	"vnquant/internal/source"
)

// DefaultRatiosURL is the VNDirect fundamental ratios endpoint.
const DefaultRatiosURL = "https://finfo-api.vndirect.com.vn/v4/ratios"

// Loader fetches fundamental ratio reports for one symbol and pivots them to
// a wide frame of report dates against named items.
type Loader struct {
	BaseURL   string
	UserAgent string
	ItemNames map[string]string
	Client    *http.Client
	log       *zap.Logger
}

// New creates a ratio report loader. ItemNames maps provider item codes to
// output column names and also selects which items are requested.
func New(ratiosURL string, itemNames map[string]string, opts source.Options, log *zap.Logger) *Loader {
	if ratiosURL == "" {
		ratiosURL = DefaultRatiosURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		BaseURL:   ratiosURL,
		UserAgent: opts.UserAgent,
		ItemNames: itemNames,
		Client:    source.NewHTTPClient(opts),
		log:       log,
	}
}

// ratioRow is one long-form entry of the ratios payload.
type ratioRow struct {
	Code       string      `json:"code"`
	ItemCode   json.Number `json:"itemCode"`
	ReportDate string      `json:"reportDate"`
	Value      null.Float  `json:"value"`
}

type ratioEnvelope struct {
	Data []ratioRow `json:"data"`
}

// Fetch retrieves all configured ratio items for symbol over [start, end]
// and pivots them into a frame: one row per report date (descending), one
// column per item, columns ordered by ascending item code.
func (l *Loader) Fetch(ctx context.Context, symbol string, start, end time.Time) (*model.Frame, error) {
	frame, err := l.fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, &source.FetchError{Symbol: strings.ToUpper(symbol), Err: err}
	}
	return frame, nil
}

func (l *Loader) fetch(ctx context.Context, symbol string, start, end time.Time) (*model.Frame, error) {
	if len(l.ItemNames) == 0 {
		return nil, fmt.Errorf("no ratio items configured")
	}
	code := strings.ToUpper(symbol)
	items := make([]string, 0, len(l.ItemNames))
	for item := range l.ItemNames {
		items = append(items, item)
	}
	sort.Strings(items)

	// Reports are quarterly; size the single request to cover the window.
	quarters := model.DaysBetween(start, end)/90 + 2
	q := url.Values{}
	q.Set("sort", "reportDate")
	q.Set("q", fmt.Sprintf("code:%s~itemCode:%s~reportDate:gte:%s~reportDate:lte:%s",
		code, strings.Join(items, ","),
		start.Format(model.DateLayoutISO), end.Format(model.DateLayoutISO)))
	q.Set("size", strconv.Itoa(quarters*len(items)))
	q.Set("page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", l.UserAgent)

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ratios fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ratios read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ratios: status %d, body: %s", resp.StatusCode, string(body))
	}

	var envelope ratioEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("ratios decode: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("ratios: no data returned")
	}

	cells := make(map[time.Time]map[string]float64)
	var dates []time.Time
	for _, row := range envelope.Data {
		date, err := model.ParseDate(row.ReportDate)
		if err != nil {
			return nil, fmt.Errorf("ratios row: %w", err)
		}
		if cells[date] == nil {
			cells[date] = make(map[string]float64)
			dates = append(dates, date)
		}
		v := math.NaN()
		if row.Value.Valid {
			v = row.Value.Float64
		}
		cells[date][row.ItemCode.String()] = v
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	frame := &model.Frame{
		Layout: model.LayoutStack,
		Dates:  dates,
		Codes:  make([]string, len(dates)),
	}
	for i := range frame.Codes {
		frame.Codes[i] = code
	}
	for _, item := range items {
		col := model.Column{
			Key:    model.ColumnKey{Attr: model.Attribute(l.itemName(item))},
			Values: make([]float64, len(dates)),
		}
		for i, date := range dates {
			if v, ok := cells[date][item]; ok {
				col.Values[i] = v
			} else {
				col.Values[i] = math.NaN()
			}
		}
		frame.Columns = append(frame.Columns, col)
	}

	l.log.Info("ratios loaded",
		zap.String("symbol", code),
		zap.Int("reports", len(dates)),
		zap.Int("items", len(items)))
	return frame, nil
}

func (l *Loader) itemName(item string) string {
	if name, ok := l.ItemNames[item]; ok && name != "" {
		return name
	}
	return "item_" + item
}
