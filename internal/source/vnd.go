package source

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

	"vnquant/internal/model"
)

// DefaultVNDURL is the VNDirect historical stock price endpoint.
const DefaultVNDURL = "https://finfo-api.vndirect.com.vn/v4/stock_prices"

// VNDAdapter fetches daily price history from the VNDirect finfo API.
type VNDAdapter struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewVND creates a VNDirect adapter with optional proxy support.
func NewVND(opts Options) *VNDAdapter {
	base := opts.BaseURL
	if base == "" {
		base = DefaultVNDURL
	}
	return &VNDAdapter{
		BaseURL:   base,
		UserAgent: opts.userAgent(),
		Client:    NewHTTPClient(opts),
	}
}

func (a *VNDAdapter) Name() string { return "vnd" }

// Columns lists the provider-supplied attributes in payload order.
func (a *VNDAdapter) Columns() []model.Attribute {
	return []model.Attribute{
		model.AttrBasicPrice, model.AttrCeilingPrice, model.AttrFloorPrice,
		model.AttrOpen, model.AttrHigh, model.AttrLow, model.AttrClose, model.AttrAverage,
		model.AttrAdjustOpen, model.AttrAdjustHigh, model.AttrAdjustLow,
		model.AttrAdjust, model.AttrAdjustAverage,
		model.AttrVolumeMatch, model.AttrValueMatch,
		model.AttrVolumeReconcile, model.AttrValueReconcile,
		model.AttrChange, model.AttrAdjustChange, model.AttrPctChange,
	}
}

// vndEnvelope is the paged response wrapper of the finfo API.
type vndEnvelope struct {
	Data          []vndRow `json:"data"`
	TotalElements int      `json:"totalElements"`
}

// vndRow mirrors one payload row. Numeric fields are nullable upstream.
type vndRow struct {
	Code         string     `json:"code"`
	Date         string     `json:"date"`
	BasicPrice   null.Float `json:"basicPrice"`
	CeilingPrice null.Float `json:"ceilingPrice"`
	FloorPrice   null.Float `json:"floorPrice"`
	Open         null.Float `json:"open"`
	High         null.Float `json:"high"`
	Low          null.Float `json:"low"`
	Close        null.Float `json:"close"`
	Average      null.Float `json:"average"`
	AdOpen       null.Float `json:"adOpen"`
	AdHigh       null.Float `json:"adHigh"`
	AdLow        null.Float `json:"adLow"`
	AdClose      null.Float `json:"adClose"`
	AdAverage    null.Float `json:"adAverage"`
	NmVolume     null.Float `json:"nmVolume"`
	NmValue      null.Float `json:"nmValue"`
	PtVolume     null.Float `json:"ptVolume"`
	PtValue      null.Float `json:"ptValue"`
	Change       null.Float `json:"change"`
	AdChange     null.Float `json:"adChange"`
	PctChange    null.Float `json:"pctChange"`
}

// Fetch retrieves the [start, end] window for symbol in one request.
func (a *VNDAdapter) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.Quote, error) {
	quotes, err := a.fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Err: err}
	}
	return quotes, nil
}

func (a *VNDAdapter) fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.Quote, error) {
	code := strings.ToUpper(symbol)
	q := url.Values{}
	q.Set("sort", "date")
	q.Set("q", fmt.Sprintf("code:%s~date:gte:%s~date:lte:%s",
		code, start.Format(model.DateLayoutISO), end.Format(model.DateLayoutISO)))
	q.Set("size", strconv.Itoa(model.DaysBetween(start, end)))
	q.Set("page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.UserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vnd fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vnd read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vnd: status %d, body: %s", resp.StatusCode, string(body))
	}

	var envelope vndEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("vnd decode: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("vnd: no data returned")
	}

	quotes := make([]model.Quote, 0, len(envelope.Data))
	for _, row := range envelope.Data {
		date, err := model.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("vnd row: %w", err)
		}
		rowCode := row.Code
		if rowCode == "" {
			rowCode = code
		}
		quote := model.NewQuote(rowCode, date)
		quote.BasicPrice = nullFloat(row.BasicPrice)
		quote.CeilingPrice = nullFloat(row.CeilingPrice)
		quote.FloorPrice = nullFloat(row.FloorPrice)
		quote.Open = nullFloat(row.Open)
		quote.High = nullFloat(row.High)
		quote.Low = nullFloat(row.Low)
		quote.Close = nullFloat(row.Close)
		quote.Average = nullFloat(row.Average)
		quote.AdjustOpen = nullFloat(row.AdOpen)
		quote.AdjustHigh = nullFloat(row.AdHigh)
		quote.AdjustLow = nullFloat(row.AdLow)
		quote.Adjust = nullFloat(row.AdClose)
		quote.AdjustAverage = nullFloat(row.AdAverage)
		quote.VolumeMatch = nullFloat(row.NmVolume)
		quote.ValueMatch = nullFloat(row.NmValue)
		quote.VolumeReconcile = nullFloat(row.PtVolume)
		quote.ValueReconcile = nullFloat(row.PtValue)
		quote.Change = nullFloat(row.Change)
		quote.AdjustChange = nullFloat(row.AdChange)
		quote.PctChange = nullFloat(row.PctChange)
		quotes = append(quotes, quote)
	}

	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Date.Before(quotes[j].Date) })
	return quotes, nil
}

// nullFloat maps an absent upstream value to NaN.
func nullFloat(v null.Float) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
