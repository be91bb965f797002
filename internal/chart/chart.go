package chart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"

	"vnquant/internal/indicator"
	"vnquant/internal/loader"
	"vnquant/internal/model"
)

// SchemaError reports a caller-supplied table missing required price columns.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Candle colors follow the usual up-green/down-red convention.
const (
	upColor   = "#00da3c"
	downColor = "#ec0000"
)

// Options selects the panes and indicator parameters of a rendered chart.
type Options struct {
	Title  string
	Theme  string
	Width  string
	Height string

	Volume bool
	MACD   bool
	RSI    bool

	FastSpan   int
	SlowSpan   int
	SignalSpan int
	RSIPeriod  int
}

func (o *Options) applyDefaults() {
	if o.Width == "" {
		o.Width = "1000px"
	}
	if o.Height == "" {
		o.Height = "460px"
	}
	if o.FastSpan <= 0 {
		o.FastSpan = indicator.DefaultFastSpan
	}
	if o.SlowSpan <= 0 {
		o.SlowSpan = indicator.DefaultSlowSpan
	}
	if o.SignalSpan <= 0 {
		o.SignalSpan = indicator.DefaultSignalSpan
	}
	if o.RSIPeriod <= 0 {
		o.RSIPeriod = indicator.DefaultRSIPeriod
	}
}

// Renderer draws layered candlestick figures as interactive HTML pages.
type Renderer struct {
	loader *loader.Loader
	log    *zap.Logger
}

// New creates a Renderer. The loader backs ticker-based rendering and may be
// nil when only caller-supplied frames are drawn.
func New(l *loader.Loader, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{loader: l, log: log}
}

// RenderSymbol loads one symbol over [start, end] and renders it to w.
func (r *Renderer) RenderSymbol(ctx context.Context, symbol string, start, end time.Time, o Options, w io.Writer) error {
	if r.loader == nil {
		return errors.New("chart: no loader configured for ticker rendering")
	}
	frame, err := r.loader.Load(ctx, loader.Options{
		Symbols: []string{symbol},
		Start:   start,
		End:     end,
		Layout:  model.LayoutStack,
		Minimal: true,
	})
	if err != nil {
		return err
	}
	if o.Title == "" {
		o.Title = strings.ToUpper(symbol)
	}
	return r.RenderFrame(frame, o, w)
}

// RenderFrame validates the table shape and renders the layered figure to w.
// The frame must hold a single symbol. Validation happens before anything is
// written, so a schema violation never draws a partial page.
func (r *Renderer) RenderFrame(f *model.Frame, o Options, w io.Writer) error {
	o.applyDefaults()

	if len(f.Symbols()) > 1 {
		return fmt.Errorf("chart: frame holds %d symbols, want one", len(f.Symbols()))
	}
	if missing := missingColumns(f, o.Volume); len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}

	// Chart panes run oldest to newest, the reverse of frame order.
	n := f.Rows()
	dates := make([]string, n)
	for i := 0; i < n; i++ {
		dates[i] = f.Dates[n-1-i].Format(model.DateLayoutISO)
	}
	open := ascending(f, "open")
	high := ascending(f, "high")
	low := ascending(f, "low")
	closes := ascending(f, "close")

	page := components.NewPage()
	page.AddCharts(r.candlePane(dates, open, high, low, closes, o))

	if o.Volume {
		page.AddCharts(r.volumePane(dates, volumeSeries(f), o))
	}
	if o.MACD {
		macd, err := indicator.MACD(closes, o.FastSpan, o.SlowSpan, o.SignalSpan)
		if err != nil {
			return fmt.Errorf("chart: %w", err)
		}
		page.AddCharts(r.macdPane(dates, macd, o))
	}
	if o.RSI {
		rsi, err := indicator.RSI(closes, o.RSIPeriod)
		if err != nil {
			return fmt.Errorf("chart: %w", err)
		}
		page.AddCharts(r.rsiPane(dates, rsi, o))
	}

	r.log.Debug("rendering chart",
		zap.String("title", o.Title), zap.Int("rows", n),
		zap.Bool("volume", o.Volume), zap.Bool("macd", o.MACD), zap.Bool("rsi", o.RSI))
	return page.Render(w)
}

func (r *Renderer) candlePane(dates []string, open, high, low, closes []float64, o Options) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: o.Theme, Width: o.Width, Height: o.Height, PageTitle: o.Title,
		}),
		charts.WithTitleOpts(opts.Title{Title: o.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{SplitNumber: 20}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	data := make([]opts.KlineData, len(dates))
	for i := range dates {
		data[i] = opts.KlineData{Value: candleValue(open[i], closes[i], low[i], high[i])}
	}
	kline.SetXAxis(dates).AddSeries("price", data,
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color: upColor, Color0: downColor,
			BorderColor: upColor, BorderColor0: downColor,
		}))
	return kline
}

func (r *Renderer) volumePane(dates []string, volume []float64, o Options) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: o.Theme, Width: o.Width, Height: "220px"}),
		charts.WithTitleOpts(opts.Title{Title: "volume"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	data := make([]opts.BarData, len(dates))
	for i := range dates {
		data[i] = opts.BarData{Value: pointValue(volume[i])}
	}
	bar.SetXAxis(dates).AddSeries("volume", data)
	return bar
}

func (r *Renderer) macdPane(dates []string, macd *indicator.MACDResult, o Options) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: o.Theme, Width: o.Width, Height: "220px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("macd (%d, %d, %d)", o.FastSpan, o.SlowSpan, o.SignalSpan)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	hist := make([]opts.BarData, len(dates))
	for i := range dates {
		hist[i] = opts.BarData{Value: pointValue(macd.Histogram[i])}
	}
	bar.SetXAxis(dates).AddSeries("histogram", hist)

	line := charts.NewLine()
	line.SetXAxis(dates).
		AddSeries("macd", lineData(macd.Line),
			charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: "zero", YAxis: 0})).
		AddSeries("signal", lineData(macd.Signal))
	bar.Overlap(line)
	return bar
}

func (r *Renderer) rsiPane(dates []string, rsi []float64, o Options) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: o.Theme, Width: o.Width, Height: "220px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("rsi (%d)", o.RSIPeriod)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(dates).AddSeries("rsi", lineData(rsi),
		charts.WithMarkLineNameYAxisItemOpts(
			opts.MarkLineNameYAxisItem{Name: "overbought", YAxis: indicator.Overbought},
			opts.MarkLineNameYAxisItem{Name: "oversold", YAxis: indicator.Oversold},
		))
	return line
}

// IsOHLC reports whether the frame carries open, high, low and close columns,
// matched case-insensitively.
func IsOHLC(f *model.Frame) bool { return len(missingColumns(f, false)) == 0 }

// IsOHLCV additionally requires a volume column; either a plain "volume" or
// the provider-normalized "volume_match" satisfies it.
func IsOHLCV(f *model.Frame) bool { return len(missingColumns(f, true)) == 0 }

func missingColumns(f *model.Frame, needVolume bool) []string {
	var missing []string
	for _, name := range []string{"open", "high", "low", "close"} {
		if _, ok := f.Column(name); !ok {
			missing = append(missing, name)
		}
	}
	if needVolume {
		if _, ok := f.Column("volume"); !ok {
			if _, ok := f.Column(string(model.AttrVolumeMatch)); !ok {
				missing = append(missing, "volume")
			}
		}
	}
	return missing
}

// ascending returns the named column oldest first, the order chart axes use.
func ascending(f *model.Frame, name string) []float64 {
	col, ok := f.Column(name)
	if !ok {
		return make([]float64, f.Rows())
	}
	n := len(col.Values)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = col.Values[n-1-i]
	}
	return out
}

func volumeSeries(f *model.Frame) []float64 {
	if _, ok := f.Column("volume"); ok {
		return ascending(f, "volume")
	}
	return ascending(f, string(model.AttrVolumeMatch))
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = opts.LineData{Value: pointValue(v)}
	}
	return data
}

// candleValue builds one candlestick cell in the open/close/low/high order
// the renderer expects. Any NaN leg turns the whole candle into a gap.
func candleValue(open, close, low, high float64) interface{} {
	if math.IsNaN(open) || math.IsNaN(close) || math.IsNaN(low) || math.IsNaN(high) {
		return []interface{}{nil, nil, nil, nil}
	}
	return [4]float64{open, close, low, high}
}

// pointValue maps NaN to a null cell so gap dates render as gaps.
func pointValue(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
