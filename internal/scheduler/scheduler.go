package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"vnquant/internal/chart"
	"vnquant/internal/config"
	"vnquant/internal/model"
	"vnquant/internal/recorder"
	"vnquant/internal/report"
	"vnquant/internal/source"
	"vnquant/internal/watchlist"
)

// Scheduler periodically refreshes every watched symbol: it fetches the
// trailing window, records the quotes, re-renders the chart and prints a
// summary. Symbols fail independently; one bad fetch never stops the tick.
type Scheduler struct {
	Cron     *cron.Cron
	Adapter  source.Adapter
	Renderer *chart.Renderer
	Watch    *watchlist.Manager
	Recorder recorder.Recorder
	Cfg      config.WatchConfig
	ChartCfg config.ChartConfig
	Ctx      context.Context
	Log      *zap.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(ctx context.Context, adapter source.Adapter, renderer *chart.Renderer,
	wm *watchlist.Manager, rec recorder.Recorder,
	cfg config.WatchConfig, chartCfg config.ChartConfig, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Adapter:  adapter,
		Renderer: renderer,
		Watch:    wm,
		Recorder: rec,
		Cfg:      cfg,
		ChartCfg: chartCfg,
		Ctx:      ctx,
		Log:      log,
	}
}

// Register registers the refresh task on the configured cron expression.
func (s *Scheduler) Register() error {
	if _, err := s.Cron.AddFunc(s.Cfg.Cron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started", zap.String("cron", s.Cfg.Cron))
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	s.Log.Info("scheduler stopped")
}

// RunNow executes the refresh immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() { s.refreshTask() }

func (s *Scheduler) refreshTask() {
	s.Log.Info("running watch refresh")
	end := model.Midnight(time.Now().UTC())
	start := end.AddDate(0, 0, -s.Cfg.WindowDays)
	for _, sym := range s.Watch.Symbols() {
		s.refreshSymbol(sym, start, end)
	}
}

func (s *Scheduler) refreshSymbol(symbol string, start, end time.Time) {
	log := s.Log.With(zap.String("symbol", symbol))

	prevLast, hadPrev, err := s.Recorder.LastQuoteDate(symbol)
	if err != nil {
		log.Error("last quote date", zap.Error(err))
	}

	quotes, err := s.Adapter.Fetch(s.Ctx, symbol, start, end)
	if err != nil {
		log.Error("refresh fetch failed", zap.Error(err))
		s.Watch.MarkFailure(symbol, err)
		s.recordRefresh(&recorder.RefreshEvent{Symbol: symbol, From: start, To: end, Err: err.Error()})
		return
	}

	if len(quotes) == 0 {
		log.Info("no sessions in window")
		s.recordRefresh(&recorder.RefreshEvent{Symbol: symbol, From: start, To: end})
		return
	}

	if err := s.Recorder.RecordQuotes(s.Adapter.Name(), quotes); err != nil {
		log.Error("record quotes", zap.Error(err))
	}
	if err := s.renderChart(symbol, quotes); err != nil {
		log.Error("render chart", zap.Error(err))
	}

	latest := quotes[len(quotes)-1].Date
	s.Watch.Touch(symbol, latest)
	s.recordRefresh(&recorder.RefreshEvent{Symbol: symbol, Rows: len(quotes), From: start, To: end})

	if hadPrev && !latest.After(prevLast) {
		log.Info("no new sessions", zap.String("last", latest.Format(model.DateLayoutISO)))
	} else {
		log.Info("refresh complete",
			zap.Int("rows", len(quotes)),
			zap.String("last", latest.Format(model.DateLayoutISO)))
	}
	fmt.Print(report.Summarize(symbol, quotes))
}

func (s *Scheduler) renderChart(symbol string, quotes []model.Quote) error {
	frame := model.NewStackFrame(model.MinimalAttributes(),
		[]string{symbol}, map[string][]model.Quote{symbol: quotes})

	if err := os.MkdirAll(s.Cfg.OutputDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(s.Cfg.OutputDir, strings.ToLower(symbol)+".html")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return s.Renderer.RenderFrame(frame, chart.Options{
		Title:  symbol,
		Theme:  s.ChartCfg.Theme,
		Width:  s.ChartCfg.Width,
		Height: s.ChartCfg.Height,
		Volume: true,
		MACD:   true,
		RSI:    true,
	}, f)
}

func (s *Scheduler) recordRefresh(evt *recorder.RefreshEvent) {
	if err := s.Recorder.RecordRefresh(evt); err != nil {
		s.Log.Error("record refresh", zap.Error(err))
	}
}
