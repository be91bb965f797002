package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"vnquant/internal/chart"
	"vnquant/internal/config"
	"vnquant/internal/finance"
	"vnquant/internal/loader"
	"vnquant/internal/logger"
	"vnquant/internal/model"
	"vnquant/internal/recorder"
	"vnquant/internal/report"
	"vnquant/internal/scheduler"
	"vnquant/internal/source"
	"vnquant/internal/watchlist"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	var (
		cfgPath     = flag.String("config", defaultConfigPath(), "path to the YAML config file")
		symbolsFlag = flag.String("symbols", "", "comma-separated ticker symbols")
		startFlag   = flag.String("start", "", "range start (YYYY-MM-DD)")
		endFlag     = flag.String("end", "", "range end (YYYY-MM-DD), defaults to today")
		sourceFlag  = flag.String("source", "", "data source: cafef, vnd or mock (default from config)")
		layoutFlag  = flag.String("layout", "stack", "table layout: levels, prefix or stack")
		minimal     = flag.Bool("minimal", true, "keep only the reduced column set")
		outFlag     = flag.String("out", "-", "CSV output path, - for stdout")
		chartFlag   = flag.String("chart", "", "render an interactive HTML chart to this path")
		noVolume    = flag.Bool("no-volume", false, "omit the volume pane")
		noMACD      = flag.Bool("no-macd", false, "omit the MACD pane")
		noRSI       = flag.Bool("no-rsi", false, "omit the RSI pane")
		financeFlag = flag.Bool("finance", false, "fetch fundamental ratios instead of prices")
		watchFlag   = flag.Bool("watch", false, "run the scheduled watch loop")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	srcName := cfg.Source.Default
	if *sourceFlag != "" {
		srcName = *sourceFlag
	}
	adapter, err := newAdapter(srcName, cfg)
	if err != nil {
		log.Fatal("data source", zap.Error(err))
	}
	log.Info("data source selected", zap.String("source", adapter.Name()))

	ldr := loader.New(adapter, cfg.Source.AllowPartial, log)
	symbols := splitSymbols(*symbolsFlag)

	if *watchFlag {
		runWatch(adapter, ldr, cfg, symbols, log)
		return
	}

	if len(symbols) == 0 {
		log.Fatal("no symbols given, use -symbols")
	}
	start, end, err := parseRange(*startFlag, *endFlag)
	if err != nil {
		log.Fatal("date range", zap.Error(err))
	}
	ctx := context.Background()

	switch {
	case *financeFlag:
		if len(symbols) != 1 {
			log.Fatal("finance mode takes exactly one symbol")
		}
		fin := finance.New(cfg.Finance.RatiosURL, cfg.Finance.ItemNames, adapterOptions("", cfg), log)
		frame, err := fin.Fetch(ctx, symbols[0], start, end)
		if err != nil {
			log.Fatal("fetch ratios", zap.Error(err))
		}
		if err := writeCSV(frame, *outFlag); err != nil {
			log.Fatal("write output", zap.Error(err))
		}

	case *chartFlag != "":
		if len(symbols) != 1 {
			log.Fatal("chart mode takes exactly one symbol")
		}
		f, err := os.Create(*chartFlag)
		if err != nil {
			log.Fatal("create chart file", zap.Error(err))
		}
		defer f.Close()
		renderer := chart.New(ldr, log)
		err = renderer.RenderSymbol(ctx, symbols[0], start, end, chart.Options{
			Theme:  cfg.Chart.Theme,
			Width:  cfg.Chart.Width,
			Height: cfg.Chart.Height,
			Volume: !*noVolume,
			MACD:   !*noMACD,
			RSI:    !*noRSI,
		}, f)
		if err != nil {
			log.Fatal("render chart", zap.Error(err))
		}
		log.Info("chart written", zap.String("path", *chartFlag))

	default:
		layout, err := model.ParseLayout(*layoutFlag)
		if err != nil {
			log.Fatal("layout", zap.Error(err))
		}
		frame, err := ldr.Load(ctx, loader.Options{
			Symbols: symbols,
			Start:   start,
			End:     end,
			Layout:  layout,
			Minimal: *minimal,
		})
		if err != nil {
			log.Fatal("load", zap.Error(err))
		}
		if err := writeCSV(frame, *outFlag); err != nil {
			log.Fatal("write output", zap.Error(err))
		}
		// A console snapshot is only useful when stdout isn't the CSV sink.
		if *outFlag != "-" && len(frame.Symbols()) == 1 {
			fmt.Print(report.SummarizeFrame(frame.Symbols()[0], frame))
		}
	}
}

func runWatch(adapter source.Adapter, ldr *loader.Loader, cfg *config.Config, extra []string, log *zap.Logger) {
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	wm, err := watchlist.NewManager(cfg.Watch.StateFile, append(cfg.Watch.Symbols, extra...), log)
	if err != nil {
		log.Fatal("init watchlist", zap.Error(err))
	}
	if len(wm.Symbols()) == 0 {
		log.Fatal("watch mode needs symbols, set watch.symbols or -symbols")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, adapter, chart.New(ldr, log), wm, rec, cfg.Watch, cfg.Chart, log)
	if err := sched.Register(); err != nil {
		log.Fatal("register cron task", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, refreshing now")
		go sched.RunNow()
	}

	log.Info("watching", zap.Strings("symbols", wm.Symbols()), zap.String("cron", cfg.Watch.Cron))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping")
	cancel()
}

func newAdapter(name string, cfg *config.Config) (source.Adapter, error) {
	switch name {
	case "cafef":
		return source.NewCafeF(adapterOptions(cfg.Source.CafeFURL, cfg)), nil
	case "vnd":
		return source.NewVND(adapterOptions(cfg.Source.VNDURL, cfg)), nil
	case "mock":
		return &source.MockAdapter{}, nil
	}
	return nil, fmt.Errorf("unknown source %q (want cafef, vnd or mock)", name)
}

func adapterOptions(baseURL string, cfg *config.Config) source.Options {
	return source.Options{
		BaseURL:   baseURL,
		UserAgent: cfg.Source.UserAgent,
		Proxy:     cfg.Proxy,
		Timeout:   time.Duration(cfg.Source.TimeoutSeconds) * time.Second,
	}
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	end := model.Midnight(time.Now().UTC())
	if endStr != "" {
		var err error
		if end, err = model.ParseDate(endStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if startStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("missing -start")
	}
	start, err := model.ParseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if sym := strings.TrimSpace(part); sym != "" {
			out = append(out, sym)
		}
	}
	return out
}

func writeCSV(frame *model.Frame, path string) error {
	if path == "" || path == "-" {
		return frame.WriteCSV(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return frame.WriteCSV(f)
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}
