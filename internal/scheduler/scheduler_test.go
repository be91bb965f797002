package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vnquant/internal/chart"
	"vnquant/internal/config"
	"vnquant/internal/recorder"
	"vnquant/internal/source"
	"vnquant/internal/watchlist"
)

func testScheduler(t *testing.T, mock *source.MockAdapter, symbols []string) (*Scheduler, string) {
	t.Helper()
	dir := t.TempDir()
	wm, err := watchlist.NewManager(filepath.Join(dir, "watch.json"), symbols, nil)
	if err != nil {
		t.Fatalf("watchlist: %v", err)
	}
	s := NewScheduler(context.Background(), mock, chart.New(nil, nil), wm,
		recorder.NewNoopRecorder(),
		config.WatchConfig{
			Cron:       "0 30 15 * * 1-5",
			WindowDays: 30,
			OutputDir:  filepath.Join(dir, "charts"),
		},
		config.ChartConfig{}, nil)
	return s, dir
}

func TestRunNow_RefreshesEverySymbol(t *testing.T) {
	mock := &source.MockAdapter{Errs: map[string]error{"BBB": errors.New("status 500")}}
	s, dir := testScheduler(t, mock, []string{"VNM", "BBB"})

	s.RunNow()

	if len(mock.Fetched) != 2 {
		t.Fatalf("fetched %v, want both watched symbols", mock.Fetched)
	}

	// The healthy symbol gets a rendered chart and a success stamp.
	if _, err := os.Stat(filepath.Join(dir, "charts", "vnm.html")); err != nil {
		t.Errorf("chart not rendered: %v", err)
	}
	snap := s.Watch.Snapshot()
	if snap.Symbols["VNM"].LastQuoteDate.IsZero() {
		t.Error("success not recorded for VNM")
	}
	if snap.Symbols["VNM"].ConsecutiveFailures != 0 {
		t.Errorf("VNM failures = %d", snap.Symbols["VNM"].ConsecutiveFailures)
	}

	// The failing symbol is marked but does not stop the tick.
	if snap.Symbols["BBB"].ConsecutiveFailures != 1 {
		t.Errorf("BBB failures = %d, want 1", snap.Symbols["BBB"].ConsecutiveFailures)
	}
	if snap.Symbols["BBB"].LastError == "" {
		t.Error("BBB error text not recorded")
	}
	if _, err := os.Stat(filepath.Join(dir, "charts", "bbb.html")); err == nil {
		t.Error("failing symbol should not render a chart")
	}
}

func TestRegister_CronExpression(t *testing.T) {
	s, _ := testScheduler(t, &source.MockAdapter{}, []string{"VNM"})
	if err := s.Register(); err != nil {
		t.Errorf("register with seconds-resolution expression: %v", err)
	}

	bad, _ := testScheduler(t, &source.MockAdapter{}, []string{"VNM"})
	bad.Cfg.Cron = "not a cron line"
	if err := bad.Register(); err == nil {
		t.Error("expected error for malformed expression")
	}
}
