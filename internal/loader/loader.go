package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"vnquant/internal/model"
	"vnquant/internal/source"
)

// ErrInvalidRange reports a request whose start date falls after its end date.
var ErrInvalidRange = errors.New("start date after end date")

// Options describes one load request.
type Options struct {
	Symbols []string
	Start   time.Time
	End     time.Time
	Layout  model.Layout
	Minimal bool
}

// Loader fetches per-symbol quote tables through one adapter and merges them
// into a single frame.
type Loader struct {
	adapter      source.Adapter
	allowPartial bool
	log          *zap.Logger
}

// New creates a Loader. With allowPartial a failing symbol is skipped and the
// remaining symbols still load; otherwise the first failure aborts the whole
// request.
func New(adapter source.Adapter, allowPartial bool, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{adapter: adapter, allowPartial: allowPartial, log: log}
}

// Load fetches every requested symbol over [Start, End] and assembles the
// merged frame for the requested layout, rows sorted by date descending.
// Symbols are uppercased and deduplicated, keeping caller order.
func (l *Loader) Load(ctx context.Context, opts Options) (*model.Frame, error) {
	if opts.Start.After(opts.End) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			opts.Start.Format(model.DateLayoutISO), opts.End.Format(model.DateLayoutISO))
	}
	symbols := dedupe(opts.Symbols)
	if len(symbols) == 0 {
		return nil, errors.New("no symbols requested")
	}

	tables := make(map[string][]model.Quote, len(symbols))
	kept := make([]string, 0, len(symbols))
	var failures []error
	for _, sym := range symbols {
		quotes, err := l.adapter.Fetch(ctx, sym, opts.Start, opts.End)
		if err != nil {
			var fe *source.FetchError
			if !errors.As(err, &fe) {
				err = &source.FetchError{Symbol: sym, Err: err}
			}
			if !l.allowPartial {
				return nil, err
			}
			l.log.Warn("symbol skipped", zap.String("symbol", sym), zap.Error(err))
			failures = append(failures, err)
			continue
		}
		tables[sym] = quotes
		kept = append(kept, sym)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("all symbols failed: %w", errors.Join(failures...))
	}

	attrs := model.MinimalAttributes()
	if !opts.Minimal {
		attrs = l.adapter.Columns()
	}

	var frame *model.Frame
	switch opts.Layout {
	case model.LayoutStack:
		frame = model.NewStackFrame(attrs, kept, tables)
	case model.LayoutPrefix:
		frame = model.NewPrefixFrame(attrs, kept, tables)
	default:
		frame = model.NewLevelsFrame(attrs, kept, tables)
	}

	l.log.Info("load complete",
		zap.String("source", l.adapter.Name()),
		zap.Strings("symbols", kept),
		zap.String("layout", opts.Layout.String()),
		zap.Int("rows", frame.Rows()))
	return frame, nil
}

func dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	var out []string
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}
