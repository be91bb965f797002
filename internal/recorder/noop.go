package recorder

import (
	"time"

	"vnquant/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordQuotes(_ string, _ []model.Quote) error { return nil }
func (n *NoopRecorder) RecordRefresh(_ *RefreshEvent) error          { return nil }
func (n *NoopRecorder) LastQuoteDate(_ string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}
func (n *NoopRecorder) Close() error { return nil }
