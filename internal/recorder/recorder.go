package recorder

import (
	"time"

	"vnquant/internal/model"
)

// RefreshEvent records the outcome of one watch refresh for a symbol.
type RefreshEvent struct {
	Symbol string
	Rows   int
	From   time.Time
	To     time.Time
	Err    string // empty on success
}

// Recorder persists fetched quote history for later inspection. It is a
// side sink only; nothing on the load path reads from it.
type Recorder interface {
	RecordQuotes(source string, quotes []model.Quote) error
	RecordRefresh(evt *RefreshEvent) error
	LastQuoteDate(code string) (time.Time, bool, error)
	Close() error
}
