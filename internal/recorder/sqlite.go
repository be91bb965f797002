package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"vnquant/internal/model"
)

// SQLiteRecorder persists quote history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	log *zap.Logger
	mu  sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers can inspect history while the watcher writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quotes (
			code         TEXT NOT NULL,
			date         TEXT NOT NULL,
			source       TEXT NOT NULL,
			open         REAL,
			high         REAL,
			low          REAL,
			close        REAL,
			adjust       REAL,
			volume_match REAL,
			value_match  REAL,
			PRIMARY KEY (code, date, source)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_code_date ON quotes(code, date)`,

		`CREATE TABLE IF NOT EXISTS refresh_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			code      TEXT,
			rows      INTEGER,
			from_date TEXT,
			to_date   TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_ts ON refresh_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordQuotes upserts a batch of quotes on (code, date, source).
func (r *SQLiteRecorder) RecordQuotes(source string, quotes []model.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO quotes
		(code, date, source, open, high, low, close, adjust, volume_match, value_match)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(code, date, source) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, adjust=excluded.adjust,
			volume_match=excluded.volume_match, value_match=excluded.value_match`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, q := range quotes {
		_, err := stmt.Exec(
			q.Code, q.Date.Format(model.DateLayoutISO), source,
			real64(q.Open), real64(q.High), real64(q.Low), real64(q.Close),
			real64(q.Adjust), real64(q.VolumeMatch), real64(q.ValueMatch),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert quote %s %s: %w", q.Code, q.Date.Format(model.DateLayoutISO), err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordRefresh(evt *RefreshEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO refresh_events
		(timestamp, code, rows, from_date, to_date, error)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.Rows,
		evt.From.Format(model.DateLayoutISO), evt.To.Format(model.DateLayoutISO),
		evt.Err,
	)
	return err
}

// LastQuoteDate returns the most recent recorded date for code, with ok
// reporting whether any row exists.
func (r *SQLiteRecorder) LastQuoteDate(code string) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var last sql.NullString
	err := r.db.QueryRow(`SELECT MAX(date) FROM quotes WHERE code = ?`, code).Scan(&last)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query last quote date: %w", err)
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(model.DateLayoutISO, last.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last quote date: %w", err)
	}
	return t.UTC(), true, nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}

// real64 maps NaN to NULL so absent cells stay absent in storage.
func real64(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
