package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger log.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger log.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	_ = level.Info(logger).Log("msg", "sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quote_bars (
			ticker     TEXT    NOT NULL,
			source     TEXT    NOT NULL,
			day        INTEGER NOT NULL,
			open       REAL,
			high       REAL,
			low        REAL,
			close      REAL,
			volume     REAL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (ticker, source, day)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quote_bars_fetched ON quote_bars(fetched_at)`,

		`CREATE TABLE IF NOT EXISTS dashboard_views (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT,
			ticker     TEXT,
			window     INTEGER,
			total      INTEGER,
			columns    TEXT,
			last_close REAL,
			last_day   INTEGER,
			no_data    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_views_ts ON dashboard_views(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordQuotes upserts every bar of the snapshot in one transaction.
func (r *SQLiteRecorder) RecordQuotes(snap *QuoteSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO quote_bars
		(ticker, source, day, open, high, low, close, volume, fetched_at)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, b := range snap.Bars {
		if _, err := stmt.Exec(snap.Ticker, snap.Source, b.Time.Unix(),
			nullable(b.Open), nullable(b.High), nullable(b.Low), nullable(b.Close), nullable(b.Volume), now); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert bar: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordView(evt *ViewEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastDay interface{}
	if !evt.LastDate.IsZero() {
		lastDay = evt.LastDate.Unix()
	}
	_, err := r.db.Exec(`INSERT INTO dashboard_views
		(timestamp, symbol, ticker, window, total, columns, last_close, last_day, no_data)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.Ticker, evt.Window, evt.Total,
		strings.Join(evt.Columns, ","), nullable(evt.LastClose), lastDay, evt.NoData,
	)
	return err
}

// CountQuotes returns the number of stored bars for ticker.
func (r *SQLiteRecorder) CountQuotes(ticker string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM quote_bars WHERE ticker = ?`, ticker).Scan(&n)
	return n, err
}

// CountViews returns the number of recorded views.
func (r *SQLiteRecorder) CountViews() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM dashboard_views`).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	_ = level.Info(r.logger).Log("msg", "closing sqlite recorder")
	return r.db.Close()
}
