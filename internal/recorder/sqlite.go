package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the journal to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger logrus.FieldLogger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger logrus.FieldLogger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while cycles write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fetch_cycles (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			cycle_id     TEXT NOT NULL UNIQUE,
			symbol       TEXT NOT NULL,
			trigger_type TEXT,
			status       TEXT NOT NULL,
			bars         INTEGER,
			started_at   INTEGER,
			finished_at  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_ts ON fetch_cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS provider_results (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			provider TEXT NOT NULL,
			outcome  TEXT NOT NULL,
			bars     INTEGER,
			reason   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_provider_cycle ON provider_results(cycle_id)`,

		`CREATE TABLE IF NOT EXISTS trend_reports (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			cycle_id  TEXT,
			symbol    TEXT NOT NULL,
			as_of     TEXT,
			bars      INTEGER,
			close     REAL,
			ma20      REAL,
			ma50      REAL,
			ma200     REAL,
			rsi14     REAL,
			high_52w  REAL,
			low_52w   REAL,
			label     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trend_ts ON trend_reports(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordFetch writes the cycle row and one row per provider in a single transaction.
func (r *SQLiteRecorder) RecordFetch(evt *FetchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`INSERT INTO fetch_cycles
		(timestamp, cycle_id, symbol, trigger_type, status, bars, started_at, finished_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.CycleID, evt.Symbol, string(evt.Trigger), evt.Status,
		evt.Bars, evt.StartedAt.Unix(), evt.FinishedAt.Unix(),
	); err != nil {
		return fmt.Errorf("insert fetch cycle: %w", err)
	}

	for i, res := range evt.Results {
		if _, err := tx.Exec(`INSERT INTO provider_results
			(cycle_id, position, provider, outcome, bars, reason)
			VALUES (?,?,?,?,?,?)`,
			evt.CycleID, i, res.Provider, string(res.Outcome()), res.Series.Len(), res.Reason(),
		); err != nil {
			return fmt.Errorf("insert provider result: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordTrend(snap *TrendSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := snap.Report
	_, err := r.db.Exec(`INSERT INTO trend_reports
		(timestamp, cycle_id, symbol, as_of, bars, close,
		 ma20, ma50, ma200, rsi14, high_52w, low_52w, label)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), snap.CycleID, rep.Symbol, rep.AsOf.Format("2006-01-02"), rep.Bars, rep.Close,
		rep.MA20, rep.MA50, rep.MA200, rep.RSI14, rep.High52w, rep.Low52w, string(rep.Label),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
