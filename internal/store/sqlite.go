package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"backlite/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const runSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol            TEXT NOT NULL,
	strategy          TEXT NOT NULL,
	params            TEXT NOT NULL DEFAULT '{}',
	start_date        INTEGER NOT NULL,
	end_date          INTEGER NOT NULL,
	starting_balance  REAL NOT NULL,
	final_balance     REAL NOT NULL,
	trades_count      INTEGER NOT NULL,
	total_profit_loss REAL NOT NULL,
	win_rate          REAL NOT NULL,
	sharpe_ratio      REAL NOT NULL,
	max_drawdown_pct  REAL NOT NULL,
	created_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(runSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// RunStore implementation
// ---------------------------------------------------------------------------

// SaveRun inserts a run summary and returns its assigned ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *domain.RunSummary) (int64, error) {
	params := run.Params
	if params == nil {
		params = map[string]float64{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("encoding params: %w", err)
	}

	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			symbol, strategy, params, start_date, end_date,
			starting_balance, final_balance, trades_count,
			total_profit_loss, win_rate, sharpe_ratio, max_drawdown_pct,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Symbol, run.Strategy, string(encoded),
		run.StartDate.UnixMilli(), run.EndDate.UnixMilli(),
		run.StartingBalance, run.FinalBalance, run.TradesCount,
		run.TotalProfitLoss, run.WinRate, run.SharpeRatio, run.MaxDrawdownPct,
		created.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	run.ID = id
	run.CreatedAt = created
	return id, nil
}

// GetRun retrieves a single run by its ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*domain.RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, strategy, params, start_date, end_date,
		       starting_balance, final_balance, trades_count,
		       total_profit_loss, win_rate, sharpe_ratio, max_drawdown_pct,
		       created_at
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, strategy, params, start_date, end_date,
		       starting_balance, final_balance, trades_count,
		       total_profit_loss, win_rate, sharpe_ratio, max_drawdown_pct,
		       created_at
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.RunSummary, error) {
	var (
		run                       domain.RunSummary
		params                    string
		startMs, endMs, createdMs int64
	)
	err := row.Scan(
		&run.ID, &run.Symbol, &run.Strategy, &params, &startMs, &endMs,
		&run.StartingBalance, &run.FinalBalance, &run.TradesCount,
		&run.TotalProfitLoss, &run.WinRate, &run.SharpeRatio, &run.MaxDrawdownPct,
		&createdMs,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &run.Params); err != nil {
		return nil, fmt.Errorf("decoding params for run %d: %w", run.ID, err)
	}
	run.StartDate = time.UnixMilli(startMs).UTC()
	run.EndDate = time.UnixMilli(endMs).UTC()
	run.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &run, nil
}
