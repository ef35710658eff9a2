// Package store defines storage interfaces for persisting and retrieving
// bar data and backtest run history.
package store

import (
	"context"
	"time"

	"backlite/internal/domain"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end],
	// sorted by timestamp.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in storage.
	ListSymbols(ctx context.Context) ([]string, error)
}

// RunStore persists and retrieves backtest run summaries.
type RunStore interface {
	// SaveRun inserts a run summary and returns its assigned ID.
	SaveRun(ctx context.Context, run *domain.RunSummary) (int64, error)

	// GetRun retrieves a single run by its ID.
	GetRun(ctx context.Context, id int64) (*domain.RunSummary, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
}
