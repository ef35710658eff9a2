// Package fetch downloads historical daily bars from the Alpaca market-data
// API into a bar store.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"backlite/internal/config"
	"backlite/internal/domain"
	"backlite/internal/store"
	"backlite/internal/util"
)

// Fetcher downloads daily OHLCV bars for a set of symbols via the Alpaca
// market-data API and persists them to a BarStore.
type Fetcher struct {
	client     barClient
	store      store.BarStore
	batchSize  int // symbols per API call
	maxWorkers int // concurrent goroutines
	limiter    *util.RateLimiter
	log        *slog.Logger
}

// barClient is the slice of the Alpaca market-data client the fetcher uses.
type barClient interface {
	GetMultiBars(symbols []string, req marketdata.GetBarsRequest) (map[string][]marketdata.Bar, error)
}

// NewFetcher creates a Fetcher from Alpaca credentials and fetch-job
// parameters.
func NewFetcher(creds config.Alpaca, job config.FetchConfig, s store.BarStore) *Fetcher {
	opts := marketdata.ClientOpts{
		APIKey:    creds.APIKey,
		APISecret: creds.APISecret,
	}
	if creds.DataURL != "" {
		opts.BaseURL = creds.DataURL
	}

	return &Fetcher{
		client:     marketdata.NewClient(opts),
		store:      s,
		batchSize:  job.BatchSize,
		maxWorkers: job.MaxWorkers,
		limiter:    util.NewRateLimiter(job.RateLimitPerMin),
		log:        slog.Default().With("component", "fetch"),
	}
}

// Fetch downloads daily bars for all symbols in [start, end] and writes them
// to the store. Symbols are split into batches of batchSize and fetched by a
// pool of maxWorkers goroutines; API calls are rate limited and retried. A
// batch that still fails after retries is logged and skipped, and Fetch
// reports how many batches failed.
func (f *Fetcher) Fetch(ctx context.Context, symbols []string, start, end time.Time) error {
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols to fetch")
	}

	batchSize := max(f.batchSize, 1)
	var batches [][]string
	for i := 0; i < len(symbols); i += batchSize {
		batches = append(batches, symbols[i:min(i+batchSize, len(symbols))])
	}

	f.log.Info("starting fetch",
		"symbols", len(symbols),
		"batches", len(batches),
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
	)

	batchCh := make(chan []string, len(batches))
	for _, b := range batches {
		batchCh <- b
	}
	close(batchCh)

	var (
		wg       sync.WaitGroup
		failed   atomic.Int64
		fetched  atomic.Int64
		runStart = time.Now()
	)

	workers := min(max(f.maxWorkers, 1), len(batches))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batchCh {
				if ctx.Err() != nil {
					return
				}

				bars, err := f.fetchBatch(ctx, batch, start, end)
				if err != nil {
					f.log.Error("batch fetch failed", "symbols", batch, "err", err)
					failed.Add(1)
					continue
				}
				if len(bars) == 0 {
					continue
				}

				if err := f.store.WriteBars(ctx, bars); err != nil {
					f.log.Error("writing bars failed", "err", err)
					failed.Add(1)
					continue
				}
				fetched.Add(int64(len(bars)))
			}
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	f.log.Info("fetch complete",
		"bars", fetched.Load(),
		"failedBatches", failed.Load(),
		"elapsed", time.Since(runStart).Round(time.Second),
	)

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d batches failed", n, len(batches))
	}
	return nil
}

// fetchBatch fetches daily bars for one symbol batch, rate limited and with
// exponential-backoff retries.
func (f *Fetcher) fetchBatch(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	var multiBars map[string][]marketdata.Bar

	err := util.Retry(ctx, 3, time.Second, func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		multiBars, err = f.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     strings.ToUpper(symbol),
				Timestamp:  ab.Timestamp,
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     int64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
	}
	return bars, nil
}
