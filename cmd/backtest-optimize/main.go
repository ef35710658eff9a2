package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"backlite/internal/backtest"
	"backlite/internal/config"
	"backlite/internal/domain"
	"backlite/internal/optimizer"
	"backlite/internal/store"
	"backlite/internal/strategy"
	"backlite/internal/strategy/builtins"
	"backlite/internal/util"
)

func main() {
	var (
		cfgPath   = flag.String("config", "", "path to config file (default config/backlite.yaml)")
		symbol    = flag.String("symbol", "", "symbol to replay")
		csvPath   = flag.String("csv", "", "load bars from a CSV file instead of the data directory")
		stratName = flag.String("strategy", "", "strategy name")
		gridArg   = flag.String("grid", "", "parameter grid, e.g. short=5:20:5,long=30:60:10")
		objective = flag.String("objective", "", "objective to maximize (default from config)")
		startArg  = flag.String("start", "", "start date (YYYY-MM-DD)")
		endArg    = flag.String("end", "", "end date (YYYY-MM-DD)")
		balance   = flag.Float64("balance", 0, "starting balance (default from config)")
		top       = flag.Int("top", 10, "number of results to print")
	)
	flag.Parse()

	cfg := loadConfig(*cfgPath)
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	if *symbol == "" {
		log.Fatal("missing -symbol")
	}

	name := *stratName
	if name == "" {
		name = cfg.Backtest.Strategy
	}
	if name == "" {
		log.Fatal("missing -strategy (and no backtest.strategy in config)")
	}
	if *gridArg == "" {
		log.Fatal("missing -grid")
	}

	grid, err := parseGrid(*gridArg)
	if err != nil {
		log.Fatalf("parsing grid: %v", err)
	}

	objName := *objective
	if objName == "" {
		objName = cfg.Optimizer.Objective
	}
	obj, err := optimizer.ObjectiveByName(objName)
	if err != nil {
		log.Fatal(err)
	}

	start, end, err := resolveDates(cfg, *startArg, *endArg)
	if err != nil {
		log.Fatalf("parsing dates: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bars, err := loadBars(ctx, cfg, *symbol, *csvPath, start, end)
	if err != nil {
		log.Fatalf("loading bars: %v", err)
	}

	reg := strategy.NewRegistry()
	builtins.RegisterAll(reg)

	runCfg := backtest.Config{StartingBalance: *balance}
	if runCfg.StartingBalance <= 0 {
		runCfg.StartingBalance = cfg.Backtest.StartingBalance
	}

	opt := optimizer.New(reg, cfg.Optimizer.MaxWorkers)
	results, err := opt.Sweep(ctx, name, grid, bars, runCfg, obj)
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	fmt.Printf("%s / %s: %d combinations by %s\n", *symbol, name, len(results), objName)
	for i, r := range results[:min(*top, len(results))] {
		if r.Err != nil {
			fmt.Printf("%3d. %-40v  error: %v\n", i+1, r.Params, r.Err)
			continue
		}
		fmt.Printf("%3d. %-40v  %s %.4f  trades %d  win %.1f%%  pl %+.2f\n",
			i+1, r.Params, objName, r.Score,
			r.Trades, r.Stats.WinRate, r.Stats.TotalProfitLoss)
	}
}

// parseGrid parses ranges of the form name=from:to:step, comma separated.
func parseGrid(s string) (optimizer.Grid, error) {
	var grid optimizer.Grid
	for _, part := range strings.Split(s, ",") {
		name, spec, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("range %q is not name=from:to:step", part)
		}
		fields := strings.Split(spec, ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("range %q is not name=from:to:step", part)
		}
		vals := make([]float64, 3)
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("range %q: %w", part, err)
			}
			vals[i] = v
		}
		grid = append(grid, optimizer.Range{
			Name: strings.TrimSpace(name),
			From: vals[0],
			To:   vals[1],
			Step: vals[2],
		})
	}
	return grid, nil
}

func loadConfig(path string) *config.Config {
	if path == "" {
		path = "config/backlite.yaml"
		if p := os.Getenv("BACKLITE_CONFIG"); p != "" {
			path = p
		}
		if _, err := os.Stat(path); err != nil {
			return config.Default()
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func resolveDates(cfg *config.Config, startArg, endArg string) (time.Time, time.Time, error) {
	if startArg == "" {
		startArg = cfg.Backtest.StartDate
	}
	if endArg == "" {
		endArg = cfg.Backtest.EndDate
	}

	start := time.Unix(0, 0).UTC()
	end := time.Now().UTC()
	var err error
	if startArg != "" {
		if start, err = time.Parse("2006-01-02", startArg); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if endArg != "" {
		if end, err = time.Parse("2006-01-02", endArg); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

func loadBars(ctx context.Context, cfg *config.Config, symbol, csvPath string, start, end time.Time) ([]domain.Bar, error) {
	if csvPath != "" {
		return store.ReadCSVBars(csvPath, symbol)
	}
	ps := store.NewParquetStore(cfg.Storage.DataDir)
	return ps.ReadBars(ctx, symbol, start, end)
}
