package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backlite/internal/backtest"
	"backlite/internal/config"
	"backlite/internal/domain"
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
		stratName = flag.String("strategy", "", "strategy name (see -list)")
		paramsArg = flag.String("params", "", "strategy parameters, e.g. short=10,long=30")
		startArg  = flag.String("start", "", "start date (YYYY-MM-DD)")
		endArg    = flag.String("end", "", "end date (YYYY-MM-DD)")
		balance   = flag.Float64("balance", 0, "starting balance (default from config)")
		save      = flag.Bool("save", false, "record the run in the run history database")
		history   = flag.Int("history", 0, "print the N most recent runs and exit")
		list      = flag.Bool("list", false, "list available strategies and exit")
	)
	flag.Parse()

	cfg := loadConfig(*cfgPath)
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := strategy.NewRegistry()
	builtins.RegisterAll(reg)

	if *list {
		for _, name := range reg.List() {
			fmt.Println(name)
		}
		return
	}

	if *history > 0 {
		printHistory(ctx, cfg, *history)
		return
	}

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

	params, err := resolveParams(cfg, *paramsArg)
	if err != nil {
		log.Fatalf("parsing params: %v", err)
	}

	strat, err := reg.Build(name, params)
	if err != nil {
		log.Fatalf("building strategy: %v", err)
	}

	start, end, err := resolveDates(cfg, *startArg, *endArg)
	if err != nil {
		log.Fatalf("parsing dates: %v", err)
	}

	bars, err := loadBars(ctx, cfg, *symbol, *csvPath, start, end)
	if err != nil {
		log.Fatalf("loading bars: %v", err)
	}

	runCfg := backtest.Config{StartingBalance: *balance}
	if runCfg.StartingBalance <= 0 {
		runCfg.StartingBalance = cfg.Backtest.StartingBalance
	}

	res, err := backtest.Run(ctx, bars, strat, runCfg)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	printResult(*symbol, name, res)

	if *save {
		saveRun(ctx, cfg, *symbol, name, params, res)
	}
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

func resolveParams(cfg *config.Config, arg string) (strategy.Params, error) {
	params := strategy.Params{}
	for k, v := range cfg.Backtest.Params {
		params[k] = v
	}
	flagParams, err := strategy.ParseParams(arg)
	if err != nil {
		return nil, err
	}
	for k, v := range flagParams {
		params[k] = v
	}
	return params, nil
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

func printResult(symbol, strategyName string, res *backtest.Result) {
	s := res.Stats
	fmt.Printf("%s / %s: %d bars, %d trades\n",
		symbol, strategyName, len(res.DataPoints), res.TradesCount)
	fmt.Printf("  balance        %.2f -> %.2f (%+.2f, %.2f%%)\n",
		res.StartingBalance, res.FinalBalance(), s.TotalProfitLoss, s.TotalReturn)
	fmt.Printf("  win rate       %.1f%%   profit factor %.2f   expectancy %.2f\n",
		s.WinRate, s.ProfitFactor, s.Expectancy)
	fmt.Printf("  sharpe %.2f   sortino %.2f   calmar %.2f   sqn %.2f   kelly %.2f\n",
		s.SharpeRatio, s.SortinoRatio, s.CalmarRatio, s.SQN, s.KellyCriterion)
	fmt.Printf("  max drawdown   %.2f%% over %.1f days (avg %.2f%% / %.1f days)\n",
		s.MaxDrawdown.Percent, s.MaxDrawdown.Days,
		s.AvgDrawdown.Percent, s.AvgDrawdown.Days)
	fmt.Printf("  streaks        %d wins / %d losses\n",
		s.MaxConsecutiveWins, s.MaxConsecutiveLosses)
}

func printHistory(ctx context.Context, cfg *config.Config, n int) {
	st, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening run history: %v", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, n)
	if err != nil {
		log.Fatalf("listing runs: %v", err)
	}
	for _, r := range runs {
		fmt.Printf("#%d %s %s/%s  %.2f -> %.2f  trades %d  win %.1f%%  sharpe %.2f\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Symbol, r.Strategy,
			r.StartingBalance, r.FinalBalance, r.TradesCount, r.WinRate, r.SharpeRatio)
	}
}

func saveRun(ctx context.Context, cfg *config.Config, symbol, strategyName string, params strategy.Params, res *backtest.Result) {
	st, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening run history: %v", err)
	}
	defer st.Close()

	id, err := st.SaveRun(ctx, &domain.RunSummary{
		Symbol:          symbol,
		Strategy:        strategyName,
		Params:          params,
		StartDate:       res.StartDate,
		EndDate:         res.EndDate,
		StartingBalance: res.StartingBalance,
		FinalBalance:    res.FinalBalance(),
		TradesCount:     res.TradesCount,
		TotalProfitLoss: res.Stats.TotalProfitLoss,
		WinRate:         res.Stats.WinRate,
		SharpeRatio:     res.Stats.SharpeRatio,
		MaxDrawdownPct:  res.Stats.MaxDrawdown.Percent,
	})
	if err != nil {
		log.Fatalf("saving run: %v", err)
	}
	fmt.Printf("saved run #%d\n", id)
}
