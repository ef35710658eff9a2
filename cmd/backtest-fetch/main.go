package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"backlite/internal/config"
	"backlite/internal/fetch"
	"backlite/internal/store"
	"backlite/internal/util"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "path to config file (default config/backlite.yaml)")
		symbolsArg = flag.String("symbols", "", "comma-separated symbols, e.g. AAPL,MSFT")
		startArg   = flag.String("start", "", "start date (YYYY-MM-DD, default from config)")
		endArg     = flag.String("end", "", "end date (YYYY-MM-DD, default yesterday)")
	)
	flag.Parse()

	cfg := loadConfig(*cfgPath)
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	symbols := splitSymbols(*symbolsArg)
	if len(symbols) == 0 {
		log.Fatal("missing -symbols")
	}
	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
		log.Fatal("missing Alpaca credentials (set alpaca.api_key/api_secret or APCA_API_KEY_ID/APCA_API_SECRET_KEY)")
	}

	start, end, err := resolveDates(cfg, *startArg, *endArg)
	if err != nil {
		log.Fatalf("parsing dates: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ps := store.NewParquetStore(cfg.Storage.DataDir)
	fetcher := fetch.NewFetcher(cfg.Alpaca, cfg.Fetch, ps)

	if err := fetcher.Fetch(ctx, symbols, start, end); err != nil {
		log.Fatalf("fetch failed: %v", err)
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

func splitSymbols(s string) []string {
	var symbols []string
	for _, sym := range strings.Split(s, ",") {
		if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	return symbols
}

func resolveDates(cfg *config.Config, startArg, endArg string) (time.Time, time.Time, error) {
	if startArg == "" {
		startArg = cfg.Fetch.StartDate
	}

	start := time.Now().UTC().AddDate(-1, 0, 0)
	var err error
	if startArg != "" {
		if start, err = time.Parse("2006-01-02", startArg); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	// Free-tier Alpaca data trails real time, so default the end to yesterday.
	end := time.Now().UTC().AddDate(0, 0, -1)
	if endArg != "" {
		if end, err = time.Parse("2006-01-02", endArg); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}
