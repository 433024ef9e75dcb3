package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"CryptoDash/internal/analyzer"
	"CryptoDash/internal/collector"
	"CryptoDash/internal/config"
	"CryptoDash/internal/dashboard"
	"CryptoDash/internal/insight"
	"CryptoDash/internal/logger"
	"CryptoDash/internal/notifier"
	"CryptoDash/internal/recorder"

	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "run a single refresh, print the report and exit")
	flag.Parse()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	lg, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("[FATAL] init logger: %v", err)
	}
	defer lg.Sync()
	lg.Info("CryptoDash starting", zap.String("config", cfgPath), zap.Int("assets", len(cfg.Assets)))

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.Mock {
		fetcher = mockFetcher(cfg)
	} else {
		cg, err := collector.NewCoinGeckoFetcher(cfg.DataSource, cfg.Assets, lg)
		if err != nil {
			lg.Fatal("init fetcher", zap.Error(err))
		}
		fetcher = cg
	}
	lg.Info("data source", zap.String("name", fetcher.Name()))

	// Init collector
	an := analyzer.New(analyzer.Options{SMAWindow: cfg.Analysis.SMAWindow}, lg)
	col := collector.NewCollector(fetcher, an, cfg.Symbols(), insight.Options{
		MajorCoins:  cfg.Analysis.MajorCoins,
		Stablecoins: cfg.Analysis.Stablecoins,
	}, lg)

	// Init recorder
	var rec recorder.Recorder
	if cfg.History.Enabled {
		sr, err := recorder.NewSQLiteRecorder(recorder.DefaultRetain, lg)
		if err != nil {
			lg.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	svc := dashboard.NewService(col, rec, cfg.History.Depth, lg)

	if *once {
		snap, err := svc.Refresh()
		if err != nil {
			fmt.Fprintln(os.Stderr, dashboard.UserMessage(err))
			os.Exit(1)
		}
		fmt.Print(notifier.FormatTable(snap))
		return
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start Telegram polling
	if cfg.Telegram.BotToken != "" {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy, lg)
		go tn.StartPolling(ctx, svc.HandleCommand)
		lg.Info("Telegram polling started")
	}

	srv := dashboard.NewServer(cfg.Server.Addr, svc, strings.EqualFold(cfg.Logging.Level, "debug"), lg)
	go func() {
		if err := srv.Start(); err != nil {
			lg.Error("web server stopped", zap.Error(err))
			cancel()
		}
	}()

	lg.Info("CryptoDash is running. Press Ctrl+C to stop.", zap.String("addr", cfg.Server.Addr))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		lg.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("web server shutdown", zap.Error(err))
	}
	lg.Info("CryptoDash stopped")
}

// mockFetcher seeds the mock source with rough market prices for the
// configured assets.
func mockFetcher(cfg *config.Config) *collector.MockFetcher {
	base := map[string]float64{
		"BTC": 64000, "ETH": 3100, "USDT": 1, "BNB": 580, "XRP": 0.52,
		"SOL": 145, "USDC": 1, "DOGE": 0.12, "STETH": 3100, "TRX": 0.12,
	}
	m := &collector.MockFetcher{Prices: map[string]float64{}, Names: map[string]string{}}
	for _, a := range cfg.Assets {
		if p, ok := base[a.Symbol]; ok {
			m.Prices[a.Symbol] = p
		}
		m.Names[a.Symbol] = a.Name
	}
	return m
}
