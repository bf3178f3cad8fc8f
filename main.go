package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tradeLedgerBot/config"
	"tradeLedgerBot/internal/adapters/binanceclient"
	"tradeLedgerBot/internal/adapters/logger"
	"tradeLedgerBot/internal/adapters/sqlite"
	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/metrics"
	"tradeLedgerBot/internal/trader"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()

	// 4. Initialize Exchange Client (Binance Adapter)
	broker, err := binanceclient.New(binanceclient.Config{
		APIKey:               cfg.APIKey,
		SecretKey:            cfg.SecretKey,
		UseTestnet:           cfg.IsTestnet,
		Logger:               appLogger,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	if err := broker.SetServerTime(ctx); err != nil {
		appLogger.Warn(ctx, "Could not synchronize server time, continuing", map[string]interface{}{"error": err.Error()})
	}
	if err := broker.SetLeverage(ctx, cfg.Symbol, cfg.Leverage); err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to set leverage")
		log.Fatalf("FATAL: Failed to set leverage: %v", err)
	}

	// 5. Initialize Metrics
	registry := prometheus.NewRegistry()
	mtx := metrics.New(registry)
	if cfg.MetricsListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsListenAddr, Handler: mux}
		go func() {
			appLogger.Info(ctx, "Metrics endpoint listening", map[string]interface{}{"addr": cfg.MetricsListenAddr})
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLogger.Error(ctx, err, "Metrics endpoint failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// 6. Initialize the Trade Engine
	inst := &domain.Instrument{
		Symbol:          cfg.Symbol,
		Currency:        cfg.Currency,
		TickSize:        cfg.TickSize,
		StepSize:        cfg.StepSize,
		MakerFee:        cfg.MakerFee,
		TakerFee:        cfg.TakerFee,
		MakerCommission: cfg.MakerCommission,
		TakerCommission: cfg.TakerCommission,
	}
	if price, err := broker.GetTickerPrice(ctx, cfg.Symbol); err == nil {
		inst.Bid, inst.Ask = price, price
	}

	engine, err := trader.New(trader.Config{
		Logger:        appLogger,
		Broker:        broker,
		Repository:    repo,
		Metrics:       mtx,
		Instrument:    inst,
		EntryTimeout:  cfg.EntryTimeout,
		TradeValidity: cfg.TradeValidity,
		CheckDelay:    cfg.CheckDelay,
		MaxTrades:     cfg.MaxTrades,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize trade engine")
		log.Fatalf("FATAL: Failed to initialize trade engine: %v", err)
	}

	// 7. Restore persisted trades and reconcile them against the exchange.
	restored, err := engine.RestoreTrades(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to restore trades")
		log.Fatalf("FATAL: Failed to restore trades: %v", err)
	}
	if restored > 0 {
		appLogger.Info(ctx, "Restored active trades", map[string]interface{}{"count": restored})
		if cfg.CheckOnStart {
			engine.CheckTrades(ctx)
		}
	}

	// 8. Start the signal streams.
	streamErrs := func(err error) {
		appLogger.Warn(ctx, "Stream error", map[string]interface{}{"error": err.Error()})
	}
	userDone, err := broker.StreamUserData(ctx, engine, streamErrs)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to start user-data stream")
		log.Fatalf("FATAL: Failed to start user-data stream: %v", err)
	}

	klines := make(chan *domain.Kline, 16)
	klineDone, klineStop, err := broker.StreamKlines(ctx, cfg.Symbol, cfg.KlineInterval, func(k *domain.Kline) {
		select {
		case klines <- k:
		default:
			// Drop rather than block the WebSocket reader; the next kline
			// carries fresher prices anyway.
		}
	}, streamErrs)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to start kline stream")
		log.Fatalf("FATAL: Failed to start kline stream: %v", err)
	}
	defer close(klineStop)

	appLogger.Info(ctx, "Trade engine running", map[string]interface{}{
		"symbol": cfg.Symbol, "interval": cfg.KlineInterval, "maxTrades": cfg.MaxTrades,
	})

	// 9. Drive the update pass from the kline clock.
	for {
		select {
		case k := <-klines:
			// The user-data goroutine reads book prices under the trade
			// lock; the update must go through the engine.
			engine.UpdatePrices(k.Close, k.Close)
			if k.IsFinal {
				engine.UpdateTrades(ctx, float64(k.CloseTime.UnixMilli())/1000.0)
			}
		case <-userDone:
			appLogger.Warn(ctx, "User-data stream terminated, shutting down")
			stop()
			return
		case <-klineDone:
			appLogger.Warn(ctx, "Kline stream terminated, shutting down")
			stop()
			return
		case <-ctx.Done():
			appLogger.Info(context.Background(), "Shutdown signal received, stopping")
			return
		}
	}
}
