package main

import (
	"context"
	"log" // Standard log only for fatal errors before the logger is ready

	"github.com/prometheus/client_golang/prometheus"

	"cryptoScalpBot/config"
	"cryptoScalpBot/internal/adapters/binanceclient"
	"cryptoScalpBot/internal/adapters/logger"
	"cryptoScalpBot/internal/adapters/sqlite"
	"cryptoScalpBot/internal/adapters/telegram"
	"cryptoScalpBot/internal/app"
	"cryptoScalpBot/internal/executor"
	"cryptoScalpBot/internal/market"
	"cryptoScalpBot/internal/metrics"
	"cryptoScalpBot/internal/ports"
	"cryptoScalpBot/internal/risk"
	"cryptoScalpBot/internal/server"
	"cryptoScalpBot/internal/strategy"
	"cryptoScalpBot/internal/trades"
	"cryptoScalpBot/internal/trailing"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.LogLevel)
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trade journal: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing trade journal")
		}
	}()

	exchange, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	var notifier ports.Notifier = ports.NopNotifier{}
	if cfg.TelegramEnabled() {
		tgNotifier, err := telegram.NewNotifier(telegram.NotifierConfig{
			Token:  cfg.TelegramToken,
			ChatID: cfg.TelegramAdminChatID,
			Logger: appLogger,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize Telegram notifier: %v", err)
		}
		notifier = tgNotifier
	} else {
		appLogger.Warn(ctx, "Telegram not configured, operator notifications disabled")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	builder, err := market.NewBuilder(market.Config{
		Interval:      cfg.Interval,
		Limit:         cfg.KlineLimit,
		SMAFastPeriod: cfg.SMAFastPeriod,
		SMASlowPeriod: cfg.SMASlowPeriod,
		RSIPeriod:     cfg.RSIPeriod,
		ATRPeriod:     cfg.ATRPeriod,
	}, exchange, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize snapshot builder: %v", err)
	}

	filter, err := strategy.New(strategy.Config{
		MinATRRatio: cfg.MinATRRatio,
		MinRSIBuy:   cfg.MinRSIBuy,
		MaxRSIBuy:   cfg.MaxRSIBuy,
		MinRSISell:  cfg.MinRSISell,
		MaxRSISell:  cfg.MaxRSISell,
	}, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trade filter: %v", err)
	}

	governor, err := risk.NewGovernor(risk.GovernorConfig{
		MaxDailyLossFraction:   cfg.MaxDailyLossFraction,
		MaxDailyProfitFraction: cfg.MaxDailyProfitFraction,
		MaxTradesPerDay:        cfg.MaxTradesPerDay,
		Cooldown:               cfg.Cooldown,
	}, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize risk governor: %v", err)
	}

	sizer, err := risk.NewSizer(risk.SizerConfig{
		RiskFraction: cfg.RiskFraction,
		Leverage:     cfg.Leverage,
		MinNotional:  cfg.MinNotional,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize position sizer: %v", err)
	}

	registry := trades.NewRegistry()

	exec, err := executor.New(executor.Config{
		SLATRMultiplier: cfg.SLATRMultiplier,
		TPATRMultiplier: cfg.TPATRMultiplier,
	}, appLogger, exchange, registry, governor, sizer, repo, notifier, m)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize order executor: %v", err)
	}

	trailer, err := trailing.New(trailing.Config{
		CheckInterval: cfg.TrailInterval,
		StartATRs:     cfg.TrailStartATRs,
		StepATRs:      cfg.TrailStepATRs,
		TPATRs:        cfg.TPATRMultiplier,
	}, appLogger, exchange, registry, notifier, m)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trailing engine: %v", err)
	}

	service, err := app.NewService(app.Config{
		Mode:              cfg.Mode(),
		Symbols:           cfg.Symbols,
		Asset:             "USDT",
		Leverage:          cfg.Leverage,
		ScanInterval:      cfg.ScanInterval,
		ReconcileInterval: cfg.ReconcileInterval,
	}, appLogger, exchange, builder, filter, exec, governor, registry, trailer, repo, notifier, m)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trading service: %v", err)
	}

	httpServer, err := server.New(cfg.HTTPAddr, service, repo, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize HTTP server: %v", err)
	}
	httpServer.Start(ctx)
	defer func() {
		if err := httpServer.Stop(context.Background()); err != nil {
			appLogger.Error(ctx, err, "Error stopping HTTP server")
		}
	}()

	if cfg.TelegramEnabled() {
		commander, err := telegram.NewCommander(telegram.CommanderConfig{
			Token:       cfg.TelegramToken,
			AdminChatID: cfg.TelegramAdminChatID,
			Controller:  service,
			Logger:      appLogger,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize Telegram commander: %v", err)
		}
		go commander.Run(ctx)
	}

	if err := service.Start(ctx); err != nil {
		appLogger.Error(ctx, err, "Trading service exited with error")
		log.Fatalf("FATAL: Trading service exited with error: %v", err)
	}

	appLogger.Info(ctx, "Application finished gracefully")
}
