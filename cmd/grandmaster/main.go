package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"grandmaster/pkg/bot"
	"grandmaster/pkg/broker"
	"grandmaster/pkg/marketdata"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := bot.LoadConfig()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	brokerClient := broker.NewClient(broker.Config{
		APIKey:    cfg.AlpacaAPIKey,
		APISecret: cfg.AlpacaAPISecret,
		BaseURL:   cfg.AlpacaBaseURL,
	}, logger)

	market := marketdata.NewClient(marketdata.Config{
		Token: cfg.FinnhubAPIKey,
	}, logger)

	if account, err := brokerClient.Account(); err != nil {
		logger.Warn("account info unavailable", zap.Error(err))
	} else {
		logger.Info("account",
			zap.String("status", account.Status),
			zap.String("cash", account.Cash),
			zap.String("buying_power", account.BuyingPower),
			zap.String("portfolio_value", account.PortfolioValue))
	}

	universe, err := bot.NewUniverseBuilder(cfg, market, brokerClient, logger).Build()
	if err != nil {
		logger.Fatal("universe construction failed", zap.Error(err))
	}
	if len(universe) == 0 {
		logger.Warn("universe is empty, no batches will ever scan")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot.NewScheduler(cfg, brokerClient, market, universe, logger).Run(ctx)
	logger.Info("exiting")
}
