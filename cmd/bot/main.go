package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sofia/internal/app"
	"sofia/internal/channels/telegram"
	"sofia/internal/config"
	"sofia/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, appConfig, app.Options{})
	if err != nil {
		return fmt.Errorf("failed to build services: %w", err)
	}
	defer a.Close()

	bot, err := telegram.NewBot(appConfig.TelegramToken, appConfig.TelegramPollTimeout, a.Assistant)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		log.Info("Stopping Telegram bot...")
		bot.Stop()
	}()

	log.Infow("Starting Telegram bot", "mode", a.Assistant.Status().Mode)
	bot.Start()
	return nil
}
