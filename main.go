package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"questionnairebot/pkg/bot"
	"questionnairebot/pkg/bot/telegramadapter"
	"questionnairebot/pkg/config"
	"questionnairebot/pkg/fsm"
	"questionnairebot/pkg/generator"
	"questionnairebot/pkg/logx"
	"questionnairebot/pkg/metrics"
	"questionnairebot/pkg/server"
	"questionnairebot/pkg/state"
	"questionnairebot/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("app.failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	root, err := logx.Init(logx.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	logger := logx.Component(root, "app")
	logger.Info("app.config_loaded",
		slog.String("path", cfgPath),
		slog.String("run_mode", cfg.Telegram.RunMode),
		slog.String("storage", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, err := storage.New(ctx, cfg.Storage, logx.Component(root, "db"))
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("db.close_failed", slog.String("err", err.Error()))
		}
	}()
	if n, err := sink.Count(ctx); err == nil {
		logger.Info("db.records", slog.Int64("count", n))
	}

	botClient, err := bot.NewClient(cfg.Telegram.Token, cfg.Telegram.Debug, root)
	if err != nil {
		return fmt.Errorf("failed to initialize bot client: %w", err)
	}
	botPort, err := telegramadapter.New(botClient, root)
	if err != nil {
		return fmt.Errorf("failed to create telegram adapter: %w", err)
	}

	store := state.NewMemoryStore(
		state.WithTTL(cfg.Survey.SessionTTL),
		state.WithLogger(logx.Component(root, "state")),
	)
	recorder := metrics.New(store.Len)

	controller, err := fsm.NewController(fsm.Options{
		Store:     store,
		Bot:       botPort,
		Sink:      sink,
		Generator: generator.New(),
		Registry:  fsm.NewSurveyRegistry(),
		Survey:    cfg.Survey,
		Metrics:   recorder,
		Logger:    root,

		History:     sink,
		AnswersOnly: cfg.Storage.Driver != config.DriverMemory && cfg.Storage.Schema == config.SchemaNarrow,
	})
	if err != nil {
		return fmt.Errorf("failed to create survey controller: %w", err)
	}

	inflight := fsm.NewDispatcher(controller.HandleEvent)
	dispatch := func(ctx context.Context, update tgbotapi.Update) {
		ev, ok := telegramadapter.EventFromUpdate(update)
		if !ok {
			logger.Debug("app.update_ignored", slog.Int("update_id", update.UpdateID))
			return
		}
		if logx.RIDFrom(ctx) == "" {
			ctx = logx.WithRID(ctx, logx.NewRID())
		}
		inflight.Dispatch(ctx, ev)
	}

	srvOpts := server.Options{
		Addr:     cfg.HTTP.ListenAddr(),
		Sink:     sink,
		Sessions: store.Len,
		Metrics:  recorder.Handler(),
		Logger:   root,
	}
	if cfg.Telegram.RunMode == config.RunModeWebhook {
		srvOpts.WebhookPath = cfg.Webhook.Path
		srvOpts.OnUpdate = dispatch
	}
	srv := server.New(srvOpts)

	var background sync.WaitGroup
	background.Add(2)
	go func() {
		defer background.Done()
		store.RunSweeper(ctx, cfg.Survey.SweepInterval)
	}()
	go func() {
		defer background.Done()
		if err := srv.Run(ctx); err != nil {
			logger.Error("http.failed", slog.String("err", err.Error()))
			stop()
		}
	}()

	switch cfg.Telegram.RunMode {
	case config.RunModeWebhook:
		if err := botClient.SetWebhook(cfg.Webhook.URL); err != nil {
			stop()
			background.Wait()
			return err
		}
		logger.Info("app.webhook_mode", slog.String("path", cfg.Webhook.Path))
		<-ctx.Done()

	default:
		if err := botClient.RemoveWebhook(); err != nil {
			logger.Warn("tg.remove_webhook_failed", slog.String("err", err.Error()))
		}
		updates := botClient.GetUpdatesChan(cfg.Telegram.LongPollTimeoutSeconds)
		logger.Info("app.polling_started")
	loop:
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					break loop
				}
				if update.UpdateID == 0 {
					continue
				}
				dispatch(ctx, update)
			case <-ctx.Done():
				botClient.StopReceivingUpdates()
				break loop
			}
		}
	}

	logger.Info("app.shutting_down")
	stop()
	background.Wait()
	inflight.Wait()
	logger.Info("app.stopped")
	return nil
}
