package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/hray3182/Recuerdame/internal/bot"
	"github.com/hray3182/Recuerdame/internal/bot/handlers"
	"github.com/hray3182/Recuerdame/internal/config"
	"github.com/hray3182/Recuerdame/internal/conversation"
	"github.com/hray3182/Recuerdame/internal/database"
	"github.com/hray3182/Recuerdame/internal/extract"
	"github.com/hray3182/Recuerdame/internal/logger"
	"github.com/hray3182/Recuerdame/internal/repository"
	"github.com/hray3182/Recuerdame/internal/scheduler"
)

// reminderStore is what both the handlers and the scheduler need from storage.
type reminderStore interface {
	handlers.ReminderStore
	scheduler.Store
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log := logger.New(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg.Database.URI, log)
	if err != nil {
		log.Fatalf("Failed to open reminder store: %v", err)
	}
	defer closeStore()

	extractor, err := extract.New(cfg.Location(), cfg.Reminders.DefaultHour, nil)
	if err != nil {
		log.Fatalf("Failed to create date extractor: %v", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Fatalf("Failed to create Telegram API: %v", err)
	}
	api.Debug = cfg.Telegram.Debug
	log.WithField("account", api.Self.UserName).Info("authorized on Telegram")

	// Create and start scheduler
	sched := scheduler.New(store, scheduler.NewTelegramNotifier(api), scheduler.Options{
		CheckInterval: cfg.SchedulerInterval(),
		RetryCooldown: cfg.RetryCooldown(),
		MaxRetries:    cfg.Reminders.MaxRetries,
	}, log)
	go sched.Start(ctx)

	h := handlers.New(api, store, extractor, conversation.NewStore(), sched, log)
	b := bot.New(api, h, log)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	log.WithFields(logrus.Fields{
		"timezone":     cfg.Reminders.Timezone,
		"default_hour": cfg.Reminders.DefaultHour,
		"max_retries":  cfg.Reminders.MaxRetries,
	}).Info("starting bot")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Bot error: %v", err)
	}
}

// openStore connects to Postgres, or to SQLite when the URI names a file,
// and runs the migrations.
func openStore(ctx context.Context, uri string, log *logrus.Logger) (reminderStore, func(), error) {
	if database.IsSQLiteURI(uri) {
		db, err := database.OpenSQLite(ctx, uri)
		if err != nil {
			return nil, nil, err
		}
		if err := database.MigrateSQLite(ctx, db, log); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("using SQLite reminder store")
		return repository.NewSQLiteReminderRepository(db), func() { db.Close() }, nil
	}

	db, err := database.New(ctx, uri)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx, log); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("using PostgreSQL reminder store")
	return repository.NewReminderRepository(db), db.Close, nil
}
