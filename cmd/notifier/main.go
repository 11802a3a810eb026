package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"community_notifier/internal/app"
	"community_notifier/internal/infra/config"
	idb "community_notifier/internal/infra/database"
	"community_notifier/internal/infra/httpapi"
	"community_notifier/internal/infra/logger"
	"community_notifier/internal/infra/push"
	"community_notifier/internal/infra/scheduler"
	"community_notifier/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const usage = `usage: notifier [serve|run-once|migrate]

  serve     run the daily cron trigger and the HTTP API (default)
  run-once  run today's notification job once and exit
  migrate   apply the database schema and exit`

func main() {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	switch command {
	case "serve", "run-once", "migrate":
	case "help", "-h", "--help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"command":     command,
		"environment": cfg.Environment,
		"timezone":    cfg.Timezone,
	}).Info("Community notifier starting")

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully")

	switch command {
	case "serve":
		err = serve(cfg, db, mainLogger)
	case "run-once":
		err = runOnce(cfg, db, mainLogger)
	case "migrate":
		err = idb.Migrate(context.Background(), db)
		if err == nil {
			mainLogger.Info("Database schema applied")
		}
	}

	if err != nil {
		mainLogger.WithError(err).Error("Command failed")
		db.Close()
		os.Exit(1)
	}
}

// services holds everything both serve and run-once need.
type services struct {
	notifications *app.NotificationServiceImpl
	broadcasts    *app.BroadcastService
}

func buildServices(cfg *config.AppConfig, db *sql.DB) *services {
	recordRepo := idb.NewPostgresRecordRepository(db)
	notificationRepo := idb.NewPostgresNotificationRepository(db)
	deviceRepo := idb.NewPostgresDeviceRepository(db)
	userRepo := idb.NewPostgresUserRepository(db)
	broadcastRepo := idb.NewPostgresBroadcastRepository(db)

	clock := app.NewClock(cfg.Location)
	evaluator := app.NewEvaluator(clock, logger.Component("recurrence"))
	scanner := app.NewScanner(recordRepo, evaluator, clock, logger.Component("scanner"))

	sender := push.NewExpoSender(push.NewExpoClient(cfg.PushTimeout), logger.Component("expo"))
	dispatcher := app.NewDispatcher(sender, cfg.PushBatchSize, cfg.PushBatchesPerSecond, logger.Component("dispatcher"))

	return &services{
		notifications: app.NewNotificationServiceImpl(
			scanner,
			notificationRepo,
			deviceRepo,
			dispatcher,
			clock,
			cfg.NotifyThreshold,
			logger.Component("notification_service"),
		),
		broadcasts: app.NewBroadcastService(
			userRepo,
			deviceRepo,
			broadcastRepo,
			dispatcher,
			cfg.AdminRoles,
			logger.Component("broadcast_service"),
		),
	}
}

func newOperatorBot(cfg *config.AppConfig) (*telebot.Bot, error) {
	botLogger := logger.Component("telebot")
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
	return telebot.NewBot(pref)
}

func runOnce(cfg *config.AppConfig, db *sql.DB, mainLogger *logrus.Entry) error {
	svc := buildServices(cfg, db)

	if cfg.OperatorReportsEnabled() {
		bot, err := newOperatorBot(cfg)
		if err != nil {
			mainLogger.WithError(err).Warn("Could not create Telegram bot. Run reports disabled.")
		} else {
			svc.notifications.WithReporter(telegram.NewRunReporter(telegram.NewBotChannel(bot), cfg.OperatorTelegramID))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
	defer cancel()
	summary := svc.notifications.RunDaily(ctx)
	mainLogger.WithFields(logrus.Fields{
		"day":     summary.Day,
		"active":  summary.Active,
		"created": summary.Created,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
	}).Info("One-off daily run finished")
	return nil
}

func serve(cfg *config.AppConfig, db *sql.DB, mainLogger *logrus.Entry) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := buildServices(cfg, db)

	var bot *telebot.Bot
	if cfg.OperatorReportsEnabled() {
		var err error
		bot, err = newOperatorBot(cfg)
		if err != nil {
			mainLogger.WithError(err).Warn("Could not create Telegram bot. Operator channel disabled.")
			bot = nil
		} else {
			svc.notifications.WithReporter(telegram.NewRunReporter(telegram.NewBotChannel(bot), cfg.OperatorTelegramID))
		}
	}

	notifScheduler := scheduler.NewNotificationScheduler(
		svc.notifications,
		logger.Component("scheduler"),
		cfg.Location,
		cfg.CronSpecDaily,
		cfg.JobTimeout,
	)
	if err := notifScheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if bot != nil {
		telegram.RegisterOperatorHandlers(ctx, bot, notifScheduler, cfg.OperatorTelegramID, logger.Component("telegram"))
		go bot.Start()
		mainLogger.Info("Telegram operator bot started")
	}

	handler := httpapi.NewHandler(svc.broadcasts, notifScheduler, logger.Component("http"))
	router := httpapi.NewRouter(handler, httpapi.NewTokenVerifier(cfg.JWTSecret), logger.Writer(), logger.Component("http"))
	server := httpapi.NewServer(cfg.HTTPAddr, router, logger.Component("http"))
	server.Start()

	mainLogger.Info("Application setup complete. Waiting for shutdown signal.")
	<-ctx.Done()

	mainLogger.Info("Shutting down application...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	if bot != nil {
		bot.Stop()
	}
	notifScheduler.Stop()
	mainLogger.Info("Application shut down gracefully")
	return nil
}
