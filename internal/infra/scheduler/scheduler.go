package scheduler

import (
	"context"
	"sync"
	"time"

	"community_notifier/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type NotificationScheduler struct {
	cronEngine    *cron.Cron
	notifService  app.NotificationService
	logger        *logrus.Entry
	cronSpecDaily string
	jobTimeout    time.Duration

	runMu sync.Mutex // one daily run at a time, cron or manual
}

func NewNotificationScheduler(
	notifService app.NotificationService,
	logger *logrus.Entry,
	location *time.Location, // cron fires on the wall clock of this zone
	cronSpecDaily string, // e.g., "0 7 * * *" (07:00 daily)
	jobTimeout time.Duration,
) *NotificationScheduler {
	return &NotificationScheduler{
		cronEngine: cron.New(
			cron.WithLocation(location),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		notifService:  notifService,
		logger:        logger,
		cronSpecDaily: cronSpecDaily,
		jobTimeout:    jobTimeout,
	}
}

// Start registers the daily job and starts the cron engine.
func (s *NotificationScheduler) Start() error {
	s.logger.Info("Starting notification scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecDaily, func() {
		s.logger.Info("Cron job triggered for daily notification run.")
		s.RunNow(context.Background())
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpecDaily).Info("Notification scheduler started with jobs.")
	return nil
}

// RunNow executes the daily run with the configured timeout. A call made while
// another run is in progress waits for it to finish first.
func (s *NotificationScheduler) RunNow(parent context.Context) app.RunSummary {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx, cancel := context.WithTimeout(parent, s.jobTimeout)
	defer cancel()
	return s.notifService.RunDaily(ctx)
}

func (s *NotificationScheduler) Stop() {
	s.logger.Info("Stopping notification scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Notification scheduler gracefully stopped.")
}
