// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"community_notifier/internal/domain/notification"
	"community_notifier/internal/domain/record"
	idb "community_notifier/internal/infra/database"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// NotificationService defines the daily notification run.
type NotificationService interface {
	// RunDaily scans today's records, creates missing per-item notifications and,
	// when enough items are active, pushes one summary to every eligible device.
	// It never fails: problems are logged and reflected in the summary.
	RunDaily(ctx context.Context) RunSummary
}

// RunReporter receives the outcome of each daily run.
type RunReporter interface {
	ReportRun(ctx context.Context, summary RunSummary) error
}

// RunSummary describes one daily run.
type RunSummary struct {
	Day           string         `json:"day"`
	Active        int            `json:"active"`
	Created       int            `json:"created"`
	Skipped       int            `json:"skipped"` // already notified on an earlier run
	Failed        int            `json:"failed"`
	PerCollection map[string]int `json:"per_collection"`
	SummarySent   bool           `json:"summary_sent"`
	PushSent      int            `json:"push_sent"`
	PushFailed    int            `json:"push_failed"`
}

// NotificationServiceImpl implements the NotificationService interface.
type NotificationServiceImpl struct {
	scanner    *Scanner
	notifRepo  notification.Repository
	deviceRepo notification.DeviceRepository
	dispatcher *Dispatcher
	reporter   RunReporter // optional
	clock      *Clock
	threshold  int
	logger     *logrus.Entry
}

func NewNotificationServiceImpl(
	scanner *Scanner,
	nr notification.Repository,
	dr notification.DeviceRepository,
	dispatcher *Dispatcher,
	clock *Clock,
	threshold int,
	logger *logrus.Entry,
) *NotificationServiceImpl {
	if threshold < 1 {
		threshold = 1
	}
	return &NotificationServiceImpl{
		scanner:    scanner,
		notifRepo:  nr,
		deviceRepo: dr,
		dispatcher: dispatcher,
		clock:      clock,
		threshold:  threshold,
		logger:     logger,
	}
}

// WithReporter sets the run reporter. Passing nil disables reports.
func (s *NotificationServiceImpl) WithReporter(r RunReporter) *NotificationServiceImpl {
	s.reporter = r
	return s
}

func (s *NotificationServiceImpl) RunDaily(ctx context.Context) RunSummary {
	today := s.clock.Now()
	summary := RunSummary{
		Day:           s.clock.DayString(today),
		PerCollection: make(map[string]int),
	}
	runLogger := s.logger.WithField("day", summary.Day)
	runLogger.Info("Starting daily notification run")

	// 1. Find today's records
	active := s.scanner.Scan(ctx, today)
	summary.Active = len(active)
	for _, item := range active {
		summary.PerCollection[string(item.Collection)]++
	}
	runLogger.WithField("active", summary.Active).Info("Scan complete")

	// 2. Per-item notifications, independent of the threshold
	for _, item := range active {
		itemLogger := runLogger.WithFields(logrus.Fields{
			"collection": item.Collection,
			"record_id":  item.ID,
			"key":        item.Key(),
		})

		exists, err := s.notifRepo.Exists(ctx, item.Key())
		if err != nil {
			itemLogger.WithError(err).Error("Failed to check existing notification")
			summary.Failed++
			continue
		}
		if exists {
			itemLogger.Debug("Notification already exists. Skipping creation.")
			summary.Skipped++
			continue
		}

		title, message := s.composeItemNotification(item)
		n := &notification.Notification{
			ID:          item.Key(),
			Title:       title,
			Message:     message,
			Type:        notification.TypeDailyReminder,
			CreatedAt:   today,
			ReadBy:      []string{},
			Category:    string(item.Collection),
			ReferenceID: item.ID,
		}
		if err := s.notifRepo.Create(ctx, n); err != nil {
			if errors.Is(err, idb.ErrDuplicateNotification) {
				// another run created it between the check and the insert
				itemLogger.Info("Notification created concurrently. Skipping.")
				summary.Skipped++
				continue
			}
			itemLogger.WithError(err).Error("Failed to create notification")
			summary.Failed++
			continue
		}
		summary.Created++
	}

	// 3. Summary push
	if summary.Active >= s.threshold {
		s.sendSummaryPush(ctx, runLogger, &summary)
	} else {
		runLogger.WithFields(logrus.Fields{
			"active":    summary.Active,
			"threshold": s.threshold,
		}).Info("Active items below threshold. No summary push.")
	}

	runLogger.WithFields(logrus.Fields{
		"active":      summary.Active,
		"created":     summary.Created,
		"skipped":     summary.Skipped,
		"failed":      summary.Failed,
		"push_sent":   summary.PushSent,
		"push_failed": summary.PushFailed,
	}).Info("Daily notification run finished")

	if s.reporter != nil {
		if err := s.reporter.ReportRun(ctx, summary); err != nil {
			runLogger.WithError(err).Warn("Failed to send run report")
		}
	}
	return summary
}

func (s *NotificationServiceImpl) sendSummaryPush(ctx context.Context, runLogger *logrus.Entry, summary *RunSummary) {
	devices, err := s.deviceRepo.ListAll(ctx)
	if err != nil {
		runLogger.WithError(err).Error("Failed to list devices for summary push")
		return
	}
	eligible := EligibleDevices(devices)
	if len(eligible) == 0 {
		runLogger.WithField("devices", len(devices)).Info("No eligible devices for summary push")
		return
	}

	title := fmt.Sprintf("%d Notifications for today", summary.Active)
	body := summaryBody(summary.PerCollection)
	data := map[string]string{
		"type": "daily_summary",
		"date": summary.Day,
	}

	res := s.dispatcher.Dispatch(ctx, MessagesForDevices(eligible, title, body, data))
	summary.SummarySent = true
	summary.PushSent = res.Sent
	summary.PushFailed = res.Failed
}

func (s *NotificationServiceImpl) composeItemNotification(item ActiveItem) (string, string) {
	r := item.Record
	fallback := fmt.Sprintf("%s created", collectionLabel(item.Collection))
	if r == nil {
		return fallback, fallback
	}

	if item.Collection == record.CollectionCashReports {
		label := "Cash report"
		switch record.CashReportType(strings.ToLower(string(r.Type))) {
		case record.CashReportIncome:
			label = "Income"
		case record.CashReportExpense:
			label = "Expense"
		}
		title := fmt.Sprintf("%s: %s", label, FormatRupiah(r.Amount))
		message := r.Description
		if message == "" && r.Date != nil {
			message = "Cash report for " + s.clock.DayString(*r.Date)
		}
		if message == "" {
			message = fallback
		}
		return title, message
	}

	title := firstNonEmpty(r.Title, fallback)
	message := firstNonEmpty(r.Message, r.Content, r.Description, fallback)
	return title, message
}

// FormatRupiah renders an amount as "Rp 1.250.000" (",50" appended for cents).
func FormatRupiah(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	fixed := amount.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := sign + "Rp " + b.String()
	if frac != "00" {
		out += "," + frac
	}
	return out
}

func summaryBody(perCollection map[string]int) string {
	parts := make([]string, 0, len(record.Monitored))
	for _, c := range record.Monitored {
		if n := perCollection[string(c)]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, collectionLabel(c)))
		}
	}
	return strings.Join(parts, ", ")
}

func collectionLabel(c record.Collection) string {
	return strings.ReplaceAll(string(c), "_", " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
