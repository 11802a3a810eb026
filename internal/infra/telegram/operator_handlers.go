// internal/infra/telegram/operator_handlers.go
package telegram

import (
	"context"
	"strings"

	"community_notifier/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// DailyRunner triggers the daily run on demand.
type DailyRunner interface {
	RunNow(ctx context.Context) app.RunSummary
}

// RegisterOperatorHandlers registers the operator commands. Only operatorID may use them.
func RegisterOperatorHandlers(ctx context.Context, b *telebot.Bot, runner DailyRunner, operatorID int64, baseLogger *logrus.Entry) {
	b.Handle("/run_daily", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/run_daily",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != operatorID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not allowed to run this command.")
		}

		summary := runner.RunNow(ctx)
		handlerLogger.WithFields(logrus.Fields{
			"active":  summary.Active,
			"created": summary.Created,
		}).Info("Daily run triggered by operator")
		return c.Send(FormatRunSummary(summary))
	})

	b.Handle("/help", func(c telebot.Context) error {
		if c.Sender().ID != operatorID {
			return c.Send("No commands are available for you.")
		}
		var helpText strings.Builder
		helpText.WriteString("Operator commands:\n\n")
		helpText.WriteString("/run_daily - run today's notification job now (already created notifications are not duplicated)\n")
		helpText.WriteString("/help - show this message")
		return c.Send(helpText.String())
	})
}
