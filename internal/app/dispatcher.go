// internal/app/dispatcher.go
package app

import (
	"context"

	"community_notifier/internal/domain/notification"
	"community_notifier/internal/domain/push"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DispatchResult counts batches and messages by outcome.
type DispatchResult struct {
	Batches       int
	FailedBatches int // batches with at least one message not accepted
	Sent          int // messages the transport accepted
	Failed        int
}

// Dispatcher splits messages into transport-sized batches and sends them one after
// another. A failed batch is logged and counted; it never stops the batches after it.
// Messages the transport accepted count as sent even when others in their batch failed.
type Dispatcher struct {
	sender    push.Sender
	batchSize int
	limiter   *rate.Limiter
	logger    *logrus.Entry
}

func NewDispatcher(sender push.Sender, batchSize int, batchesPerSecond float64, logger *logrus.Entry) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 100
	}
	limit := rate.Inf
	if batchesPerSecond > 0 {
		limit = rate.Limit(batchesPerSecond)
	}
	return &Dispatcher{
		sender:    sender,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, messages []push.Message) DispatchResult {
	var res DispatchResult
	for start := 0; start < len(messages); start += d.batchSize {
		end := min(start+d.batchSize, len(messages))
		batch := messages[start:end]
		res.Batches++

		batchLogger := d.logger.WithFields(logrus.Fields{
			"batch":      res.Batches,
			"batch_size": len(batch),
		})

		if err := d.limiter.Wait(ctx); err != nil {
			// context is done; the remaining batches cannot be sent either
			batchLogger.WithError(err).Error("Push dispatch stopped before sending batch")
			remaining := len(messages) - start
			res.Failed += remaining
			res.FailedBatches += (remaining + d.batchSize - 1) / d.batchSize
			return res
		}

		accepted, err := d.sender.Send(ctx, batch)
		accepted = max(0, min(accepted, len(batch)))
		res.Sent += accepted
		res.Failed += len(batch) - accepted
		if err != nil {
			batchLogger.WithField("accepted", accepted).WithError(err).Error("Push batch failed")
			res.FailedBatches++
			continue
		}
		batchLogger.Debug("Push batch sent")
	}
	return res
}

// EligibleDevices keeps devices that can receive push: Expo token type and a
// well-formed Expo token.
func EligibleDevices(devices []*notification.Device) []*notification.Device {
	eligible := make([]*notification.Device, 0, len(devices))
	for _, d := range devices {
		if d == nil || d.TokenType != notification.TokenTypeExpo {
			continue
		}
		if _, err := expo.NewExponentPushToken(d.Token); err != nil {
			continue
		}
		eligible = append(eligible, d)
	}
	return eligible
}

// MessagesForDevices builds one message per device with the same content.
func MessagesForDevices(devices []*notification.Device, title, body string, data map[string]string) []push.Message {
	messages := make([]push.Message, 0, len(devices))
	for _, d := range devices {
		messages = append(messages, push.Message{
			To:    []string{d.Token},
			Title: title,
			Body:  body,
			Data:  data,
		})
	}
	return messages
}
