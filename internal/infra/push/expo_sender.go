// internal/infra/push/expo_sender.go
package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	domainPush "community_notifier/internal/domain/push"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"github.com/sirupsen/logrus"
)

// Publisher is the part of the Expo client the sender needs.
type Publisher interface {
	PublishMultiple(messages []expo.PushMessage) ([]expo.PushResponse, error)
}

// ExpoSender implements push.Sender on top of the Expo push service.
type ExpoSender struct {
	client Publisher
	logger *logrus.Entry
}

// NewExpoClient builds the Expo push client with a bounded HTTP timeout.
func NewExpoClient(timeout time.Duration) *expo.PushClient {
	return expo.NewPushClient(&expo.ClientConfig{
		HTTPClient: &http.Client{Timeout: timeout},
	})
}

func NewExpoSender(client Publisher, logger *logrus.Entry) *ExpoSender {
	return &ExpoSender{client: client, logger: logger}
}

// Send publishes one batch and returns how many of its messages Expo accepted.
// Malformed tokens and rejected tickets are logged, excluded from the count and
// reported through the error.
func (s *ExpoSender) Send(ctx context.Context, batch []domainPush.Message) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	messages := make([]expo.PushMessage, 0, len(batch))
	invalid := 0
	for _, m := range batch {
		tokens := make([]expo.ExponentPushToken, 0, len(m.To))
		for _, raw := range m.To {
			token, err := expo.NewExponentPushToken(raw)
			if err != nil {
				s.logger.WithField("token", raw).WithError(err).Warn("Invalid Expo push token")
				continue
			}
			tokens = append(tokens, token)
		}
		if len(tokens) == 0 {
			invalid++
			continue
		}
		messages = append(messages, expo.PushMessage{
			To:       tokens,
			Title:    m.Title,
			Body:     m.Body,
			Data:     m.Data,
			Sound:    "default",
			Priority: expo.DefaultPriority,
		})
	}

	accepted := 0
	var rejectErr error
	if len(messages) > 0 {
		responses, err := s.client.PublishMultiple(messages)
		if err != nil {
			return 0, fmt.Errorf("failed to publish push batch: %w", err)
		}

		rejected := 0
		for _, resp := range responses {
			if verr := resp.ValidateResponse(); verr != nil {
				rejected++
				s.logger.WithFields(logrus.Fields{
					"ticket_id": resp.ID,
					"to":        resp.PushMessage.To,
				}).WithError(verr).Warn("Expo rejected push message")
			}
		}
		// a ticket missing from the response is not counted as delivered
		accepted = min(len(responses), len(messages)) - rejected
		if accepted < len(messages) {
			rejectErr = fmt.Errorf("expo accepted %d of %d push messages", accepted, len(messages))
		}
	}

	if invalid > 0 {
		return accepted, errors.Join(rejectErr, fmt.Errorf("%d messages without a valid push token", invalid))
	}
	return accepted, rejectErr
}
