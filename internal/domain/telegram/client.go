package telegram

import "context"

// ReportChannel posts plain-text operator reports to a chat.
type ReportChannel interface {
	PostReport(ctx context.Context, chatID int64, text string) error
}
