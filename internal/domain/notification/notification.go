// internal/domain/notification/notification.go
package notification

import "time"

// TypeDailyReminder tags notifications created by the daily job.
const TypeDailyReminder = "daily_reminder"

// Notification is an in-app notification created for one source record.
// ID is the deterministic key "{category}_{reference_id}".
type Notification struct {
	ID          string
	Title       string
	Message     string
	Type        string
	CreatedAt   time.Time
	ReadBy      []string // user ids that have read it; empty on creation
	Category    string   // source collection
	ReferenceID string
}
