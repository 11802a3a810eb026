package notification

import (
	"time"

	"github.com/google/uuid"
)

// AudienceAll targets every registered device.
const AudienceAll = "all"

// BroadcastHistory is the append-only record of one manual broadcast.
type BroadcastHistory struct {
	ID         uuid.UUID
	Title      string
	Body       string
	TargetRole string
	SentCount  int
	CreatedAt  time.Time
	SenderID   string
}
