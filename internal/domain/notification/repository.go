// internal/domain/notification/repository.go
package notification

import (
	"context"
)

// Repository persists notifications created by the daily job.
type Repository interface {
	Exists(ctx context.Context, id string) (bool, error)
	// Create inserts n. It fails with a duplicate error if n.ID already exists.
	Create(ctx context.Context, n *Notification) error
}

// DeviceRepository reads push registrations.
type DeviceRepository interface {
	ListAll(ctx context.Context) ([]*Device, error)
	// ListByUserRole returns devices whose owning user has the given role.
	ListByUserRole(ctx context.Context, role string) ([]*Device, error)
}

// BroadcastRepository appends broadcast history.
type BroadcastRepository interface {
	Append(ctx context.Context, h *BroadcastHistory) error
}
