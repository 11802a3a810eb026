// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"community_notifier/internal/domain/notification"

	"github.com/lib/pq" // For pq.Array
)

// ErrDuplicateNotification is returned by Create when the key already exists.
var ErrDuplicateNotification = fmt.Errorf("duplicate notification id")

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking notification %s: %w", id, err)
	}
	return exists, nil
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `INSERT INTO notifications (id, title, message, type, created_at, read_by, category, reference_id)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	readBy := n.ReadBy
	if readBy == nil {
		readBy = []string{}
	}
	_, err := r.db.ExecContext(ctx, query, n.ID, n.Title, n.Message, n.Type, n.CreatedAt, pq.Array(readBy), n.Category, n.ReferenceID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateNotification, n.ID)
		}
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}
