package database

import (
	"context"
	"database/sql"
	"fmt"

	"community_notifier/internal/domain/notification"
)

type PostgresBroadcastRepository struct {
	db *sql.DB
}

func NewPostgresBroadcastRepository(db *sql.DB) *PostgresBroadcastRepository {
	return &PostgresBroadcastRepository{db: db}
}

func (r *PostgresBroadcastRepository) Append(ctx context.Context, h *notification.BroadcastHistory) error {
	query := `INSERT INTO broadcast_history (id, title, body, target_role, sent_count, created_at, sender_id)
               VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, h.ID, h.Title, h.Body, h.TargetRole, h.SentCount, h.CreatedAt, h.SenderID)
	if err != nil {
		return fmt.Errorf("error appending broadcast history: %w", err)
	}
	return nil
}
