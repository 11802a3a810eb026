package database

import (
	"context"
	"database/sql"
	"fmt"

	"community_notifier/internal/domain/notification"
)

type PostgresDeviceRepository struct {
	db *sql.DB
}

func NewPostgresDeviceRepository(db *sql.DB) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

func (r *PostgresDeviceRepository) ListAll(ctx context.Context) ([]*notification.Device, error) {
	query := `SELECT id, token, token_type, COALESCE(user_id, '')
               FROM devices ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing devices: %w", err)
	}
	defer rows.Close()
	return scanDevices(rows)
}

func (r *PostgresDeviceRepository) ListByUserRole(ctx context.Context, role string) ([]*notification.Device, error) {
	query := `SELECT d.id, d.token, d.token_type, COALESCE(d.user_id, '')
               FROM devices d
               JOIN users u ON u.id = d.user_id
               WHERE u.role = $1
               ORDER BY d.id`
	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("error listing devices for role %s: %w", role, err)
	}
	defer rows.Close()
	return scanDevices(rows)
}

// Helper to scan multiple rows
func scanDevices(rows *sql.Rows) ([]*notification.Device, error) {
	devices := make([]*notification.Device, 0)
	for rows.Next() {
		d := &notification.Device{}
		if err := rows.Scan(&d.ID, &d.Token, &d.TokenType, &d.UserID); err != nil {
			return nil, fmt.Errorf("error scanning device row: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating device rows: %w", err)
	}
	return devices, nil
}
