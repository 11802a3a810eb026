// internal/infra/database/postgres_record_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"community_notifier/internal/domain/record"

	"github.com/lib/pq"
)

// PostgresRecordRepository reads the monitored collections.
type PostgresRecordRepository struct {
	db *sql.DB
}

func NewPostgresRecordRepository(db *sql.DB) *PostgresRecordRepository {
	return &PostgresRecordRepository{db: db}
}

func (r *PostgresRecordRepository) ListCashReportsForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]*record.Record, error) {
	query := `SELECT id, date, type, amount, COALESCE(description, ''), deleted
               FROM cash_reports
               WHERE date >= $1 AND date < $2
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("error querying cash reports: %w", err)
	}
	defer rows.Close()

	records := make([]*record.Record, 0)
	for rows.Next() {
		rec := &record.Record{Collection: record.CollectionCashReports}
		var date sql.NullTime
		var reportType string
		if err := rows.Scan(&rec.ID, &date, &reportType, &rec.Amount, &rec.Description, &rec.Deleted); err != nil {
			return nil, fmt.Errorf("error scanning cash report row: %w", err)
		}
		rec.Date = timePtr(date)
		rec.Type = record.CashReportType(reportType)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cash report rows: %w", err)
	}
	return records, nil
}

func (r *PostgresRecordRepository) ListActivitiesForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]*record.Record, error) {
	query := `SELECT id, COALESCE(title, ''), COALESCE(description, ''), date
               FROM activities
               WHERE date >= $1 AND date < $2
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("error querying activities: %w", err)
	}
	defer rows.Close()

	records := make([]*record.Record, 0)
	for rows.Next() {
		rec := &record.Record{Collection: record.CollectionActivities}
		var date sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Description, &date); err != nil {
			return nil, fmt.Errorf("error scanning activity row: %w", err)
		}
		rec.Date = timePtr(date)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return records, nil
}

func (r *PostgresRecordRepository) ListAnnouncementsEndingFrom(ctx context.Context, from time.Time) ([]*record.Record, error) {
	query := `SELECT id, COALESCE(title, ''), COALESCE(message, ''), COALESCE(content, ''), start_date, end_date
               FROM announcements
               WHERE end_date >= $1
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, from)
	if err != nil {
		return nil, fmt.Errorf("error querying announcements: %w", err)
	}
	defer rows.Close()

	records := make([]*record.Record, 0)
	for rows.Next() {
		rec := &record.Record{Collection: record.CollectionAnnouncements}
		var start, end sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Message, &rec.Content, &start, &end); err != nil {
			return nil, fmt.Errorf("error scanning announcement row: %w", err)
		}
		rec.StartDate = timePtr(start)
		rec.EndDate = timePtr(end)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating announcement rows: %w", err)
	}
	return records, nil
}

func (r *PostgresRecordRepository) ListSchedules(ctx context.Context) ([]*record.Record, error) {
	query := `SELECT id, COALESCE(title, ''), COALESCE(description, ''), COALESCE(frequency, ''), days, created_at
               FROM schedules
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying schedules: %w", err)
	}
	defer rows.Close()

	records := make([]*record.Record, 0)
	for rows.Next() {
		rec := &record.Record{Collection: record.CollectionSchedules}
		var createdAt sql.NullTime
		var days []string
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Description, &rec.Frequency, pq.Array(&days), &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning schedule row: %w", err)
		}
		rec.Days = days
		rec.CreatedAt = timePtr(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}
	return records, nil
}
