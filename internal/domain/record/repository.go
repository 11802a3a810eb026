package record

import (
	"context"
	"time"
)

// Repository reads candidate records for the daily scan. Each method filters on a
// single column so no composite index is needed; the rest is refined in memory.
type Repository interface {
	// ListCashReportsForDay returns cash reports whose date falls in [dayStart, dayEnd).
	ListCashReportsForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]*Record, error)
	// ListActivitiesForDay returns activities whose date falls in [dayStart, dayEnd).
	ListActivitiesForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]*Record, error)
	// ListAnnouncementsEndingFrom returns announcements with end_date >= from.
	ListAnnouncementsEndingFrom(ctx context.Context, from time.Time) ([]*Record, error)
	ListSchedules(ctx context.Context) ([]*Record, error)
}
