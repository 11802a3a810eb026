// internal/app/scanner.go
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"community_notifier/internal/domain/record"

	"github.com/sirupsen/logrus"
)

// ActiveItem is a record judged active for the day.
type ActiveItem struct {
	Collection record.Collection
	ID         string
	Record     *record.Record
}

// Key is the deterministic notification key of the item.
func (a ActiveItem) Key() string {
	return string(a.Collection) + "_" + a.ID
}

// Scanner fetches candidates from every monitored collection and keeps the ones
// that are active today.
type Scanner struct {
	records   record.Repository
	evaluator *Evaluator
	clock     *Clock
	logger    *logrus.Entry
}

func NewScanner(records record.Repository, evaluator *Evaluator, clock *Clock, logger *logrus.Entry) *Scanner {
	return &Scanner{
		records:   records,
		evaluator: evaluator,
		clock:     clock,
		logger:    logger,
	}
}

// Scan runs the four collection scans concurrently. A collection whose fetch fails
// is logged and contributes nothing. Results keep record.Monitored order.
func (s *Scanner) Scan(ctx context.Context, today time.Time) []ActiveItem {
	results := make([][]ActiveItem, len(record.Monitored))

	var wg sync.WaitGroup
	for i, collection := range record.Monitored {
		wg.Add(1)
		go func(i int, collection record.Collection) {
			defer wg.Done()
			items, err := s.ScanCollection(ctx, collection, today)
			if err != nil {
				s.logger.WithField("collection", collection).WithError(err).Error("Failed to scan collection")
				return
			}
			results[i] = items
		}(i, collection)
	}
	wg.Wait()

	var active []ActiveItem
	for _, items := range results {
		active = append(active, items...)
	}
	return active
}

// ScanCollection fetches candidates for one collection and evaluates each.
func (s *Scanner) ScanCollection(ctx context.Context, collection record.Collection, today time.Time) ([]ActiveItem, error) {
	candidates, err := s.fetch(ctx, collection, today)
	if err != nil {
		return nil, err
	}

	active := make([]ActiveItem, 0, len(candidates))
	for _, r := range candidates {
		if r == nil {
			continue
		}
		// the repository may not fill the tag; the collection is known here
		r.Collection = collection
		if s.evaluator.Evaluate(r, today) {
			active = append(active, ActiveItem{Collection: collection, ID: r.ID, Record: r})
		}
	}

	s.logger.WithFields(logrus.Fields{
		"collection": collection,
		"candidates": len(candidates),
		"active":     len(active),
	}).Debug("Collection scanned")
	return active, nil
}

func (s *Scanner) fetch(ctx context.Context, collection record.Collection, today time.Time) ([]*record.Record, error) {
	dayStart, dayEnd := s.clock.DayRange(today)

	switch collection {
	case record.CollectionSchedules:
		return s.records.ListSchedules(ctx)

	case record.CollectionAnnouncements:
		candidates, err := s.records.ListAnnouncementsEndingFrom(ctx, dayStart)
		if err != nil {
			return nil, err
		}
		// start_date <= today is refined here to avoid a composite index
		started := candidates[:0]
		for _, r := range candidates {
			if r != nil && r.StartDate != nil && !s.clock.DayStart(*r.StartDate).After(dayStart) {
				started = append(started, r)
			}
		}
		return started, nil

	case record.CollectionCashReports:
		return s.records.ListCashReportsForDay(ctx, dayStart, dayEnd)

	case record.CollectionActivities:
		return s.records.ListActivitiesForDay(ctx, dayStart, dayEnd)

	default:
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
}
