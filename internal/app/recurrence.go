// internal/app/recurrence.go
package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"community_notifier/internal/domain/record"

	"github.com/sirupsen/logrus"
)

// Frequency is a normalized schedule recurrence family.
type Frequency string

const (
	FrequencyDaily        Frequency = "" // unset or unrecognized: daily, optionally by weekday
	FrequencyTwiceWeekly  Frequency = "twice weekly"
	FrequencyTwiceMonthly Frequency = "twice monthly" // every 14 days from the anchor
	FrequencyQuarterly    Frequency = "quarterly"
)

// ErrMalformedRecord marks records whose scheduling fields cannot be evaluated.
var ErrMalformedRecord = errors.New("malformed scheduling fields")

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseFrequency normalizes a stored frequency value. Case is ignored and
// '_' or '-' count as spaces.
func ParseFrequency(raw string) Frequency {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	switch Frequency(s) {
	case FrequencyTwiceWeekly, FrequencyTwiceMonthly, FrequencyQuarterly:
		return Frequency(s)
	default:
		return FrequencyDaily
	}
}

// Evaluator decides whether a record is active on a given local day.
type Evaluator struct {
	clock  *Clock
	logger *logrus.Entry
}

func NewEvaluator(clock *Clock, logger *logrus.Entry) *Evaluator {
	return &Evaluator{clock: clock, logger: logger}
}

// Evaluate is IsActiveToday with errors and panics folded into "not active".
func (e *Evaluator) Evaluate(r *record.Record, today time.Time) (active bool) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.WithFields(logrus.Fields{
				"collection": r.Collection,
				"record_id":  r.ID,
				"panic":      p,
			}).Error("Recurrence evaluation panicked; treating record as inactive")
			active = false
		}
	}()

	ok, err := e.IsActiveToday(r, today)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"collection": r.Collection,
			"record_id":  r.ID,
		}).WithError(err).Warn("Could not evaluate record; treating as inactive")
		return false
	}
	return ok
}

// IsActiveToday applies the per-collection rule for r on today's local calendar day.
func (e *Evaluator) IsActiveToday(r *record.Record, today time.Time) (bool, error) {
	if r == nil {
		return false, fmt.Errorf("%w: nil record", ErrMalformedRecord)
	}
	switch r.Collection {
	case record.CollectionCashReports:
		if r.Deleted {
			return false, nil
		}
		return e.sameDay(r.Date, today), nil
	case record.CollectionActivities:
		return e.sameDay(r.Date, today), nil
	case record.CollectionAnnouncements:
		if r.StartDate == nil || r.EndDate == nil {
			return false, nil
		}
		day := e.clock.DayStart(today)
		start := e.clock.DayStart(*r.StartDate)
		end := e.clock.DayStart(*r.EndDate)
		return !day.Before(start) && !day.After(end), nil
	case record.CollectionSchedules:
		return e.scheduleActive(r, today)
	default:
		return false, fmt.Errorf("%w: unknown collection %q", ErrMalformedRecord, r.Collection)
	}
}

func (e *Evaluator) sameDay(date *time.Time, today time.Time) bool {
	if date == nil {
		return false
	}
	return e.clock.DayString(*date) == e.clock.DayString(today)
}

func (e *Evaluator) scheduleActive(r *record.Record, today time.Time) (bool, error) {
	days, err := parseDays(r.Days)
	if err != nil {
		return false, err
	}
	local := today.In(e.clock.Location())
	dayOfWeek := local.Weekday()
	inDays := func() bool {
		_, ok := days[dayOfWeek]
		return ok
	}

	switch ParseFrequency(r.Frequency) {
	case FrequencyTwiceWeekly:
		if len(days) > 0 {
			return inDays(), nil
		}
		if r.CreatedAt == nil {
			return false, fmt.Errorf("%w: twice weekly schedule without days needs created_at", ErrMalformedRecord)
		}
		baseIdx := int(e.clock.Weekday(*r.CreatedAt))
		secondIdx := (baseIdx + 3) % 7
		idx := int(dayOfWeek)
		return idx == baseIdx || idx == secondIdx, nil

	case FrequencyTwiceMonthly:
		if r.CreatedAt == nil {
			return false, fmt.Errorf("%w: twice monthly schedule needs created_at", ErrMalformedRecord)
		}
		diffDays := civilDay(local) - civilDay(r.CreatedAt.In(e.clock.Location()))
		if diffDays < 0 || diffDays%14 != 0 {
			return false, nil
		}
		if len(days) > 0 {
			return inDays(), nil
		}
		return true, nil

	case FrequencyQuarterly:
		if r.CreatedAt == nil {
			return false, fmt.Errorf("%w: quarterly schedule needs created_at", ErrMalformedRecord)
		}
		created := r.CreatedAt.In(e.clock.Location())
		months := (local.Year()-created.Year())*12 + int(local.Month()-created.Month())
		if months < 0 || months%3 != 0 {
			return false, nil
		}
		target := min(created.Day(), daysInMonth(local.Year(), local.Month()))
		if local.Day() != target {
			return false, nil
		}
		if len(days) > 0 {
			return inDays(), nil
		}
		return true, nil

	default:
		if len(days) == 0 {
			return true, nil
		}
		return inDays(), nil
	}
}

func parseDays(names []string) (map[time.Weekday]struct{}, error) {
	days := make(map[time.Weekday]struct{}, len(names))
	for _, name := range names {
		n := strings.ToLower(strings.TrimSpace(name))
		if n == "" {
			continue
		}
		wd, ok := weekdayNames[n]
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrMalformedRecord, name)
		}
		days[wd] = struct{}{}
	}
	return days, nil
}

// civilDay numbers t's calendar day (in t's own location) as days since the Unix epoch.
func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
