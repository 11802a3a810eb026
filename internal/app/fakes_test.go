package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"community_notifier/internal/domain/notification"
	"community_notifier/internal/domain/push"
	"community_notifier/internal/domain/record"
	"community_notifier/internal/domain/user"
	idb "community_notifier/internal/infra/database"
	"community_notifier/internal/infra/logger"

	"github.com/stretchr/testify/require"
)

func jakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return loc
}

// at builds a local Jakarta instant.
func at(loc *time.Location, year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func ptr(t time.Time) *time.Time { return &t }

func newTestEvaluator(t *testing.T) (*Evaluator, *Clock) {
	t.Helper()
	clock := NewClock(jakarta(t))
	return NewEvaluator(clock, logger.Discard()), clock
}

type fakeRecordRepo struct {
	cashReports   []*record.Record
	activities    []*record.Record
	announcements []*record.Record
	schedules     []*record.Record

	errs map[record.Collection]error

	mu           sync.Mutex
	dayRanges    [][2]time.Time
	endingFromAt []time.Time
}

func (f *fakeRecordRepo) ListCashReportsForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]*record.Record, error) {
	f.mu.Lock()
	f.dayRanges = append(f.dayRanges, [2]time.Time{dayStart, dayEnd})
	f.mu.Unlock()
	if err := f.errs[record.CollectionCashReports]; err != nil {
		return nil, err
	}
	return f.cashReports, nil
}

func (f *fakeRecordRepo) ListActivitiesForDay(ctx context.Context, dayStart, dayEnd time.Time) ([]*record.Record, error) {
	if err := f.errs[record.CollectionActivities]; err != nil {
		return nil, err
	}
	return f.activities, nil
}

func (f *fakeRecordRepo) ListAnnouncementsEndingFrom(ctx context.Context, from time.Time) ([]*record.Record, error) {
	f.mu.Lock()
	f.endingFromAt = append(f.endingFromAt, from)
	f.mu.Unlock()
	if err := f.errs[record.CollectionAnnouncements]; err != nil {
		return nil, err
	}
	return f.announcements, nil
}

func (f *fakeRecordRepo) ListSchedules(ctx context.Context) ([]*record.Record, error) {
	if err := f.errs[record.CollectionSchedules]; err != nil {
		return nil, err
	}
	return f.schedules, nil
}

type fakeNotificationRepo struct {
	mu        sync.Mutex
	stored    map[string]*notification.Notification
	existsErr error
	createErr func(n *notification.Notification) error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{stored: make(map[string]*notification.Notification)}
}

func (f *fakeNotificationRepo) Exists(ctx context.Context, id string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.stored[id]
	return ok, nil
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	if f.createErr != nil {
		if err := f.createErr(n); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.stored[n.ID]; ok {
		return idb.ErrDuplicateNotification
	}
	cp := *n
	f.stored[n.ID] = &cp
	return nil
}

var errNotStored = errors.New("notification not stored")

// GetByID lets tests inspect what a run stored.
func (f *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*notification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.stored[id]
	if !ok {
		return nil, errNotStored
	}
	return n, nil
}

type fakeDeviceRepo struct {
	all       []*notification.Device
	byRole    map[string][]*notification.Device
	err       error
	calls     int
	roleAsked []string
}

func (f *fakeDeviceRepo) ListAll(ctx context.Context) ([]*notification.Device, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.all, nil
}

func (f *fakeDeviceRepo) ListByUserRole(ctx context.Context, role string) ([]*notification.Device, error) {
	f.calls++
	f.roleAsked = append(f.roleAsked, role)
	if f.err != nil {
		return nil, f.err
	}
	return f.byRole[role], nil
}

type fakeUserRepo struct {
	users map[string]*user.User
	err   error
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, idb.ErrUserNotFound
	}
	return u, nil
}

type fakeBroadcastRepo struct {
	appended []*notification.BroadcastHistory
	err      error
}

func (f *fakeBroadcastRepo) Append(ctx context.Context, h *notification.BroadcastHistory) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, h)
	return nil
}

var errSendFailed = errors.New("transport unavailable")

// fakeSender records each batch. Keys of failOn and rejectOn are 1-based batch
// numbers: failOn fails the whole batch, rejectOn rejects that many messages of it.
type fakeSender struct {
	mu       sync.Mutex
	batches  [][]push.Message
	failOn   map[int]bool
	rejectOn map[int]int
}

func (f *fakeSender) Send(ctx context.Context, batch []push.Message) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]push.Message(nil), batch...)
	f.batches = append(f.batches, cp)
	n := len(f.batches)
	if f.failOn[n] {
		return 0, errSendFailed
	}
	if rejected := f.rejectOn[n]; rejected > 0 {
		return len(batch) - rejected, errSendFailed
	}
	return len(batch), nil
}

func (f *fakeSender) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func expoDevice(id, userID string) *notification.Device {
	return &notification.Device{
		ID:        id,
		Token:     "ExponentPushToken[" + id + "]",
		TokenType: notification.TokenTypeExpo,
		UserID:    userID,
	}
}
