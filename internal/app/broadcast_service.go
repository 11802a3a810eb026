package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"community_notifier/internal/domain/notification"
	"community_notifier/internal/domain/user"
	idb "community_notifier/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Application-level errors for the broadcast path
var ErrUnauthenticated = fmt.Errorf("caller is not authenticated")
var ErrPermissionDenied = fmt.Errorf("caller is not authorized as an admin")
var ErrInvalidBroadcast = fmt.Errorf("title and body are required")

// BroadcastRequest is an administrative push to an audience.
type BroadcastRequest struct {
	Title string
	Body  string
	Data  map[string]string
	Role  string // "" or "all" for every device, else the owning user's role
}

type BroadcastService struct {
	userRepo      user.Repository
	deviceRepo    notification.DeviceRepository
	broadcastRepo notification.BroadcastRepository
	dispatcher    *Dispatcher
	adminRoles    map[string]struct{}
	logger        *logrus.Entry
}

func NewBroadcastService(
	ur user.Repository,
	dr notification.DeviceRepository,
	br notification.BroadcastRepository,
	dispatcher *Dispatcher,
	adminRoles []string,
	logger *logrus.Entry,
) *BroadcastService {
	roles := make(map[string]struct{}, len(adminRoles))
	for _, r := range adminRoles {
		roles[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return &BroadcastService{
		userRepo:      ur,
		deviceRepo:    dr,
		broadcastRepo: br,
		dispatcher:    dispatcher,
		adminRoles:    roles,
		logger:        logger,
	}
}

// Authorize checks that callerID belongs to a user with an administrative role.
func (s *BroadcastService) Authorize(ctx context.Context, callerID string) (*user.User, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, ErrUnauthenticated
	}
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, idb.ErrUserNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("failed to load caller %s: %w", callerID, err)
	}
	if _, ok := s.adminRoles[strings.ToLower(caller.Role)]; !ok {
		return nil, ErrPermissionDenied
	}
	return caller, nil
}

// Broadcast sends req to its audience and returns how many messages were accepted by
// the push transport. Authorization happens before any device read or history write.
func (s *BroadcastService) Broadcast(ctx context.Context, callerID string, req BroadcastRequest) (int, error) {
	reqLogger := s.logger.WithFields(logrus.Fields{
		"sender_id": callerID,
		"role":      req.Role,
	})

	if _, err := s.Authorize(ctx, callerID); err != nil {
		reqLogger.WithError(err).Warn("Broadcast rejected")
		return 0, err
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		return 0, ErrInvalidBroadcast
	}

	target := strings.TrimSpace(req.Role)
	if target == "" {
		target = notification.AudienceAll
	}

	var devices []*notification.Device
	var err error
	if strings.EqualFold(target, notification.AudienceAll) {
		target = notification.AudienceAll
		devices, err = s.deviceRepo.ListAll(ctx)
	} else {
		devices, err = s.deviceRepo.ListByUserRole(ctx, target)
	}
	if err != nil {
		reqLogger.WithError(err).Error("Failed to resolve broadcast audience")
		return 0, fmt.Errorf("failed to resolve audience %q: %w", target, err)
	}

	eligible := EligibleDevices(devices)
	res := s.dispatcher.Dispatch(ctx, MessagesForDevices(eligible, req.Title, req.Body, req.Data))
	reqLogger.WithFields(logrus.Fields{
		"devices":  len(devices),
		"eligible": len(eligible),
		"sent":     res.Sent,
		"failed":   res.Failed,
	}).Info("Broadcast dispatched")

	history := &notification.BroadcastHistory{
		ID:         uuid.New(),
		Title:      req.Title,
		Body:       req.Body,
		TargetRole: target,
		SentCount:  res.Sent,
		CreatedAt:  time.Now(),
		SenderID:   callerID,
	}
	if err := s.broadcastRepo.Append(ctx, history); err != nil {
		// the pushes are already out; the count stands
		reqLogger.WithError(err).Error("Failed to write broadcast history")
	}

	return res.Sent, nil
}
