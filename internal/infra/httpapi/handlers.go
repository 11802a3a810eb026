// internal/infra/httpapi/handlers.go
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"community_notifier/internal/app"
	"community_notifier/internal/domain/user"

	"github.com/sirupsen/logrus"
)

// Broadcaster is the administrative side of the service.
type Broadcaster interface {
	Authorize(ctx context.Context, callerID string) (*user.User, error)
	Broadcast(ctx context.Context, callerID string, req app.BroadcastRequest) (int, error)
}

// DailyRunner triggers the daily run on demand.
type DailyRunner interface {
	RunNow(ctx context.Context) app.RunSummary
}

// BroadcastRequest is the JSON body of the broadcast endpoint.
type BroadcastRequest struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
	Role  string                 `json:"role,omitempty"`
}

type BroadcastResponse struct {
	Sent int `json:"sent"`
}

// Handler serves the notifier's HTTP endpoints.
type Handler struct {
	broadcaster Broadcaster
	runner      DailyRunner
	logger      *logrus.Entry
}

func NewHandler(broadcaster Broadcaster, runner DailyRunner, logger *logrus.Entry) *Handler {
	return &Handler{
		broadcaster: broadcaster,
		runner:      runner,
		logger:      logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Broadcast sends an administrative push to all devices or to one role.
func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, kindUnauthenticated, "authentication required")
		return
	}

	var req BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, kindInvalidArgument, "invalid request body")
		return
	}

	sent, err := h.broadcaster.Broadcast(r.Context(), callerID, app.BroadcastRequest{
		Title: req.Title,
		Body:  req.Body,
		Data:  stringifyData(req.Data),
		Role:  req.Role,
	})
	if err != nil {
		h.logger.WithField("caller_id", callerID).WithError(err).Warn("Broadcast request failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BroadcastResponse{Sent: sent})
}

// RunDaily runs the daily job immediately for an admin caller.
func (h *Handler) RunDaily(w http.ResponseWriter, r *http.Request) {
	callerID, ok := CallerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, kindUnauthenticated, "authentication required")
		return
	}
	if _, err := h.broadcaster.Authorize(r.Context(), callerID); err != nil {
		h.logger.WithField("caller_id", callerID).WithError(err).Warn("Daily run request rejected")
		writeServiceError(w, err)
		return
	}

	h.logger.WithField("caller_id", callerID).Info("Daily run triggered over HTTP")
	// the run outlives a disconnected client
	writeJSON(w, http.StatusOK, h.runner.RunNow(context.WithoutCancel(r.Context())))
}

// Push payloads carry string values only.
func stringifyData(data map[string]interface{}) map[string]string {
	if data == nil {
		return nil
	}
	out := make(map[string]string, len(data))
	for key, value := range data {
		out[key] = fmt.Sprintf("%v", value)
	}
	return out
}
