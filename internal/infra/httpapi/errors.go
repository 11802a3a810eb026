package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"community_notifier/internal/app"
)

const (
	kindUnauthenticated  = "unauthenticated"
	kindPermissionDenied = "permission-denied"
	kindInvalidArgument  = "invalid-argument"
	kindInternal         = "internal"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

// writeServiceError maps application errors to status codes and kinds.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, kindUnauthenticated, err.Error())
	case errors.Is(err, app.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, kindPermissionDenied, err.Error())
	case errors.Is(err, app.ErrInvalidBroadcast):
		writeError(w, http.StatusBadRequest, kindInvalidArgument, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, kindInternal, "internal error")
	}
}
