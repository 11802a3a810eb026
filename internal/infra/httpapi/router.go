package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter wires routes, authentication, access logging and panic recovery.
func NewRouter(h *Handler, verifier *TokenVerifier, accessLog io.Writer, logger *logrus.Entry) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	// registered on the root router so a method mismatch answers 405
	authed := func(fn http.HandlerFunc) http.Handler { return verifier.Middleware(fn) }
	router.Handle("/api/v1/notifications/broadcast", authed(h.Broadcast)).Methods(http.MethodPost)
	router.Handle("/api/v1/jobs/daily", authed(h.RunDaily)).Methods(http.MethodPost)

	var root http.Handler = router
	if accessLog != nil {
		root = handlers.CombinedLoggingHandler(accessLog, root)
	}
	return handlers.RecoveryHandler(handlers.RecoveryLogger(logger), handlers.PrintRecoveryStack(true))(root)
}

// Server is the HTTP server for the broadcast API.
type Server struct {
	httpServer *http.Server
	logger     *logrus.Entry
}

func NewServer(addr string, handler http.Handler, logger *logrus.Entry) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start serves in the background. Errors other than a clean shutdown are logged.
func (s *Server) Start() {
	go func() {
		s.logger.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
