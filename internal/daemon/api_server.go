package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"tracklift/internal/api"
	"tracklift/internal/config"
	"tracklift/internal/logging"
)

type apiServer struct {
	bind   string
	auth   apiAuth
	logger *slog.Logger
	daemon *Daemon
	jobSvc *api.JobService

	listener net.Listener
	server   *http.Server

	// runCtx is captured before the listener opens and governs jobs
	// started from API handlers.
	runCtx context.Context
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	webhookSecret := strings.TrimSpace(cfg.Ingest.WebhookToken)
	if webhookSecret == "" {
		webhookSecret = strings.TrimSpace(cfg.Paths.APIToken)
	}

	srv := &apiServer{
		bind: bind,
		auth: apiAuth{
			operatorToken: strings.TrimSpace(cfg.Paths.APIToken),
			webhookSecret: webhookSecret,
		},
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
		jobSvc: api.NewJobService(d.jobs),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.auth.operator(srv.handleStatus))
	mux.HandleFunc("/api/jobs", srv.auth.operator(srv.handleJobs))
	mux.HandleFunc("/api/jobs/", srv.handleJobSubpath)
	mux.HandleFunc("/api/uploads", srv.auth.operator(srv.handleUploads))

	srv.server = &http.Server{
		Handler:           srv.withRequestID(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// withRequestID tags each request with an id for log correlation.
// Clients may supply their own via X-Request-ID.
func (s *apiServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.runCtx = ctx
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode api response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
