package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"bandstand/internal/api"
	"bandstand/internal/config"
	"bandstand/internal/logging"
)

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logging.WithComponent(logger, "api-server"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.authed(srv.handleStatus))
	mux.HandleFunc("/api/stage", srv.authed(srv.handleStage))
	mux.HandleFunc("/api/ai/verify", srv.authed(srv.handleVerify))
	mux.HandleFunc("/api/ai/social", srv.authed(srv.handleSocial))
	mux.HandleFunc("/api/storage/initialize", srv.authed(srv.handleStorageInitialize))
	mux.HandleFunc("/api/storage/upload", srv.authed(srv.handleStorageUpload))
	mux.HandleFunc("/api/storage/list", srv.authed(srv.handleStorageList))
	mux.HandleFunc("/api/storage/verify", srv.authed(srv.handleStorageVerify))
	mux.HandleFunc("/api/storage/delegation/create", srv.authed(srv.handleDelegationCreate))
	mux.HandleFunc("/api/storage/delegation/use", srv.authed(srv.handleDelegationUse))
	mux.HandleFunc("/api/storage/delegation/revoke", srv.authed(srv.handleDelegationRevoke))
	mux.HandleFunc("/api/storage/delegation/get-agent-did", srv.authed(srv.handleDelegationAgentDID))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// authed validates bearer tokens when an API token is configured; with no
// token every request passes through.
func (s *apiServer) authed(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.token {
			s.writeJSON(w, http.StatusUnauthorized, api.Fail("unauthorized"))
			return
		}
		next(w, r)
	}
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
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

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Envelope:         api.OK(),
		Running:          status.Running,
		PID:              status.PID,
		DataDir:          status.DataDir,
		LockFilePath:     status.LockFilePath,
		LLMConfigured:    status.LLMConfigured,
		BridgeConfigured: status.BridgeConfigured,
		RemoteConnected:  status.RemoteConnected,
		SpaceDID:         status.SpaceDID,
		AssetCount:       status.AssetCount,
		DraftCount:       status.DraftCount,
		Stage:            status.Stage,
	})
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.Fail(message))
}
