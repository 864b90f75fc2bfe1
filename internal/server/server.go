// Package server exposes the focusd control API over HTTP, so client
// interfaces on the device can acquire and release channels remotely.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/audiolibrelab/focusd/internal/activity"
	"github.com/audiolibrelab/focusd/internal/service"
)

// Server is the HTTP control surface over the focus service.
type Server struct {
	service service.Service
	port    string
}

// StatusResponse is the JSON response for the status endpoint.
type StatusResponse struct {
	Channels map[string]string `json:"channels"`
	Sessions []service.Session `json:"sessions"`
}

// AcquireRequest is the JSON body for channel acquisition.
type AcquireRequest struct {
	Interface string `json:"interface"`
}

// AcquireResponse is the JSON response for a successful acquisition.
type AcquireResponse struct {
	Session *service.Session `json:"session"`
}

// ReleaseRequest is the JSON body for channel release.
type ReleaseRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// ReleaseResponse is the JSON response for a release.
type ReleaseResponse struct {
	Released bool `json:"released"`
}

// ActivityResponse is the JSON response for the activity endpoint.
type ActivityResponse struct {
	Batches []activity.Batch `json:"batches"`
}

// ErrorResponse is the JSON shape of any error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// New creates a server around the given service.
func New(svc service.Service, port string) *Server {
	return &Server{service: svc, port: port}
}

// Start runs the HTTP server. It blocks until the listener fails.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", s.port, err)
	}

	slog.Info("focusd control server listening", "addr", listener.Addr().String())

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/channels/{name}/acquire", s.handleAcquire)
	mux.HandleFunc("POST /api/channels/{name}/release", s.handleRelease)
	mux.HandleFunc("POST /api/stop", s.handleStopForeground)
	mux.HandleFunc("POST /api/stop-all", s.handleStopAll)
	mux.HandleFunc("GET /api/activity", s.handleActivity)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Channels: s.service.ChannelStates(),
		Sessions: s.service.Sessions(),
	})
}

func (s *Server) handleAcquire(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req AcquireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Interface == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("interface must not be empty"))
		return
	}

	sess, err := s.service.Acquire(name, req.Interface)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	slog.Info("channel acquired", "channel", name, "interface", req.Interface, "session", sess.ID)
	writeJSON(w, http.StatusOK, AcquireResponse{Session: sess})
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req ReleaseRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	released, err := s.service.Release(name, req.SessionID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	slog.Info("channel released", "channel", name, "released", released)
	writeJSON(w, http.StatusOK, ReleaseResponse{Released: released})
}

func (s *Server) handleStopForeground(w http.ResponseWriter, r *http.Request) {
	s.service.StopForeground()
	slog.Info("foreground activity stop requested")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStopAll(w http.ResponseWriter, r *http.Request) {
	s.service.StopAll()
	slog.Info("stop of all activities requested")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ActivityResponse{Batches: s.service.Activity()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownChannel):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoSession):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	slog.Warn("request failed", "status", status, "error", err)
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
