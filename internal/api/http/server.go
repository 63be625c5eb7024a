package httpapi

import (
	stdcontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scriptdeck/scriptdeck/internal/api"
	"github.com/scriptdeck/scriptdeck/internal/metrics"
	"github.com/scriptdeck/scriptdeck/internal/ports"
	"github.com/scriptdeck/scriptdeck/internal/project"
	"github.com/scriptdeck/scriptdeck/internal/supervisor"
)

const (
	defaultAddr            = "127.0.0.1:7319"
	defaultReadHeader      = 5 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Config controls construction of the API server.
type Config struct {
	Addr              string
	Controller        api.Controller
	Events            *Hub
	Listener          net.Listener
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server wraps an http.Server exposing the daemon's operations to the UI.
type Server struct {
	ctrl            api.Controller
	events          *Hub
	srv             *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration
}

// NewServer constructs a Server with sane defaults.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	addr := normalizeAddr(cfg.Addr)
	mux := http.NewServeMux()
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	if srv.ReadHeaderTimeout == 0 {
		srv.ReadHeaderTimeout = defaultReadHeader
	}
	server := &Server{
		ctrl:            cfg.Controller,
		events:          cfg.Events,
		srv:             srv,
		listener:        cfg.Listener,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	if server.shutdownTimeout == 0 {
		server.shutdownTimeout = defaultShutdownTimeout
	}
	server.registerRoutes(mux)
	return server, nil
}

// Run starts serving until the provided context is cancelled.
func (s *Server) Run(ctx stdcontext.Context) error {
	if ctx == nil {
		ctx = stdcontext.Background()
	}
	errCh := make(chan error, 1)
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := stdcontext.WithTimeout(stdcontext.Background(), s.shutdownTimeout)
			defer cancel()
			_ = s.srv.Shutdown(shutdownCtx)
		case <-stop:
		}
	}()

	go func() {
		var err error
		if s.listener != nil {
			err = s.srv.Serve(s.listener)
		} else {
			err = s.srv.ListenAndServe()
		}
		errCh <- err
	}()

	err := <-errCh
	close(stop)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.srv.Addr
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/defaults/path", s.handleDefaultPath)
	mux.HandleFunc("/api/v1/project/load", s.handleLoadProject)
	mux.HandleFunc("/api/v1/scripts/run", s.handleRunScript)
	mux.HandleFunc("/api/v1/scripts/stop", s.handleStopScript)
	mux.HandleFunc("/api/v1/scripts/running", s.handleRunningScripts)
	mux.HandleFunc("/api/v1/scripts/install", s.handleInstall)
	mux.HandleFunc("/api/v1/ports", s.handleListPorts)
	mux.HandleFunc("/api/v1/ports/kill-all", s.handleKillAllPorts)
	mux.HandleFunc("/api/v1/ports/kill-default", s.handleKillDefaultPort)
	mux.HandleFunc("/api/v1/ports/", s.handleKillSinglePort)
	mux.HandleFunc("/api/v1/browser/reload", s.handleReloadBrowser)
	if s.events != nil {
		mux.HandleFunc("/api/v1/events", s.events.ServeHTTP)
	}
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
}

func (s *Server) handleDefaultPath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"path": s.ctrl.DefaultPath(r.Context())})
}

func (s *Server) handleLoadProject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	var req api.LoadProjectRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	info, err := s.ctrl.LoadProject(r.Context(), req.Path)
	if err != nil {
		s.writeErrorWithDetails(w, err, map[string]any{"path": req.Path})
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleRunScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	var req api.RunScriptRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := s.ctrl.RunScript(r.Context(), req.Path, req.Script, req.TabID); err != nil {
		s.writeErrorWithDetails(w, err, map[string]any{"script": req.Script, "tabId": req.TabID})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"started": true})
}

func (s *Server) handleStopScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	var req api.StopScriptRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := s.ctrl.StopScript(r.Context(), req.Script, req.TabID); err != nil {
		s.writeErrorWithDetails(w, err, map[string]any{"script": req.Script, "tabId": req.TabID})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

func (s *Server) handleRunningScripts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}
	running := s.ctrl.RunningScripts(r.Context())
	if running == nil {
		running = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"running": running})
}

func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	var req api.InstallRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	// Blocks for the full install duration by design.
	success, err := s.ctrl.InstallDependencies(r.Context(), req.Path, req.TabID)
	if err != nil {
		s.writeErrorWithDetails(w, err, map[string]any{"path": req.Path})
		return
	}
	s.writeJSON(w, http.StatusOK, api.InstallResult{Success: success})
}

func (s *Server) handleListPorts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}
	listeners, err := s.ctrl.ListOpenPorts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if listeners == nil {
		listeners = []ports.Listener{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"listeners": listeners})
}

func (s *Server) handleKillAllPorts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	s.writeJSON(w, http.StatusOK, api.PortActionResult{Message: s.ctrl.KillAllKnownPorts(r.Context())})
}

func (s *Server) handleKillDefaultPort(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	s.writeJSON(w, http.StatusOK, api.PortActionResult{Message: s.ctrl.KillDefaultPort(r.Context())})
}

// handleKillSinglePort serves POST /api/v1/ports/{port}/kill.
func (s *Server) handleKillSinglePort(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/ports/")
	portStr, ok := strings.CutSuffix(rest, "/kill")
	if !ok || strings.Contains(portStr, "/") {
		s.writeJSON(w, http.StatusNotFound, errorBody{Code: "not_found", Message: "unknown route"})
		return
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		s.writeJSON(w, http.StatusBadRequest, errorBody{
			Code:    "invalid_port",
			Message: fmt.Sprintf("invalid port %q", portStr),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, api.PortActionResult{Message: s.ctrl.KillSinglePort(r.Context(), port)})
}

func (s *Server) handleReloadBrowser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	var req api.ReloadBrowserRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.ctrl.ReloadBrowserTab(r.Context(), req.Port)
	s.writeJSON(w, http.StatusAccepted, map[string]bool{"requested": true})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{
			Code:    "invalid_request",
			Message: fmt.Sprintf("decode request body: %v", err),
		})
		return false
	}
	return true
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, method string) {
	w.Header().Set("Allow", method)
	s.writeJSON(w, http.StatusMethodNotAllowed, errorBody{
		Code:    "method_not_allowed",
		Message: fmt.Sprintf("method %s not allowed", method),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeErrorWithDetails(w, err, nil)
}

func (s *Server) writeErrorWithDetails(w http.ResponseWriter, err error, extra map[string]any) {
	status, code := classifyError(err)
	details := map[string]any{
		"timestamp": time.Now().UTC(),
	}
	for k, v := range extra {
		details[k] = v
	}
	body := errorBody{
		Code:    code,
		Message: err.Error(),
		Details: details,
	}
	s.writeJSON(w, status, body)
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, stdcontext.Canceled):
		return 499, "context_canceled"
	case errors.Is(err, supervisor.ErrAlreadyRunning):
		return http.StatusConflict, "already_running"
	case errors.Is(err, supervisor.ErrNotRunning):
		return http.StatusConflict, "not_running"
	case errors.Is(err, project.ErrNoManifest):
		return http.StatusNotFound, "no_manifest"
	case errors.Is(err, project.ErrInvalidManifest):
		return http.StatusBadRequest, "invalid_manifest"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func normalizeAddr(addr string) string {
	if strings.TrimSpace(addr) == "" {
		return defaultAddr
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// If parsing failed, trust caller.
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
