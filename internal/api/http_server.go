package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"traveler/internal/config"
	"traveler/internal/domain"
	"traveler/internal/service"

	"github.com/rs/zerolog"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the services the HTTP API serves.
type Deps struct {
	Auth     *service.AuthService
	Bookings *service.BookingService
	Catalog  *service.CatalogService
	Session  domain.SessionState
	DB       Pinger
}

// HTTPServer exposes the booking flows as a JSON API on the local machine.
type HTTPServer struct {
	cfg     config.APIConfig
	deps    Deps
	server  *http.Server
	limiter *rateLimiter
	logger  *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	httpLogger := logger.With().Str("component", "http").Logger()
	srv := &HTTPServer{
		cfg:     cfg,
		deps:    deps,
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  &httpLogger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", srv.handleHealth)

	mux.HandleFunc("POST /api/v1/register", srv.handleRegister)
	mux.HandleFunc("POST /api/v1/login", srv.handleLogin)
	mux.HandleFunc("POST /api/v1/logout", srv.handleLogout)
	mux.HandleFunc("GET /api/v1/session", srv.handleSession)
	mux.HandleFunc("GET /api/v1/catalog", srv.handleCatalog)

	mux.Handle("GET /api/v1/bookings", srv.requireSession(srv.handleListBookings))
	mux.Handle("POST /api/v1/bookings", srv.requireSession(srv.handleCreateBooking))
	mux.Handle("GET /api/v1/bookings/count", srv.requireSession(srv.handleCountBookings))
	mux.Handle("GET /api/v1/bookings/prefill", srv.requireSession(srv.handlePrefill))
	mux.Handle("GET /api/v1/bookings/export", srv.requireSession(srv.handleExport))
	mux.Handle("GET /api/v1/bookings/{id}", srv.requireSession(srv.handleGetBooking))
	mux.Handle("PUT /api/v1/bookings/{id}", srv.requireSession(srv.handleUpdateBooking))
	mux.Handle("DELETE /api/v1/bookings/{id}", srv.requireSession(srv.handleDeleteBooking))
	mux.Handle("PATCH /api/v1/bookings/{id}/status", srv.requireSession(srv.handleUpdateStatus))

	handler := requestIDMiddleware(srv.accessLogMiddleware(srv.rateLimitMiddleware(mux)))

	srv.server = &http.Server{
		Addr:              listenAddr(cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// listenAddr joins host and port. An empty host means loopback only.
func listenAddr(host string, port int) string {
	if host == "" {
		host = config.DefaultAPIHost
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Handler returns the fully wrapped handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func writeFieldErrors(w http.ResponseWriter, errs map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
