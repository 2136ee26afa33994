package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"traveler/internal/database"
	"traveler/internal/export"
	"traveler/internal/models"
	"traveler/internal/service"
	"traveler/internal/validation"
)

type sessionResponse struct {
	IsLoggedIn bool   `json:"is_logged_in"`
	Username   string `json:"username"`
	Email      string `json:"email"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.PingContext(r.Context()); err != nil {
			s.logger.Error().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in validation.RegistrationInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	errs, err := s.deps.Auth.Register(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if errs.HasErrors() {
		writeFieldErrors(w, errs)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Registration successful"})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in validation.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	errs, err := s.deps.Auth.Login(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if errs.HasErrors() {
		writeFieldErrors(w, errs)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionState())
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Auth.Logout(r.Context()); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionState())
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessionState())
}

func (s *HTTPServer) sessionState() sessionResponse {
	return sessionResponse{
		IsLoggedIn: s.deps.Session.IsLoggedIn(),
		Username:   s.deps.Session.CurrentUsername(),
		Email:      s.deps.Session.CurrentEmail(),
	}
}

func (s *HTTPServer) handleCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := models.DefaultCatalog()
	if s.deps.Catalog != nil {
		catalog = s.deps.Catalog.Catalog()
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.deps.Bookings.ListBookings(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if bookings == nil {
		bookings = []*models.TravelBooking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var in validation.BookingInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, errs, err := s.deps.Bookings.CreateBooking(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if errs.HasErrors() {
		writeFieldErrors(w, errs)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleCountBookings(w http.ResponseWriter, r *http.Request) {
	count, err := s.deps.Bookings.CountBookings(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *HTTPServer) handlePrefill(w http.ResponseWriter, r *http.Request) {
	prefill, err := s.deps.Bookings.Prefill(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefill)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := s.deps.Bookings.ExportBookings(r.Context(), &buf)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	booking, err := s.deps.Bookings.GetBooking(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	var in validation.BookingInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, errs, err := s.deps.Bookings.UpdateBooking(r.Context(), id, in)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if errs.HasErrors() {
		writeFieldErrors(w, errs)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	booking, err := s.deps.Bookings.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Bookings.DeleteBooking(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func bookingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return 0, false
	}
	return id, true
}

// writeServiceError maps service and store errors onto HTTP statuses.
// Anything unclassified is logged and reported as a generic failure.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotLoggedIn), errors.Is(err, service.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "login required")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, database.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, service.ErrInvalidStatus):
		writeFieldErrors(w, map[string]string{"status": "Status is required"})
	default:
		s.logger.Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
