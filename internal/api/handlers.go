package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookline/internal/booking"
	"bookline/internal/database"
	"bookline/internal/models"
	"bookline/internal/timeutil"
)

// Caller identity headers. Authentication of the identity itself is the
// gateway's job; the core only enforces role rules against these values.
const (
	headerCallerID   = "X-Caller-Id"
	headerCallerRole = "X-Caller-Role"
)

type createBookingRequest struct {
	CustomerID     int64   `json:"customer_id"`
	ProviderID     int64   `json:"provider_id"`
	ServiceID      int64   `json:"service_id"`
	Date           string  `json:"date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	ServiceAddress string  `json:"service_address"`
	TotalPrice     float64 `json:"total_price"`
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createBooking(w, r)
	case http.MethodGet:
		s.listBookings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createBooking(w http.ResponseWriter, r *http.Request) {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var body createBookingRequest
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := timeutil.ParseDate(body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	b, err := s.bookings.Create(r.Context(), booking.CreateRequest{
		CustomerID:     body.CustomerID,
		ProviderID:     body.ProviderID,
		ServiceID:      body.ServiceID,
		Date:           date,
		StartTime:      body.StartTime,
		EndTime:        body.EndTime,
		ServiceAddress: body.ServiceAddress,
		TotalPrice:     body.TotalPrice,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, b)
}

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	partyID, err := strconv.ParseInt(q.Get("party"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "party is required")
		return
	}
	role := q.Get("role")
	if role != models.RoleCustomer && role != models.RoleProvider {
		writeError(w, http.StatusBadRequest, "role must be customer or provider")
		return
	}

	var filter database.BookingFilter
	for _, raw := range splitCSV(q.Get("status")) {
		if !models.ValidStatus(raw) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status: %s", raw))
			return
		}
		filter.Statuses = append(filter.Statuses, raw)
	}
	if from := q.Get("from"); from != "" {
		if filter.From, err = timeutil.ParseDate(from); err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date")
			return
		}
	}
	if to := q.Get("to"); to != "" {
		if filter.To, err = timeutil.ParseDate(to); err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date")
			return
		}
	}

	bookings, err := s.bookings.List(r.Context(), partyID, role, filter)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// handleBookingAction serves POST /api/v1/bookings/{id}/{action}.
func (s *HTTPServer) handleBookingAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	bookingID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	action := booking.Action(parts[1])
	if _, ok := booking.RuleFor(action); !ok {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	callerID, err := strconv.ParseInt(r.Header.Get(headerCallerID), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, headerCallerID+" header is required")
		return
	}
	role := r.Header.Get(headerCallerRole)

	if err := s.bookings.Transition(r.Context(), bookingID, action, callerID, role); err != nil {
		s.writeDomainError(w, err)
		return
	}

	b, err := s.bookings.Get(r.Context(), bookingID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleSchedule serves GET /api/v1/schedule/{providerID}?date=YYYY-MM-DD.
func (s *HTTPServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rawID := strings.TrimPrefix(r.URL.Path, "/api/v1/schedule/")
	providerID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid provider id")
		return
	}

	date, err := timeutil.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	items, err := s.schedule.BuildDay(r.Context(), providerID, date)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []*models.ScheduleItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleChanges serves GET /api/v1/changes/{partyID}: a long poll that
// returns 200 as soon as the party's booking set changes, or 204 after the
// configured timeout. Callers re-fetch on 200 and immediately poll again.
func (s *HTTPServer) handleChanges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rawID := strings.TrimPrefix(r.URL.Path, "/api/v1/changes/")
	partyID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid party id")
		return
	}

	sub := s.bridge.Subscribe(partyID)
	defer sub.Close()

	timeout := time.Duration(s.cfg.LongPollSeconds) * time.Second
	select {
	case <-sub.C():
		writeJSON(w, http.StatusOK, map[string]bool{"changed": true})
	case <-time.After(timeout):
		w.WriteHeader(http.StatusNoContent)
	case <-r.Context().Done():
	}
}

// handleExport serves GET /api/v1/export/bookings?provider=&from=&to=.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	providerID, err := strconv.ParseInt(q.Get("provider"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "provider is required")
		return
	}

	var from, to time.Time
	if raw := q.Get("from"); raw != "" {
		if from, err = timeutil.ParseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date")
			return
		}
	}
	if raw := q.Get("to"); raw != "" {
		if to, err = timeutil.ParseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date")
			return
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	if err := s.exporter.WriteProviderBookings(r.Context(), w, providerID, from, to); err != nil {
		s.log.Error().Err(err).Msg("export failed")
	}
}

// writeDomainError maps core errors onto HTTP statuses with stable error
// codes for dashboards.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, booking.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "unauthorized")
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition")
	case errors.Is(err, database.ErrStaleState):
		writeError(w, http.StatusConflict, "stale_state")
	case errors.Is(err, booking.ErrInvalidTimeRange):
		writeError(w, http.StatusBadRequest, "invalid_time_range")
	case errors.Is(err, booking.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, "invalid_price")
	case errors.Is(err, booking.ErrOutsideAvailability):
		writeError(w, http.StatusConflict, "outside_availability")
	case errors.Is(err, booking.ErrOverlaps):
		writeError(w, http.StatusConflict, "overlaps")
	default:
		s.log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusServiceUnavailable, "unavailable")
	}
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
