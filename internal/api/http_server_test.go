package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"bookline/internal/booking"
	"bookline/internal/config"
	"bookline/internal/database"
	"bookline/internal/export"
	"bookline/internal/models"
	"bookline/internal/notify"
	"bookline/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type apiFixture struct {
	handler http.Handler
	db      *database.DB
	hub     *notify.Hub
}

func setupAPI(t *testing.T, mutate func(*config.APIConfig)) *apiFixture {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.APIConfig{Port: 0, LongPollSeconds: 1}
	if mutate != nil {
		mutate(cfg)
	}

	hub := notify.NewHub(&logger)
	svc := booking.NewService(db, hub, &logger)
	agg := schedule.NewAggregator(db, &logger)
	exp := export.NewExporter(db)

	srv := NewHTTPServer(cfg, svc, agg, hub, exp, &logger)
	return &apiFixture{handler: srv.Handler(), db: db, hub: hub}
}

func (f *apiFixture) seedTuesdayHours(t *testing.T, providerID int64) {
	t.Helper()
	require.NoError(t, f.db.CreateTemplate(context.Background(), &models.AvailabilityTemplate{
		ProviderID: providerID,
		Weekday:    int(time.Tuesday),
		StartTime:  "09:00",
		EndTime:    "17:00",
	}))
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) createBooking(t *testing.T, start, end string) *models.Booking {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{
		"customer_id":     1,
		"provider_id":     2,
		"service_id":      7,
		"date":            "2025-03-04",
		"start_time":      start,
		"end_time":        end,
		"service_address": "12 Main St",
		"total_price":     50,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var b models.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return &b
}

func providerHeaders(id int64) map[string]string {
	return map[string]string{
		"X-Caller-Id":   strconv.FormatInt(id, 10),
		"X-Caller-Role": models.RoleProvider,
	}
}

func customerHeaders(id int64) map[string]string {
	return map[string]string{
		"X-Caller-Id":   strconv.FormatInt(id, 10),
		"X-Caller-Role": models.RoleCustomer,
	}
}

func TestAPI_CreateAcceptScheduleRoundTrip(t *testing.T) {
	f := setupAPI(t, nil)
	f.seedTuesdayHours(t, 2)

	b := f.createBooking(t, "10:00", "11:00")
	assert.Equal(t, models.StatusPending, b.Status)
	require.NotZero(t, b.ID)

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/accept", b.ID), nil, providerHeaders(2))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var accepted models.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.Equal(t, models.StatusConfirmed, accepted.Status)

	rec = f.do(t, http.MethodGet, "/api/v1/schedule/2?date=2025-03-04", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Items []*models.ScheduleItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Items, 2)
	assert.Equal(t, models.KindAvailability, payload.Items[0].Kind)
	assert.Equal(t, models.KindBooking, payload.Items[1].Kind)
	assert.Equal(t, models.StatusConfirmed, payload.Items[1].Status)
}

func TestAPI_ErrorMapping(t *testing.T) {
	f := setupAPI(t, nil)
	f.seedTuesdayHours(t, 2)

	errorCode := func(rec *httptest.ResponseRecorder) string {
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body["error"]
	}

	t.Run("NotFound", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/bookings/9999/accept", nil, providerHeaders(2))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", errorCode(rec))
	})

	t.Run("Unauthorized", func(t *testing.T) {
		b := f.createBooking(t, "09:00", "10:00")
		rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/accept", b.ID), nil, customerHeaders(1))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "unauthorized", errorCode(rec))
	})

	t.Run("InvalidTransition", func(t *testing.T) {
		b := f.createBooking(t, "10:00", "11:00")
		rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/accept", b.ID), nil, providerHeaders(2))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/accept", b.ID), nil, providerHeaders(2))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "invalid_transition", errorCode(rec))
	})

	t.Run("InvalidTimeRange", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{
			"customer_id": 1, "provider_id": 2, "service_id": 7,
			"date": "2025-03-04", "start_time": "11:00", "end_time": "10:00",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_time_range", errorCode(rec))
	})

	t.Run("InvalidPrice", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{
			"customer_id": 1, "provider_id": 2, "service_id": 7,
			"date": "2025-03-04", "start_time": "15:00", "end_time": "16:00",
			"total_price": -5,
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_price", errorCode(rec))
	})

	t.Run("OutsideAvailability", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{
			"customer_id": 1, "provider_id": 2, "service_id": 7,
			"date": "2025-03-04", "start_time": "07:00", "end_time": "08:00",
		}, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "outside_availability", errorCode(rec))
	})

	t.Run("Overlaps", func(t *testing.T) {
		f.createBooking(t, "13:00", "14:00")
		rec := f.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{
			"customer_id": 3, "provider_id": 2, "service_id": 7,
			"date": "2025-03-04", "start_time": "13:30", "end_time": "14:30",
		}, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "overlaps", errorCode(rec))
	})

	t.Run("UnknownAction", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/bookings/1/archive", nil, providerHeaders(2))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("MissingCallerHeader", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/v1/bookings/1/accept", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPI_ListBookings(t *testing.T) {
	f := setupAPI(t, nil)
	f.seedTuesdayHours(t, 2)
	f.createBooking(t, "10:00", "11:00")
	f.createBooking(t, "12:00", "13:00")

	t.Run("ByParty", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/bookings?party=2&role=provider", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Bookings []*models.Booking `json:"bookings"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Len(t, payload.Bookings, 2)
	})

	t.Run("StatusFilter", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/bookings?party=2&role=provider&status=confirmed", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Bookings []*models.Booking `json:"bookings"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Empty(t, payload.Bookings)
	})

	t.Run("BadRole", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/bookings?party=2&role=admin", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BadStatus", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/bookings?party=2&role=provider&status=waiting", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MissingParty", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/bookings?role=provider", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPI_Auth(t *testing.T) {
	f := setupAPI(t, func(cfg *config.APIConfig) {
		cfg.Auth = config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "X-API-Key",
			APIKeys:      []config.APIClientKey{{Key: "secret-1", Name: "dashboard"}},
		}
	})
	f.seedTuesdayHours(t, 2)

	t.Run("MissingKey", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/schedule/2?date=2025-03-04", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongKey", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/schedule/2?date=2025-03-04", nil, map[string]string{"X-API-Key": "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ValidKey", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/schedule/2?date=2025-03-04", nil, map[string]string{"X-API-Key": "secret-1"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAPI_RateLimit(t *testing.T) {
	f := setupAPI(t, func(cfg *config.APIConfig) {
		cfg.RateLimit = config.APIRateLimitConfig{RPS: 0.1, Burst: 2}
	})
	f.seedTuesdayHours(t, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := f.do(t, http.MethodGet, "/api/v1/schedule/2?date=2025-03-04", nil, nil)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}

func TestAPI_Changes(t *testing.T) {
	f := setupAPI(t, nil)

	t.Run("TimesOutWithNoContent", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/changes/42", nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("ReturnsOnChange", func(t *testing.T) {
		done := make(chan struct{})
		go func() {
			defer close(done)
			time.Sleep(100 * time.Millisecond)
			f.hub.Notify(context.Background(), 42)
		}()

		rec := f.do(t, http.MethodGet, "/api/v1/changes/42", nil, nil)
		<-done
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]bool
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body["changed"])
	})

	t.Run("BadPartyID", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/changes/abc", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAPI_Export(t *testing.T) {
	f := setupAPI(t, nil)
	f.seedTuesdayHours(t, 2)
	f.createBooking(t, "10:00", "11:00")

	rec := f.do(t, http.MethodGet, "/api/v1/export/bookings?provider=2", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))

	x, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer x.Close()

	rows, err := x.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "10:00", rows[1][2])
}
