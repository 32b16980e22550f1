package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fitsync/schedule-service/cmd/utils"
	"github.com/fitsync/schedule-service/service/events"
	"github.com/fitsync/schedule-service/service/identity"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testClientID  = "0b1c2d3e-4f50-4172-8394-a5b6c7d8e9f0"
	testTrainerID = "3f0a1b2c-4d5e-46f7-8a9b-0c1d2e3f4a5b"
)

// userService builds a stub user service answering with the given role, or
// 404 when role is empty.
func userService(t *testing.T, role string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/programs/") {
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": []interface{}{}})
			return
		}
		if role == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"id": testTrainerID, "role": role},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestHandler(t *testing.T, identityURL string) *BookingHandler {
	t.Helper()
	rdb, _ := redismock.NewClientMock()
	publisher := events.NewPublisher(rdb, zap.NewNop())
	identityClient := identity.NewClient(identityURL, identityURL, zap.NewNop())
	// No storage-backed paths are exercised here; validation and collaborator
	// failures must reject before the ledger is touched.
	return NewBookingHandler(nil, publisher, identityClient, zap.NewNop())
}

func requestAs(method, target, body, userID, role string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), utils.UserIDKey, userID)
	ctx = context.WithValue(ctx, utils.UserRoleKey, role)
	return req.WithContext(ctx)
}

func TestCreateBookingRejectsInvalidInput(t *testing.T) {
	srv := userService(t, utils.RoleTrainer)
	h := newTestHandler(t, srv.URL)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing trainer", `{"type": "one_on_one", "booking_date": "2024-06-10", "start_time": "09:00", "end_time": "10:00"}`},
		{"unknown type", `{"type": "duo", "trainer_id": "` + testTrainerID + `", "booking_date": "2024-06-10", "start_time": "09:00", "end_time": "10:00"}`},
		{"bad date", `{"type": "one_on_one", "trainer_id": "` + testTrainerID + `", "booking_date": "June 10th", "start_time": "09:00", "end_time": "10:00"}`},
		{"reversed range", `{"type": "one_on_one", "trainer_id": "` + testTrainerID + `", "booking_date": "2024-06-10", "start_time": "10:00", "end_time": "09:00"}`},
		{"zero length range", `{"type": "one_on_one", "trainer_id": "` + testTrainerID + `", "booking_date": "2024-06-10", "start_time": "09:00", "end_time": "09:00"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestAs(http.MethodPost, "/api/v1/bookings", tt.body, testClientID, utils.RoleClient)
			rec := httptest.NewRecorder()

			h.CreateBooking(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateBookingUnknownTrainerIsFatal(t *testing.T) {
	srv := userService(t, "")
	h := newTestHandler(t, srv.URL)

	body := `{"type": "one_on_one", "trainer_id": "` + testTrainerID + `", "booking_date": "2024-06-10", "start_time": "09:00", "end_time": "10:00"}`
	req := requestAs(http.MethodPost, "/api/v1/bookings", body, testClientID, utils.RoleClient)
	rec := httptest.NewRecorder()

	h.CreateBooking(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Trainer not found")
}

func TestCreateBookingRejectsNonTrainer(t *testing.T) {
	srv := userService(t, utils.RoleClient)
	h := newTestHandler(t, srv.URL)

	body := `{"type": "one_on_one", "trainer_id": "` + testTrainerID + `", "booking_date": "2024-06-10", "start_time": "09:00", "end_time": "10:00"}`
	req := requestAs(http.MethodPost, "/api/v1/bookings", body, testClientID, utils.RoleClient)
	rec := httptest.NewRecorder()

	h.CreateBooking(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not a trainer")
}

func TestCreateBookingRequiresAuthenticatedUser(t *testing.T) {
	srv := userService(t, utils.RoleTrainer)
	h := newTestHandler(t, srv.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.CreateBooking(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListBookingsRejectsInvalidLimit(t *testing.T) {
	srv := userService(t, utils.RoleTrainer)
	h := newTestHandler(t, srv.URL)

	for _, limit := range []string{"0", "-5", "ten"} {
		req := requestAs(http.MethodGet, "/api/v1/bookings?limit="+limit, "", testClientID, utils.RoleClient)
		rec := httptest.NewRecorder()

		h.ListBookings(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}
