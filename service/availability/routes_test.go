package availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fitsync/schedule-service/cmd/utils"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMock(t *testing.T) (*AvailabilityHandler, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)

	return NewAvailabilityHandler(db, zap.NewNop()), mock
}

func requestWithIdentity(method, target, body, userID, role string) *http.Request {
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

func TestGetTrainerAvailability(t *testing.T) {
	h, mock := setupMock(t)

	trainerID := "3f0a1b2c-4d5e-46f7-8a9b-0c1d2e3f4a5b"
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "availability" WHERE trainer_id = $1 AND is_active = true ORDER BY day_of_week, start_time`)).
		WithArgs(trainerID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "trainer_id", "gym_id", "day_of_week", "start_time", "end_time",
			"is_recurring", "specific_date", "max_slots", "is_active", "created_at",
		}).AddRow(
			"11111111-2222-4333-8444-555555555555", trainerID, nil, 1, now, now.Add(time.Hour),
			true, nil, 1, true, now,
		))

	req := requestWithIdentity(http.MethodGet, "/api/v1/availability/trainer/"+trainerID, "", trainerID, utils.RoleTrainer)
	req = mux.SetURLVars(req, map[string]string{"trainerId": trainerID})
	rec := httptest.NewRecorder()

	h.GetTrainerAvailability(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool              `json:"success"`
		Data    []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Data, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAvailability(t *testing.T) {
	h, mock := setupMock(t)

	id := "11111111-2222-4333-8444-555555555555"
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "availability" SET "is_active"=$1 WHERE id = $2`)).
		WithArgs(false, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := requestWithIdentity(http.MethodDelete, "/api/v1/availability/"+id, "", "t1", utils.RoleTrainer)
	req = mux.SetURLVars(req, map[string]string{"id": id})
	rec := httptest.NewRecorder()

	h.DeleteAvailability(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAvailabilityNotFound(t *testing.T) {
	h, mock := setupMock(t)

	id := "11111111-2222-4333-8444-555555555555"
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "availability" SET "is_active"=$1 WHERE id = $2`)).
		WithArgs(false, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := requestWithIdentity(http.MethodDelete, "/api/v1/availability/"+id, "", "t1", utils.RoleTrainer)
	req = mux.SetURLVars(req, map[string]string{"id": id})
	rec := httptest.NewRecorder()

	h.DeleteAvailability(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAvailabilityValidation(t *testing.T) {
	h, mock := setupMock(t)

	tests := []struct {
		name string
		body string
	}{
		{"day of week out of range", `{"day_of_week": 9, "start_time": "09:00", "end_time": "10:00"}`},
		{"missing times", `{"day_of_week": 1}`},
		{"reversed range", `{"day_of_week": 1, "start_time": "10:00", "end_time": "09:00"}`},
		{"zero max slots rejected", `{"day_of_week": 1, "start_time": "09:00", "end_time": "10:00", "max_slots": -1}`},
		{"malformed time", `{"day_of_week": 1, "start_time": "morning", "end_time": "10:00"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithIdentity(http.MethodPost, "/api/v1/availability", tt.body,
				"3f0a1b2c-4d5e-46f7-8a9b-0c1d2e3f4a5b", utils.RoleTrainer)
			rec := httptest.NewRecorder()

			h.CreateAvailability(rec, req)

			// Invalid input is rejected before any storage call.
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	require.NoError(t, mock.ExpectationsWereMet())
}
