// internal/api/router_test.go
package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-calendar/internal/calendar"
	"compliance-calendar/internal/common/config"
	"compliance-calendar/internal/common/logger"
	"compliance-calendar/internal/store"
)

const signingKey = "test-signing-key"

func signedToken(t *testing.T, subject, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	require.NoError(t, err)
	return token
}

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	events := store.NewEventStore(conn)
	statuses := store.NewStatusStore(conn)
	reminders := store.NewReminderStore(conn)
	log := logger.NewTestLogger(t)

	tracker := calendar.NewTracker(events, statuses, reminders, nil, log)
	scheduler := calendar.NewScheduler(events, statuses, reminders, log)

	cfg := &config.Config{}
	cfg.App.Name = "compliance-calendar"
	cfg.Auth.SigningKey = signingKey

	return NewRouter(cfg, NewHandlers(events, tracker, scheduler), log), mock
}

func TestMissingTokenRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBadTokenRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateEventRequiresAdmin(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "emp-1", ""))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestCreateEventValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"title":"GST Filing","category":"NOT_A_CATEGORY","dueDate":"2025-06-30"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "admin-1", "admin"))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestSetStatusPaidWithoutDatePaid(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/events/ev-1/status", strings.NewReader(`{"status":"PAID"}`))
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "emp-1", ""))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PAID_WITHOUT_DATE_PAID")
}

func TestGetStatusReturnsVirtualDefault(t *testing.T) {
	router, mock := newTestRouter(t)

	due := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM compliance_events WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "notes", "category", "due_date", "recurrence",
			"document_ref", "tags", "active", "created_by", "created_at", "updated_at",
		}).AddRow("ev-1", "GST Filing", "", "STATUTORY_FILING", due, "MONTHLY",
			"", "{gst}", true, "admin-1", due, due))
	mock.ExpectQuery(`SELECT .+ FROM compliance_statuses`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/ev-1/status", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "emp-1", ""))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"UPCOMING"`)
}

func TestGetEventNotFound(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(`SELECT .+ FROM compliance_events WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/missing", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "emp-1", ""))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "EVENT_NOT_FOUND")
}
