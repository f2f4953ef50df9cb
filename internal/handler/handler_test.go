package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CampusSOS/internal/feed"
	"CampusSOS/internal/lifecycle"
	"CampusSOS/internal/models"
	"CampusSOS/internal/store"
	"CampusSOS/pkg/cache"
	"CampusSOS/pkg/config"
	"CampusSOS/pkg/sse"
	"CampusSOS/pkg/util"
	"CampusSOS/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testApp struct {
	engine  *gin.Engine
	db      *gorm.DB
	store   *store.Store
	manager *lifecycle.Manager
	bus     *feed.Bus
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.GlobalConfig = &config.Config{
		APIPrefix:     "/api",
		StatsCacheTTL: time.Second,
	}

	db, err := util.OpenDatabase(&gorm.Config{}, "sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))

	bus := feed.NewBus()
	st := store.New(db, bus)
	mgr := lifecycle.New(st, bus, 50)
	mgr.Start()
	t.Cleanup(mgr.Close)

	hub := websocket.NewHub(nil)
	t.Cleanup(hub.Close)
	sseHub := sse.NewHub(30 * time.Second)

	local := cache.NewLocalCache(cache.LocalConfig{
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	})

	engine := gin.New()
	NewHandlers(db, st, mgr, hub, sseHub, local, nil).Register(engine)

	return &testApp{engine: engine, db: db, store: st, manager: mgr, bus: bus}
}

var idemSeq int

func (a *testApp) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	idemSeq++
	req.Header.Set("Idempotency-Key", fmt.Sprintf("test-%d-%d", time.Now().UnixNano(), idemSeq))
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testApp) submitAlert(t *testing.T) models.Alert {
	t.Helper()
	w := a.request(t, http.MethodPost, "/api/alerts",
		`{"student_id":"2024001234","student_name":"João Silva","course":"CS","latitude":-15.5989,"longitude":-56.0949}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    models.Alert `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func TestSubmitAlert(t *testing.T) {
	app := newTestApp(t)

	alert := app.submitAlert(t)
	assert.NotZero(t, alert.ID)
	assert.Equal(t, models.StatusActive, alert.Status)
	assert.Equal(t, "João Silva", alert.StudentName)
}

func TestSubmitAlertMissingPosition(t *testing.T) {
	app := newTestApp(t)

	w := app.request(t, http.MethodPost, "/api/alerts",
		`{"student_id":"2024001234","student_name":"João Silva"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAlertDoubleTap(t *testing.T) {
	app := newTestApp(t)

	body := `{"student_id":"2024001234","student_name":"João Silva","latitude":-15.5989,"longitude":-56.0949}`
	req1 := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(body))
	req1.Header.Set("Idempotency-Key", "panic-tap")
	w1 := httptest.NewRecorder()
	app.engine.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusCreated, w1.Code)

	req2 := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(body))
	req2.Header.Set("Idempotency-Key", "panic-tap")
	w2 := httptest.NewRecorder()
	app.engine.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusConflict, w2.Code)
}

func TestListAndGetAlert(t *testing.T) {
	app := newTestApp(t)
	alert := app.submitAlert(t)

	w := app.request(t, http.MethodGet, "/api/alerts", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []models.Alert `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, alert.ID, list.Data[0].ID)

	w = app.request(t, http.MethodGet, fmt.Sprintf("/api/alerts/%d", alert.ID), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.request(t, http.MethodGet, "/api/alerts/9999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActiveAlerts(t *testing.T) {
	app := newTestApp(t)
	alert := app.submitAlert(t)

	w := app.request(t, http.MethodPut, fmt.Sprintf("/api/alerts/%d", alert.ID),
		`{"status":"resolved","admin_id":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.request(t, http.MethodGet, "/api/alerts/active", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []models.Alert `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Data)
}

func TestTransitionValidation(t *testing.T) {
	app := newTestApp(t)
	alert := app.submitAlert(t)

	// Unknown status is rejected before any store contact.
	w := app.request(t, http.MethodPut, fmt.Sprintf("/api/alerts/%d", alert.ID),
		`{"status":"escalated"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Terminal states accept no further transitions.
	w = app.request(t, http.MethodPut, fmt.Sprintf("/api/alerts/%d", alert.ID),
		`{"status":"false_alarm","admin_id":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.request(t, http.MethodPut, fmt.Sprintf("/api/alerts/%d", alert.ID),
		`{"status":"in_progress","admin_id":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Same-status transition is an accepted no-op.
	w = app.request(t, http.MethodPut, fmt.Sprintf("/api/alerts/%d", alert.ID),
		`{"status":"false_alarm","admin_id":1}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.request(t, http.MethodPut, "/api/alerts/9999", `{"status":"resolved"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLocationReportAndHistory(t *testing.T) {
	app := newTestApp(t)
	alert := app.submitAlert(t)

	w := app.request(t, http.MethodPost, fmt.Sprintf("/api/alerts/%d/location", alert.ID),
		`{"latitude":-15.6010,"longitude":-56.0970}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = app.request(t, http.MethodGet, fmt.Sprintf("/api/alerts/%d/locations", alert.ID), "")
	assert.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []models.LocationUpdate `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, -15.6010, list.Data[0].Latitude)

	// The alert's cached position follows the newest sample.
	w = app.request(t, http.MethodGet, fmt.Sprintf("/api/alerts/%d", alert.ID), "")
	var got struct {
		Data models.Alert `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, -15.6010, got.Data.Latitude)
}

func TestStats(t *testing.T) {
	app := newTestApp(t)
	app.submitAlert(t)

	w := app.request(t, http.MethodGet, "/api/alerts/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data store.Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Data.Total)
	assert.Equal(t, int64(1), resp.Data.Active)

	// Second read comes from cache and stays consistent.
	w = app.request(t, http.MethodGet, "/api/alerts/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStudentAuthEnrollsOnFirstUse(t *testing.T) {
	app := newTestApp(t)

	w := app.request(t, http.MethodPost, "/api/auth/student",
		`{"student_id":"2024001234","name":"João Silva","course":"CS"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = app.request(t, http.MethodPost, "/api/auth/student",
		`{"student_id":"2024001234"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data models.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "João Silva", resp.Data.Name)
}

func TestStudentAuthUnknownWithoutName(t *testing.T) {
	app := newTestApp(t)

	w := app.request(t, http.MethodPost, "/api/auth/student", `{"student_id":"0000000000"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminAuth(t *testing.T) {
	app := newTestApp(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, app.db.Create(&models.User{
		Email:        "seguranca@campus.br",
		Name:         "Segurança",
		UserType:     models.UserTypeAdmin,
		PasswordHash: string(hash),
	}).Error)

	w := app.request(t, http.MethodPost, "/api/auth/admin",
		`{"email":"seguranca@campus.br","password":"correct horse"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.request(t, http.MethodPost, "/api/auth/admin",
		`{"email":"seguranca@campus.br","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.request(t, http.MethodPost, "/api/auth/admin",
		`{"email":"nobody@campus.br","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t)

	w := app.request(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
