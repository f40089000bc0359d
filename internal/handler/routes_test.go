package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/life-ease-api/internal/middleware"
	"github.com/noah-isme/life-ease-api/internal/models"
	"github.com/noah-isme/life-ease-api/internal/realtime"
	"github.com/noah-isme/life-ease-api/internal/service"
	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
	"github.com/noah-isme/life-ease-api/pkg/export"
)

const testUserID = "user-1"

type stubTokens struct{}

func (stubTokens) VerifyAccess(token string) (string, error) {
	if token == "access" {
		return testUserID, nil
	}
	return "", errors.New("invalid")
}

type fakeAuth struct {
	loggedOut string
}

func (f *fakeAuth) Register(ctx context.Context, req models.RegisterRequest) (*models.TokenResponse, error) {
	if req.Email == "taken@example.com" {
		return nil, appErrors.ErrDuplicateIdentity
	}
	return &models.TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 3600}, nil
}

func (f *fakeAuth) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	return nil, appErrors.ErrInvalidCredentials
}

func (f *fakeAuth) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.TokenResponse, error) {
	if req.RefreshToken == "" {
		return nil, appErrors.ErrInvalidRefreshToken
	}
	return &models.TokenResponse{AccessToken: "a2", RefreshToken: "r2", ExpiresIn: 3600}, nil
}

func (f *fakeAuth) Logout(ctx context.Context, identityID string) error {
	f.loggedOut = identityID
	return nil
}

type fakeUsers struct{}

func (fakeUsers) Profile(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id, Email: "ana@example.com", Name: "Ana", PasswordHash: "secret-hash"}, nil
}

func (fakeUsers) UpdateProfile(ctx context.Context, id string, req models.UpdateProfileRequest) (*models.User, error) {
	return nil, appErrors.ErrEmailInUse
}

func (fakeUsers) Online() models.OnlineUsers {
	return models.OnlineUsers{UserIDs: []string{testUserID}, Count: 1}
}

type fakeTasks struct {
	lastFilter models.TaskFilter
}

func (f *fakeTasks) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	f.lastFilter = filter
	return []models.Task{}, nil
}

func (f *fakeTasks) Categories() []service.TaskCategory {
	return []service.TaskCategory{{Name: "personal"}}
}

func (f *fakeTasks) Overdue(ctx context.Context, userID string) ([]models.Task, error) {
	return []models.Task{}, nil
}

func (f *fakeTasks) Create(ctx context.Context, userID string, req models.CreateTaskRequest) (*models.Task, error) {
	return &models.Task{ID: "t1", UserID: userID, Title: req.Title}, nil
}

func (f *fakeTasks) Update(ctx context.Context, userID, id string, req models.UpdateTaskRequest) (*models.Task, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "Task not found")
}

func (f *fakeTasks) Delete(ctx context.Context, userID, id string) error {
	return nil
}

type fakeMessages struct {
	lastLimit int
}

func (f *fakeMessages) List(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	f.lastLimit = limit
	return []models.Message{}, nil
}

func (f *fakeMessages) Send(ctx context.Context, senderID string, req models.SendMessageRequest) (*models.Message, error) {
	return &models.Message{ID: "m1", SenderID: senderID, Text: req.Text}, nil
}

func (f *fakeMessages) MarkSynced(ctx context.Context, userID, id string) (*models.Message, error) {
	return &models.Message{ID: id, IsSynced: true}, nil
}

func (f *fakeMessages) MarkRead(ctx context.Context, userID, id string) (*models.Message, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "Message not found")
}

type fakeWater struct{}

func (fakeWater) List(ctx context.Context, userID string) ([]models.WaterEntry, error) {
	return []models.WaterEntry{}, nil
}

func (fakeWater) Create(ctx context.Context, userID string, req models.CreateWaterEntryRequest) (*models.WaterEntry, error) {
	return &models.WaterEntry{ID: "w1", UserID: userID, Amount: req.Amount, Unit: models.WaterUnitML}, nil
}

func (fakeWater) Update(ctx context.Context, userID, id string, req models.UpdateWaterEntryRequest) (*models.WaterEntry, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "Water entry not found")
}

func (fakeWater) Delete(ctx context.Context, userID, id string) error {
	return appErrors.Clone(appErrors.ErrNotFound, "Water entry not found")
}

func (fakeWater) Summary(ctx context.Context, userID, date string) (*models.WaterSummary, error) {
	return &models.WaterSummary{Date: date, TotalML: 750, EntryCount: 3}, nil
}

func (fakeWater) Export(ctx context.Context, userID, format string) (*export.File, error) {
	return &export.File{Name: "water-entries.csv", ContentType: "text/csv", Body: []byte("Timestamp\n")}, nil
}

type testServer struct {
	engine   *gin.Engine
	auth     *fakeAuth
	tasks    *fakeTasks
	messages *fakeMessages
}

func newTestServer(checks map[string]ReadinessCheck) *testServer {
	gin.SetMode(gin.TestMode)
	ts := &testServer{engine: gin.New(), auth: &fakeAuth{}, tasks: &fakeTasks{}, messages: &fakeMessages{}}
	router := realtime.NewRouter(stubTokens{}, nil, nil)
	Register(ts.engine, Routes{
		APIPrefix: "/api",
		Session:   middleware.JWT(stubTokens{}, nil),
		Auth:      NewAuthHandler(ts.auth),
		Users:     NewUserHandler(fakeUsers{}),
		Tasks:     NewTaskHandler(ts.tasks),
		Messages:  NewMessageHandler(ts.messages),
		Water:     NewWaterHandler(fakeWater{}),
		Metrics:   NewMetricsHandler(service.NewMetricsService(), checks),
		Realtime:  realtime.NewHandler(router, realtime.HandlerConfig{}, nil, nil),
	})
	return ts
}

func (ts *testServer) do(method, path string, body interface{}, authorized bool) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer access")
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestAuthRoutes(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(http.MethodPost, "/api/auth/register", models.RegisterRequest{Email: "new@example.com", Password: "password1", Name: "New"}, false)
	require.Equal(t, http.StatusCreated, rec.Code)
	var tokens models.TokenResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &tokens))
	assert.Equal(t, int64(3600), tokens.ExpiresIn)

	rec = ts.do(http.MethodPost, "/api/auth/register", models.RegisterRequest{Email: "taken@example.com", Password: "password1", Name: "x"}, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DUPLICATE_IDENTITY", decodeEnvelope(t, rec).Error.Code)

	rec = ts.do(http.MethodPost, "/api/auth/login", models.LoginRequest{Email: "a@example.com", Password: "x"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeEnvelope(t, rec).Error.Code)

	rec = ts.do(http.MethodPost, "/api/auth/refresh", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", decodeEnvelope(t, rec).Error.Code)

	rec = ts.do(http.MethodPost, "/api/auth/refresh", models.RefreshTokenRequest{RefreshToken: "r"}, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutRequiresSession(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(http.MethodPost, "/api/auth/logout", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTHENTICATION_REQUIRED", decodeEnvelope(t, rec).Error.Code)
	assert.Empty(t, ts.auth.loggedOut)

	rec = ts.do(http.MethodPost, "/api/auth/logout", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, string(decodeEnvelope(t, rec).Data))
	assert.Equal(t, testUserID, ts.auth.loggedOut)
}

func TestProtectedRoutesRejectInvalidToken(t *testing.T) {
	ts := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", decodeEnvelope(t, rec).Error.Code)
}

func TestUserRoutes(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(http.MethodGet, "/api/users/profile", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-hash")

	rec = ts.do(http.MethodPut, "/api/users/profile", models.UpdateProfileRequest{Email: "ben@example.com"}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMAIL_IN_USE", decodeEnvelope(t, rec).Error.Code)

	rec = ts.do(http.MethodGet, "/api/users/online", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_ids":["user-1"],"count":1}`, string(decodeEnvelope(t, rec).Data))
}

func TestTaskRoutes(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(http.MethodGet, "/api/tasks?status=pending&category=work", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TaskFilter{UserID: testUserID, Status: models.TaskStatusPending, Category: "work"}, ts.tasks.lastFilter)

	rec = ts.do(http.MethodGet, "/api/tasks/categories", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"personal"}]`, string(decodeEnvelope(t, rec).Data))

	rec = ts.do(http.MethodPost, "/api/tasks", map[string]interface{}{
		"title": "Write report", "category": "work", "due_date": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}, true)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodPost, "/api/tasks", "not an object", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)

	rec = ts.do(http.MethodPut, "/api/tasks/missing", map[string]string{"title": "x"}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", decodeEnvelope(t, rec).Error.Message)

	rec = ts.do(http.MethodDelete, "/api/tasks/t1", nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestMessageRoutes(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(http.MethodGet, "/api/messages?limit=25", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, ts.messages.lastLimit)

	rec = ts.do(http.MethodGet, "/api/messages?limit=lots", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/messages", models.SendMessageRequest{ReceiverID: "u2", Text: "hi"}, true)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodPatch, "/api/messages/m1/sync", nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPatch, "/api/messages/m1/read", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Message not found", decodeEnvelope(t, rec).Error.Message)
}

func TestWaterRoutes(t *testing.T) {
	ts := newTestServer(nil)

	rec := ts.do(http.MethodPost, "/api/water-entries", models.CreateWaterEntryRequest{Amount: 250}, true)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodGet, "/api/water-entries/summary?date=2024-03-10", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2024-03-10","total_ml":750,"entry_count":3}`, string(decodeEnvelope(t, rec).Data))

	rec = ts.do(http.MethodGet, "/api/water-entries/export?format=csv", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="water-entries.csv"`, rec.Header().Get("Content-Disposition"))

	rec = ts.do(http.MethodDelete, "/api/water-entries/w9", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Water entry not found", decodeEnvelope(t, rec).Error.Message)
}

func TestProbeRoutes(t *testing.T) {
	ts := newTestServer(map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/health", nil, false).Code)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/health", nil, false).Code)

	rec := ts.do(http.MethodGet, "/api", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to Life Ease API")

	rec = ts.do(http.MethodGet, "/ready", nil, false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"postgres":"ok","redis":"connection refused"}}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/metrics", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}
