package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	taskdomain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/middleware/ratelimit"
	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "alice"
	bob   = "bob"
)

type testServer struct {
	app   *fiber.App
	tasks *countingTaskPort
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tasks := newStoreTaskPort(t)
	authPort := tokenAuth(alice, bob)
	h := NewHandlers(authPort, tasks, &mockActivityPort{})
	return &testServer{
		app: NewApp(h, authPort, AppOptions{
			AllowedOrigins: []string{"http://localhost:5173"},
		}),
		tasks: tasks,
	}
}

// do sends a JSON request as user (empty for anonymous) and returns the
// status and the raw body.
func do(t *testing.T, app *fiber.App, method, path, user string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer token-"+user)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decodeBody(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (s *testServer) create(t *testing.T, user string, body map[string]any) TaskResponse {
	t.Helper()
	status, raw := do(t, s.app, http.MethodPost, "/api/tasks", user, body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[TaskResponse](t, raw)
}

func TestTaskRoutes_RequireToken(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
		user   string
	}{
		{http.MethodGet, "/api/tasks", ""},
		{http.MethodPost, "/api/tasks", ""},
		{http.MethodPatch, "/api/tasks/some-id", ""},
		{http.MethodDelete, "/api/tasks/some-id", ""},
		{http.MethodGet, "/api/todos", ""},
		{http.MethodDelete, "/api/todos/some-id", ""},
		{http.MethodGet, "/api/tasks", "mallory"},
		{http.MethodGet, "/api/profile", ""},
		{http.MethodGet, "/api/activity", ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s as %q", tt.method, tt.path, tt.user), func(t *testing.T) {
			status, raw := do(t, s.app, tt.method, tt.path, tt.user, map[string]any{"title": "x"})
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "unauthorized", decode[ErrorResponse](t, raw).Error)
		})
	}

	assert.Zero(t, s.tasks.Calls(), "task port must not be reached without a valid token")
}

func TestTaskRoutes_CreateAndList(t *testing.T) {
	s := newTestServer(t)

	first := s.create(t, alice, map[string]any{"title": "Buy milk"})
	second := s.create(t, alice, map[string]any{
		"title":       "Call mom",
		"description": "about Sunday",
		"dueDate":     "2024-03-10",
		"dueTime":     "09:30",
		"dueTimeAmPm": "am",
	})

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, alice, first.Owner)
	assert.Equal(t, "Buy milk", first.Title)
	assert.False(t, first.Completed)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, "AM", second.DueTimeAmPm)

	status, raw := do(t, s.app, http.MethodGet, "/api/tasks", alice, nil)
	require.Equal(t, http.StatusOK, status)

	tasks := decode[[]TaskResponse](t, raw)
	require.Len(t, tasks, 2)
	assert.Equal(t, second.ID, tasks[0].ID, "newest first")
	assert.Equal(t, first.ID, tasks[1].ID)
}

func TestTaskRoutes_EmptyListIsArray(t *testing.T) {
	s := newTestServer(t)

	status, raw := do(t, s.app, http.MethodGet, "/api/tasks", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestTaskRoutes_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{"missing title", map[string]any{"description": "no title"}, "title is required"},
		{"blank title", map[string]any{"title": "   "}, "title is required"},
		{"bad date", map[string]any{"title": "a", "dueDate": "03/10/2024"}, "dueDate"},
		{"bad time", map[string]any{"title": "a", "dueTime": "9.30"}, "dueTime"},
		{"bad period", map[string]any{"title": "a", "dueTimeAmPm": "noon"}, "dueTimeAmPm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			status, raw := do(t, s.app, http.MethodPost, "/api/tasks", alice, tt.body)
			require.Equal(t, http.StatusBadRequest, status)
			body := decode[ErrorResponse](t, raw)
			assert.Contains(t, body.Message, tt.message)
			assert.Equal(t, body.Message, body.Msg)

			_, raw = do(t, s.app, http.MethodGet, "/api/tasks", alice, nil)
			assert.JSONEq(t, `[]`, string(raw), "nothing is persisted")
		})
	}
}

func TestTaskRoutes_LegacyFieldNamesOnTodos(t *testing.T) {
	s := newTestServer(t)

	status, raw := do(t, s.app, http.MethodPost, "/api/todos", alice, map[string]any{
		"text":     "Water plants",
		"date":     "2024-04-01",
		"time":     "07:15",
		"timeAmPm": "PM",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))

	created := decode[TaskResponse](t, raw)
	assert.Equal(t, "Water plants", created.Title)
	assert.Equal(t, "2024-04-01", created.DueDate)
	assert.Equal(t, "07:15", created.DueTime)
	assert.Equal(t, "PM", created.DueTimeAmPm)

	status, raw = do(t, s.app, http.MethodPatch, "/api/todos/"+created.ID, alice, map[string]any{"text": "Water cactus"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Water cactus", decode[TaskResponse](t, raw).Title)

	_, raw = do(t, s.app, http.MethodGet, "/api/tasks", alice, nil)
	assert.Len(t, decode[[]TaskResponse](t, raw), 1, "both prefixes share one store")
}

func TestTaskRoutes_OwnerIsolation(t *testing.T) {
	s := newTestServer(t)
	milk := s.create(t, alice, map[string]any{"title": "Buy milk"})

	status, raw := do(t, s.app, http.MethodPatch, "/api/tasks/"+milk.ID, bob, map[string]any{"title": "Buy beer"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Not authorized", decode[ErrorResponse](t, raw).Msg)

	status, _ = do(t, s.app, http.MethodDelete, "/api/tasks/"+milk.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	_, raw = do(t, s.app, http.MethodGet, "/api/tasks", bob, nil)
	assert.JSONEq(t, `[]`, string(raw))

	_, raw = do(t, s.app, http.MethodGet, "/api/tasks", alice, nil)
	tasks := decode[[]TaskResponse](t, raw)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
}

func TestTaskRoutes_UpdateKeepsProtectedFields(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, alice, map[string]any{"title": "Buy milk", "description": "2 litres"})

	status, raw := do(t, s.app, http.MethodPatch, "/api/tasks/"+created.ID, alice, map[string]any{
		"completed": true,
		"owner":     bob,
		"id":        "forged-id",
		"createdAt": "2000-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, status, string(raw))

	updated := decode[TaskResponse](t, raw)
	assert.True(t, updated.Completed)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, alice, updated.Owner)
	assert.Equal(t, "Buy milk", updated.Title)
	assert.Equal(t, "2 litres", updated.Description)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	// Completed tasks stay editable on the server.
	status, raw = do(t, s.app, http.MethodPatch, "/api/tasks/"+created.ID, alice, map[string]any{"title": "Buy oat milk"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Buy oat milk", decode[TaskResponse](t, raw).Title)
}

func TestTaskRoutes_UpdateErrors(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, alice, map[string]any{"title": "Buy milk"})

	tests := []struct {
		name   string
		user   string
		id     string
		body   map[string]any
		status int
	}{
		{"unknown id", alice, "does-not-exist", map[string]any{"title": "x"}, http.StatusNotFound},
		{"unknown id for other user", bob, "does-not-exist", map[string]any{"title": "x"}, http.StatusNotFound},
		{"blank title", alice, created.ID, map[string]any{"title": " "}, http.StatusBadRequest},
		{"forbidden wins over validation", bob, created.ID, map[string]any{"title": " "}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := do(t, s.app, http.MethodPatch, "/api/tasks/"+tt.id, tt.user, tt.body)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestTaskRoutes_UpdateMalformedBody(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, alice, map[string]any{"title": "Buy milk"})
	before := s.tasks.Calls()

	// A body that is not a JSON object is rejected before any task lookup.
	for _, user := range []string{alice, bob} {
		status, raw := do(t, s.app, http.MethodPatch, "/api/tasks/"+created.ID, user, "not an object")
		assert.Equal(t, http.StatusBadRequest, status, user)
		assert.Equal(t, "Invalid request body", decode[ErrorResponse](t, raw).Message)
	}
	assert.Equal(t, before, s.tasks.Calls())
}

func TestTaskRoutes_Delete(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, alice, map[string]any{"title": "Buy milk"})

	status, raw := do(t, s.app, http.MethodDelete, "/api/tasks/"+created.ID, alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"msg":"Task removed"}`, string(raw))

	status, _ = do(t, s.app, http.MethodDelete, "/api/tasks/"+created.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, status)

	_, raw = do(t, s.app, http.MethodGet, "/api/tasks", alice, nil)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestTaskRoutes_StoreFailureIsGeneric(t *testing.T) {
	authPort := tokenAuth(alice)
	failure := fmt.Errorf("list-tasks service call failed: %w", taskdomain.ErrStoreUnavailable)
	app := NewApp(NewHandlers(authPort, failingTaskPort{err: failure}, &mockActivityPort{}), authPort, AppOptions{})

	status, raw := do(t, app, http.MethodGet, "/api/tasks", alice, nil)
	require.Equal(t, http.StatusInternalServerError, status)

	body := decode[ErrorResponse](t, raw)
	assert.Equal(t, "Server Error", body.Msg)
	assert.NotContains(t, string(raw), "store")
}

func TestAuthRoutes_Register(t *testing.T) {
	authPort := &mockAuthPort{
		registerFunc: func(_ context.Context, req *auth.RegisterRequest) (*auth.UserResponse, error) {
			if req.Email == "taken@example.com" {
				return nil, auth.ErrUserExists
			}
			if len(req.Password) < 8 {
				return nil, auth.ErrWeakPassword
			}
			return &auth.UserResponse{ID: "u-1", Email: req.Email, Username: req.Username, CreatedAt: testCreatedAt}, nil
		},
	}
	app := NewApp(NewHandlers(authPort, failingTaskPort{}, &mockActivityPort{}), authPort, AppOptions{})

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"created", map[string]any{"email": "new@example.com", "password": "password123", "username": "newbie"}, http.StatusCreated},
		{"duplicate", map[string]any{"email": "taken@example.com", "password": "password123"}, http.StatusConflict},
		{"weak password", map[string]any{"email": "new@example.com", "password": "short"}, http.StatusBadRequest},
		{"missing email", map[string]any{"password": "password123"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := do(t, app, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, tt.status, status, string(raw))
			if tt.status == http.StatusCreated {
				user := decode[UserResponse](t, raw)
				assert.Equal(t, "u-1", user.ID)
				assert.Equal(t, "newbie", user.Username)
				assert.True(t, user.CreatedAt.Equal(testCreatedAt))
			}
		})
	}
}

func TestAuthRoutes_Login(t *testing.T) {
	authPort := &mockAuthPort{
		loginFunc: func(_ context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
			if req.Password != "password123" {
				return nil, auth.ErrInvalidCredentials
			}
			return &auth.LoginResponse{
				TokenResponse: auth.TokenResponse{
					AccessToken:  "access",
					RefreshToken: "refresh",
					ExpiresIn:    3600,
					TokenType:    "Bearer",
				},
				User: auth.UserResponse{ID: "u-1", Email: req.Email},
			}, nil
		},
	}
	app := NewApp(NewHandlers(authPort, failingTaskPort{}, &mockActivityPort{}), authPort, AppOptions{})

	status, raw := do(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "a@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, status, string(raw))

	body := decode[LoginResponse](t, raw)
	assert.Equal(t, "access", body.AccessToken)
	assert.Equal(t, "access", body.Token)
	assert.Equal(t, "refresh", body.RefreshToken)
	assert.Equal(t, int64(3600), body.ExpiresIn)
	assert.Equal(t, "u-1", body.User.ID)
	assert.Equal(t, "a@example.com", body.User.Email)

	status, raw = do(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "a@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password", decode[ErrorResponse](t, raw).Msg)
}

func TestAuthRoutes_Refresh(t *testing.T) {
	authPort := &mockAuthPort{
		refreshFunc: func(_ context.Context, refreshToken string) (*auth.TokenResponse, error) {
			if refreshToken != "good" {
				return nil, auth.ErrInvalidToken
			}
			return &auth.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", TokenType: "Bearer"}, nil
		},
	}
	app := NewApp(NewHandlers(authPort, failingTaskPort{}, &mockActivityPort{}), authPort, AppOptions{})

	status, raw := do(t, app, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refresh_token": "good"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "new-access", decode[TokenResponse](t, raw).AccessToken)

	status, _ = do(t, app, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refresh_token": "bad"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, app, http.MethodPost, "/api/auth/refresh", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProfile(t *testing.T) {
	s := newTestServer(t)

	status, raw := do(t, s.app, http.MethodGet, "/api/profile", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, alice, decode[UserResponse](t, raw).ID)
}

func TestActivity_ScopedToCaller(t *testing.T) {
	authPort := tokenAuth(alice, bob)
	feed := &mockActivityPort{entries: map[string][]activity.Entry{
		alice: {
			{Kind: activity.KindCompleted, TaskID: "t2", Title: "Call mom"},
			{Kind: activity.KindCreated, TaskID: "t1", Title: "Buy milk"},
		},
	}}
	app := NewApp(NewHandlers(authPort, failingTaskPort{}, feed), authPort, AppOptions{})

	status, raw := do(t, app, http.MethodGet, "/api/activity?limit=1", alice, nil)
	require.Equal(t, http.StatusOK, status)
	body := decode[ActivityResponse](t, raw)
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "t2", body.Entries[0].TaskID)

	_, raw = do(t, app, http.MethodGet, "/api/activity", bob, nil)
	assert.Empty(t, decode[ActivityResponse](t, raw).Entries)
}

func TestHealth(t *testing.T) {
	authPort := tokenAuth()
	healthy := staticChecker{name: "task", status: mono.HealthStatus{Healthy: true, Message: "operational"}}
	broken := staticChecker{name: "auth", status: mono.HealthStatus{Healthy: false, Message: "database ping failed"}}

	tests := []struct {
		name     string
		checkers []HealthChecker
		status   int
		state    string
	}{
		{"all healthy", []HealthChecker{healthy}, http.StatusOK, "healthy"},
		{"one unhealthy", []HealthChecker{healthy, broken}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := NewApp(NewHandlers(authPort, failingTaskPort{}, &mockActivityPort{}, tt.checkers...), authPort, AppOptions{})

			status, raw := do(t, app, http.MethodGet, "/health", "", nil)
			assert.Equal(t, tt.status, status)

			body := decode[map[string]any](t, raw)
			assert.Equal(t, tt.state, body["status"])
			assert.Len(t, body["modules"], len(tt.checkers))
		})
	}
}

func TestCORS_AllowList(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		origin string
		want   string
	}{
		{"http://localhost:5173", "http://localhost:5173"},
		{"http://evil.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", tt.origin)

			resp, err := s.app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.want, resp.Header.Get("Access-Control-Allow-Origin"))
		})
	}
}

// fixedLimiter admits the first allow requests per key.
type fixedLimiter struct {
	mu    sync.Mutex
	allow int
	seen  map[string]int
}

func (l *fixedLimiter) Allow(_ context.Context, key string) (*ratelimit.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = map[string]int{}
	}
	l.seen[key]++
	allowed := l.seen[key] <= l.allow
	return &ratelimit.Result{Allowed: allowed, Remaining: max(l.allow-l.seen[key], 0), RetryAfter: 30 * time.Second}, nil
}

func (l *fixedLimiter) Config() ratelimit.Config {
	return ratelimit.Config{RequestsPerWindow: l.allow, WindowSize: time.Minute}
}

func TestCredentialRoutes_RateLimited(t *testing.T) {
	authPort := &mockAuthPort{
		loginFunc: func(context.Context, *auth.LoginRequest) (*auth.LoginResponse, error) {
			return nil, auth.ErrInvalidCredentials
		},
		refreshFunc: func(context.Context, string) (*auth.TokenResponse, error) {
			return nil, auth.ErrInvalidToken
		},
	}
	app := NewApp(NewHandlers(authPort, failingTaskPort{}, &mockActivityPort{}), authPort, AppOptions{
		Limiter: &fixedLimiter{allow: 2},
	})
	creds := map[string]any{"email": "a@example.com", "password": "guess-guess"}

	for i := 0; i < 2; i++ {
		status, _ := do(t, app, http.MethodPost, "/api/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, status)
	}

	status, raw := do(t, app, http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "too_many_requests", decode[ErrorResponse](t, raw).Error)

	// Refresh is not a credential route.
	for i := 0; i < 3; i++ {
		status, _ = do(t, app, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refresh_token": "x"})
		assert.Equal(t, http.StatusUnauthorized, status)
	}
}
