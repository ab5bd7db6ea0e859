package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/task-manager/database"
	taskdomain "github.com/example/task-manager/domain/task"
	domain "github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	"github.com/go-monolith/mono"
)

// mockAuthPort implements auth.AuthPort for testing. Unset funcs fail.
type mockAuthPort struct {
	registerFunc      func(ctx context.Context, req *auth.RegisterRequest) (*auth.UserResponse, error)
	loginFunc         func(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error)
	refreshFunc       func(ctx context.Context, refreshToken string) (*auth.TokenResponse, error)
	validateTokenFunc func(ctx context.Context, token string) (*domain.Claims, error)
	getUserFunc       func(ctx context.Context, userID string) (*auth.UserResponse, error)
}

var _ auth.AuthPort = (*mockAuthPort)(nil)

var errNotImplemented = errors.New("not implemented")

func (m *mockAuthPort) Register(ctx context.Context, req *auth.RegisterRequest) (*auth.UserResponse, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) Refresh(ctx context.Context, refreshToken string) (*auth.TokenResponse, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, refreshToken)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	if m.validateTokenFunc != nil {
		return m.validateTokenFunc(ctx, token)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) GetUser(ctx context.Context, userID string) (*auth.UserResponse, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

// tokenAuth accepts "token-<user>" for the listed users.
func tokenAuth(users ...string) *mockAuthPort {
	known := make(map[string]string, len(users))
	for _, u := range users {
		known["token-"+u] = u
	}
	return &mockAuthPort{
		validateTokenFunc: func(_ context.Context, token string) (*domain.Claims, error) {
			userID, ok := known[token]
			if !ok {
				return nil, auth.ErrInvalidToken
			}
			return &domain.Claims{UserID: userID, Email: userID + "@example.com"}, nil
		},
		getUserFunc: func(_ context.Context, userID string) (*auth.UserResponse, error) {
			return &auth.UserResponse{ID: userID, Email: userID + "@example.com"}, nil
		},
	}
}

// countingTaskPort records how often the task port was reached.
type countingTaskPort struct {
	task.TaskPort
	mu    sync.Mutex
	calls int
}

func (p *countingTaskPort) hit() {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
}

func (p *countingTaskPort) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *countingTaskPort) ListTasks(ctx context.Context, callerID string) (*task.ListTasksResponse, error) {
	p.hit()
	return p.TaskPort.ListTasks(ctx, callerID)
}

func (p *countingTaskPort) CreateTask(ctx context.Context, req *task.CreateTaskRequest) (*task.TaskResponse, error) {
	p.hit()
	return p.TaskPort.CreateTask(ctx, req)
}

func (p *countingTaskPort) UpdateTask(ctx context.Context, req *task.UpdateTaskRequest) (*task.TaskResponse, error) {
	p.hit()
	return p.TaskPort.UpdateTask(ctx, req)
}

func (p *countingTaskPort) DeleteTask(ctx context.Context, callerID, taskID string) error {
	p.hit()
	return p.TaskPort.DeleteTask(ctx, callerID, taskID)
}

// failingTaskPort fails every call with err.
type failingTaskPort struct {
	err error
}

func (p failingTaskPort) ListTasks(context.Context, string) (*task.ListTasksResponse, error) {
	return nil, p.err
}

func (p failingTaskPort) CreateTask(context.Context, *task.CreateTaskRequest) (*task.TaskResponse, error) {
	return nil, p.err
}

func (p failingTaskPort) UpdateTask(context.Context, *task.UpdateTaskRequest) (*task.TaskResponse, error) {
	return nil, p.err
}

func (p failingTaskPort) DeleteTask(context.Context, string, string) error {
	return p.err
}

// mockActivityPort serves a fixed set of entries per caller.
type mockActivityPort struct {
	entries map[string][]activity.Entry
}

func (m *mockActivityPort) RecentActivity(_ context.Context, callerID string, limit int) (*activity.RecentActivityResponse, error) {
	entries := m.entries[callerID]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	return &activity.RecentActivityResponse{Entries: entries, Total: len(entries)}, nil
}

// staticChecker reports a fixed health status.
type staticChecker struct {
	name   string
	status mono.HealthStatus
}

func (c staticChecker) Name() string {
	return c.name
}

func (c staticChecker) Health(context.Context) mono.HealthStatus {
	return c.status
}

// newStoreTaskPort returns the real task service over an in-memory store.
func newStoreTaskPort(t *testing.T) *countingTaskPort {
	t.Helper()

	db, err := database.Open(":memory:", false, &taskdomain.Task{})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	service := task.NewTaskService(task.NewTaskRepository(db), nil)
	return &countingTaskPort{TaskPort: task.NewServicePort(service)}
}

var testCreatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
