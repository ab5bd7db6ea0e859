package api

import (
	"context"
	"strings"

	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
)

// HealthChecker is implemented by modules that report their own health.
type HealthChecker interface {
	Name() string
	Health(ctx context.Context) mono.HealthStatus
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	authPort     auth.AuthPort
	taskPort     task.TaskPort
	activityPort activity.ActivityPort
	checkers     []HealthChecker
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, taskPort task.TaskPort, activityPort activity.ActivityPort, checkers ...HealthChecker) *Handlers {
	return &Handlers{
		authPort:     authPort,
		taskPort:     taskPort,
		activityPort: activityPort,
		checkers:     checkers,
	}
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return writeError(c, fiber.StatusBadRequest, "bad_request", "Email and password are required")
	}

	user, err := h.authPort.Register(c.UserContext(), &auth.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return writeError(c, fiber.StatusBadRequest, "bad_request", "Email and password are required")
	}

	resp, err := h.authPort.Login(c.UserContext(), &auth.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(LoginResponse{
		TokenResponse: toTokenResponse(&resp.TokenResponse),
		Token:         resp.AccessToken,
		User:          toUserResponse(&resp.User),
	})
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.RefreshToken == "" {
		return writeError(c, fiber.StatusBadRequest, "bad_request", "Refresh token is required")
	}

	tokens, err := h.authPort.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		if isCredentialError(err) {
			return writeError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid or expired refresh token")
		}
		return handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toTokenResponse(tokens))
}

// Profile returns the current user's account.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return writeError(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
	}

	user, err := h.authPort.GetUser(c.UserContext(), userID)
	if err != nil {
		if isCredentialError(err) {
			return writeError(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
		}
		return handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toUserResponse(user))
}

// ListTasks returns the caller's tasks, newest first.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return writeError(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
	}

	resp, err := h.taskPort.ListTasks(c.UserContext(), userID)
	if err != nil {
		return handleTaskError(c, err)
	}

	tasks := make([]TaskResponse, 0, len(resp.Tasks))
	for i := range resp.Tasks {
		tasks = append(tasks, toTaskResponse(&resp.Tasks[i]))
	}
	return c.Status(fiber.StatusOK).JSON(tasks)
}

// CreateTask stores a new task owned by the caller.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return writeError(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	created, err := h.taskPort.CreateTask(c.UserContext(), req.toServiceRequest(userID))
	if err != nil {
		return handleTaskError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toTaskResponse(created))
}

// UpdateTask applies a partial update to one of the caller's tasks.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return writeError(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	updated, err := h.taskPort.UpdateTask(c.UserContext(), req.toServiceRequest(userID, c.Params("id")))
	if err != nil {
		return handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(toTaskResponse(updated))
}

// DeleteTask removes one of the caller's tasks.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return writeError(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
	}

	if err := h.taskPort.DeleteTask(c.UserContext(), userID, c.Params("id")); err != nil {
		return handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{Msg: "Task removed"})
}

// Activity returns the caller's recent task activity.
func (h *Handlers) Activity(c *fiber.Ctx) error {
	userID, ok := callerID(c)
	if !ok {
		return writeError(c, fiber.StatusUnauthorized, "unauthorized", "User not authenticated")
	}

	resp, err := h.activityPort.RecentActivity(c.UserContext(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return handleTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(ActivityResponse{
		Entries: resp.Entries,
		Total:   resp.Total,
	})
}

// Health reports the API status and the health of the storage modules.
func (h *Handlers) Health(c *fiber.Ctx) error {
	healthy := true
	modules := make(fiber.Map, len(h.checkers))
	for _, checker := range h.checkers {
		status := checker.Health(c.UserContext())
		if !status.Healthy {
			healthy = false
		}
		modules[checker.Name()] = fiber.Map{
			"healthy": status.Healthy,
			"message": status.Message,
		}
	}

	code := fiber.StatusOK
	state := "healthy"
	if !healthy {
		code = fiber.StatusServiceUnavailable
		state = "degraded"
	}
	return c.Status(code).JSON(fiber.Map{
		"status":  state,
		"module":  "api",
		"modules": modules,
	})
}

func isCredentialError(err error) bool {
	return errorsIsAny(err, auth.ErrInvalidToken, auth.ErrExpiredToken, auth.ErrInvalidCredentials, auth.ErrUserNotFound)
}

func toUserResponse(u *auth.UserResponse) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

func toTokenResponse(t *auth.TokenResponse) TokenResponse {
	return TokenResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    t.ExpiresIn,
		TokenType:    t.TokenType,
	}
}
