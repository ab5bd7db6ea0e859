package api

import (
	"time"

	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/task"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// LoginResponse is a token pair plus the signed-in user. Token repeats the
// access token for clients that read a single field.
type LoginResponse struct {
	TokenResponse
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse represents a user response.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateTaskRequest is the POST body. The short field names are accepted as
// aliases of the long ones.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Date        string `json:"date"`
	DueTime     string `json:"dueTime"`
	Time        string `json:"time"`
	DueTimeAmPm string `json:"dueTimeAmPm"`
	TimeAmPm    string `json:"timeAmPm"`
}

// UpdateTaskRequest is the PATCH body. Absent fields are left untouched;
// fields outside this set (owner, id, timestamps) are ignored.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Text        *string `json:"text"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Date        *string `json:"date"`
	DueTime     *string `json:"dueTime"`
	Time        *string `json:"time"`
	DueTimeAmPm *string `json:"dueTimeAmPm"`
	TimeAmPm    *string `json:"timeAmPm"`
	Completed   *bool   `json:"completed"`
}

// TaskResponse is the HTTP representation of a task.
type TaskResponse struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     string    `json:"dueDate,omitempty"`
	DueTime     string    `json:"dueTime,omitempty"`
	DueTimeAmPm string    `json:"dueTimeAmPm,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MessageResponse carries a confirmation message.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// ActivityResponse lists the caller's recent activity.
type ActivityResponse struct {
	Entries []activity.Entry `json:"entries"`
	Total   int              `json:"total"`
}

// ErrorResponse represents an error response. Msg repeats Message for
// clients that read the shorter key.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (r CreateTaskRequest) toServiceRequest(callerID string) *task.CreateTaskRequest {
	return &task.CreateTaskRequest{
		CallerID:    callerID,
		Title:       firstNonEmpty(r.Title, r.Text),
		Description: r.Description,
		DueDate:     firstNonEmpty(r.DueDate, r.Date),
		DueTime:     firstNonEmpty(r.DueTime, r.Time),
		DueTimeAmPm: firstNonEmpty(r.DueTimeAmPm, r.TimeAmPm),
	}
}

func (r UpdateTaskRequest) toServiceRequest(callerID, taskID string) *task.UpdateTaskRequest {
	return &task.UpdateTaskRequest{
		CallerID:    callerID,
		TaskID:      taskID,
		Title:       firstPresent(r.Title, r.Text),
		Description: r.Description,
		DueDate:     firstPresent(r.DueDate, r.Date),
		DueTime:     firstPresent(r.DueTime, r.Time),
		DueTimeAmPm: firstPresent(r.DueTimeAmPm, r.TimeAmPm),
		Completed:   r.Completed,
	}
}

func toTaskResponse(t *task.TaskResponse) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Owner:       t.Owner,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		DueTime:     t.DueTime,
		DueTimeAmPm: t.DueTimeAmPm,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPresent(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
