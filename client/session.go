// Package client is the HTTP client side of the task manager. A Session
// holds the caller's token and a local copy of their task list, and changes
// that copy only after the server confirmed the change.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// TasksPath is the collection path used by the session.
const TasksPath = "/api/tasks"

// Task mirrors the server representation.
type Task struct {
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

// Draft is the body of a new task.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	DueTime     string `json:"dueTime,omitempty"`
	DueTimeAmPm string `json:"dueTimeAmPm,omitempty"`
}

// Changes is a partial update; nil fields are not sent.
type Changes struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	DueTime     *string `json:"dueTime,omitempty"`
	DueTimeAmPm *string `json:"dueTimeAmPm,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// User is the signed-in account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) {
		s.http = c
	}
}

// WithToken starts the session with an existing access token.
func WithToken(token string) Option {
	return func(s *Session) {
		s.token = token
	}
}

// Session is safe for concurrent use. Network calls run without holding the
// lock; local state is changed only once a response arrived.
type Session struct {
	baseURL string
	http    *http.Client

	mu        sync.RWMutex
	token     string
	user      User
	tasks     []Task
	editingID string
}

// New creates a session talking to the server at baseURL.
func New(baseURL string, opts ...Option) *Session {
	s := &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticated reports whether the session holds a token.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the current access token, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the account that signed in, if known.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Tasks returns a copy of the local list, newest first.
func (s *Session) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// EditingID returns the id of the task in edit mode, or "".
func (s *Session) EditingID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editingID
}

// Register creates an account. It does not sign in.
func (s *Session) Register(ctx context.Context, email, password, username string) error {
	body := map[string]string{"email": email, "password": password, "username": username}
	return s.do(ctx, http.MethodPost, "/api/auth/register", false, body, nil)
}

// Login exchanges credentials for a token and resets the local state.
func (s *Session) Login(ctx context.Context, email, password string) error {
	var resp struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
		User        User   `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := s.do(ctx, http.MethodPost, "/api/auth/login", false, body, &resp); err != nil {
		return err
	}

	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	if token == "" {
		return fmt.Errorf("login response carried no token")
	}

	s.mu.Lock()
	s.token = token
	s.user = resp.User
	s.tasks = nil
	s.editingID = ""
	s.mu.Unlock()
	return nil
}

// Logout discards the token and all local state.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Load replaces the local list with the server's.
func (s *Session) Load(ctx context.Context) error {
	var tasks []Task
	if err := s.do(ctx, http.MethodGet, TasksPath, true, nil, &tasks); err != nil {
		return err
	}
	if tasks == nil {
		tasks = []Task{}
	}

	s.mu.Lock()
	s.tasks = tasks
	if s.editingID != "" && indexOf(s.tasks, s.editingID) < 0 {
		s.editingID = ""
	}
	s.mu.Unlock()
	return nil
}

// Add creates a task and puts it at the top of the list.
func (s *Session) Add(ctx context.Context, draft Draft) (Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return Task{}, ErrTitleRequired
	}

	var created Task
	if err := s.do(ctx, http.MethodPost, TasksPath, true, draft, &created); err != nil {
		return Task{}, err
	}

	s.mu.Lock()
	s.tasks = append([]Task{created}, s.tasks...)
	s.mu.Unlock()
	return created, nil
}

// Update sends a partial update and stores the server's version of the task.
func (s *Session) Update(ctx context.Context, id string, changes Changes) (Task, error) {
	if changes.Title != nil && strings.TrimSpace(*changes.Title) == "" {
		return Task{}, ErrTitleRequired
	}

	var updated Task
	if err := s.do(ctx, http.MethodPatch, TasksPath+"/"+url.PathEscape(id), true, changes, &updated); err != nil {
		return Task{}, err
	}

	s.mu.Lock()
	if i := indexOf(s.tasks, id); i >= 0 {
		s.tasks[i] = updated
	}
	s.mu.Unlock()
	return updated, nil
}

// Toggle flips the completion flag of a listed task.
func (s *Session) Toggle(ctx context.Context, id string) (Task, error) {
	current, ok := s.find(id)
	if !ok {
		return Task{}, ErrUnknownTask
	}
	completed := !current.Completed
	return s.Update(ctx, id, Changes{Completed: &completed})
}

// Remove deletes a task and drops it from the list.
func (s *Session) Remove(ctx context.Context, id string) error {
	if err := s.do(ctx, http.MethodDelete, TasksPath+"/"+url.PathEscape(id), true, nil, nil); err != nil {
		return err
	}

	s.mu.Lock()
	if i := indexOf(s.tasks, id); i >= 0 {
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	}
	if s.editingID == id {
		s.editingID = ""
	}
	s.mu.Unlock()
	return nil
}

// BeginEdit puts one task in edit mode. Completed tasks are locked, and only
// one task can be edited at a time.
func (s *Session) BeginEdit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.tasks, id)
	if i < 0 {
		return ErrUnknownTask
	}
	if s.tasks[i].Completed {
		return ErrEditLocked
	}
	if s.editingID != "" && s.editingID != id {
		return ErrEditInProgress
	}
	s.editingID = id
	return nil
}

// CancelEdit leaves edit mode without sending anything.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	s.editingID = ""
	s.mu.Unlock()
}

// SaveEdit sends changes for the task in edit mode. Edit mode ends only when
// the server accepted them.
func (s *Session) SaveEdit(ctx context.Context, changes Changes) (Task, error) {
	id := s.EditingID()
	if id == "" {
		return Task{}, ErrNotEditing
	}

	updated, err := s.Update(ctx, id, changes)
	if err != nil {
		return Task{}, err
	}

	s.mu.Lock()
	if s.editingID == id {
		s.editingID = ""
	}
	s.mu.Unlock()
	return updated, nil
}

func (s *Session) find(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.tasks, id); i >= 0 {
		return s.tasks[i], true
	}
	return Task{}, false
}

func (s *Session) resetLocked() {
	s.token = ""
	s.user = User{}
	s.tasks = nil
	s.editingID = ""
}

// do performs one request. For authenticated requests a 401 or 403 ends the
// session before the error is returned.
func (s *Session) do(ctx context.Context, method, path string, authenticated bool, in, out any) error {
	token := s.Token()
	if authenticated && token == "" {
		return ErrNotSignedIn
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := newAPIError(resp.StatusCode, raw)
		if authenticated && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			s.mu.Lock()
			if s.token == token {
				s.resetLocked()
			}
			s.mu.Unlock()
			apiErr.err = ErrSessionExpired
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func indexOf(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
