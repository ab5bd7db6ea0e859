package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ConnectivityMessage is shown when a request got no response at all.
const ConnectivityMessage = "Could not connect to the server. Please check your network connection."

var (
	// ErrSessionExpired is returned when the server rejected the token. The
	// session has already been reset to the signed-out state.
	ErrSessionExpired = errors.New("session expired, please sign in again")
	// ErrNotSignedIn is returned by task operations without a token.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrUnreachable wraps transport failures where no response was received.
	ErrUnreachable = errors.New("server unreachable")
	// ErrUnknownTask is returned for ids that are not in the local list.
	ErrUnknownTask = errors.New("task is not in the list")
	// ErrEditLocked is returned when editing a completed task.
	ErrEditLocked = errors.New("completed tasks cannot be edited")
	// ErrEditInProgress is returned when another task is already being edited.
	ErrEditInProgress = errors.New("another task is being edited")
	// ErrNotEditing is returned by SaveEdit when no task is in edit mode.
	ErrNotEditing = errors.New("no task is being edited")
	// ErrTitleRequired is returned before sending a blank title.
	ErrTitleRequired = errors.New("title cannot be empty")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	err     error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.err
}

// ErrorMessage returns the text to show for err: the server-provided message
// when there is one, a connectivity message when no response was received,
// and the raw error text otherwise.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrUnreachable) {
		return ConnectivityMessage
	}
	return err.Error()
}

// newAPIError reads the message out of an error body. The keys are tried in
// the order the server fills them.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	message := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, candidate := range []string{payload.Msg, payload.Message, payload.Error} {
			if strings.TrimSpace(candidate) != "" {
				message = candidate
				break
			}
		}
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{Status: status, Message: message}
}
