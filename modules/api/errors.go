package api

import (
	"errors"
	"log"
	"strings"

	taskdomain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/modules/auth"
	"github.com/gofiber/fiber/v2"
)

func writeError(c *fiber.Ctx, status int, kind, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Error:   kind,
		Message: message,
		Msg:     message,
	})
}

// handleTaskError maps task sentinels to status codes. Anything unrecognised
// is logged and answered with a generic 500.
func handleTaskError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, taskdomain.ErrValidation):
		return writeError(c, fiber.StatusBadRequest, "bad_request", validationMessage(err))
	case errors.Is(err, taskdomain.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "forbidden", "Not authorized")
	case errors.Is(err, taskdomain.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "not_found", "Task not found")
	default:
		log.Printf("[api] Internal error: %v", err)
		return writeError(c, fiber.StatusInternalServerError, "internal_error", "Server Error")
	}
}

// handleAuthError maps auth sentinels to user-friendly responses without
// exposing internals.
func handleAuthError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return writeError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid email or password")
	case errors.Is(err, auth.ErrUserExists):
		return writeError(c, fiber.StatusConflict, "conflict", "User with this email already exists")
	case errors.Is(err, auth.ErrInvalidEmail):
		return writeError(c, fiber.StatusBadRequest, "bad_request", "Invalid email format")
	case errors.Is(err, auth.ErrWeakPassword):
		return writeError(c, fiber.StatusBadRequest, "bad_request", "Password must be at least 8 characters")
	case errors.Is(err, auth.ErrPasswordTooLong):
		return writeError(c, fiber.StatusBadRequest, "bad_request", "Password must be at most 72 characters")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return writeError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid or expired refresh token")
	default:
		log.Printf("[api] Internal error: %v", err)
		return writeError(c, fiber.StatusInternalServerError, "internal_error", "An internal error occurred")
	}
}

// validationMessage strips the transport prefix from a validation error,
// leaving "validation failed: <detail>".
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, taskdomain.ErrValidation.Error()); i >= 0 {
		return msg[i:]
	}
	return taskdomain.ErrValidation.Error()
}

// customErrorHandler handles errors returned from handlers and Fiber itself.
func customErrorHandler(c *fiber.Ctx, err error) error {
	var e *fiber.Error
	if errors.As(err, &e) {
		return writeError(c, e.Code, "server_error", e.Message)
	}
	log.Printf("[api] Unhandled error: %v", err)
	return writeError(c, fiber.StatusInternalServerError, "server_error", "Internal Server Error")
}

func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
