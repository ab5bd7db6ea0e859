package api

import (
	"log"
	"strings"

	domain "github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/modules/auth"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/singleflight"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
)

// AuthMiddleware rejects requests without a valid access token before any
// handler runs, and stores the verified claims for the handlers.
// Concurrent requests carrying the same token share one validation call.
func AuthMiddleware(authPort auth.AuthPort) fiber.Handler {
	var inflight singleflight.Group

	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return writeError(c, fiber.StatusUnauthorized, "unauthorized", "Authorization header is required")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return writeError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid authorization header format. Use: Bearer <token>")
		}

		// Fiber reuses header memory after the handler returns.
		token := strings.Clone(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
		if token == "" {
			return writeError(c, fiber.StatusUnauthorized, "unauthorized", "Token is required")
		}

		val, err, _ := inflight.Do(token, func() (any, error) {
			return authPort.ValidateToken(c.UserContext(), token)
		})
		if err != nil && !isCredentialError(err) {
			// The token may still be good; keep the client signed in.
			log.Printf("[api] Token validation unavailable: %v", err)
			return writeError(c, fiber.StatusInternalServerError, "internal_error", "Server Error")
		}
		claims, _ := val.(*domain.Claims)
		if err != nil || claims == nil || claims.UserID == "" {
			return writeError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid or expired token")
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// callerID returns the authenticated user id stored by AuthMiddleware.
func callerID(c *fiber.Ctx) (string, bool) {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	if !ok || claims.UserID == "" {
		return "", false
	}
	return claims.UserID, true
}
