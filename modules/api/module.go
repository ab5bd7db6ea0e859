package api

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/middleware/ratelimit"
	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

// APIModule is the HTTP API module (driving adapter).
type APIModule struct {
	app          *fiber.App
	cfg          *config.Config
	authPort     auth.AuthPort
	taskPort     task.TaskPort
	activityPort activity.ActivityPort
	checkers     []HealthChecker
	redis        *redis.Client
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule. checkers are reported by GET /health.
func NewModule(cfg *config.Config, checkers ...HealthChecker) *APIModule {
	return &APIModule{
		cfg:      cfg,
		checkers: checkers,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authPort = auth.NewAuthAdapter(container)
	case "task":
		m.taskPort = task.NewTaskAdapter(container)
	case "activity":
		m.activityPort = activity.NewActivityAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(ctx context.Context) error {
	if m.authPort == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.taskPort == nil {
		return fmt.Errorf("task dependency not set")
	}
	if m.activityPort == nil {
		return fmt.Errorf("activity dependency not set")
	}

	var limiter ratelimit.Limiter
	if addr := m.cfg.RateLimit.RedisAddr; addr != "" {
		m.redis = redis.NewClient(&redis.Options{Addr: addr})
		if err := m.redis.Ping(ctx).Err(); err != nil {
			log.Printf("[api] Warning: Redis at %s unreachable, credential rate limiting fails open: %v", addr, err)
		}
		limiter = ratelimit.NewSlidingWindowLimiter(m.redis, ratelimit.Config{
			RequestsPerWindow: m.cfg.RateLimit.Limit,
			WindowSize:        m.cfg.RateLimit.Window,
		}, "taskmanager:ratelimit:")
	}

	handlers := NewHandlers(m.authPort, m.taskPort, m.activityPort, m.checkers...)
	m.app = NewApp(handlers, m.authPort, AppOptions{
		AllowedOrigins: m.cfg.AllowedOrigins(),
		Limiter:        limiter,
		AccessLog:      true,
	})

	addr := m.cfg.ListenAddr()
	go func() {
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.redis != nil {
		if err := m.redis.Close(); err != nil {
			log.Printf("[api] Error closing Redis client: %v", err)
		}
	}
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	if deadline, ok := ctx.Deadline(); ok {
		return m.app.ShutdownWithTimeout(time.Until(deadline))
	}
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(ctx context.Context) mono.HealthStatus {
	details := map[string]any{
		"addr":          m.cfg.ListenAddr(),
		"rate_limiting": m.redis != nil,
	}
	if m.redis != nil {
		if err := m.redis.Ping(ctx).Err(); err != nil {
			details["redis"] = err.Error()
		} else {
			details["redis"] = "ok"
		}
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: details,
	}
}

// AppOptions tunes NewApp.
type AppOptions struct {
	AllowedOrigins []string
	// Limiter guards the credential endpoints; nil disables limiting.
	Limiter   ratelimit.Limiter
	AccessLog bool
}

// NewApp builds the Fiber application with every route mounted.
func NewApp(h *Handlers, authPort auth.AuthPort, opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(opts.AllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	app.Get("/health", h.Health)

	api := app.Group("/api")

	credentials := func(handler fiber.Handler) []fiber.Handler {
		if opts.Limiter == nil {
			return []fiber.Handler{handler}
		}
		return []fiber.Handler{ratelimit.IPRateLimit(opts.Limiter), handler}
	}

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", credentials(h.Register)...)
	authRoutes.Post("/login", credentials(h.Login)...)
	authRoutes.Post("/refresh", h.Refresh)

	requireAuth := AuthMiddleware(authPort)
	api.Get("/profile", requireAuth, h.Profile)
	api.Get("/activity", requireAuth, h.Activity)

	// /api/todos is the path older clients use.
	for _, prefix := range []string{"/tasks", "/todos"} {
		tasks := api.Group(prefix, requireAuth)
		tasks.Get("/", h.ListTasks)
		tasks.Post("/", h.CreateTask)
		tasks.Patch("/:id", h.UpdateTask)
		tasks.Delete("/:id", h.DeleteTask)
	}

	return app
}
