package main

import (
	"context"
	"log"
	"os"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/modules/activity"
	"github.com/example/task-manager/modules/api"
	"github.com/example/task-manager/modules/auth"
	"github.com/example/task-manager/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Task Manager ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := mono.WithLogLevel(mono.LogLevelInfo)
	if cfg.Log.Level == "error" {
		logLevel = mono.WithLogLevel(mono.LogLevelError)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		logLevel,
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	authModule := auth.NewModule(cfg.Database, cfg.Auth)
	taskModule := task.NewModule(cfg.Database)
	activityModule := activity.NewModule()

	// Register modules with the framework
	// Order: independent modules first, then dependent modules
	app.Register(authModule)     // Provides identity services
	app.Register(taskModule)     // Provides task services, emits lifecycle events
	app.Register(activityModule) // Consumes task events
	app.Register(api.NewModule(cfg, authModule, taskModule, activityModule))

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg *config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (%s):", cfg.ListenAddr())
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/auth/register  - Register a new user")
	log.Println("  POST   /api/auth/login     - Login and get tokens")
	log.Println("  POST   /api/auth/refresh   - Refresh access token")
	log.Println("  GET    /health             - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/profile        - Current user")
	log.Println("  GET    /api/tasks          - List your tasks, newest first")
	log.Println("  POST   /api/tasks          - Create a task")
	log.Println("  PATCH  /api/tasks/:id      - Update a task")
	log.Println("  DELETE /api/tasks/:id      - Delete a task")
	log.Println("  GET    /api/activity       - Recent task activity")
	log.Println("  (/api/todos is an alias of /api/tasks)")
	log.Println("")
	if cfg.RateLimit.RedisAddr != "" {
		log.Printf("Credential endpoints limited to %d requests per %s (redis %s)",
			cfg.RateLimit.Limit, cfg.RateLimit.Window, cfg.RateLimit.RedisAddr)
	} else {
		log.Println("Credential rate limiting disabled (REDIS_ADDR not set)")
	}
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
