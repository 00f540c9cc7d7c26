package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Abraxas-365/jobsched/pkg/config"
	"github.com/Abraxas-365/jobsched/pkg/jobx/jobxhttp"
	"github.com/Abraxas-365/jobsched/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	// 1. Logger and configuration
	logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv()))
	cfg := config.Load()

	logx.Info("🚀 Starting job scheduler API server...")

	// 2. Dependency container
	container := NewContainer(cfg)
	defer container.Cleanup()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	schedulerDone := container.StartBackgroundServices(ctx)

	// 3. Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "jobsched",
		DisableStartupMessage: true,
		ErrorHandler:          jobxhttp.ErrorHandler,
		BodyLimit:             4 * 1024 * 1024,
		IdleTimeout:           120 * time.Second,
	})

	// 4. Global middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Server.StackTraces,
	}))

	app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: func() string { return "req-" + uuid.NewString() },
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(cfg.Server.CORSOrigins, ", "),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, DELETE, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// 5. Health and info
	app.Get("/health", healthCheckHandler(container))
	app.Get("/", infoHandler(cfg))

	// 6. Job routes
	container.JobHandlers.RegisterRoutes(app)
	logx.Info("✓ Job routes registered")

	// 7. 404 handler
	app.Use(notFoundHandler)

	printRouteSummary()

	// 8. Serve until a signal arrives, then drain the scheduler
	startServer(app, cfg.Server.Port)

	stop()
	if _, err := schedulerDone.Await(); err != nil {
		logx.WithError(err).Warn("Scheduler stopped with error")
	}
}

// ============================================================================
// Handler Functions
// ============================================================================

// healthCheckHandler reports degraded while the circuit breaker is not closed.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats := container.Scheduler.GetStats()
		health := fiber.Map{
			"status":             "healthy",
			"service":            "jobsched",
			"version":            container.Config.Server.AppVersion,
			"circuit_state":      stats.CircuitState,
			"pending":            stats.Pending,
			"running":            stats.Running,
			"under_backpressure": stats.UnderBackpressure,
		}

		if container.Redis != nil {
			if err := container.Redis.Ping(c.UserContext()).Err(); err != nil {
				health["redis"] = "unhealthy"
				health["redis_error"] = err.Error()
				health["status"] = "degraded"
			} else {
				health["redis"] = "healthy"
			}
		}

		if stats.CircuitState.String() != "closed" {
			health["status"] = "degraded"
			breaker := container.Scheduler.Breaker()
			health["circuit_last_failure"] = breaker.Snapshot().LastFailureTime
			health["circuit_retry_after_ms"] = breaker.RetryAfter().Milliseconds()
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

func infoHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     "jobsched",
			"version":     cfg.Server.AppVersion,
			"description": "Bounded-concurrency priority job scheduler",
			"endpoints": fiber.Map{
				"schedule": "POST /api/v1/jobs",
				"list":     "GET /api/v1/jobs?status=&page=&page_size=",
				"get":      "GET /api/v1/jobs/:id",
				"status":   "GET /api/v1/jobs/:id/status",
				"cancel":   "DELETE /api/v1/jobs/:id",
				"stats":    "GET /api/v1/stats",
				"health":   "GET /health",
			},
		})
	}
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Get("X-Request-ID"),
	})
}

// ============================================================================
// Utility Functions
// ============================================================================

func printRouteSummary() {
	logx.Info("📋 Route Summary:")
	logx.Info("   ├─ Jobs: /api/v1/jobs/*")
	logx.Info("   ├─ Stats: /api/v1/stats")
	logx.Info("   └─ Health: /health")
}

// startServer listens in the background and returns after a graceful shutdown.
func startServer(app *fiber.App, port string) {
	go func() {
		logx.Info("=" + repeatString("=", 60))
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)
		logx.Info("=" + repeatString("=", 60))

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	gracefulShutdown(app)
}

func gracefulShutdown(app *fiber.App) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
