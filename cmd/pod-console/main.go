package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/pod-console/internal/config"
	"github.com/dimitrije/pod-console/internal/database"
	"github.com/dimitrije/pod-console/internal/handlers"
	"github.com/dimitrije/pod-console/internal/logging"
	"github.com/dimitrije/pod-console/internal/metrics"
	authmw "github.com/dimitrije/pod-console/internal/middleware"
	"github.com/dimitrije/pod-console/internal/reports"
	"github.com/dimitrije/pod-console/internal/services"
	"github.com/dimitrije/pod-console/internal/session"
	"github.com/dimitrije/pod-console/internal/sse"
	"github.com/dimitrije/pod-console/internal/upstream"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.Setup(os.Stdout, cfg.LogLevel, cfg.IsProduction())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	client := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logger)
	sessions := session.NewManager(session.NewPostgresStore(db), client, session.Options{
		RefreshInterval: cfg.Upstream.RefreshInterval,
		TTL:             cfg.SessionExpiry,
		Logger:          logger,
	})
	defer sessions.Close()

	hub := sse.NewHub()
	go hub.Run()

	jwtService := services.NewJWTService(cfg.SessionSecret, cfg.SessionExpiry)
	authService := services.NewAuthService(sessions, jwtService, client)
	podService := services.NewPodService(hub, cfg.BulkConcurrency, logger)
	massUploadService := services.NewMassUploadService(hub, cfg.BulkConcurrency, logger)
	reportService := services.NewReportService(reports.NewExporter(cfg.BatchExportDelay), hub, logger)
	adminService := services.NewAdminService(logger)

	authHandler := handlers.NewAuthHandler(authService)
	podHandler := handlers.NewPodHandler(podService)
	massUploadHandler := handlers.NewMassUploadHandler(massUploadService)
	reportHandler := handlers.NewReportHandler(reportService)
	adminHandler := handlers.NewAdminHandler(adminService)
	sseHandler := handlers.NewSSEHandler(hub, podService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	app.Get("/metrics", func(c *drift.Context) {
		metrics.Handler().ServeHTTP(c.Response, c.Request)
	})

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/setup-password", authHandler.SetupPassword)

	api.Post("/generate-pdf", reportHandler.GeneratePDF)
	api.Get("/mass-upload/template", massUploadHandler.Template)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))
	protected.Use(authmw.Session(authService))

	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/refresh", authHandler.Refresh)

	protected.Get("/admins", adminHandler.List)
	protected.Post("/admins", adminHandler.Create)
	protected.Delete("/admins/:id", adminHandler.Delete)
	protected.Post("/roles", adminHandler.CreateRole)
	protected.Get("/users", adminHandler.Users)

	protected.Get("/pods", podHandler.Tree)
	protected.Post("/pods", podHandler.Create)
	protected.Get("/bin", podHandler.Bin)
	protected.Get("/analytics", podHandler.AggregatedAnalytics)
	protected.Get("/pods/:id", podHandler.Get)
	protected.Delete("/pods/:id", podHandler.Delete)
	protected.Get("/pods/:id/children", podHandler.Children)
	protected.Get("/pods/:id/hierarchy", podHandler.Hierarchy)
	protected.Get("/pods/:id/analytics", podHandler.Analytics)
	protected.Get("/pods/:id/users", podHandler.Users)
	protected.Post("/pods/:id/users", podHandler.AddUser)
	protected.Delete("/pods/:id/users/:userId", podHandler.RemoveUser)
	protected.Post("/pods/:id/preview-users", podHandler.PreviewUsers)
	protected.Post("/pods/:id/upload-users-excel", podHandler.UploadUsersExcel)
	protected.Post("/pods/:id/bulk-add", podHandler.BulkAdd)
	protected.Patch("/pods/:id/restore", podHandler.Restore)
	protected.Delete("/pods/:id/permanent", podHandler.Purge)
	protected.Patch("/pods/:id/licenses", podHandler.SetLicenses)
	protected.Post("/pods/:id/licenses/add", podHandler.AddLicenses)
	protected.Get("/pods/:id/reports", reportHandler.PodReports)
	protected.Get("/pods/:id/events", sseHandler.ConnectPod)

	protected.Get("/events", sseHandler.Connect)
	protected.Post("/events/:clientId/subscribe/:podId", sseHandler.Subscribe)
	protected.Delete("/events/:clientId/subscribe/:podId", sseHandler.Unsubscribe)

	protected.Post("/mass-upload/preview", massUploadHandler.Preview)
	protected.Post("/mass-upload", massUploadHandler.Upload)

	protected.Get("/pod-statistics", reportHandler.PodStatistics)
	protected.Get("/reports", reportHandler.List)
	protected.Get("/reports/:id", reportHandler.Get)
	protected.Delete("/reports/:id", reportHandler.Delete)
	protected.Get("/reports/:id/pdf", reportHandler.ExportPDF)
	protected.Post("/report-exports", reportHandler.ExportBatch)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	go sessions.RunCleanup(ctx, time.Hour)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logger.Info("server starting", "addr", addr, "upstream", cfg.Upstream.BaseURL)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
}
