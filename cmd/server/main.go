package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storyweek/internal/auth"
	"storyweek/internal/config"
	"storyweek/internal/database"
	"storyweek/internal/generation"
	"storyweek/internal/handlers"
	"storyweek/internal/illustration"
	"storyweek/internal/repository"
	"storyweek/internal/service"
)

func main() {
	// Load .env if present; real environment variables win
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg := config.Load()
	if cfg.TokenSecret == "" {
		log.Fatal("TOKEN_SECRET must be set")
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	// Initialize repositories
	childRepo := repository.NewChildRepository(db)
	cycleRepo := repository.NewCycleRepository(db)
	workbookRepo := repository.NewWorkbookRepository(db)

	// Content generation oracle
	oracle, err := generation.NewClient(generation.Config{
		BaseURL: cfg.OracleBaseURL,
		APIKey:  cfg.OracleAPIKey,
		Model:   cfg.OracleModel,
		Timeout: cfg.OracleTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to initialize generation client: %v", err)
	}

	// Illustration pipeline; runs without a renderer when unconfigured
	var renderer illustration.Renderer
	if cfg.RenderAPIKey != "" && cfg.RenderBaseURL != "" {
		renderer, err = illustration.NewClient(illustration.Config{
			BaseURL: cfg.RenderBaseURL,
			APIKey:  cfg.RenderAPIKey,
			Model:   cfg.RenderModel,
			Timeout: cfg.RenderTimeout,
		})
		if err != nil {
			log.Fatalf("Failed to initialize illustration client: %v", err)
		}
		log.Println("Illustration rendering enabled")
	} else {
		log.Println("Illustration rendering disabled: RENDER_API_KEY not configured")
	}
	pipeline := illustration.NewPipeline(renderer, workbookRepo, cfg.RenderTimeout)

	// Auth tokens
	tokens, err := auth.NewTokens(cfg.TokenSecret, cfg.TokenDuration)
	if err != nil {
		log.Fatalf("Failed to initialize token signer: %v", err)
	}

	// Notification email
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.NotifyEmail, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	// Initialize services
	contextService := service.NewContextService(childRepo, cycleRepo)
	cycleService := service.NewCycleService(db, cycleRepo, workbookRepo, contextService, oracle, pipeline, emailService, cfg.CycleLengthDays)
	progressService := service.NewProgressService(db, cycleRepo, workbookRepo)
	exportService := service.NewExportService(childRepo, cycleRepo, workbookRepo)

	// Initialize handlers
	middleware := handlers.NewMiddleware(tokens)
	childHandler := handlers.NewChildHandler(childRepo, tokens)
	cycleHandler := handlers.NewCycleHandler(cycleService, progressService, exportService, childRepo, cycleRepo, workbookRepo)

	// Setup routes
	mux := http.NewServeMux()

	// Child device unlock; the only unauthenticated route
	mux.HandleFunc("POST /api/children/{childId}/token", childHandler.IssueChildToken)

	// Profile reads (parent only); profile data is seeded via cmd/seed
	mux.HandleFunc("GET /api/children", middleware.RequireParent(childHandler.ListChildren))
	mux.HandleFunc("GET /api/children/{childId}", middleware.RequireParent(childHandler.GetChild))

	// Cycle lifecycle (parent only)
	mux.HandleFunc("POST /api/children/{childId}/cycles", middleware.RequireParent(cycleHandler.CreateCycle))
	mux.HandleFunc("POST /api/children/{childId}/cycles/next", middleware.RequireParent(cycleHandler.StartNextCycle))
	mux.HandleFunc("GET /api/children/{childId}/cycles", middleware.RequireParent(cycleHandler.History))
	mux.HandleFunc("GET /api/children/{childId}/cycles/active", middleware.RequireAuth(cycleHandler.GetActiveCycle))
	mux.HandleFunc("GET /api/children/{childId}/export", middleware.RequireParent(cycleHandler.ExportChild))
	mux.HandleFunc("GET /api/cycles/{cycleId}", middleware.RequireAuth(cycleHandler.GetCycle))
	mux.HandleFunc("POST /api/cycles/{cycleId}/reconcile", middleware.RequireParent(cycleHandler.Reconcile))

	// Parent workbook progress and reflection (parent only)
	mux.HandleFunc("GET /api/workbooks/parent/{workbookId}/reflection-gate", middleware.RequireParent(cycleHandler.ReflectionGate))
	mux.HandleFunc("POST /api/workbooks/parent/{workbookId}/reflection", middleware.RequireParent(cycleHandler.SaveReflection))
	mux.HandleFunc("POST /api/workbooks/parent/{workbookId}/goals/{goalId}/log", middleware.RequireParent(cycleHandler.LogGoalCompletion))
	mux.HandleFunc("POST /api/workbooks/parent/{workbookId}/strategies/{day}/log", middleware.RequireParent(cycleHandler.LogDailyStrategy))

	// Child workbook progress (parent or child device)
	mux.HandleFunc("POST /api/workbooks/child/{workbookId}/activities/{activityId}/complete", middleware.RequireAuth(cycleHandler.CompleteActivity))
	mux.HandleFunc("POST /api/workbooks/child/{workbookId}/story/{day}/read", middleware.RequireAuth(cycleHandler.MarkStoryDayRead))

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handlers.Logging(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine so we can handle shutdown signals
	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server stopped")
}
