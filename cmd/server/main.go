package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HammerMeetNail/resumebuilder/internal/config"
	"github.com/HammerMeetNail/resumebuilder/internal/database"
	"github.com/HammerMeetNail/resumebuilder/internal/handlers"
	"github.com/HammerMeetNail/resumebuilder/internal/logging"
	"github.com/HammerMeetNail/resumebuilder/internal/middleware"
	"github.com/HammerMeetNail/resumebuilder/internal/services"
	"github.com/HammerMeetNail/resumebuilder/internal/services/ai"
	"github.com/HammerMeetNail/resumebuilder/migrations"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := logging.ParseLevel(cfg.Server.LogLevel)
	logging.SetDefaultLevel(level)
	logger := logging.New().SetLevel(level)

	logger.Info("Starting resume builder server...", map[string]interface{}{
		"env": cfg.Server.Environment,
	})

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	schemaVersion, err := database.MigrateUp(cfg.Database.DSN(), migrations.FS)
	if err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	logger.Info("Migrations completed", map[string]interface{}{"version": schemaVersion})

	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()

	// Services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	userService := services.NewUserService(dbAdapter)
	authService := services.NewAuthService(dbAdapter, redisAdapter)
	resumeService := services.NewResumeService(dbAdapter)
	usageService := services.NewUsageLogService(dbAdapter)
	aiService := ai.NewService(cfg.AI, usageService)

	aiMode := aiModeFor(cfg.AI)
	if aiMode == "not configured" {
		logger.Warn("GEMINI_API_KEY is not set; suggestions will fail until it is configured")
	}
	logger.Info("AI suggestions", map[string]interface{}{
		"mode":  aiMode,
		"model": cfg.AI.GeminiModel,
	})

	janitor := services.NewJanitor(authService, usageService)
	if err := janitor.Start(); err != nil {
		return fmt.Errorf("starting janitor: %w", err)
	}
	defer janitor.Stop()

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB, aiMode)
	authHandler := handlers.NewAuthHandler(userService, authService, cfg.Server.Secure)
	resumeHandler := handlers.NewResumeHandler(resumeService)
	aiHandler := handlers.NewAIHandler(aiService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)
	csrfMiddleware := middleware.NewCSRFMiddleware(cfg.Server.Secure, "session_token")
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Secure)
	cors := middleware.NewCORS(cfg.Server.AllowedOrigin)
	compress := middleware.NewCompress()
	requestLogger := middleware.NewRequestLogger(logger)
	authLimiter := middleware.NewAuthRateLimiter(redisDB.Client)
	suggestLimiter := middleware.NewSuggestionRateLimiter(redisDB.Client, cfg.SuggestionsPerHour())
	logger.Info("AI rate limit", map[string]interface{}{"per_hour": cfg.SuggestionsPerHour()})

	requireAuth := authMiddleware.RequireAuthFunc

	mux := http.NewServeMux()

	// Health endpoints (no auth, no rate limit)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)

	mux.HandleFunc("GET /api/csrf", csrfMiddleware.GetToken)

	// Auth endpoints
	mux.Handle("POST /api/auth/register", authLimiter.Limit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", authLimiter.Limit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/me", requireAuth(authHandler.Me))
	mux.Handle("PUT /api/auth/password", requireAuth(authHandler.ChangePassword))

	// Resume endpoints
	mux.Handle("POST /api/resumes", requireAuth(resumeHandler.Create))
	mux.Handle("GET /api/resumes", requireAuth(resumeHandler.List))
	mux.Handle("GET /api/resumes/{id}", requireAuth(resumeHandler.Get))
	mux.Handle("PUT /api/resumes/{id}", requireAuth(resumeHandler.Update))
	mux.Handle("DELETE /api/resumes/{id}", requireAuth(resumeHandler.Delete))

	// AI suggestion endpoint; /ai-suggest is kept for older frontends.
	suggest := requireAuth(func(w http.ResponseWriter, r *http.Request) {
		suggestLimiter.Limit(http.HandlerFunc(aiHandler.Suggest)).ServeHTTP(w, r)
	})
	mux.Handle("POST /api/ai-suggest", suggest)
	mux.Handle("POST /ai-suggest", suggest)

	// Build middleware chain (order matters: outermost last)
	var handler http.Handler = mux
	handler = authMiddleware.Authenticate(handler)
	handler = csrfMiddleware.Protect(handler)
	handler = compress.Apply(handler)
	handler = cors.Apply(handler)
	handler = securityHeaders.Apply(handler)
	handler = requestLogger.Apply(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Suggestions wait on the provider for up to AI_TIMEOUT.
		WriteTimeout: cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{"addr": addr})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}

// aiModeFor reports how suggestions are produced, for logs and /health.
func aiModeFor(cfg config.AIConfig) string {
	switch {
	case cfg.Stub:
		return "stub"
	case cfg.GeminiAPIKey == "":
		return "not configured"
	default:
		return "live"
	}
}
