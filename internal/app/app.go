package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"briefly/internal/cache"
	"briefly/internal/config"
	"briefly/internal/database"
	"briefly/internal/handler"
	"briefly/internal/middleware"
	"briefly/internal/ratelimit"
	"briefly/internal/repository"
	"briefly/internal/router"
	"briefly/internal/service"
	"briefly/internal/summarize"
	"briefly/internal/token"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), database.Config{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	slog.Info("connecting to redis")
	kv, err := cache.New(context.Background(), cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	summaryRepo := repository.NewSummaryRepository(pool)
	sessionRepo := repository.NewSessionRepository(kv.Client())

	codec := token.NewCodec(cfg.JWTSecret, cfg.AccessTokenTTL)
	limiter := ratelimit.NewLimiter(kv)
	mailer := service.NewLogMailer(cfg.AppBaseURL)

	auditService := service.NewAuditService(auditRepo)
	authService := service.NewAuthService(userRepo, sessionRepo, auditService, mailer, codec, cfg.SessionTTL)

	producer := summarize.NewClient(summarize.Config{
		CompletionURL:   cfg.SummarizerURL,
		APIKey:          cfg.SummarizerAPIKey,
		TranscriptURL:   cfg.TranscriptURL,
		TranscriptToken: cfg.TranscriptToken,
	})
	summaryService := service.NewSummaryService(summaryRepo, userRepo, kv, producer, cfg.SummaryCacheTTL)

	cookies := handler.CookieConfig{Production: cfg.IsProduction(), MaxAge: cfg.SessionTTL}
	authHandler := handler.NewAuthHandler(authService, limiter, cookies)
	summaryHandler := handler.NewSummaryHandler(summaryService, limiter)
	auditHandler := handler.NewAuditHandler(auditService)
	authMiddleware := middleware.NewAuthMiddleware(codec)

	appRouter := router.New(cfg, authMiddleware, authHandler, summaryHandler, auditHandler, map[string]router.HealthChecker{
		"postgres": db.Health,
		"redis":    kv.Health,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		cleanupFuncs: []func(){
			func() { db.Close() },
			func() { _ = kv.Close() },
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
