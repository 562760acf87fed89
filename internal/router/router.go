package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"briefly/internal/config"
	"briefly/internal/handler"
	"briefly/internal/middleware"
	"briefly/internal/model"
)

// HealthChecker reports liveness of a backing store.
type HealthChecker func(ctx context.Context) error

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	summaryHandler *handler.SummaryHandler,
	auditHandler *handler.AuditHandler,
	checks map[string]HealthChecker,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", healthHandler(checks))

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", authHandler.Login)
			auth.Post("/register", authHandler.Register)
			auth.Post("/refresh", authHandler.Refresh)
			auth.Post("/forgot-password", authHandler.ForgotPassword)
			auth.Post("/reset-password", authHandler.ResetPassword)
			auth.Get("/verify-email", authHandler.VerifyEmail)
		})

		api.Route("/protected", func(protected chi.Router) {
			protected.Use(authMiddleware.RequireAuth)

			protected.Post("/auth/logout", authHandler.Logout)
			protected.Post("/auth/logout-all", authHandler.LogoutAll)
			protected.Get("/auth/sessions", authHandler.Sessions)
			protected.Get("/auth/me", authHandler.Me)

			protected.Post("/summarize", summaryHandler.Summarize)
			protected.Get("/my-summaries", summaryHandler.MySummaries)

			protected.With(authMiddleware.RequireRoles(model.RoleAdmin)).
				Get("/admin/audit-logs", auditHandler.List)
		})
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		results := map[string]string{}

		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = "down"
				continue
			}
			results[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(results)
	}
}
