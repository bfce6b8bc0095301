package routes

import (
	"github.com/acegraph/graphrag-portal/internal/auth"
	"github.com/acegraph/graphrag-portal/internal/handlers"
	"github.com/acegraph/graphrag-portal/internal/middleware"
	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	sessions *auth.SessionManager,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	queryHandler *handlers.QueryHandler,
	historyHandler *handlers.HistoryHandler,
	promptHandler *handlers.PromptHandler,
	indexHandler *handlers.IndexHandler,
) {
	rateLimitConfig := middleware.DefaultLoginRateLimit()

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(sessions))

		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/auth/change-password", authHandler.ChangePassword)
		r.Get("/auth/me", authHandler.Me)

		// Query and history (AllowQuery)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequirePermission(models.PermissionQuery))
			r.Post("/query", queryHandler.Execute)
			r.Get("/indexes", indexHandler.ListQueryable)
			r.Get("/history", historyHandler.List)
			r.Get("/history/{name}", historyHandler.Get)
		})

		// Prompt and indexing tabs (AllowCreateIndex)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequirePermission(models.PermissionCreateIndex))
			r.Post("/prompts/generate", promptHandler.Generate)
			r.Put("/prompts", promptHandler.Save)
			r.Get("/prompts", promptHandler.Load)
			r.Get("/storage-containers", indexHandler.ListStorageContainers)
			r.Post("/indexes", indexHandler.Build)
			r.Get("/indexes/{name}/status", indexHandler.Status)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequirePermission(models.PermissionAdministrator))
			r.Get("/users", userHandler.List)
			r.Post("/users", userHandler.Create)
			r.Get("/users/{username}", userHandler.Get)
			r.Put("/users/{username}", userHandler.Update)
			r.Delete("/users/{username}", userHandler.Delete)
			r.Post("/users/{username}/activate", userHandler.Activate)
			r.Post("/users/{username}/deactivate", userHandler.Deactivate)
			r.Post("/users/{username}/reset-password", userHandler.ResetPassword)
			r.Get("/indexes/available", indexHandler.ListAvailable)
		})
	})
}
