// Package routes registers all HTTP routes for the API.
package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	infrahttp "github.com/covermapio/api/internal/infra/http"
	"github.com/covermapio/api/internal/infra/http/handler"
	"github.com/covermapio/api/internal/infra/http/middleware"
)

// Middleware is an alias to the http package's Middleware type.
type Middleware = infrahttp.Middleware

// Router is an alias to the http package's Router interface.
type Router = infrahttp.Router

// Handlers holds all HTTP handlers for route registration.
type Handlers struct {
	Health  *handler.HealthHandler
	Plan    *handler.PlanHandler    // nil if not initialized (no database)
	Account *handler.AccountHandler // nil if not initialized (no database)
	Repo    *handler.RepoHandler    // nil if not initialized (no database)
}

// Register registers all application routes. Route definitions live in
// the infrastructure layer, not in main.
func Register(router Router, h Handlers, auth *middleware.Authenticator) {
	// Health and metrics routes (public)
	registerHealthRoutes(router, h.Health)

	authMiddleware := Middleware(auth.Middleware())

	// Plan catalog (protected, not owner-scoped)
	if h.Plan != nil {
		router.GET("/api/v1/plans", h.Plan.List, authMiddleware)
	}

	// Owner-scoped routes: plan catalog, billing account and repository list
	router.Group("/api/v1/{provider}/{owner}", func(r Router) {
		if h.Plan != nil {
			r.GET("/plans", h.Plan.List)
		}
		if h.Account != nil {
			r.GET("/account", h.Account.Get)
			r.POST("/account/preview", h.Account.Preview)
			r.PATCH("/account", h.Account.Upgrade)
		}
		if h.Repo != nil {
			r.GET("/repos", h.Repo.List)
			r.POST("/repos/{name}/visit", h.Repo.RecordVisit)
		}
	}, authMiddleware)
}

// registerHealthRoutes registers health check endpoints.
func registerHealthRoutes(router Router, h *handler.HealthHandler) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
}
