package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// chiRouter implements Router using Chi.
type chiRouter struct {
	mux chi.Router
}

var _ Router = (*chiRouter)(nil)

// NewChiRouter creates a new Router using Chi as the underlying
// implementation.
func NewChiRouter() Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.CleanPath)
	r.Use(chimw.StripSlashes)

	return &chiRouter{mux: r}
}

func (r *chiRouter) GET(path string, handler http.HandlerFunc, middlewares ...Middleware) {
	r.mux.Get(path, r.wrapHandler(handler, middlewares...))
}

func (r *chiRouter) POST(path string, handler http.HandlerFunc, middlewares ...Middleware) {
	r.mux.Post(path, r.wrapHandler(handler, middlewares...))
}

func (r *chiRouter) PATCH(path string, handler http.HandlerFunc, middlewares ...Middleware) {
	r.mux.Patch(path, r.wrapHandler(handler, middlewares...))
}

func (r *chiRouter) DELETE(path string, handler http.HandlerFunc, middlewares ...Middleware) {
	r.mux.Delete(path, r.wrapHandler(handler, middlewares...))
}

// Group creates a new route group with prefix and optional middleware.
func (r *chiRouter) Group(prefix string, fn func(Router), middlewares ...Middleware) {
	r.mux.Route(prefix, func(cr chi.Router) {
		for _, mw := range middlewares {
			cr.Use(mw)
		}
		fn(&chiRouter{mux: cr})
	})
}

// Use adds middleware to the router.
func (r *chiRouter) Use(middlewares ...Middleware) {
	for _, mw := range middlewares {
		r.mux.Use(mw)
	}
}

// Handler returns the http.Handler for use with http.Server.
func (r *chiRouter) Handler() http.Handler {
	return r.mux
}

// wrapHandler wraps a handler with optional route-specific middleware.
// Middleware is applied in order: first middleware wraps outermost.
func (r *chiRouter) wrapHandler(h http.HandlerFunc, middlewares ...Middleware) http.HandlerFunc {
	if len(middlewares) == 0 {
		return h
	}
	return Chain(h, middlewares...).ServeHTTP
}
