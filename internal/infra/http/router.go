package http

import (
	"net/http"
)

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Router defines the interface for HTTP routing. The abstraction keeps
// application code off the concrete router implementation.
type Router interface {
	GET(path string, handler http.HandlerFunc, middlewares ...Middleware)
	POST(path string, handler http.HandlerFunc, middlewares ...Middleware)
	PATCH(path string, handler http.HandlerFunc, middlewares ...Middleware)
	DELETE(path string, handler http.HandlerFunc, middlewares ...Middleware)

	// Group creates a new route group with prefix and optional middleware.
	// Group middleware applies to all routes within the group.
	Group(prefix string, fn func(Router), middlewares ...Middleware)

	// Use adds middleware to the router (applies to all subsequent routes).
	Use(middlewares ...Middleware)

	// Handler returns the http.Handler for use with http.Server.
	Handler() http.Handler
}

// Chain applies middlewares to a handler.
// The first middleware in the list will be the outermost (executed first).
func Chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
