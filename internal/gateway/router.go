package gateway

import (
	"net/http"
)

// Router wraps http.ServeMux and provides route registration
type Router struct {
	mux *http.ServeMux
}

// NewRouter creates a new router
func NewRouter() *Router {
	return &Router{
		mux: http.NewServeMux(),
	}
}

// Mux returns the underlying http.ServeMux
func (r *Router) Mux() *http.ServeMux {
	return r.mux
}

// Handle registers a handler for the given pattern
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
}

// HandleFunc registers a handler function for the given pattern
func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.mux.HandleFunc(pattern, handler)
}

// Group returns a sub-router that prefixes paths and wraps handlers with mw,
// outermost first.
func (r *Router) Group(prefix string, mw ...func(http.Handler) http.Handler) *Group {
	return &Group{router: r, prefix: prefix, mw: mw}
}

type Group struct {
	router *Router
	prefix string
	mw     []func(http.Handler) http.Handler
}

// Handle registers handler for method and prefix+path
func (g *Group) Handle(method, path string, handler http.HandlerFunc) {
	var h http.Handler = handler
	for i := len(g.mw) - 1; i >= 0; i-- {
		h = g.mw[i](h)
	}
	g.router.Handle(method+" "+g.prefix+path, h)
}
