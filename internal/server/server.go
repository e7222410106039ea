// package server contains the local HTTP plumbing for the OAuth login flow
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers.
// Implementations serve specific endpoints of the local callback server.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Logging returns middleware that records each request through the logger.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

// CallbackServer hosts the OAuth redirect endpoint on a local port for the
// duration of one login flow.
type CallbackServer struct {
	srv    *http.Server
	logger *log.Logger
}

// NewCallbackServer creates a server for addr routing all of handler's routes
// through the given middleware.
func NewCallbackServer(addr string, handler Handler, logger *log.Logger, middlewares ...Middleware) *CallbackServer {
	mux := http.NewServeMux()

	var wrapped http.Handler = handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	for _, route := range handler.Routes() {
		mux.Handle(route, wrapped)
	}

	return &CallbackServer{
		srv:    &http.Server{Addr: addr, Handler: mux},
		logger: logger,
	}
}

// Start runs the server in a background goroutine. Server exit errors other
// than graceful shutdown are logged, not returned; the OAuth result channel
// carries the flow's outcome.
func (c *CallbackServer) Start() {
	go func() {
		if err := c.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Error("callback server failed", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (c *CallbackServer) Shutdown(ctx context.Context) error {
	if err := c.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop callback server: %w", err)
	}
	return nil
}
