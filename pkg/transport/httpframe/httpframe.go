// Package httpframe is the optional loopback HTTP transport: a single POST
// route that accepts an envelope and dispatches it into a runtime.Runtime,
// serializing entry at the transport layer the way spec §5 requires of any
// multi-threaded embedding.
package httpframe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/edgemcp/pkg/logger"
	"github.com/stacklok/edgemcp/pkg/mcpstatus"
)

const (
	defaultGracefulTimeout = 10 * time.Second
	requestTimeout         = 5 * time.Second
	readTimeout            = 5 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	maxBodyBytes           = 1 << 20
)

// Invoker is the subset of runtime.Runtime this transport depends on.
type Invoker interface {
	Invoke(ctx context.Context, envelopeJSON, authMethod, authToken string) (mcpstatus.ToolResult, error)
}

// Server wraps an http.Server bound to one Invoker.
type Server struct {
	http *http.Server
}

// New constructs a Server listening on addr.
func New(addr string, rt Invoker) *Server {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	)
	router.Post("/invoke", invokeHandler(rt))

	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
	}
}

// ListenAndServe blocks serving until the server is shut down.
func (s *Server) ListenAndServe() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// ShutdownTimeout is the caller's recommended graceful-shutdown budget.
func (s *Server) ShutdownTimeout() time.Duration {
	return defaultGracefulTimeout
}

func invokeHandler(rt Invoker) http.HandlerFunc {
	var mu sync.Mutex
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		authMethod, authToken := "", ""
		if u, p, ok := r.BasicAuth(); ok {
			authMethod, authToken = u, p
		} else if bearer := r.Header.Get("Authorization"); bearer != "" {
			authMethod, authToken = "jwt", stripBearerPrefix(bearer)
		}

		mu.Lock()
		result, err := rt.Invoke(r.Context(), string(body), authMethod, authToken)
		mu.Unlock()
		if err != nil {
			logger.Errorf("invoke failed: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(struct {
			Status int             `json:"status"`
			Result json.RawMessage `json:"result"`
		}{Status: int(result.Status), Result: json.RawMessage(result.ResultJSON)}); err != nil {
			logger.Errorf("failed to encode response: %v", err)
		}
	}
}

func stripBearerPrefix(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return header
}
