package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// MCPEndpoint is the path of the streamable HTTP transport.
const MCPEndpoint = "/mcp"

// HTTPServer serves the MCP streamable HTTP transport next to the health
// endpoints.
type HTTPServer struct {
	httpServer *http.Server
	health     *HealthChecker
	sc         *ServerContext
	addr       string
}

// NewHTTPServer wires mcpSrv and the health endpoints into one mux.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, sc *ServerContext, addr string) *HTTPServer {
	s := &HTTPServer{
		health: NewHealthChecker(sc),
		sc:     sc,
		addr:   addr,
	}

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(MCPEndpoint),
	)

	mux := http.NewServeMux()
	mux.Handle(MCPEndpoint, streamable)
	s.health.RegisterHealthEndpoints(mux)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.instrument(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the root handler, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Health returns the health checker so callers can flip readiness.
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// Start listens and serves until Shutdown.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.sc.Logger().Info("starting MCP HTTP server", slog.String("addr", ln.Addr().String()), slog.String("endpoint", MCPEndpoint))
	return s.httpServer.Serve(ln)
}

// Shutdown marks the server unready and drains connections.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	return s.httpServer.Shutdown(ctx)
}

// instrument records request count and latency per path.
func (s *HTTPServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.sc.Metrics().RecordHTTPRequest(r.Context(), r.Method, routeLabel(r.URL.Path), rec.status, time.Since(start))
	})
}

// routeLabel keeps the path label bounded to the routes this server owns.
func routeLabel(path string) string {
	switch path {
	case MCPEndpoint, "/healthz", "/readyz", "/healthz/detailed":
		return path
	}
	return "other"
}

// statusRecorder captures the response status. It forwards Flush so that
// streamed MCP responses keep working.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
