package cmd

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

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/calagent/internal/config"
	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/logging"
	"github.com/teemow/calagent/internal/server"
	"github.com/teemow/calagent/internal/timezone"
	"github.com/teemow/calagent/internal/tools/calendar_tools"
	"github.com/teemow/calagent/internal/tools/google_tools"
)

const shutdownTimeout = 10 * time.Second

// serveOptions holds the raw flag values of the serve command.
type serveOptions struct {
	configPath     string
	transport      string
	httpAddr       string
	yolo           bool
	timezone       string
	calendarID     string
	account        string
	maxSuggestions int
	debug          bool
	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide natural-language
Google Calendar tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz, /readyz
    and /health endpoints and a separate Prometheus /metrics server

Safety Mode:
  By default, the server operates in read-only mode, providing only safe operations.
  Use --yolo to enable tools that create, update and delete events.

Configuration:
  Settings are read from the YAML file given by --config (default:
  <user config dir>/calagent/config.yaml). Flags given on the command line
  override the file. Google OAuth client credentials come from the
  GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables, which may
  also be set in a .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	bindServeFlags(cmd, opts)
	return cmd
}

func bindServeFlags(cmd *cobra.Command, opts *serveOptions) {
	defaults := config.DefaultConfig()

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to the YAML config file (default: "+config.DefaultPath()+")")
	cmd.Flags().StringVar(&opts.transport, "transport", defaults.Transport, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", defaults.HTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.yolo, "yolo", false, "Enable write operations (create, update and delete events). Default is read-only mode.")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "", "IANA timezone used to interpret dates (default: detected from the host)")
	cmd.Flags().StringVar(&opts.calendarID, "calendar-id", defaults.CalendarID, "Calendar used when a tool call names none")
	cmd.Flags().StringVar(&opts.account, "account", defaults.Account, "Google account used when a tool call names none")
	cmd.Flags().IntVar(&opts.maxSuggestions, "max-suggestions", defaults.MaxSuggestions, "Maximum number of meeting slots suggested per call")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", defaults.Metrics.Enabled, "Enable the metrics server on a dedicated port (streamable-http transport only)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", defaults.Metrics.Addr, "Metrics server address")
}

// resolve loads the config file and applies every flag that was set
// explicitly on the command line.
func (o *serveOptions) resolve(cmd *cobra.Command) (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Transport = o.transport
	}
	if flags.Changed("http-addr") {
		cfg.HTTPAddr = o.httpAddr
	}
	if flags.Changed("yolo") {
		cfg.Yolo = o.yolo
	}
	if flags.Changed("timezone") {
		cfg.Timezone = o.timezone
	}
	if flags.Changed("calendar-id") {
		cfg.CalendarID = o.calendarID
	}
	if flags.Changed("account") {
		cfg.Account = o.account
	}
	if flags.Changed("max-suggestions") {
		cfg.MaxSuggestions = o.maxSuggestions
	}
	if flags.Changed("debug") {
		cfg.Debug = o.debug
	}
	if flags.Changed("metrics-enabled") {
		cfg.Metrics.Enabled = o.metricsEnabled
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = o.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

func runServe(cfg *config.Config) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Logs go to stderr; stdout belongs to the stdio transport.
	logger := logging.New(os.Stderr, cfg.Debug)
	slog.SetDefault(logger)

	loc, tzName := timezone.Resolve(cfg.Timezone, logging.NewSlogAdapter(logger))
	logger.Info("acting timezone", logging.Timezone(tzName))

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	serverContext, err := server.NewServerContext(shutdownCtx, server.Options{
		Location:          loc,
		TimezoneName:      tzName,
		DefaultAccount:    cfg.Account,
		DefaultCalendarID: cfg.CalendarID,
		MaxSuggestions:    cfg.MaxSuggestions,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging))
	}

	// readOnly is the inverse of yolo
	readOnly := !cfg.Yolo
	if readOnly {
		logger.Info("starting server in READ-ONLY mode (use --yolo to enable write operations)")
	} else {
		logger.Info("starting server with WRITE operations enabled (--yolo flag is set)")
	}

	mcpSrv, err := newMCPServer(serverContext, readOnly)
	if err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch cfg.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, provider, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Transport)
	}
}

// newMCPServer creates the MCP server with every tool group registered.
func newMCPServer(sc *server.ServerContext, readOnly bool) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("calagent", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, sc, readOnly); err != nil {
		return nil, err
	}
	return mcpSrv, nil
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Google",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, cfg *config.Config, provider *instrumentation.Provider, logger *slog.Logger) error {
	// Start metrics server if enabled and the provider exports to prometheus
	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled && provider.Enabled() && provider.PrometheusHandler() != nil {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.Start(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		select {
		case <-metricsReady:
			logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	httpServer := server.NewHTTPServer(mcpSrv, sc, cfg.HTTPAddr)

	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during server shutdown: %w", err)
		}
		return nil
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}
