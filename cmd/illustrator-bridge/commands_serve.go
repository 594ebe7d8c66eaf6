package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/illustrator-mcp-bridge/bridge/internal/broker"
	"github.com/illustrator-mcp-bridge/bridge/internal/config"
	"github.com/illustrator-mcp-bridge/bridge/internal/observability"
	"github.com/illustrator-mcp-bridge/bridge/internal/resolver"
	"github.com/illustrator-mcp-bridge/bridge/internal/retry"
	"github.com/illustrator-mcp-bridge/bridge/internal/scriptlib"
	"github.com/illustrator-mcp-bridge/bridge/internal/toolsurface"
	"github.com/illustrator-mcp-bridge/bridge/internal/transport"
)

const defaultConfigName = "bridge.yaml"

// buildServeCmd creates the "serve" command that starts the bridge.
func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Illustrator MCP bridge",
		Long: `Start the Illustrator MCP bridge.

The bridge will:
1. Load configuration from the specified file (or bridge.yaml)
2. Start the WebSocket listener that the Illustrator panel host connects to
3. Serve MCP tool calls over stdio, translating each into an ExtendScript
   task dispatched to the connected panel
4. Expose /healthz and (if enabled) /metrics on the HTTP side channel

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		Example: `  # Start with default config
  illustrator-bridge serve

  # Start with custom config
  illustrator-bridge serve --config /etc/illustrator-bridge/production.yaml

  # Start with debug logging
  illustrator-bridge serve --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = defaultConfigName
			}
			return runServe(cmd.Context(), configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: bridge.yaml)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	return cmd
}

// brokerResolver indirects transport's view of the broker so the two can be
// constructed in either order: transport.New needs a Resolver before the
// broker exists, and broker.New needs a Sender before the transport exists.
type brokerResolver struct {
	broker *broker.Broker
}

func (r *brokerResolver) Resolve(env broker.Envelope) error { return r.broker.Resolve(env) }
func (r *brokerResolver) Disconnect()                       { r.broker.Disconnect() }

// runServe implements the serve command logic: load configuration, wire the
// resolver/broker/transport/tool-surface stack, and run until a shutdown
// signal arrives.
func runServe(ctx context.Context, configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := cfg.Logging.Level
	if debug {
		logLevel = "debug"
	}
	baseLogger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: observability.LogLevelFromString(logLevel),
	}))
	slog.SetDefault(baseLogger)

	// obsLogger wraps every tool call with automatic correlation_id/task_id/
	// stage/tool extraction and redaction; baseLogger above only drives the
	// MCP protocol layer's own raw slog lines.
	obsLogger := observability.NewLogger(observability.LogConfig{
		Level:  logLevel,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	baseLogger.Info("starting illustrator-bridge",
		"version", version,
		"commit", commit,
		"config", configPath,
		"debug", debug,
	)

	var tracer *observability.Tracer
	var shutdownTracer func(context.Context) error
	if cfg.Observability.Tracing.Enabled {
		t, shutdown := observability.NewTracer(observability.TraceConfig{
			ServiceName:    cfg.Observability.Tracing.ServiceName,
			ServiceVersion: version,
			Environment:    cfg.Observability.Tracing.Environment,
			Endpoint:       cfg.Observability.Tracing.Endpoint,
			SamplingRate:   cfg.Observability.Tracing.SamplingRate,
			Attributes:     cfg.Observability.Tracing.Attributes,
		})
		tracer = t
		shutdownTracer = shutdown
	}

	manifest, err := scriptlib.Manifest()
	if err != nil {
		return fmt.Errorf("failed to load script library manifest: %w", err)
	}
	scriptResolver, err := resolver.New(manifest, cfg.Resolver.CacheSize)
	if err != nil {
		return fmt.Errorf("failed to construct resolver: %w", err)
	}

	resolverProxy := &brokerResolver{}
	transportServer := transport.New(baseLogger, resolverProxy)
	requestBroker := broker.New(transportServer)
	resolverProxy.broker = requestBroker

	metrics := observability.NewMetrics()
	retryPolicy := retry.DefaultConfig()

	bridge := &toolsurface.Bridge{
		Resolver:    scriptResolver,
		Broker:      requestBroker,
		Timeout:     cfg.Executor.DefaultTimeout,
		Metrics:     metrics,
		Tracer:      tracer,
		Logger:      obsLogger,
		RetryPolicy: &retryPolicy,
	}
	mcpServer := toolsurface.New("illustrator-bridge", version, baseLogger)
	bridge.RegisterAll(mcpServer)

	wsAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	wsServer := &http.Server{Addr: wsAddr, Handler: transportServer}

	httpMux := http.NewServeMux()
	httpMux.Handle("/healthz", traceHandler(tracer, transportServer.HealthHandler()))
	if cfg.Observability.Metrics.Enabled {
		path := cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		httpMux.Handle(path, traceHandler(tracer, promhttp.Handler()))
	}
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
	httpServer := &http.Server{Addr: httpAddr, Handler: httpMux}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 3)
	go func() {
		if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("websocket listener: %w", err)
		}
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http side channel: %w", err)
		}
	}()
	go func() {
		errCh <- mcpServer.Serve(ctx)
	}()
	go reportGaugeMetrics(ctx, metrics, transportServer, requestBroker)

	baseLogger.Info("illustrator-bridge started",
		"ws_addr", wsAddr,
		"http_addr", httpAddr,
	)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	baseLogger.Info("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	transportServer.Shutdown()
	requestBroker.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		baseLogger.Warn("http side channel shutdown error", "error", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		baseLogger.Warn("websocket listener shutdown error", "error", err)
	}
	if shutdownTracer != nil {
		if err := shutdownTracer(shutdownCtx); err != nil {
			baseLogger.Warn("tracer shutdown error", "error", err)
		}
	}

	baseLogger.Info("illustrator-bridge stopped gracefully")
	return nil
}

// traceHandler wraps next in a span tagged with the request method and path,
// via observability.Tracer.TraceHTTPRequest. A nil tracer (tracing disabled)
// passes the request through untouched.
func traceHandler(tracer *observability.Tracer, next http.Handler) http.Handler {
	if tracer == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.TraceHTTPRequest(r.Context(), r.Method, r.URL.Path)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// reportGaugeMetrics polls the transport and broker for gauge-shaped state
// (connection status, pending request count) that has no natural event to
// hang an observer off of.
func reportGaugeMetrics(ctx context.Context, metrics *observability.Metrics, transportServer *transport.Server, requestBroker *broker.Broker) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SetTransportConnected(transportServer.Connected())
			metrics.SetBrokerPending(requestBroker.Pending())
		}
	}
}
