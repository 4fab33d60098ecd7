// Package main implements the entry point for the componentbus daemon: a
// message bus for simulated micro-robot components, with an optional HTTP
// gateway for status, metrics, and a live traffic feed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/c360/componentbus/bridge"
	"github.com/c360/componentbus/config"
	"github.com/c360/componentbus/gateway"
	"github.com/c360/componentbus/health"
	"github.com/c360/componentbus/message"
	"github.com/c360/componentbus/metric"
	"github.com/c360/componentbus/natsclient"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "componentbus"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()
	registry := metric.NewRegistry()

	backend, err := createBackend(cfg, registry, logger)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}

	b, err := createBridge(cfg, backend, registry, logger)
	if err != nil {
		return fmt.Errorf("create bridge: %w", err)
	}

	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}
	defer func() {
		if err := b.Stop(cliCfg.ShutdownTimeout); err != nil {
			slog.Error("Error stopping bridge", "error", err)
		}
	}()

	gw, err := setupGateway(ctx, cfg, b, registry, logger)
	if err != nil {
		return fmt.Errorf("setup gateway: %w", err)
	}
	if gw != nil {
		defer func() {
			if err := gw.Stop(cliCfg.ShutdownTimeout); err != nil {
				slog.Error("Error stopping gateway", "error", err)
			}
		}()
	}

	return runWithSignalHandling(ctx, b, logger, cliCfg)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting componentbus (micro-robot message bus)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// createBackend selects the bridge backend from configuration: an
// in-process mock or a NATS transport.
func createBackend(cfg *config.Config, registry *metric.Registry, logger *slog.Logger) (bridge.Backend, error) {
	if cfg.Bridge.UseMock {
		slog.Info("Using mock backend", "buffer_size", cfg.Bridge.BufferSize)
		opts := []bridge.MockOption{bridge.WithMockLogger(logger)}
		if cfg.Bridge.BufferSize > 0 {
			opts = append(opts, bridge.WithMockBufferSize(cfg.Bridge.BufferSize))
		}
		return bridge.NewMockBackend(opts...), nil
	}

	slog.Info("Using NATS backend", "urls", cfg.NATS.URLs)
	clientOpts := []natsclient.ClientOption{
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait),
		natsclient.WithMetrics(registry.Metrics),
	}
	switch {
	case cfg.NATS.Username != "":
		clientOpts = append(clientOpts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	case cfg.NATS.Token != "":
		clientOpts = append(clientOpts, natsclient.WithToken(cfg.NATS.Token))
	}

	client, err := natsclient.NewClient(strings.Join(cfg.NATS.URLs, ","), clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	return bridge.NewNATSBackend(client, logger), nil
}

func createBridge(cfg *config.Config, backend bridge.Backend, registry *metric.Registry, logger *slog.Logger) (*bridge.Bridge, error) {
	return bridge.New(cfg.Bridge.Name,
		bridge.WithBackend(backend),
		bridge.WithLogger(logger),
		bridge.WithMetrics(registry.Metrics),
		bridge.WithNamespace(cfg.Bridge.TopicNamespace),
	)
}

// setupGateway starts the HTTP gateway when enabled. Returns nil when the
// gateway is disabled.
func setupGateway(ctx context.Context, cfg *config.Config, b *bridge.Bridge, registry *metric.Registry, logger *slog.Logger) (*gateway.Gateway, error) {
	if !cfg.Gateway.Enabled {
		return nil, nil
	}

	monitor := health.NewMonitor()
	for _, id := range demoComponentIDs {
		if err := monitor.Watch(ctx, b, id, logger); err != nil {
			return nil, fmt.Errorf("watch health for %s: %w", id, err)
		}
	}

	gw, err := gateway.New(b,
		gateway.WithAddr(cfg.Gateway.Addr),
		gateway.WithLogger(logger),
		gateway.WithRegistry(registry),
		gateway.WithHealthMonitor(monitor),
		gateway.WithWebsocketFeed(cfg.Gateway.EnableWebsocket),
	)
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	if err := gw.Start(ctx); err != nil {
		return nil, fmt.Errorf("start gateway: %w", err)
	}

	if cfg.Gateway.EnableWebsocket {
		// Feed observers the demo components' telemetry and state traffic.
		for _, id := range demoComponentIDs {
			if err := gw.WatchTopic(ctx, message.CommTypeTelemetry, id); err != nil {
				return nil, fmt.Errorf("watch telemetry for %s: %w", id, err)
			}
			if err := gw.WatchTopic(ctx, message.CommTypeState, id); err != nil {
				return nil, fmt.Errorf("watch state for %s: %w", id, err)
			}
		}
	}

	return gw, nil
}

// runWithSignalHandling runs the demo components until a shutdown signal
func runWithSignalHandling(ctx context.Context, b *bridge.Bridge, logger *slog.Logger, cliCfg *CLIConfig) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	slog.Info("componentbus started")

	if err := runDemo(signalCtx, b, logger, cliCfg.DemoInterval); err != nil {
		return fmt.Errorf("demo components: %w", err)
	}

	slog.Info("Received shutdown signal")
	slog.Info("componentbus shutdown complete")
	return nil
}
