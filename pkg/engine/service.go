package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // pprof is intentionally exposed when pprofAddr is configured
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/modelcfg/pkg/api"
	"github.com/ethpandaops/modelcfg/pkg/layers"
	"github.com/ethpandaops/modelcfg/pkg/observability"
	"github.com/ethpandaops/modelcfg/pkg/redis"
	"github.com/ethpandaops/modelcfg/pkg/watcher"
	"github.com/ethpandaops/modelcfg/pkg/workspace"
)

// Service encapsulates the engine application logic
type Service struct {
	config *Config
	log    logrus.FieldLogger

	workspace *workspace.Manager
	layers    *layers.CachedEnumerator
	api       api.Service

	// Servers
	healthServer *http.Server
	pprofServer  *http.Server

	redisClient *goredis.Client
}

// NewService wires every component for cfg
func NewService(log logrus.FieldLogger, cfg *Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled() {
		client, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis client: %w", err)
		}
		redisClient = client
	}

	enumerator, err := layers.NewDefaultEnumerator(log, &cfg.Layers, redisClient, cfg.Redis.PrefixKey(""))
	if err != nil {
		return nil, fmt.Errorf("failed to create layer enumerator: %w", err)
	}

	opts := []workspace.Option{workspace.WithInvalidator(enumerator)}

	if cfg.Watcher.Enabled {
		w, err := watcher.NewFSNotifyWatcher(log, cfg.Watcher)
		if err != nil {
			return nil, fmt.Errorf("failed to create watcher: %w", err)
		}
		opts = append(opts, workspace.WithWatcher(w))
	}

	manager := workspace.NewManager(log, &cfg.Workspace, opts...)

	return &Service{
		log:         log.WithField("service", "engine"),
		config:      cfg,
		workspace:   manager,
		layers:      enumerator,
		api:         api.NewService(&cfg.API, manager, enumerator, log),
		redisClient: redisClient,
	}, nil
}

// Workspace returns the managed workspace
func (a *Service) Workspace() *workspace.Manager {
	return a.workspace
}

// Start opens the workspace and starts every server
func (a *Service) Start(ctx context.Context) error {
	a.log.Info("Starting modelcfg engine...")

	observability.StartMetricsServer(a.log, a.config.MetricsAddr)

	if a.config.HealthCheckAddr != "" {
		a.startHealthCheck()
	}

	if a.config.PProfAddr != "" {
		a.startPProf()
	}

	if a.redisClient != nil {
		if err := a.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to reach Redis: %w", err)
		}
	}

	if err := a.workspace.Open(ctx); err != nil {
		return fmt.Errorf("failed to open workspace: %w", err)
	}

	if err := a.api.Start(ctx); err != nil {
		return fmt.Errorf("failed to start API service: %w", err)
	}

	a.log.WithField("workspace_id", a.workspace.ID()).Info("modelcfg engine started successfully")

	return nil
}

// Stop gracefully shuts down the engine
func (a *Service) Stop() error {
	a.log.Info("Shutting down engine...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopService := func(name string, stopFunc func() error) {
		if stopFunc == nil {
			return
		}
		if err := stopFunc(); err != nil {
			a.log.WithError(err).Errorf("Failed to stop %s", name)
		}
	}

	// 1. Stop serving queries
	if a.api != nil {
		stopService("API service", a.api.Stop)
	}

	// 2. Stop following the filesystem
	if a.workspace != nil {
		stopService("workspace", a.workspace.Close)
	}

	// 3. Close Redis (now safe, nothing is using it)
	if a.redisClient != nil {
		stopService("Redis client", a.redisClient.Close)
	}

	if a.healthServer != nil {
		stopService("health check server", func() error { return a.healthServer.Shutdown(ctx) })
	}
	if a.pprofServer != nil {
		stopService("pprof server", func() error { return a.pprofServer.Shutdown(ctx) })
	}

	stopService("metrics server", func() error { return observability.StopMetricsServer(ctx) })

	return nil
}

func (a *Service) startHealthCheck() {
	a.log.WithField("addr", a.config.HealthCheckAddr).Info("Starting health check server")

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/ready", a.ready)

	a.healthServer = &http.Server{
		Addr:              a.config.HealthCheckAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := a.healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("Health check server failed")
		}
	}()
}

// ready answers once the workspace has finished its initial scan
func (a *Service) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.workspace.Flush(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(err.Error()))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (a *Service) startPProf() {
	a.log.WithField("addr", a.config.PProfAddr).Info("Starting pprof server")

	a.pprofServer = &http.Server{
		Addr:              a.config.PProfAddr,
		ReadHeaderTimeout: 120 * time.Second,
	}

	go func() {
		if err := a.pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("Pprof server failed")
		}
	}()
}
