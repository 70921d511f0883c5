package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/modelcfg/pkg/api/handlers"
	"github.com/ethpandaops/modelcfg/pkg/layers"
)

// Service defines the API service interface
type Service interface {
	Start(ctx context.Context) error
	Stop() error
}

type service struct {
	app       *fiber.App
	server    *http.Server
	config    *Config
	workspace handlers.Workspace
	layers    layers.Enumerator
	log       logrus.FieldLogger
}

// NewService creates a new API service
func NewService(cfg *Config, workspace handlers.Workspace, enumerator layers.Enumerator, log logrus.FieldLogger) Service {
	return &service{
		config:    cfg,
		workspace: workspace,
		layers:    enumerator,
		log:       log.WithField("service", "api"),
	}
}

// newApp builds the Fiber app with every route mounted
func newApp(cfg *Config, workspace handlers.Workspace, enumerator layers.Enumerator, log logrus.FieldLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: newErrorHandler(log),
		AppName:      "modelcfg API",
	})

	setupMiddleware(app, cfg, workspace.ID(), log)

	handlers.NewServer(workspace, enumerator, log).Register(app.Group("/api/v1"))

	return app
}

// Start initializes and starts the API server
func (s *service) Start(_ context.Context) error {
	if !s.config.Enabled {
		s.log.Info("API service is disabled")
		return nil
	}

	s.app = newApp(s.config, s.workspace, s.layers, s.log)

	s.server = &http.Server{
		Addr:              s.config.Addr,
		Handler:           adaptor.FiberApp(s.app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.log.WithField("addr", s.config.Addr).Info("Starting API server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Server failed to start")
		}
	}()

	return nil
}

// Stop gracefully shuts down the API server
func (s *service) Stop() error {
	if s.server == nil {
		return nil
	}

	s.log.Info("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
