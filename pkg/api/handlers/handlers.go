// Package handlers implements the read-only query API over an open workspace.
package handlers

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/modelcfg/pkg/index"
	"github.com/ethpandaops/modelcfg/pkg/layers"
	"github.com/ethpandaops/modelcfg/pkg/workspace"
)

// Workspace is the part of an open workspace the handlers use
type Workspace interface {
	ID() string
	Root() string
	Index() index.Reader
	BaseModels() []workspace.BaseModel
	Reset(ctx context.Context) error
}

// Server serves index queries for one workspace
type Server struct {
	workspace  Workspace
	enumerator layers.Enumerator
	log        logrus.FieldLogger
}

// NewServer creates a new API server instance. enumerator may be nil, in
// which case model layer queries are unavailable.
func NewServer(workspace Workspace, enumerator layers.Enumerator, log logrus.FieldLogger) *Server {
	return &Server{
		workspace:  workspace,
		enumerator: enumerator,
		log:        log.WithField("component", "api.handlers"),
	}
}

// Register mounts every route on router
func (s *Server) Register(router fiber.Router) {
	router.Get("/artifacts", s.GetArtifacts)
	router.Get("/artifacts/configs", s.GetArtifactConfigs)
	router.Get("/configs", s.GetConfigs)
	router.Get("/configs/products", s.GetConfigProducts)
	router.Get("/configs/layers", s.GetConfigLayers)
	router.Get("/configs/layers/model", s.GetModelLayers)
	router.Get("/index", s.GetIndex)
	router.Post("/index/reset", s.ResetIndex)
	router.Get("/lineage", s.GetLineage)
}

// resolvePath reads the path query parameter. Relative paths are taken
// from the workspace root.
func (s *Server) resolvePath(c fiber.Ctx) (string, error) {
	p := c.Query("path")
	if p == "" {
		return "", ErrPathRequired
	}

	root := s.workspace.Root()
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathOutsideWorkspace
	}

	return p, nil
}
