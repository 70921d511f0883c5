package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ethpandaops/modelcfg/pkg/cfgobj"
	"github.com/ethpandaops/modelcfg/pkg/cfgparser"
	"github.com/ethpandaops/modelcfg/pkg/layers"
)

// ConfigSummary is one config in a listing
type ConfigSummary struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Artifact string `json:"artifact,omitempty"`
	Orphan   bool   `json:"orphan"`
}

// ConfigDetail describes one indexed config
type ConfigDetail struct {
	ConfigSummary
	Declared   []string           `json:"declared"`
	BaseModels []string           `json:"baseModels"`
	ParseError string             `json:"parseError,omitempty"`
	Sections   cfgparser.Sections `json:"sections"`
}

func summarize(obj *cfgobj.ConfigObject) ConfigSummary {
	artifact, _ := obj.DeclaredArtifactPath()

	return ConfigSummary{
		Path:     obj.Path(),
		Kind:     string(obj.Kind().Name),
		Artifact: artifact,
		Orphan:   len(obj.BaseModelsExists()) == 0,
	}
}

// GetArtifacts handles GET /api/v1/artifacts. Base models no config
// references are listed with an empty configs list.
func (s *Server) GetArtifacts(c fiber.Ctx) error {
	models := s.workspace.BaseModels()

	linked := 0
	for _, m := range models {
		if len(m.Configs) > 0 {
			linked++
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"artifacts": models,
		"total":     len(models),
		"linked":    linked,
	})
}

// GetArtifactConfigs handles GET /api/v1/artifacts/configs
func (s *Server) GetArtifactConfigs(c fiber.Ctx) error {
	p, err := s.resolvePath(c)
	if err != nil {
		return err
	}

	configs := s.workspace.Index().GetCfgs(p)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"artifact": p,
		"configs":  configs,
		"total":    len(configs),
	})
}

// GetConfigs handles GET /api/v1/configs. Without a path it lists every
// indexed config.
func (s *Server) GetConfigs(c fiber.Ctx) error {
	if c.Query("path") == "" {
		return s.listConfigs(c)
	}

	obj, err := s.lookupConfig(c)
	if err != nil {
		return err
	}

	detail := ConfigDetail{
		ConfigSummary: summarize(obj),
		Declared:      obj.DeclaredArtifacts(),
		BaseModels:    obj.BaseModelsExists(),
		Sections:      obj.Sections(),
	}
	if perr := obj.ParseError(); perr != nil {
		detail.ParseError = perr.Error()
	}

	return c.Status(fiber.StatusOK).JSON(detail)
}

func (s *Server) listConfigs(c fiber.Ctx) error {
	x := s.workspace.Index()
	summaries := make([]ConfigSummary, 0, x.Size())

	for _, p := range x.ConfigPaths() {
		obj := x.GetCfgObj(p)
		if obj == nil {
			continue
		}
		summaries = append(summaries, summarize(obj))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"configs": summaries,
		"total":   len(summaries),
	})
}

// GetConfigProducts handles GET /api/v1/configs/products
func (s *Server) GetConfigProducts(c fiber.Ctx) error {
	obj, err := s.lookupConfig(c)
	if err != nil {
		return err
	}

	products := obj.Products()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"config":   obj.Path(),
		"products": products,
		"total":    len(products),
	})
}

// GetConfigLayers handles GET /api/v1/configs/layers
func (s *Server) GetConfigLayers(c fiber.Ctx) error {
	obj, err := s.lookupConfig(c)
	if err != nil {
		return err
	}

	entries, err := obj.Layers()
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	if entries == nil {
		entries = []cfgobj.Layer{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"config": obj.Path(),
		"layers": entries,
		"total":  len(entries),
	})
}

// GetModelLayers handles GET /api/v1/configs/layers/model. It enumerates
// the layers of the model the config quantizes.
func (s *Server) GetModelLayers(c fiber.Ctx) error {
	if s.enumerator == nil {
		return ErrLayersUnavailable
	}

	obj, err := s.lookupConfig(c)
	if err != nil {
		return err
	}

	if err := layers.Load(c.Context(), obj, s.enumerator); err != nil {
		s.log.WithError(err).WithField("path", obj.Path()).Warn("Failed to enumerate model layers")
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"config":   obj.Path(),
		"all":      obj.AllModelLayers(),
		"defaults": obj.GetDefaultModelLayers(),
	})
}

// GetIndex handles GET /api/v1/index
func (s *Server) GetIndex(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(s.indexSummary())
}

// ResetIndex handles POST /api/v1/index/reset
func (s *Server) ResetIndex(c fiber.Ctx) error {
	if err := s.workspace.Reset(c.Context()); err != nil {
		s.log.WithError(err).Error("Failed to reset index")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reset index")
	}

	return c.Status(fiber.StatusOK).JSON(s.indexSummary())
}

func (s *Server) indexSummary() fiber.Map {
	x := s.workspace.Index()

	return fiber.Map{
		"workspaceId": s.workspace.ID(),
		"root":        s.workspace.Root(),
		"configs":     x.Size(),
		"artifacts":   len(x.Artifacts()),
	}
}

func (s *Server) lookupConfig(c fiber.Ctx) (*cfgobj.ConfigObject, error) {
	p, err := s.resolvePath(c)
	if err != nil {
		return nil, err
	}

	obj := s.workspace.Index().GetCfgObj(p)
	if obj == nil {
		return nil, ErrConfigNotFound
	}

	return obj, nil
}
