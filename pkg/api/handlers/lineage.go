package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ethpandaops/modelcfg/pkg/lineage"
)

// GetLineage handles GET /api/v1/lineage. format=dot returns Graphviz text.
func (s *Server) GetLineage(c fiber.Ctx) error {
	g := lineage.NewGraph()
	if err := g.Build(s.workspace.Index()); err != nil {
		s.log.WithError(err).Error("Failed to build lineage graph")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build lineage graph")
	}

	if c.Query("format") == "dot" {
		c.Set(fiber.HeaderContentType, "text/vnd.graphviz")
		return c.Status(fiber.StatusOK).SendString(g.DOT())
	}

	return c.Status(fiber.StatusOK).JSON(g.Info())
}
