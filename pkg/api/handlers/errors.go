package handlers

import "github.com/gofiber/fiber/v3"

// ErrPathRequired is returned when the path query parameter is missing
var ErrPathRequired = fiber.NewError(fiber.StatusBadRequest, "path query parameter is required")

// ErrConfigNotFound is returned when a config is not in the index
var ErrConfigNotFound = fiber.NewError(fiber.StatusNotFound, "config not found")

// ErrPathOutsideWorkspace is returned when a path resolves outside the workspace root
var ErrPathOutsideWorkspace = fiber.NewError(fiber.StatusBadRequest, "path is outside the workspace")

// ErrLayersUnavailable is returned when no layer enumerator is configured
var ErrLayersUnavailable = fiber.NewError(fiber.StatusServiceUnavailable, "layer enumeration is not configured")
