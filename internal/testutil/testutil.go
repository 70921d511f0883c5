// Package testutil provides test utilities for modelcfg, including:
//   - Workspace fixtures with config and artifact builders (fixtures.go)
//   - Miniredis helpers for layer cache tests (miniredis.go)
//   - A discarding logger for services under test (testutil.go)
package testutil

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logger that writes nowhere.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}
