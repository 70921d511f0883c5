// Package layers lists the operator names of a compiled model and caches the
// result per model path.
package layers

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ethpandaops/modelcfg/pkg/cfgobj"
	"github.com/ethpandaops/modelcfg/pkg/locator"
	"github.com/ethpandaops/modelcfg/pkg/observability"
	"github.com/sirupsen/logrus"
)

// Enumerator lists the layer names of a model.
type Enumerator interface {
	Enumerate(ctx context.Context, modelPath string) ([]string, error)
}

// ToolEnumerator runs the external operator inspector.
type ToolEnumerator struct {
	tool    string
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewToolEnumerator creates an enumerator from cfg.
func NewToolEnumerator(log logrus.FieldLogger, cfg *Config) *ToolEnumerator {
	return &ToolEnumerator{
		tool:    cfg.Tool,
		timeout: cfg.Timeout,
		log:     log.WithField("component", "layers.tool"),
	}
}

// Enumerate runs `<tool> --name <model>` and returns one name per output line.
func (e *ToolEnumerator) Enumerate(ctx context.Context, modelPath string) ([]string, error) {
	if _, err := os.Stat(e.tool); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrToolNotInstalled, e.tool)
		}

		return nil, err
	}

	if !locator.Exists(modelPath) {
		return nil, fmt.Errorf("%w: model %s does not exist", ErrEnumerationFailed, modelPath)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, e.tool, "--name", modelPath) //nolint:gosec // Tool path comes from configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	if err != nil {
		observability.RecordEnumeration("error", time.Since(start).Seconds())
		e.log.WithError(err).WithField("path", modelPath).Warn("Layer enumeration failed")

		return nil, fmt.Errorf("%w: %s: %w: %s", ErrEnumerationFailed, modelPath, err, strings.TrimSpace(stderr.String()))
	}

	observability.RecordEnumeration("success", time.Since(start).Seconds())

	return parseNames(stdout.String()), nil
}

func parseNames(output string) []string {
	out := make([]string, 0)

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			out = append(out, name)
		}
	}

	return out
}

// Load fills obj's full layer list from e. On failure the list is left empty
// and the error is returned.
func Load(ctx context.Context, obj *cfgobj.ConfigObject, e Enumerator) error {
	model, ok := obj.QuantizeModelPath()
	if !ok {
		obj.SetAllModelLayers(nil)
		return fmt.Errorf("%w: %s", ErrNoModel, obj.Path())
	}

	names, err := e.Enumerate(ctx, model)
	if err != nil {
		obj.SetAllModelLayers(nil)
		return err
	}

	obj.SetAllModelLayers(names)

	return nil
}
