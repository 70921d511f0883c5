// Package cfgobj holds the parsed state of a single configuration file and
// the mutations editors apply to it.
package cfgobj

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/ethpandaops/modelcfg/pkg/cfgkind"
	"github.com/ethpandaops/modelcfg/pkg/cfgparser"
	"github.com/ethpandaops/modelcfg/pkg/locator"
)

// ConfigObject is one configuration file. Raw text, sections and declared
// artifacts are always derived from the same text.
type ConfigObject struct {
	mu sync.RWMutex

	path string
	kind *cfgkind.Kind

	raw       string
	sections  cfgparser.Sections
	declared  []string
	parseErr  error
	allLayers []string
}

// New builds an object from text already read from path.
func New(path string, kind *cfgkind.Kind, text string) *ConfigObject {
	o := &ConfigObject{
		path: filepath.Clean(path),
		kind: kind,
	}
	o.setText(text)

	return o
}

// Load reads path and builds an object for it using the default kind registry.
func Load(path string) (*ConfigObject, error) {
	return LoadWith(cfgkind.Default(), path)
}

// LoadWith reads path and builds an object for it using registry.
func LoadWith(registry *cfgkind.Registry, path string) (*ConfigObject, error) {
	kind, ok := registry.ForPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedKind, path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // Workspace file path
	if err != nil {
		return nil, err
	}

	return New(path, kind, string(data)), nil
}

// setText replaces the text and re-derives everything from it. Callers hold mu.
func (o *ConfigObject) setText(text string) {
	res := cfgparser.Parse(text, o.kind)

	o.raw = text
	o.sections = res.Sections
	o.parseErr = res.Err

	dir := filepath.Dir(o.path)
	o.declared = make([]string, 0, len(res.Declared))
	for _, p := range res.Declared {
		o.declared = append(o.declared, locator.Resolve(dir, p))
	}
}

// mutate applies fn to a copy of the sections and re-serializes immediately.
func (o *ConfigObject) mutate(fn func(s *cfgparser.Sections) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	next := o.sections.Clone()
	if err := fn(&next); err != nil {
		return err
	}

	text, err := cfgparser.Encode(next)
	if err != nil {
		return err
	}

	o.setText(text)

	return nil
}

// Path returns the configuration path.
func (o *ConfigObject) Path() string {
	return o.path
}

// Kind returns the configuration kind.
func (o *ConfigObject) Kind() *cfgkind.Kind {
	return o.kind
}

// Sections returns a copy of the parsed sections.
func (o *ConfigObject) Sections() cfgparser.Sections {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.sections.Clone()
}

// ParseError returns the error from the last parse, if the text was malformed.
func (o *ConfigObject) ParseError() error {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.parseErr
}

// DeclaredArtifactPath returns the first declared artifact, resolved.
func (o *ConfigObject) DeclaredArtifactPath() (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if len(o.declared) == 0 {
		return "", false
	}

	return o.declared[0], true
}

// DeclaredArtifacts returns every declared artifact, resolved, in file order.
func (o *ConfigObject) DeclaredArtifacts() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return slices.Clone(o.declared)
}

// BaseModelsExists returns the declared artifacts that exist right now and
// pass the kind's base-model filter.
func (o *ConfigObject) BaseModelsExists() []string {
	declared := o.DeclaredArtifacts()

	out := make([]string, 0, len(declared))
	for _, p := range declared {
		if slices.Contains(out, p) {
			continue
		}

		if o.kind.BaseModels.Accepts(p) && locator.Exists(p) {
			out = append(out, p)
		}
	}

	return out
}

// Products returns the existing derived files named by the config's values.
func (o *ConfigObject) Products() []string {
	o.mu.RLock()
	values := o.sections.Values()
	o.mu.RUnlock()

	candidates := o.kind.Products.InValues(filepath.Dir(o.path), values)

	out := make([]string, 0, len(candidates))
	for _, p := range candidates {
		if locator.Exists(p) {
			out = append(out, p)
		}
	}

	return out
}

// GetAsString returns the canonical text. Re-parsing it yields the same sections.
func (o *ConfigObject) GetAsString() string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.raw
}

// SetWithString replaces the text. Malformed text leaves the sections empty
// but is kept verbatim.
func (o *ConfigObject) SetWithString(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.setText(text)
}

// SetInputPath points the first import section at p and lets the kind update
// output_path. A kind without import sections is left untouched.
func (o *ConfigObject) SetInputPath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty input path", ErrInvalidArgument)
	}

	return o.mutate(func(s *cfgparser.Sections) error {
		section := o.importSection(*s, p)
		if section == "" {
			return nil
		}

		s.Set(section, cfgkind.InputKey, p)
		if o.kind.OutputPathFor != nil {
			s.Set(section, cfgkind.OutputKey, o.kind.OutputPathFor(p))
		}

		return nil
	})
}

// importSection picks an existing import section when there is one, otherwise
// the one matching p's extension.
func (o *ConfigObject) importSection(s cfgparser.Sections, p string) string {
	for _, sec := range s {
		if o.kind.IsImportSection(sec.Name) {
			return sec.Name
		}
	}

	if sec, ok := o.kind.ImportSectionFor(p); ok {
		return sec.Section
	}

	return ""
}

func resolveIn(configPath, p string) string {
	return locator.Resolve(filepath.Dir(configPath), p)
}
