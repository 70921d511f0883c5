package cfgobj

import (
	"fmt"
	"slices"

	"github.com/ethpandaops/modelcfg/pkg/cfgkind"
	"github.com/ethpandaops/modelcfg/pkg/cfgparser"
)

func (o *ConfigObject) quantizeSection() (string, error) {
	if !o.kind.HasQuantizeSection() {
		return "", fmt.Errorf("%w: %s", ErrNoQuantizeSection, o.kind.Name)
	}

	return o.kind.QuantizeSection, nil
}

// mutateLayers runs fn on the layers body of the quantization section.
func (o *ConfigObject) mutateLayers(fn func(s cfgparser.Sections, body string) (string, error)) error {
	section, err := o.quantizeSection()
	if err != nil {
		return err
	}

	return o.mutate(func(s *cfgparser.Sections) error {
		current, _ := s.Get(section, LayersKey)

		body, err := fn(*s, normalizeLayers(current))
		if err != nil {
			return fmt.Errorf("failed to update layers: %w", err)
		}

		s.Set(section, LayersKey, body)

		return nil
	})
}

func (o *ConfigObject) defaults(s cfgparser.Sections) (dtype, granularity string) {
	dtype, granularity = defaultDType, defaultGranularity

	if v, ok := s.Get(o.kind.QuantizeSection, DTypeKey); ok && v != "" {
		dtype = v
	}

	if v, ok := s.Get(o.kind.QuantizeSection, GranularityKey); ok && v != "" {
		granularity = v
	}

	return dtype, granularity
}

// LayerDefaults returns the dtype and granularity layers without an explicit
// entry use.
func (o *ConfigObject) LayerDefaults() (dtype, granularity string) {
	if !o.kind.HasQuantizeSection() {
		return defaultDType, defaultGranularity
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.defaults(o.sections)
}

// GetSection returns a key of the quantization section.
func (o *ConfigObject) GetSection(name string) (string, bool, error) {
	section, err := o.quantizeSection()
	if err != nil {
		return "", false, err
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	v, ok := o.sections.Get(section, name)

	return v, ok, nil
}

// SetSection sets a key of the quantization section.
func (o *ConfigObject) SetSection(name, value string) error {
	if name == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidArgument)
	}

	section, err := o.quantizeSection()
	if err != nil {
		return err
	}

	return o.mutate(func(s *cfgparser.Sections) error {
		s.Set(section, name, value)
		return nil
	})
}

// Layers returns the explicit layer entries.
func (o *ConfigObject) Layers() ([]Layer, error) {
	section, err := o.quantizeSection()
	if err != nil {
		return nil, err
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	v, _ := o.sections.Get(section, LayersKey)

	return parseLayers(normalizeLayers(v)), nil
}

// UpdateSectionOfLayer sets one field of an explicit layer. Unknown layers
// are ignored.
func (o *ConfigObject) UpdateSectionOfLayer(layer, field, value string) error {
	if layer == "" || field == "" || field == "name" {
		return fmt.Errorf("%w: layer %q field %q", ErrInvalidArgument, layer, field)
	}

	return o.mutateLayers(func(_ cfgparser.Sections, body string) (string, error) {
		i := layerIndex(body, layer)
		if i < 0 {
			return body, nil
		}

		return setLayerField(body, i, field, value)
	})
}

// SetLayersSections replaces the explicit layers with names, each using the
// given dtype and granularity.
func (o *ConfigObject) SetLayersSections(names []string, dtype, granularity string) error {
	return o.mutateLayers(func(_ cfgparser.Sections, _ string) (string, error) {
		body := emptyLayers
		for _, n := range dedup(names) {
			var err error
			if body, err = appendLayer(body, Layer{Name: n, DType: dtype, Granularity: granularity}); err != nil {
				return "", err
			}
		}

		return body, nil
	})
}

// AddLayers appends explicit entries for names using the section defaults.
// Names already present are skipped.
func (o *ConfigObject) AddLayers(names []string) error {
	return o.mutateLayers(func(s cfgparser.Sections, body string) (string, error) {
		dtype, granularity := o.defaults(s)
		existing := layerNames(body)

		for _, n := range dedup(names) {
			if slices.Contains(existing, n) {
				continue
			}

			var err error
			if body, err = appendLayer(body, Layer{Name: n, DType: dtype, Granularity: granularity}); err != nil {
				return "", err
			}
		}

		return body, nil
	})
}

// SetLayersToDefault removes the explicit entries for names.
func (o *ConfigObject) SetLayersToDefault(names []string) error {
	return o.mutateLayers(func(_ cfgparser.Sections, body string) (string, error) {
		current := layerNames(body)
		for i := len(current) - 1; i >= 0; i-- {
			if !slices.Contains(names, current[i]) {
				continue
			}

			var err error
			if body, err = deleteLayer(body, i); err != nil {
				return "", err
			}
		}

		return body, nil
	})
}

// SetAllModelLayers caches the model's full layer list.
func (o *ConfigObject) SetAllModelLayers(names []string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.allLayers = slices.Clone(names)
}

// AllModelLayers returns the cached full layer list.
func (o *ConfigObject) AllModelLayers() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return slices.Clone(o.allLayers)
}

// GetDefaultModelLayers returns the cached layers that have no explicit entry.
func (o *ConfigObject) GetDefaultModelLayers() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]string, 0, len(o.allLayers))
	if len(o.allLayers) == 0 {
		return out
	}

	var explicit []string
	if o.kind.HasQuantizeSection() {
		v, _ := o.sections.Get(o.kind.QuantizeSection, LayersKey)
		explicit = layerNames(normalizeLayers(v))
	}

	for _, n := range o.allLayers {
		if !slices.Contains(explicit, n) {
			out = append(out, n)
		}
	}

	return out
}

// QuantizeModelPath returns the model the quantization step reads, falling
// back to the first declared artifact.
func (o *ConfigObject) QuantizeModelPath() (string, bool) {
	if o.kind.HasQuantizeSection() {
		o.mu.RLock()
		v, ok := o.sections.Get(o.kind.QuantizeSection, cfgkind.InputKey)
		o.mu.RUnlock()

		if ok && v != "" {
			return resolveIn(o.path, v), true
		}
	}

	return o.DeclaredArtifactPath()
}

func dedup(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}

	return out
}
