// Package cfgkind describes the recognized configuration file kinds and the
// section, key and locator data each of them carries.
package cfgkind

import (
	"path/filepath"
	"strings"

	"github.com/ethpandaops/modelcfg/pkg/locator"
)

// Name identifies a configuration kind
type Name string

const (
	// NameStandard is the multi-format compiler configuration (.cfg)
	NameStandard Name = "standard"
	// NameEdgeCompile is the edge accelerator compiler configuration (.edgetpucfg)
	NameEdgeCompile Name = "edgecompile"
)

const (
	// InputKey is the key naming the artifact a section consumes
	InputKey = "input_path"
	// OutputKey is the key naming the file a section produces
	OutputKey = "output_path"

	edgeTPUSuffix = "_edgetpu"
)

// ImportSection binds a section name to the artifact extension it reads.
type ImportSection struct {
	Section     string
	ArtifactExt string
}

// Kind is one recognized configuration format.
type Kind struct {
	Name Name
	Ext  string

	// ImportSections lists the sections whose input_path declares an artifact,
	// in lookup order.
	ImportSections []ImportSection

	// QuantizeSection holds the layer quantization settings. Empty when the
	// kind has none.
	QuantizeSection string

	// BaseModels decides which declared artifacts count as base models.
	BaseModels *locator.Runner

	// Products locates the derived files a config describes.
	Products *locator.Runner

	// OutputPathFor derives output_path from a new input_path. Nil leaves
	// output_path alone.
	OutputPathFor func(input string) string
}

// Pattern returns the recursive glob matching files of this kind.
func (k *Kind) Pattern() string {
	return "**/*" + k.Ext
}

// Matches reports whether path has this kind's extension.
func (k *Kind) Matches(path string) bool {
	return filepath.Ext(path) == k.Ext
}

// IsImportSection reports whether name is one of the kind's import sections.
func (k *Kind) IsImportSection(name string) bool {
	for _, s := range k.ImportSections {
		if s.Section == name {
			return true
		}
	}

	return false
}

// ImportSectionFor returns the first import section reading artifacts with
// the extension of path.
func (k *Kind) ImportSectionFor(path string) (ImportSection, bool) {
	for _, s := range k.ImportSections {
		if strings.HasSuffix(path, s.ArtifactExt) {
			return s, true
		}
	}

	return ImportSection{}, false
}

// HasQuantizeSection reports whether layer operations apply to this kind.
func (k *Kind) HasQuantizeSection() bool {
	return k.QuantizeSection != ""
}

func isEdgeTPUModel(path string) bool {
	return strings.HasSuffix(path, edgeTPUSuffix+".tflite")
}

// Standard returns the multi-format compiler kind.
func Standard() *Kind {
	return &Kind{
		Name: NameStandard,
		Ext:  ".cfg",
		ImportSections: []ImportSection{
			{Section: "one-import-tflite", ArtifactExt: ".tflite"},
			{Section: "one-import-onnx", ArtifactExt: ".onnx"},
			{Section: "one-import-tf", ArtifactExt: ".pb"},
			{Section: "one-import-bcq", ArtifactExt: ".pb"},
		},
		QuantizeSection: "one-quantize",
		BaseModels: locator.NewRunner(
			locator.Locator{Ext: ".tflite"},
			locator.Locator{Ext: ".onnx"},
			locator.Locator{Ext: ".pb"},
		),
		Products: locator.NewRunner(
			locator.Locator{Ext: ".circle"},
		),
	}
}

// EdgeCompile returns the edge accelerator compiler kind. Its base models are
// plain .tflite files; compiled *_edgetpu.tflite files and their logs are
// products.
func EdgeCompile() *Kind {
	return &Kind{
		Name: NameEdgeCompile,
		Ext:  ".edgetpucfg",
		ImportSections: []ImportSection{
			{Section: "edgetpu-compile", ArtifactExt: ".tflite"},
		},
		BaseModels: locator.NewRunner(
			locator.Locator{
				Ext:    ".tflite",
				Filter: func(p string) bool { return !isEdgeTPUModel(p) },
			},
		),
		Products: locator.NewRunner(
			locator.Locator{Ext: ".tflite", Filter: isEdgeTPUModel},
			locator.Locator{
				Ext:    ".tflite",
				Filter: isEdgeTPUModel,
				Rewrite: func(p string) string {
					return strings.TrimSuffix(p, ".tflite") + ".log"
				},
			},
		),
		OutputPathFor: func(input string) string {
			ext := filepath.Ext(input)
			return strings.TrimSuffix(input, ext) + edgeTPUSuffix + ext
		},
	}
}
