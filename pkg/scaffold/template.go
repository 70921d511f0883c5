package scaffold

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/ethpandaops/modelcfg/pkg/cfgkind"
)

const standardTemplate = `{{- $stem := trimSuffix (ext .Input) .Input -}}
[onecc]
{{ .Section }}=True
one-quantize=True

[{{ .Section }}]
input_path={{ .Input }}
output_path={{ $stem }}.circle

[one-quantize]
input_path={{ $stem }}.circle
output_path={{ $stem }}.q8.circle
default_quantization_dtype={{ .DType }}
default_granularity={{ .Granularity }}
layers=[]
`

const edgeCompileTemplate = `{{- $ext := ext .Input -}}
[edgetpu-compile]
input_path={{ .Input }}
output_path={{ trimSuffix $ext .Input }}_edgetpu{{ $ext }}
`

// TemplateData is what a default template is rendered with
type TemplateData struct {
	Input       string
	Section     string
	DType       string
	Granularity string
}

// TemplateEngine renders default configs with Sprig functions
type TemplateEngine struct {
	funcMap   template.FuncMap
	templates map[cfgkind.Name]string
}

// NewTemplateEngine creates an engine with the built-in templates.
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{
		funcMap: sprig.TxtFuncMap(),
		templates: map[cfgkind.Name]string{
			cfgkind.NameStandard:    standardTemplate,
			cfgkind.NameEdgeCompile: edgeCompileTemplate,
		},
	}
}

// Register sets the default template for a kind.
func (t *TemplateEngine) Register(kind cfgkind.Name, text string) {
	t.templates[kind] = text
}

// Render renders kind's default template for the artifact input.
func (t *TemplateEngine) Render(kind *cfgkind.Kind, input string) (string, error) {
	text, ok := t.templates[kind.Name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoTemplate, kind.Name)
	}

	section, ok := kind.ImportSectionFor(input)
	if !ok || !kind.BaseModels.Accepts(input) {
		return "", fmt.Errorf("%w: %s cannot import %s", ErrUnsupportedArtifact, kind.Name, input)
	}

	tmpl, err := template.New(string(kind.Name)).Funcs(t.funcMap).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, TemplateData{
		Input:       input,
		Section:     section.Section,
		DType:       "uint8",
		Granularity: "channel",
	}); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
