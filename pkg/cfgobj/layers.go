package cfgobj

import (
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// LayersKey holds the explicit per-layer settings as a JSON array
	LayersKey = "layers"
	// DTypeKey is the default quantization dtype key
	DTypeKey = "default_quantization_dtype"
	// GranularityKey is the default granularity key
	GranularityKey = "default_granularity"

	// FieldDType is the per-layer dtype field
	FieldDType = "dtype"
	// FieldGranularity is the per-layer granularity field
	FieldGranularity = "granularity"

	defaultDType       = "uint8"
	defaultGranularity = "channel"
	emptyLayers        = "[]"
)

// Layer is one explicit layer entry.
type Layer struct {
	Name        string `json:"name"`
	DType       string `json:"dtype"`
	Granularity string `json:"granularity"`
}

func layerNames(body string) []string {
	result := gjson.Get(body, "#.name").Array()

	out := make([]string, 0, len(result))
	for _, r := range result {
		out = append(out, r.String())
	}

	return out
}

func parseLayers(body string) []Layer {
	out := make([]Layer, 0)
	gjson.Parse(body).ForEach(func(_, value gjson.Result) bool {
		out = append(out, Layer{
			Name:        value.Get("name").String(),
			DType:       value.Get(FieldDType).String(),
			Granularity: value.Get(FieldGranularity).String(),
		})
		return true
	})

	return out
}

func layerIndex(body, name string) int {
	for i, n := range layerNames(body) {
		if n == name {
			return i
		}
	}

	return -1
}

func appendLayer(body string, layer Layer) (string, error) {
	return sjson.Set(body, "-1", layer)
}

func setLayerField(body string, index int, field, value string) (string, error) {
	return sjson.Set(body, strconv.Itoa(index)+"."+field, value)
}

func deleteLayer(body string, index int) (string, error) {
	return sjson.Delete(body, strconv.Itoa(index))
}

func normalizeLayers(value string) string {
	if !gjson.Valid(value) || !gjson.Parse(value).IsArray() {
		return emptyLayers
	}

	return value
}
