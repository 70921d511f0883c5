// Package cfgparser reads and writes the bracketed key=value configuration
// format shared by every config kind.
package cfgparser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethpandaops/modelcfg/pkg/cfgkind"
	"github.com/go-ini/ini"
)

//nolint:gochecknoglobals // Shared immutable parser options
var loadOptions = ini.LoadOptions{
	IgnoreInlineComment: true,
	IgnoreContinuation:  true,
	KeyValueDelimiters:  "=",
}

func init() {
	// Written files use bare key=value lines.
	ini.PrettyFormat = false
}

// Result is the parsed view of a configuration text.
type Result struct {
	Sections Sections
	// Declared holds the raw input_path values of the kind's import sections
	// in file order.
	Declared []string
	// Err is set when the text was malformed; Sections is then empty.
	Err error
}

// Parse never fails: malformed text yields empty sections and Err set.
func Parse(text string, kind *cfgkind.Kind) Result {
	sections, err := Decode(text)
	if err != nil {
		return Result{Sections: Sections{}, Declared: []string{}, Err: err}
	}

	return Result{Sections: sections, Declared: DeclaredPaths(sections, kind)}
}

// DeclaredPaths returns the input_path values found in kind's import sections.
func DeclaredPaths(sections Sections, kind *cfgkind.Kind) []string {
	out := make([]string, 0)
	if kind == nil {
		return out
	}

	for _, sec := range sections {
		if !kind.IsImportSection(sec.Name) {
			continue
		}

		if v, ok := sec.Get(cfgkind.InputKey); ok && strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}

	return out
}

// Decode parses text strictly.
func Decode(text string) (Sections, error) {
	f, err := ini.LoadSources(loadOptions, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	out := make(Sections, 0, len(f.Sections()))
	for _, sec := range f.Sections() {
		keys := sec.Keys()
		if sec.Name() == ini.DefaultSection && len(keys) == 0 {
			continue
		}

		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, Entry{Key: k.Name(), Value: k.Value()})
		}

		out = append(out, Section{Name: sec.Name(), Entries: entries})
	}

	return out, nil
}

// literal wraps values the reader would otherwise unquote in triple quotes;
// the reader keeps everything up to the last closing triple quote. Values
// holding a newline or backtick are already triple-quoted by the writer, and
// padded values are double-quoted by it, which only survives without inner
// double quotes.
func literal(v string) string {
	if strings.ContainsAny(v, "\n`") {
		return v
	}

	var wrap bool
	if strings.TrimSpace(v) != v {
		wrap = strings.ContainsRune(v, '"')
	} else {
		wrap = strings.HasPrefix(v, `"""`) || surrounded(v, '"') || surrounded(v, '\'')
	}

	if wrap {
		return `"""` + v + `"""`
	}

	return v
}

func surrounded(v string, quote byte) bool {
	return len(v) >= 2 && v[0] == quote && v[len(v)-1] == quote &&
		strings.IndexByte(v[1:], quote) == len(v)-2
}

// Encode renders sections in canonical form. Decode(Encode(s)) equals s.
func Encode(sections Sections) (string, error) {
	f := ini.Empty(loadOptions)

	for _, sec := range sections {
		var target *ini.Section
		if sec.Name == ini.DefaultSection {
			target = f.Section("")
		} else {
			created, err := f.NewSection(sec.Name)
			if err != nil {
				return "", fmt.Errorf("failed to add section %s: %w", sec.Name, err)
			}
			target = created
		}

		for _, e := range sec.Entries {
			if e.Key == "" {
				return "", fmt.Errorf("%w: section %s", ErrEmptyKey, sec.Name)
			}

			if _, err := target.NewKey(e.Key, literal(e.Value)); err != nil {
				return "", fmt.Errorf("failed to add key %s.%s: %w", sec.Name, e.Key, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("failed to render configuration: %w", err)
	}

	return buf.String(), nil
}
