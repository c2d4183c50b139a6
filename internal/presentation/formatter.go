package presentation

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	// FormatText is YAML except for diffs, which render as colored lines.
	FormatText = "text"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	format string
}

// NewFormatter creates a formatter writing format ("json", "yaml" or "text").
func NewFormatter(writer io.Writer, format string) (*Formatter, error) {
	switch format {
	case "", FormatJSON:
		format = FormatJSON
	case FormatYAML, FormatText:
	default:
		return nil, fmt.Errorf("unknown output format %q (want json, yaml or text)", format)
	}
	return &Formatter{writer: writer, format: format}, nil
}

// FormatProfile writes a profile.
func (f *Formatter) FormatProfile(p ProfileDTO) error {
	return f.encode(p)
}

// FormatCandidates writes a candidate listing.
func (f *Formatter) FormatCandidates(c CandidatesDTO) error {
	return f.encode(c)
}

// FormatResolve writes the result of a resolve run.
func (f *Formatter) FormatResolve(r ResolveDTO) error {
	return f.encode(r)
}

// FormatCatalog writes a catalog listing.
func (f *Formatter) FormatCatalog(c CatalogDTO) error {
	return f.encode(c)
}

// FormatDiff writes a strategy diff.
func (f *Formatter) FormatDiff(d DiffDTO) error {
	if f.format == FormatText {
		_, err := io.WriteString(f.writer, d.Text())
		return err
	}
	return f.encode(d)
}

// FormatHistory writes a list of recorded sessions.
func (f *Formatter) FormatHistory(h HistoryDTO) error {
	return f.encode(h)
}

// FormatSession writes one recorded session.
func (f *Formatter) FormatSession(s SessionDTO) error {
	return f.encode(s)
}

func (f *Formatter) encode(v any) error {
	if f.format != FormatJSON {
		encoder := yaml.NewEncoder(f.writer)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	}
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
