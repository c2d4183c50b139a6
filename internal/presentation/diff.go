package presentation

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Unresolved marks a capability one side of a diff has no strategy for.
const Unresolved = "(unresolved)"

// ChangeDTO is one capability whose strategy differs between two runs.
type ChangeDTO struct {
	Capability string `json:"capability" yaml:"capability"`
	Base       string `json:"base" yaml:"base"`
	Other      string `json:"other" yaml:"other"`
}

// DiffDTO compares the strategies chosen by two runs.
type DiffDTO struct {
	Base    string      `json:"base" yaml:"base"`
	Other   string      `json:"other" yaml:"other"`
	Changes []ChangeDTO `json:"changes" yaml:"changes"`
	Unified string      `json:"unified" yaml:"unified"`
}

// Diff compares two capability -> strategy maps. Labels name the two sides.
func Diff(baseLabel string, base map[string]string, otherLabel string, other map[string]string) DiffDTO {
	var names []string
	for name := range base {
		names = append(names, name)
	}
	for name := range other {
		if _, ok := base[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	d := DiffDTO{Base: baseLabel, Other: otherLabel, Changes: []ChangeDTO{}}
	for _, name := range names {
		b, o := valueOr(base, name), valueOr(other, name)
		if b != o {
			d.Changes = append(d.Changes, ChangeDTO{Capability: name, Base: b, Other: o})
		}
	}
	d.Unified = unified(render(base, names), render(other, names))
	return d
}

func valueOr(m map[string]string, name string) string {
	if v, ok := m[name]; ok && v != "" {
		return v
	}
	return Unresolved
}

func render(m map[string]string, names []string) string {
	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(valueOr(m, name))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// unified renders a line diff, one "+ ", "- " or "  " prefixed line per input line.
func unified(a, b string) string {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var sb strings.Builder
	for _, diff := range diffs {
		prefix := "  "
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
		}
	}
	return sb.String()
}

var (
	diffHeaderStyle  = lipgloss.NewStyle().Bold(true)
	diffAddedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	diffRemovedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

// Text renders d for a terminal. Colors are dropped when the output is not
// a color-capable terminal.
func (d DiffDTO) Text() string {
	var sb strings.Builder
	sb.WriteString(diffHeaderStyle.Render("--- "+d.Base) + "\n")
	sb.WriteString(diffHeaderStyle.Render("+++ "+d.Other) + "\n")
	for _, line := range strings.Split(strings.TrimSuffix(d.Unified, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+ "):
			line = diffAddedStyle.Render(line)
		case strings.HasPrefix(line, "- "):
			line = diffRemovedStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}
