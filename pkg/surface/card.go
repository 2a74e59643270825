package surface

import (
	"bytes"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/mtslab/mtslab/pkg/library"
)

const highlightFallback = "Refer to calculator guidance for evaluation details."

// Highlight is the one-line acceptance summary of a criterion shown on a card.
func Highlight(c library.Criterion) string {
	if c.Mode == library.ModeAbsolute {
		return strings.TrimSpace(fmt.Sprintf("%s: %s to %s %s", c.Label, plainBound(c.Minimum), plainBound(c.Maximum), c.Unit))
	}
	note := c.Note
	if note == "" {
		note = highlightFallback
	}
	return c.Label + ": " + note
}

func plainBound(v *float64) string {
	if v == nil {
		return "—"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

var statusOrder = map[string]int{"Pass": 0, "Investigate": 1, "Fail": 2, "Review": 3, "Info": 4}

// implicationOrder lists outcome labels in severity order, then any other
// labels alphabetically, with "default" last.
func implicationOrder(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	rank := func(k string) int {
		if r, ok := statusOrder[k]; ok {
			return r
		}
		if k == "default" {
			return 100
		}
		return 50
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// CardMarkdown renders a learning card as Markdown.
func CardMarkdown(t *library.Test) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", t.Name)
	fmt.Fprintf(&sb, "*Category: %s | Equipment: %s*\n\n", t.Category, strings.Join(t.Equipment, ", "))
	fmt.Fprintf(&sb, "%s\n\n", t.Summary)

	sb.WriteString("## Purpose\n\n")
	fmt.Fprintf(&sb, "%s\n\n", t.Purpose)

	sb.WriteString("## Procedure snapshot\n\n")
	for _, step := range t.Procedure {
		fmt.Fprintf(&sb, "- %s\n", step)
	}
	sb.WriteString("\n## Result interpretation\n\n")
	fmt.Fprintf(&sb, "%s\n\n", t.Interpretation)

	if len(t.VoltageTable) > 0 {
		sb.WriteString("## Typical megohmmeter DC test selection\n\n")
		sb.WriteString("| Nameplate ≤ kV | Suggested DC test kV | Typical asset |\n|---|---|---|\n")
		for _, row := range t.VoltageTable {
			fmt.Fprintf(&sb, "| %.1f | %.1f | %s |\n", row.MaxRatingKV, row.DCTestKV, row.Example)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Phases\n\n")
	fmt.Fprintf(&sb, "%s\n\n", strings.Join(t.Phases, ", "))

	sb.WriteString("## Diagnostics cues\n\n")
	fmt.Fprintf(&sb, "- **Watch:** %s\n", t.Diagnostics.Watch)
	fmt.Fprintf(&sb, "- **Investigate:** %s\n", t.Diagnostics.Investigate)
	fmt.Fprintf(&sb, "- **Fail:** %s\n\n", t.Diagnostics.Fail)

	sb.WriteString("## Acceptance highlights\n\n")
	for _, c := range t.Criteria {
		fmt.Fprintf(&sb, "- %s\n", Highlight(c))
	}

	if len(t.Implications) > 0 {
		sb.WriteString("\n## What the outcomes mean\n\n")
		for _, status := range implicationOrder(t.Implications) {
			fmt.Fprintf(&sb, "- **%s:** %s\n", status, t.Implications[status])
		}
	}
	return sb.String()
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// CardHTML renders a learning card as a standalone HTML page.
func CardHTML(t *library.Test) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(CardMarkdown(t)), &body); err != nil {
		return nil, fmt.Errorf("rendering card %s: %w", t.ID, err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(t.Name))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
