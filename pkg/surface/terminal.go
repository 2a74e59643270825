package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/library"
	"github.com/mtslab/mtslab/pkg/series"
)

// TerminalRenderer renders results as styled terminal text.
type TerminalRenderer struct {
	Styles *Styles
}

func (r *TerminalRenderer) styles() *Styles {
	if r.Styles == nil {
		r.Styles = NewStyles(false)
	}
	return r.Styles
}

func (r *TerminalRenderer) Tests(w io.Writer, tests []library.Test) error {
	s := r.styles()
	if len(tests) == 0 {
		fmt.Fprintln(w, "No tests match that filter. Try a broader search term.")
		return nil
	}
	for _, t := range tests {
		fmt.Fprintf(w, "%s  %s\n", s.Header.Render(t.Name), s.Dim.Render("("+t.ID+")"))
		fmt.Fprintf(w, "  %s | %s | %s\n", t.Category, strings.Join(t.Phases, ", "), strings.Join(t.Equipment, ", "))
		for _, line := range wrapText(t.Summary, 76) {
			fmt.Fprintf(w, "  %s\n", s.Dim.Render(line))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d test(s)\n", len(tests))
	return nil
}

func (r *TerminalRenderer) Card(w io.Writer, t *library.Test) error {
	s := r.styles()
	fmt.Fprintf(w, "%s\n", s.Header.Render(t.Name))
	fmt.Fprintf(w, "%s\n\n", s.Dim.Render(fmt.Sprintf("Category: %s | Equipment: %s", t.Category, strings.Join(t.Equipment, ", "))))
	writeWrapped(w, t.Summary, "")
	fmt.Fprintln(w)

	section := func(title string) { fmt.Fprintf(w, "\n%s\n", s.Label.Render(title)) }

	section("Purpose")
	writeWrapped(w, t.Purpose, "  ")
	section("Procedure snapshot")
	for _, step := range t.Procedure {
		writeWrapped(w, "• "+step, "  ")
	}
	section("Result interpretation")
	writeWrapped(w, t.Interpretation, "  ")

	if len(t.VoltageTable) > 0 {
		section("Typical megohmmeter DC test selection")
		fmt.Fprintf(w, "  %-16s %-22s %s\n", "Nameplate ≤ kV", "Suggested DC test kV", "Typical asset")
		for _, row := range t.VoltageTable {
			fmt.Fprintf(w, "  %-16.1f %-22.1f %s\n", row.MaxRatingKV, row.DCTestKV, row.Example)
		}
	}

	section("Phases")
	fmt.Fprintf(w, "  %s\n", strings.Join(t.Phases, ", "))

	section("Diagnostics cues")
	watch, _ := s.Status("Pass")
	inv, _ := s.Status("Investigate")
	fail, _ := s.Status("Fail")
	writeWrapped(w, watch.Render("Watch:")+" "+t.Diagnostics.Watch, "  ")
	writeWrapped(w, inv.Render("Investigate:")+" "+t.Diagnostics.Investigate, "  ")
	writeWrapped(w, fail.Render("Fail:")+" "+t.Diagnostics.Fail, "  ")

	section("Acceptance highlights")
	for _, c := range t.Criteria {
		writeWrapped(w, "• "+Highlight(c), "  ")
	}

	if len(t.Implications) > 0 {
		section("What the outcomes mean")
		for _, status := range implicationOrder(t.Implications) {
			writeWrapped(w, s.Label.Render(status+":")+" "+t.Implications[status], "  ")
		}
	}
	return nil
}

func (r *TerminalRenderer) Calculation(w io.Writer, c explore.Calculation) error {
	s := r.styles()
	style, icon := s.Status(c.Classification.Status)

	fmt.Fprintf(w, "%s\n\n", s.Header.Render(c.Title))
	if c.Voltage != nil {
		r.voltageLines(w, *c.Voltage)
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%s %s\n", icon, style.Bold(s.Enabled()).Render(string(c.Classification.Status)))
	writeWrapped(w, c.Classification.Detail, "  ")
	if c.Note != "" {
		writeWrapped(w, s.Dim.Render(c.Note), "  ")
	}
	if c.Hint != "" && c.Hint != c.Note {
		fmt.Fprintln(w)
		writeWrapped(w, c.Hint, "")
	}
	if c.Meaning != "" {
		fmt.Fprintln(w)
		writeWrapped(w, "What this result means: "+c.Meaning, "")
	}
	if c.VoltageNote != "" {
		fmt.Fprintln(w)
		writeWrapped(w, s.Dim.Render(c.VoltageNote), "")
	}
	return nil
}

func (r *TerminalRenderer) Report(w io.Writer, rep *explore.Report) error {
	s := r.styles()
	fmt.Fprintf(w, "%s\n", s.Header.Render(rep.Title))
	switch rep.Source {
	case explore.SourceSimulated:
		fmt.Fprintf(w, "%s\n", s.Dim.Render(fmt.Sprintf("Simulated %s scenario (latest last): %s", rep.Scenario, series.Format(measurements(rep)))))
	case explore.SourceFile:
		fmt.Fprintf(w, "%s\n", s.Dim.Render("Imported measurements (latest last)"))
	}
	if rep.Baseline != nil {
		fmt.Fprintf(w, "%s\n", s.Dim.Render(fmt.Sprintf("Baseline assumed for percent-change calculations: %.2f", *rep.Baseline)))
	}
	if len(rep.Invalid) > 0 {
		_, icon := s.Status("Investigate")
		fmt.Fprintf(w, "%s Ignored invalid entries: %s\n", icon, strings.Join(rep.Invalid, ", "))
	}
	if rep.Voltage != nil {
		fmt.Fprintln(w)
		r.voltageLines(w, *rep.Voltage)
	}

	fmt.Fprintf(w, "\n%s: %s  (%s)\n\n", s.Label.Render(rep.LatestLabel), fmt.Sprintf("%.3f", rep.Latest), rep.DeltaText())

	fmt.Fprintf(w, "  %-3s %12s  %-12s %s\n", "#", "Measurement", "Assessment", "Insight")
	for _, row := range rep.Rows {
		style, _ := s.Status(row.Assessment)
		fmt.Fprintf(w, "  %-3d %12.3f  %s %s\n", row.Index, row.Measurement,
			style.Render(fmt.Sprintf("%-12s", row.Assessment)), row.Insight)
	}
	fmt.Fprintf(w, "\n%s\n", s.Dim.Render("Y-axis: "+rep.YLabel))

	style, icon := s.Severity(rep.Outcome.Severity)
	fmt.Fprintln(w)
	writeWrapped(w, icon+" "+style.Render(rep.Outcome.Narrative), "")

	if rep.Meaning != "" && len(rep.Rows) > 0 {
		fmt.Fprintln(w)
		latest := rep.Rows[len(rep.Rows)-1].Assessment
		writeWrapped(w, fmt.Sprintf("Latest classification (%s): %s", latest, rep.Meaning), "")
	}
	if rep.VoltageNote != "" {
		fmt.Fprintln(w)
		writeWrapped(w, s.Dim.Render(rep.VoltageNote), "")
	}
	return nil
}

func (r *TerminalRenderer) Voltage(w io.Writer, t *library.Test, adv library.VoltageAdvice) error {
	s := r.styles()
	fmt.Fprintf(w, "%s\n\n", s.Header.Render(t.Name+" — test voltage context"))
	r.voltageLines(w, adv)
	return nil
}

func (r *TerminalRenderer) voltageLines(w io.Writer, adv library.VoltageAdvice) {
	s := r.styles()
	fmt.Fprintf(w, "Equipment nameplate voltage: %.1f kV\n", adv.NameplateKV)
	fmt.Fprintf(w, "Suggested ANSI/NETA DC test voltage: %.1f kV\n", adv.RecommendedKV)
	fmt.Fprintf(w, "Applied DC test voltage: %.1f kV\n", adv.AppliedKV)
	style, icon := s.Advice(adv.Level)
	writeWrapped(w, icon+" "+style.Render(adv.Message), "")
}

func (r *TerminalRenderer) Issues(w io.Writer, issues []library.Issue) error {
	s := r.styles()
	if len(issues) == 0 {
		fmt.Fprintf(w, "%s library is valid\n", s.IconPass)
		return nil
	}
	fmt.Fprintf(w, "%s %d issue(s) found:\n", s.IconFail, len(issues))
	for _, is := range issues {
		fmt.Fprintf(w, "  %s %s\n", s.Dim.Render(is.Location+":"), fieldMessage(is))
	}
	return nil
}

func fieldMessage(is library.Issue) string {
	if is.Field == "" {
		return is.Message
	}
	return is.Field + ": " + is.Message
}

func measurements(rep *explore.Report) []float64 {
	out := make([]float64, len(rep.Rows))
	for i, row := range rep.Rows {
		out[i] = row.Measurement
	}
	return out
}

func writeWrapped(w io.Writer, s, indent string) {
	for _, line := range wrapText(s, 78-len(indent)) {
		fmt.Fprintf(w, "%s%s\n", indent, line)
	}
}

// wrapText wraps a string at the given width, returning lines.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return lines
}
