package surface

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mtslab/mtslab/pkg/evaluate"
	"github.com/mtslab/mtslab/pkg/summary"
)

// Styles holds the lipgloss styles used by TerminalRenderer. When disabled
// every style renders text unchanged and icons degrade to ASCII.
type Styles struct {
	enabled bool

	Pass        lipgloss.Style
	Investigate lipgloss.Style
	Fail        lipgloss.Style
	Neutral     lipgloss.Style

	Header lipgloss.Style
	Label  lipgloss.Style
	Dim    lipgloss.Style

	IconPass        string
	IconInvestigate string
	IconFail        string
	IconNeutral     string
}

// NewStyles creates styles; enabled=false yields plain text.
func NewStyles(enabled bool) *Styles {
	s := &Styles{enabled: enabled}
	if enabled {
		s.Pass = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))        // green
		s.Investigate = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
		s.Fail = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))         // red
		s.Neutral = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))      // gray

		s.Header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
		s.Label = lipgloss.NewStyle().Bold(true)
		s.Dim = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

		s.IconPass = "✓"
		s.IconInvestigate = "⚠"
		s.IconFail = "✗"
		s.IconNeutral = "ℹ"
		return s
	}

	s.Pass = lipgloss.NewStyle()
	s.Investigate = lipgloss.NewStyle()
	s.Fail = lipgloss.NewStyle()
	s.Neutral = lipgloss.NewStyle()
	s.Header = lipgloss.NewStyle()
	s.Label = lipgloss.NewStyle()
	s.Dim = lipgloss.NewStyle()

	s.IconPass = "OK:"
	s.IconInvestigate = "WARN:"
	s.IconFail = "FAIL:"
	s.IconNeutral = "INFO:"
	return s
}

// Enabled reports whether styling is on.
func (s *Styles) Enabled() bool {
	return s.enabled
}

// Status returns the style and icon for a classification.
func (s *Styles) Status(st evaluate.Status) (lipgloss.Style, string) {
	switch st {
	case evaluate.StatusPass:
		return s.Pass, s.IconPass
	case evaluate.StatusInvestigate:
		return s.Investigate, s.IconInvestigate
	case evaluate.StatusFail:
		return s.Fail, s.IconFail
	default:
		return s.Neutral, s.IconNeutral
	}
}

// Severity returns the style and icon for a series outcome.
func (s *Styles) Severity(sev summary.Severity) (lipgloss.Style, string) {
	switch sev {
	case summary.SeverityError:
		return s.Fail, s.IconFail
	case summary.SeverityWarning:
		return s.Investigate, s.IconInvestigate
	default:
		return s.Pass, s.IconPass
	}
}

// Advice returns the style and icon for a voltage advice level.
func (s *Styles) Advice(level string) (lipgloss.Style, string) {
	if level == "warning" {
		return s.Investigate, s.IconInvestigate
	}
	return s.Neutral, s.IconNeutral
}
