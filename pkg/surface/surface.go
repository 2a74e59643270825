// Package surface renders library entries, calculator results and explorer
// reports for the terminal, JSON consumers and HTML pages.
package surface

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/library"
)

// Renderer produces formatted output for each kind of result.
type Renderer interface {
	// Tests writes a listing of library tests.
	Tests(w io.Writer, tests []library.Test) error
	// Card writes the full learning card for one test.
	Card(w io.Writer, t *library.Test) error
	// Calculation writes a single-value calculator result.
	Calculation(w io.Writer, c explore.Calculation) error
	// Report writes an explorer report.
	Report(w io.Writer, r *explore.Report) error
	// Voltage writes DC test-voltage guidance for a test.
	Voltage(w io.Writer, t *library.Test, adv library.VoltageAdvice) error
	// Issues writes library validation problems.
	Issues(w io.Writer, issues []library.Issue) error
}

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a JSON renderer for "json" and a terminal renderer otherwise.
// Terminal styling is enabled only when w is a TTY and NO_COLOR is unset.
func New(w io.Writer, format string) Renderer {
	if format == FormatJSON {
		return &JSONRenderer{}
	}
	return &TerminalRenderer{Styles: NewStyles(styled(w))}
}

func styled(w io.Writer) bool {
	if noColor() {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}
