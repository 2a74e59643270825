// Package tui implements the interactive library browser.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mtslab/mtslab/pkg/evaluate"
	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/library"
	"github.com/mtslab/mtslab/pkg/simulate"
	"github.com/mtslab/mtslab/pkg/surface"
)

type screen int

const (
	screenList screen = iota
	screenDetail
)

// Model is the bubbletea model for browsing the test library.
type Model struct {
	reg    *library.Registry
	opts   explore.Options
	screen screen

	filter  textinput.Model
	phase   int // 0 = all, otherwise index+1 into library.Phases
	tests   []library.Test
	cursor  int
	crit    int // selected criterion in the detail screen
	scen    int // index into simulate.Scenarios
	report  *explore.Report
	lastErr error

	width  int
	height int
	keys   keyMap
	styles styles
}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Back     key.Binding
	Filter   key.Binding
	Phase    key.Binding
	NextCrit key.Binding
	PrevCrit key.Binding
	Scenario key.Binding
	Quit     key.Binding
}

type styles struct {
	selected lipgloss.Style
	header   lipgloss.Style
	dim      lipgloss.Style
	section  lipgloss.Style
	helpBar  lipgloss.Style
	status   map[evaluate.Status]lipgloss.Style
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:     key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Phase:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "phase")),
		NextCrit: key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→", "next criterion")),
		PrevCrit: key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←", "prev criterion")),
		Scenario: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scenario")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func defaultStyles() styles {
	return styles{
		selected: lipgloss.NewStyle().Background(lipgloss.Color("237")).Bold(true),
		header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("236")).Padding(0, 1),
		dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		section:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		helpBar:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Background(lipgloss.Color("235")),
		status: map[evaluate.Status]lipgloss.Style{
			evaluate.StatusPass:        lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
			evaluate.StatusInvestigate: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
			evaluate.StatusFail:        lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			evaluate.StatusReview:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
			evaluate.StatusInfo:        lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		},
	}
}

// New creates a browser over reg. Simulations use opts.
func New(reg *library.Registry, opts explore.Options) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search name, category, equipment"
	ti.CharLimit = 64

	m := Model{
		reg:    reg,
		opts:   opts,
		filter: ti,
		keys:   defaultKeyMap(),
		styles: defaultStyles(),
	}
	for i, sc := range simulate.Scenarios {
		if sc == opts.Scenario {
			m.scen = i
		}
	}
	m.refilter()
	return m
}

// Run starts the browser on the alternate screen.
func Run(reg *library.Registry, opts explore.Options) error {
	p := tea.NewProgram(New(reg, opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running library browser: %w", err)
	}
	return nil
}

func (m *Model) phases() []string {
	if m.phase == 0 {
		return nil
	}
	return []string{library.Phases[m.phase-1]}
}

func (m *Model) phaseLabel() string {
	if m.phase == 0 {
		return "All phases"
	}
	return library.Phases[m.phase-1]
}

func (m *Model) refilter() {
	m.tests = m.reg.Filter(m.filter.Value(), m.phases())
	if m.cursor >= len(m.tests) {
		m.cursor = len(m.tests) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Selected returns the highlighted test, or nil when the filter matches nothing.
func (m Model) Selected() *library.Test {
	if len(m.tests) == 0 {
		return nil
	}
	return &m.tests[m.cursor]
}

// Report returns the explorer report of the detail screen, if any.
func (m Model) Report() *explore.Report {
	return m.report
}

func (m *Model) simulate() {
	t := m.Selected()
	m.report, m.lastErr = nil, nil
	if t == nil || len(t.Criteria) == 0 {
		return
	}
	c := &t.Criteria[m.crit]
	if c.Mode == library.ModeQualitative {
		return
	}
	in, err := explore.FromSimulation(*c, simulate.Scenarios[m.scen], 0, m.opts)
	if err != nil {
		m.lastErr = err
		return
	}
	rep, err := explore.Run(library.Entry{Test: t, Criterion: c}, in)
	if err != nil {
		m.lastErr = err
		return
	}
	m.report = rep
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.filter.Focused() {
			return m.updateFilter(msg)
		}
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.screen == screenDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.filter.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refilter()
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.tests)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Filter):
		return m, m.filter.Focus()
	case key.Matches(msg, m.keys.Phase):
		m.phase = (m.phase + 1) % (len(library.Phases) + 1)
		m.refilter()
	case key.Matches(msg, m.keys.Open):
		if m.Selected() != nil {
			m.screen = screenDetail
			m.crit = 0
			m.simulate()
		}
	}
	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.Selected()
	switch {
	case key.Matches(msg, m.keys.Back):
		m.screen = screenList
		m.report = nil
	case key.Matches(msg, m.keys.NextCrit):
		m.crit = (m.crit + 1) % len(t.Criteria)
		m.simulate()
	case key.Matches(msg, m.keys.PrevCrit):
		m.crit = (m.crit + len(t.Criteria) - 1) % len(t.Criteria)
		m.simulate()
	case key.Matches(msg, m.keys.Scenario):
		m.scen = (m.scen + 1) % len(simulate.Scenarios)
		m.simulate()
	}
	return m, nil
}

// View renders the current screen
func (m Model) View() string {
	if m.screen == screenDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m Model) viewList() string {
	var sb strings.Builder
	sb.WriteString(m.styles.header.Render(fmt.Sprintf("Test library  %d/%d  %s", len(m.tests), m.reg.Len(), m.phaseLabel())))
	sb.WriteString("\n")
	if m.filter.Focused() || m.filter.Value() != "" {
		sb.WriteString(m.filter.View())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if len(m.tests) == 0 {
		sb.WriteString(m.styles.dim.Render("No tests match the current filters."))
		sb.WriteString("\n")
	}
	for i, t := range m.tests {
		line := fmt.Sprintf("%-42s %s", t.Name, m.styles.dim.Render(t.Category))
		if i == m.cursor {
			line = m.styles.selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if t := m.Selected(); t != nil {
		sb.WriteString("\n")
		sb.WriteString(m.styles.dim.Render(t.Summary))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.helpBar.Render(" ↑↓ navigate  enter open  / filter  p phase  q quit "))
	return sb.String()
}

func (m Model) viewDetail() string {
	t := m.Selected()
	if t == nil {
		return ""
	}
	c := t.Criteria[m.crit]

	var sb strings.Builder
	sb.WriteString(m.styles.header.Render(t.Name))
	sb.WriteString("\n\n")
	sb.WriteString(t.Purpose)
	sb.WriteString("\n\n")

	sb.WriteString(m.styles.section.Render(fmt.Sprintf("Criterion %d/%d", m.crit+1, len(t.Criteria))))
	sb.WriteString("\n")
	sb.WriteString(surface.Highlight(c))
	sb.WriteString("\n\n")

	switch {
	case m.lastErr != nil:
		sb.WriteString("Error: " + m.lastErr.Error() + "\n")
	case m.report == nil:
		sb.WriteString(m.styles.dim.Render("Qualitative criterion: record observations and review them."))
		sb.WriteString("\n")
	default:
		rep := m.report
		sb.WriteString(m.styles.section.Render(fmt.Sprintf("Simulated trend (%s)", rep.Scenario)))
		sb.WriteString("\n")
		for _, row := range rep.Rows {
			st := m.styles.status[row.Assessment]
			fmt.Fprintf(&sb, "  %2d  %10.3f  %s  %s\n", row.Index, row.Measurement,
				st.Render(fmt.Sprintf("%-11s", row.Assessment)), m.styles.dim.Render(row.Insight))
		}
		sb.WriteString("\n")
		sb.WriteString(rep.Outcome.Narrative)
		sb.WriteString("\n")
		if rep.Meaning != "" {
			sb.WriteString(m.styles.dim.Render(rep.Meaning))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(m.styles.helpBar.Render(" ←→ criterion  s scenario  esc back  q quit "))
	return sb.String()
}
