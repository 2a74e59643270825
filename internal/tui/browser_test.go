package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/library"
	"github.com/mtslab/mtslab/pkg/simulate"
)

func newModel(t *testing.T) Model {
	t.Helper()
	reg, err := library.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	return New(reg, explore.DefaultOptions())
}

func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	right = tea.KeyMsg{Type: tea.KeyRight}
)

func TestNavigation(t *testing.T) {
	m := newModel(t)
	if m.Selected().ID != "visual_inspection" {
		t.Fatalf("expected first test selected, got %q", m.Selected().ID)
	}
	m = press(m, down, down)
	if m.Selected().ID != "contact_resistance" {
		t.Errorf("after two downs selected %q", m.Selected().ID)
	}
	if !strings.Contains(m.View(), "Test library  10/10") {
		t.Errorf("unexpected header in view:\n%s", m.View())
	}
}

func TestFilterAndPhase(t *testing.T) {
	m := newModel(t)
	m = press(m, runes("/"), runes("dissolved"), enter)
	if m.filter.Focused() {
		t.Error("enter should leave filter mode")
	}
	if len(m.tests) != 1 || m.Selected().ID != "transformer_dga" {
		t.Fatalf("expected only DGA, got %d tests", len(m.tests))
	}

	// DGA is a maintenance-only test.
	m = press(m, runes("p"))
	if m.phaseLabel() != "Acceptance" || m.Selected() != nil {
		t.Errorf("phase=%q selected=%v", m.phaseLabel(), m.Selected())
	}
	if !strings.Contains(m.View(), "No tests match") {
		t.Error("expected empty-state message")
	}
	m = press(m, runes("p"))
	if m.Selected() == nil {
		t.Error("expected DGA under Maintenance")
	}
}

func TestDetailSimulation(t *testing.T) {
	m := newModel(t)
	m = press(m, down, down, down, down, enter) // breaker_timing
	if m.screen != screenDetail {
		t.Fatal("expected detail screen")
	}
	rep := m.Report()
	if rep == nil {
		t.Fatal("expected simulated report")
	}
	if rep.CriterionID != "cb_open_time" || rep.Scenario != simulate.Drifting || len(rep.Rows) != 6 {
		t.Errorf("unexpected report: criterion=%q scenario=%q rows=%d", rep.CriterionID, rep.Scenario, len(rep.Rows))
	}

	m = press(m, right)
	if m.Report().CriterionID != "cb_pole_sync" {
		t.Errorf("expected second criterion, got %q", m.Report().CriterionID)
	}
	m = press(m, runes("s"))
	if m.Report().Scenario != simulate.OutOfTolerance {
		t.Errorf("expected scenario to cycle, got %q", m.Report().Scenario)
	}
	if !strings.Contains(m.View(), "Simulated trend (Out of tolerance)") {
		t.Errorf("unexpected detail view:\n%s", m.View())
	}

	m = press(m, esc)
	if m.screen != screenList || m.Report() != nil {
		t.Error("esc should return to the list")
	}
}

func TestQualitativeDetail(t *testing.T) {
	m := press(newModel(t), enter) // visual_inspection
	if m.Report() != nil {
		t.Error("qualitative criteria should not simulate")
	}
	if !strings.Contains(m.View(), "Qualitative criterion") {
		t.Errorf("unexpected view:\n%s", m.View())
	}
}

func TestQuit(t *testing.T) {
	m := newModel(t)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
