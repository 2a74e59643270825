package library

import "strings"

// Phases offered by the library filter when none are selected.
var Phases = []string{"Acceptance", "Maintenance"}

// Filter returns tests whose name, category, equipment or summary contain
// query (case-insensitive) and that list at least one of the given phases.
// An empty query matches everything; an empty phase list means all phases.
func (r *Registry) Filter(query string, phases []string) []Test {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Test
	for _, t := range r.tests {
		if q != "" && !strings.Contains(t.haystack(), q) {
			continue
		}
		if len(phases) > 0 && !t.inAnyPhase(phases) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (t *Test) haystack() string {
	parts := []string{t.Name, t.Category, strings.Join(t.Equipment, " "), t.Summary}
	return strings.ToLower(strings.Join(parts, " "))
}

func (t *Test) inAnyPhase(phases []string) bool {
	for _, p := range t.Phases {
		for _, want := range phases {
			if strings.EqualFold(p, want) {
				return true
			}
		}
	}
	return false
}
