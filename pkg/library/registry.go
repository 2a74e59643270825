package library

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownTest is returned when a test ID is not in the registry.
	ErrUnknownTest = errors.New("library: unknown test")

	// ErrUnknownCriterion is returned when a criterion ID is not in the registry.
	ErrUnknownCriterion = errors.New("library: unknown criterion")
)

// Entry pairs a criterion with the test that owns it. Entries handed out
// by a Registry point at copies; their slices and maps are shared with the
// registry and must not be modified.
type Entry struct {
	Test      *Test
	Criterion *Criterion
}

// Title is the caption used by pickers: test name, an em dash, then the criterion label.
func (e Entry) Title() string {
	return e.Test.Name + " — " + e.Criterion.Label
}

// Registry is an immutable, indexed collection of tests, safe for
// concurrent use. Accessors return copies of tests and criteria; the
// slices and maps inside them are shared and read-only.
type Registry struct {
	tests       []Test
	byTest      map[string]int
	byCriterion map[string]Entry
	order       []string // criterion IDs in library order
}

// Build validates raw test records and indexes them. It either returns a
// complete registry or a *ValidationError listing every problem found.
func Build(records []map[string]any) (*Registry, error) {
	d := &decoder{}
	tests := make([]Test, 0, len(records))
	testSeen := make(map[string]string)
	critSeen := make(map[string]string)

	if len(records) == 0 {
		d.add("library", "tests", "must contain at least one test")
	}

	for i, rec := range records {
		loc := fmt.Sprintf("test[%d]", i)
		if id, ok := rec["id"].(string); ok && id != "" {
			loc = fmt.Sprintf("test[%d] %q", i, id)
		}
		t := decodeTest(d, rec, loc)

		if t.ID != "" {
			if prev, dup := testSeen[t.ID]; dup {
				d.add(loc, "id", "duplicate test id %q (first defined at %s)", t.ID, prev)
			} else {
				testSeen[t.ID] = loc
			}
		}
		for j, c := range t.Criteria {
			if c.ID == "" {
				continue
			}
			cloc := fmt.Sprintf("%s criteria[%d]", loc, j)
			if prev, dup := critSeen[c.ID]; dup {
				d.add(cloc, "id", "duplicate criterion id %q (first defined at %s)", c.ID, prev)
			} else {
				critSeen[c.ID] = cloc
			}
		}
		tests = append(tests, t)
	}

	if len(d.issues) > 0 {
		return nil, &ValidationError{Issues: d.issues}
	}
	return index(tests), nil
}

func decodeTest(d *decoder, rec map[string]any, loc string) Test {
	t := Test{
		ID:             d.requiredString(rec, loc, "id"),
		Name:           d.requiredString(rec, loc, "name"),
		Category:       d.requiredString(rec, loc, "category"),
		Summary:        d.requiredString(rec, loc, "summary"),
		Equipment:      d.requiredStrings(rec, loc, "equipment"),
		Phases:         d.requiredStrings(rec, loc, "phases"),
		Purpose:        d.requiredString(rec, loc, "purpose"),
		Procedure:      d.requiredStrings(rec, loc, "procedure"),
		Interpretation: d.requiredString(rec, loc, "interpretation"),
	}

	if diag := d.requiredMap(rec, loc, "diagnostics"); diag != nil {
		m := d.stringMap(diag, loc, "diagnostics")
		t.Diagnostics = Diagnostics{Watch: m["watch"], Investigate: m["investigate"], Fail: m["fail"]}
	}
	if impl := d.requiredMap(rec, loc, "result_implications"); impl != nil {
		t.Implications = d.stringMap(impl, loc, "result_implications")
	}

	if raw, ok := rec["criteria"]; !ok || raw == nil {
		d.add(loc, "criteria", "missing required field")
	} else if items, ok := raw.([]any); !ok {
		d.add(loc, "criteria", "expected list, got %s", typeName(raw))
	} else if len(items) == 0 {
		d.add(loc, "criteria", "must not be empty")
	} else {
		for j, item := range items {
			cloc := fmt.Sprintf("%s criteria[%d]", loc, j)
			crec, ok := asMap(item)
			if !ok {
				d.add(cloc, "", "expected mapping, got %s", typeName(item))
				continue
			}
			t.Criteria = append(t.Criteria, decodeCriterion(d, crec, cloc))
		}
	}

	if raw, ok := rec["kv_recommendations"]; ok && raw != nil {
		items, ok := raw.([]any)
		if !ok {
			d.add(loc, "kv_recommendations", "expected list, got %s", typeName(raw))
		}
		for j, item := range items {
			sloc := fmt.Sprintf("%s kv_recommendations[%d]", loc, j)
			srec, ok := asMap(item)
			if !ok {
				d.add(sloc, "", "expected mapping, got %s", typeName(item))
				continue
			}
			t.VoltageTable = append(t.VoltageTable, VoltageStep{
				MaxRatingKV: d.requiredNumber(srec, sloc, "max_rating_kv"),
				DCTestKV:    d.requiredNumber(srec, sloc, "dc_test_kv"),
				Example:     d.optionalString(srec, sloc, "example"),
			})
		}
	}
	return t
}

func decodeCriterion(d *decoder, rec map[string]any, loc string) Criterion {
	c := Criterion{
		ID:        d.requiredString(rec, loc, "id"),
		Label:     d.requiredString(rec, loc, "label"),
		Parameter: d.requiredString(rec, loc, "parameter"),
		Unit:      d.requiredString(rec, loc, "unit"),
		Mode:      Mode(d.requiredString(rec, loc, "evaluation_type")),
		Bounds: Bounds{
			Minimum:          d.optionalNumber(rec, loc, "minimum"),
			Maximum:          d.optionalNumber(rec, loc, "maximum"),
			InvestigateBelow: d.optionalNumber(rec, loc, "investigate_below"),
			InvestigateAbove: d.optionalNumber(rec, loc, "investigate_above"),
		},
		Note:            d.optionalString(rec, loc, "note"),
		InvestigateNote: d.optionalString(rec, loc, "investigate_note"),
	}
	if c.Mode != "" && !c.Mode.Valid() {
		d.add(loc, "evaluation_type", "unknown evaluation mode %q", c.Mode)
	}
	d.checkBounds(c, loc)
	return c
}

func index(tests []Test) *Registry {
	r := &Registry{
		tests:       tests,
		byTest:      make(map[string]int, len(tests)),
		byCriterion: make(map[string]Entry),
	}
	for i := range r.tests {
		t := &r.tests[i]
		r.byTest[t.ID] = i
		for j := range t.Criteria {
			c := &t.Criteria[j]
			r.byCriterion[c.ID] = Entry{Test: t, Criterion: c}
			r.order = append(r.order, c.ID)
		}
	}
	return r
}

// Tests returns a copy of all tests in library order.
func (r *Registry) Tests() []Test {
	return slices.Clone(r.tests)
}

// Len returns the number of tests.
func (r *Registry) Len() int {
	return len(r.tests)
}

// Test looks up a test by ID and returns a copy of it.
func (r *Registry) Test(id string) (*Test, error) {
	i, ok := r.byTest[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTest, id)
	}
	t := r.tests[i]
	return &t, nil
}

// Criterion looks up a criterion and its owning test by criterion ID.
func (r *Registry) Criterion(id string) (Entry, error) {
	e, ok := r.byCriterion[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownCriterion, id)
	}
	return e.clone(), nil
}

// Entries returns every criterion with its owning test, in library order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byCriterion[id].clone())
	}
	return out
}

func (e Entry) clone() Entry {
	t, c := *e.Test, *e.Criterion
	return Entry{Test: &t, Criterion: &c}
}
