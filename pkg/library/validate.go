package library

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Issue is a single structural problem found in library data.
type Issue struct {
	Location string `json:"location"` // e.g. `test[2] "power_factor" criteria[0]`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Location + ": " + i.Message
	}
	return fmt.Sprintf("%s: %s: %s", i.Location, i.Field, i.Message)
}

// ValidationError reports every issue found while building a registry.
type ValidationError struct {
	Issues []Issue `json:"issues"`
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "library validation failed with %d issue(s)", len(e.Issues))
	for _, is := range e.Issues {
		b.WriteString("\n  - ")
		b.WriteString(is.String())
	}
	return b.String()
}

// Has reports whether any issue names the given field.
func (e *ValidationError) Has(field string) bool {
	for _, is := range e.Issues {
		if is.Field == field {
			return true
		}
	}
	return false
}

// decoder extracts typed values from loosely-typed records while collecting issues.
type decoder struct {
	issues []Issue
}

func (d *decoder) add(loc, field, format string, args ...any) {
	d.issues = append(d.issues, Issue{Location: loc, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (d *decoder) requiredString(rec map[string]any, loc, field string) string {
	raw, ok := rec[field]
	if !ok || raw == nil {
		d.add(loc, field, "missing required field")
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		d.add(loc, field, "expected string, got %s", typeName(raw))
		return ""
	}
	if strings.TrimSpace(s) == "" {
		d.add(loc, field, "must not be empty")
	}
	return s
}

func (d *decoder) optionalString(rec map[string]any, loc, field string) string {
	raw, ok := rec[field]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		d.add(loc, field, "expected string, got %s", typeName(raw))
		return ""
	}
	return s
}

func (d *decoder) requiredStrings(rec map[string]any, loc, field string) []string {
	raw, ok := rec[field]
	if !ok || raw == nil {
		d.add(loc, field, "missing required field")
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		d.add(loc, field, "expected list of strings, got %s", typeName(raw))
		return nil
	}
	if len(items) == 0 {
		d.add(loc, field, "must not be empty")
		return nil
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			d.add(loc, fmt.Sprintf("%s[%d]", field, i), "expected non-empty string")
			continue
		}
		out = append(out, s)
	}
	return out
}

func (d *decoder) requiredMap(rec map[string]any, loc, field string) map[string]any {
	raw, ok := rec[field]
	if !ok || raw == nil {
		d.add(loc, field, "missing required field")
		return nil
	}
	m, ok := asMap(raw)
	if !ok {
		d.add(loc, field, "expected mapping, got %s", typeName(raw))
		return nil
	}
	return m
}

func (d *decoder) stringMap(m map[string]any, loc, field string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		s, ok := v.(string)
		if !ok {
			d.add(loc, field+"."+k, "expected string, got %s", typeName(v))
			continue
		}
		out[k] = s
	}
	return out
}

func (d *decoder) optionalNumber(rec map[string]any, loc, field string) *float64 {
	raw, ok := rec[field]
	if !ok || raw == nil {
		return nil
	}
	f, ok := toFloat(raw)
	if !ok {
		d.add(loc, field, "expected number, got %s", typeName(raw))
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		d.add(loc, field, "must be a finite number")
		return nil
	}
	return ptr(f)
}

func (d *decoder) requiredNumber(rec map[string]any, loc, field string) float64 {
	if _, ok := rec[field]; !ok {
		d.add(loc, field, "missing required field")
		return 0
	}
	if f := d.optionalNumber(rec, loc, field); f != nil {
		return *f
	}
	return 0
}

// checkBounds enforces the per-mode field subset and the caution/hard ordering.
func (d *decoder) checkBounds(c Criterion, loc string) {
	if !c.Mode.Valid() {
		return
	}
	if c.Mode == ModeQualitative {
		if !c.Bounds.Empty() {
			d.add(loc, "evaluation_type", "qualitative criteria must not define numeric bounds")
		}
		return
	}
	b := c.Bounds
	if b.Empty() {
		d.add(loc, "", "%s criteria need at least one of minimum, maximum, investigate_below, investigate_above", c.Mode)
		return
	}
	if b.InvestigateAbove != nil && b.Maximum != nil && *b.InvestigateAbove >= *b.Maximum {
		d.add(loc, "investigate_above", "caution bound %s must be below maximum %s",
			FormatBound(*b.InvestigateAbove), FormatBound(*b.Maximum))
	}
	if b.InvestigateBelow != nil && b.Minimum != nil && *b.InvestigateBelow <= *b.Minimum {
		d.add(loc, "investigate_below", "caution bound %s must be above minimum %s",
			FormatBound(*b.InvestigateBelow), FormatBound(*b.Minimum))
	}
	if b.Minimum != nil && b.Maximum != nil && *b.Minimum >= *b.Maximum {
		d.add(loc, "minimum", "minimum %s must be below maximum %s",
			FormatBound(*b.Minimum), FormatBound(*b.Maximum))
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "list"
	case map[string]any, map[any]any:
		return "mapping"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
