// Package library holds the curated catalogue of electrical acceptance and
// maintenance tests and the criteria used to classify their results.
// A Registry is built once from validated records and is read-only afterwards.
package library

import "strconv"

// Mode selects how a raw reading is turned into the statistic compared against bounds.
type Mode string

const (
	ModeAbsolute         Mode = "absolute"
	ModePercentageChange Mode = "percentage_change"
	ModeRatio            Mode = "ratio"
	ModeQualitative      Mode = "qualitative"
)

// Valid reports whether m is one of the known evaluation modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeAbsolute, ModePercentageChange, ModeRatio, ModeQualitative:
		return true
	default:
		return false
	}
}

// Numeric reports whether the mode compares a number against bounds.
func (m Mode) Numeric() bool {
	return m.Valid() && m != ModeQualitative
}

// Bounds are the optional thresholds of a numeric criterion.
// Hard bounds (Minimum, Maximum) produce Fail; caution bounds produce Investigate.
type Bounds struct {
	Minimum          *float64 `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	InvestigateBelow *float64 `json:"investigate_below,omitempty" yaml:"investigate_below,omitempty"`
	InvestigateAbove *float64 `json:"investigate_above,omitempty" yaml:"investigate_above,omitempty"`
}

// Empty reports whether no bound is set.
func (b Bounds) Empty() bool {
	return b.Minimum == nil && b.Maximum == nil && b.InvestigateBelow == nil && b.InvestigateAbove == nil
}

// Criterion is one measurable acceptance rule.
type Criterion struct {
	ID              string `json:"id" yaml:"id"`
	Label           string `json:"label" yaml:"label"`
	Parameter       string `json:"parameter" yaml:"parameter"`
	Unit            string `json:"unit" yaml:"unit"`
	Mode            Mode   `json:"evaluation_type" yaml:"evaluation_type"`
	Bounds          `yaml:",inline"`
	Note            string `json:"note,omitempty" yaml:"note,omitempty"`
	InvestigateNote string `json:"investigate_note,omitempty" yaml:"investigate_note,omitempty"`
}

// Diagnostics are the qualitative cues listed on a learning card.
type Diagnostics struct {
	Watch       string `json:"watch" yaml:"watch"`
	Investigate string `json:"investigate" yaml:"investigate"`
	Fail        string `json:"fail" yaml:"fail"`
}

// VoltageStep is one row of a DC megohmmeter test-voltage table.
type VoltageStep struct {
	MaxRatingKV float64 `json:"max_rating_kv" yaml:"max_rating_kv"`
	DCTestKV    float64 `json:"dc_test_kv" yaml:"dc_test_kv"`
	Example     string  `json:"example,omitempty" yaml:"example,omitempty"`
}

// Test is a named procedure that owns one or more criteria.
type Test struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Category       string            `json:"category" yaml:"category"`
	Summary        string            `json:"summary" yaml:"summary"`
	Equipment      []string          `json:"equipment" yaml:"equipment"`
	Phases         []string          `json:"phases" yaml:"phases"`
	Purpose        string            `json:"purpose" yaml:"purpose"`
	Procedure      []string          `json:"procedure" yaml:"procedure"`
	Interpretation string            `json:"interpretation" yaml:"interpretation"`
	Criteria       []Criterion       `json:"criteria" yaml:"criteria"`
	Diagnostics    Diagnostics       `json:"diagnostics" yaml:"diagnostics"`
	Implications   map[string]string `json:"result_implications" yaml:"result_implications"`
	VoltageTable   []VoltageStep     `json:"kv_recommendations,omitempty" yaml:"kv_recommendations,omitempty"`
}

// Meaning returns the explanatory text for a classification label, falling
// back to the "default" entry. It returns "" when neither exists.
func (t *Test) Meaning(status string) string {
	if t == nil || t.Implications == nil {
		return ""
	}
	if m := t.Implications[status]; m != "" {
		return m
	}
	return t.Implications["default"]
}

// FormatBound renders a threshold the way it is written in the library:
// always with a fractional part ("5.0", "0.25", "7200.0").
func FormatBound(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for _, c := range s {
		if c == '.' {
			return s
		}
	}
	return s + ".0"
}

func ptr(f float64) *float64 {
	return &f
}
