// Package evaluate classifies a single measurement against a criterion.
package evaluate

import (
	"fmt"
	"math"
	"strings"

	"github.com/mtslab/mtslab/pkg/library"
)

// Status is the outcome of evaluating one measurement.
type Status string

const (
	StatusPass        Status = "Pass"
	StatusInvestigate Status = "Investigate"
	StatusFail        Status = "Fail"
	StatusReview      Status = "Review"
	StatusInfo        Status = "Info"
)

// Measurement is a reading and its optional baseline. A nil or NaN Value is
// treated as missing.
type Measurement struct {
	Value    *float64 `json:"value"`
	Baseline *float64 `json:"baseline,omitempty"`
}

// Reading builds a measurement without a baseline.
func Reading(v float64) Measurement {
	return Measurement{Value: &v}
}

// WithBaseline returns a copy of m with the given baseline.
func (m Measurement) WithBaseline(b float64) Measurement {
	m.Baseline = &b
	return m
}

// Classification is the immutable result of an evaluation.
type Classification struct {
	Status    Status   `json:"status"`
	Detail    string   `json:"detail"`
	Statistic *float64 `json:"statistic,omitempty"` // value compared against bounds; nil when not finite
}

// Messages for results that never reach bound checking.
const (
	msgQualitative     = "Document observations — qualitative checks rely on professional judgment."
	msgMissingValue    = "Enter a numeric value to evaluate."
	msgMissingBaseline = "Baseline or reference value is required to compute percent change."
)

// Evaluate maps a measurement to a classification. It never fails: missing
// input produces StatusInfo and qualitative criteria always produce StatusReview.
func Evaluate(c library.Criterion, m Measurement) Classification {
	if c.Mode == library.ModeQualitative {
		return Classification{Status: StatusReview, Detail: msgQualitative}
	}
	if m.Value == nil || math.IsNaN(*m.Value) {
		return Classification{Status: StatusInfo, Detail: msgMissingValue}
	}

	stat := *m.Value
	var detail string
	switch c.Mode {
	case library.ModePercentageChange:
		if m.Baseline == nil || *m.Baseline == 0 || math.IsNaN(*m.Baseline) {
			return Classification{Status: StatusInfo, Detail: msgMissingBaseline}
		}
		b := *m.Baseline
		stat = math.Abs((stat-b)/b) * 100
		detail = fmt.Sprintf("Computed change: %.2f%%", stat)
	case library.ModeRatio:
		detail = fmt.Sprintf("Measured ratio: %.2f", stat)
	default:
		detail = strings.TrimSpace(fmt.Sprintf("Measured value: %.2f %s", stat, c.Unit))
	}

	status, suffix := check(c.Bounds, stat)
	cl := Classification{Status: status, Detail: detail + suffix}
	if !math.IsInf(stat, 0) && !math.IsNaN(stat) {
		cl.Statistic = &stat
	}
	return cl
}

// check applies the lower bounds, then the upper bounds. Comparisons are
// strict, and a triggered upper bound overrides the lower result.
func check(b library.Bounds, stat float64) (Status, string) {
	status := StatusPass
	var suffix string

	switch {
	case b.Minimum != nil && stat < *b.Minimum:
		status = StatusFail
		suffix += " — below minimum of " + library.FormatBound(*b.Minimum) + "."
	case b.InvestigateBelow != nil && stat < *b.InvestigateBelow:
		status = StatusInvestigate
		suffix += " — below caution threshold of " + library.FormatBound(*b.InvestigateBelow) + "."
	}

	switch {
	case b.Maximum != nil && stat > *b.Maximum:
		status = StatusFail
		suffix += " — above maximum of " + library.FormatBound(*b.Maximum) + "."
	case b.InvestigateAbove != nil && stat > *b.InvestigateAbove:
		status = StatusInvestigate
		suffix += " — above caution threshold of " + library.FormatBound(*b.InvestigateAbove) + "."
	}

	return status, suffix
}
