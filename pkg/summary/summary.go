// Package summary rolls a series of classifications up into one severity
// and a narrative suitable for a report banner.
package summary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mtslab/mtslab/pkg/evaluate"
	"github.com/mtslab/mtslab/pkg/library"
)

// Severity is the overall outcome of a series.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
)

// Trend is the direction from the first to the last measurement.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendFlat       Trend = "flat"
)

const trendTolerance = 1e-9

var (
	// ErrEmptySeries is returned when there is nothing to summarize.
	ErrEmptySeries = errors.New("summary: series is empty")

	// ErrLengthMismatch is returned when the input slices are not parallel.
	ErrLengthMismatch = errors.New("summary: measurements, statuses and details differ in length")
)

// Outcome is the summarized result of a series.
type Outcome struct {
	Severity  Severity                `json:"severity"`
	Narrative string                  `json:"narrative"`
	Trend     Trend                   `json:"trend"`
	Counts    map[evaluate.Status]int `json:"counts"`
}

// Summarize aggregates parallel slices of measurements, statuses and
// details. The "latest" reading is the last element. c may be nil.
func Summarize(measurements []float64, statuses []evaluate.Status, details []string, c *library.Criterion) (Outcome, error) {
	if len(measurements) == 0 {
		return Outcome{}, ErrEmptySeries
	}
	if len(statuses) != len(measurements) || len(details) != len(measurements) {
		return Outcome{}, fmt.Errorf("%w: %d, %d, %d", ErrLengthMismatch, len(measurements), len(statuses), len(details))
	}

	counts := make(map[evaluate.Status]int)
	for _, s := range statuses {
		counts[s]++
	}
	last := len(measurements) - 1
	latestStatus, latestDetail := statuses[last], details[last]
	trend := TrendOf(measurements[0], measurements[last])

	var b strings.Builder
	var sev Severity
	switch {
	case counts[evaluate.StatusFail] > 0:
		sev = SeverityError
		fmt.Fprintf(&b, "%d measurement(s) exceeded the published limit. Latest status: %s — %s.",
			counts[evaluate.StatusFail], latestStatus, latestDetail)
	case counts[evaluate.StatusInvestigate] > 0:
		sev = SeverityWarning
		fmt.Fprintf(&b, "%d measurement(s) entered the investigate band. Latest status: %s — %s.",
			counts[evaluate.StatusInvestigate], latestStatus, latestDetail)
	default:
		sev = SeveritySuccess
		fmt.Fprintf(&b, "All %d readings remain within the advisory band. Latest detail: %s.",
			len(measurements), latestDetail)
	}
	fmt.Fprintf(&b, " Trend appears %s.", trend)
	if c != nil && c.Note != "" {
		b.WriteString(" " + c.Note)
	}

	return Outcome{Severity: sev, Narrative: b.String(), Trend: trend, Counts: counts}, nil
}

// TrendOf compares two readings with a small tolerance.
func TrendOf(first, last float64) Trend {
	switch {
	case last > first+trendTolerance:
		return TrendIncreasing
	case last < first-trendTolerance:
		return TrendDecreasing
	default:
		return TrendFlat
	}
}
