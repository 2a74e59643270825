// Package explore runs a series of measurements through the evaluator and
// summarizer and shapes the result for charts and reports.
package explore

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mtslab/mtslab/pkg/evaluate"
	"github.com/mtslab/mtslab/pkg/library"
	"github.com/mtslab/mtslab/pkg/series"
	"github.com/mtslab/mtslab/pkg/simulate"
	"github.com/mtslab/mtslab/pkg/summary"
)

// Source records where a series came from.
type Source string

const (
	SourceManual    Source = "manual"
	SourceSimulated Source = "simulated"
	SourceFile      Source = "file"
)

var (
	// ErrNoMeasurements is returned when a series has no numeric values.
	ErrNoMeasurements = errors.New("provide at least one numeric value to generate insights")

	// ErrCountOutOfRange is returned when a simulated sample count is outside the allowed range.
	ErrCountOutOfRange = errors.New("simulated sample count out of range")
)

// DefaultManualBaseline is assumed for percentage criteria entered by hand.
const DefaultManualBaseline = 100.0

const voltageNote = "Documenting the applied DC test voltage helps correlate insulation resistance trends year-over-year."

// Options bound the simulated data source.
type Options struct {
	Scenario simulate.Scenario
	Count    int
	MinCount int
	MaxCount int
}

// DefaultOptions returns the explorer defaults: Drifting, 6 samples, 4-12.
func DefaultOptions() Options {
	return Options{Scenario: simulate.Drifting, Count: 6, MinCount: 4, MaxCount: 12}
}

// Input is a series ready to be explored.
type Input struct {
	Source   Source
	Values   []float64
	Baseline *float64
	Invalid  []string          // tokens or cells that could not be parsed
	Scenario simulate.Scenario // set for simulated input

	// Optional DC test-voltage context for tests that carry a voltage table.
	NameplateKV float64
	AppliedKV   float64
}

// FromText parses a pasted list. Percentage criteria default to a baseline
// of 100 when none is given.
func FromText(c library.Criterion, raw string, baseline *float64) Input {
	p := series.Parse(raw)
	return Input{
		Source:   SourceManual,
		Values:   p.Values,
		Invalid:  p.Invalid,
		Baseline: manualBaseline(c, baseline),
	}
}

// FromValues wraps already-parsed values, for example from a spreadsheet.
func FromValues(c library.Criterion, values []float64, invalid []string, baseline *float64) Input {
	return Input{
		Source:   SourceFile,
		Values:   values,
		Invalid:  invalid,
		Baseline: manualBaseline(c, baseline),
	}
}

// FromSimulation synthesizes a series. A zero count or empty scenario
// uses the defaults in opts.
func FromSimulation(c library.Criterion, scenario simulate.Scenario, count int, opts Options) (Input, error) {
	if scenario == "" {
		scenario = opts.Scenario
	}
	if count == 0 {
		count = opts.Count
	}
	if count < opts.MinCount || count > opts.MaxCount {
		return Input{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrCountOutOfRange, count, opts.MinCount, opts.MaxCount)
	}
	s, err := simulate.Synthesize(c, scenario, count)
	if err != nil {
		return Input{}, err
	}
	return Input{Source: SourceSimulated, Values: s.Values, Baseline: s.Baseline, Scenario: scenario}, nil
}

// SuggestedValues are the seed values offered in an empty manual entry box:
// a three-sample Healthy simulation.
func SuggestedValues(c library.Criterion) []float64 {
	s, err := simulate.Synthesize(c, simulate.Healthy, 3)
	if err != nil {
		return nil
	}
	return s.Values
}

func manualBaseline(c library.Criterion, baseline *float64) *float64 {
	if baseline != nil || c.Mode != library.ModePercentageChange {
		return baseline
	}
	b := DefaultManualBaseline
	return &b
}

// Row is one classified measurement.
type Row struct {
	Index       int             `json:"index"`
	Measurement float64         `json:"measurement"`
	ChartValue  float64         `json:"chart_value"`
	Assessment  evaluate.Status `json:"assessment"`
	Insight     string          `json:"insight"`
}

// Report is the complete explorer output for one criterion.
type Report struct {
	TestID      string            `json:"test_id"`
	CriterionID string            `json:"criterion_id"`
	Title       string            `json:"title"`
	Source      Source            `json:"source"`
	Scenario    simulate.Scenario `json:"scenario,omitempty"`
	Baseline    *float64          `json:"baseline,omitempty"`
	Invalid     []string          `json:"invalid,omitempty"`
	Rows        []Row             `json:"rows"`

	YLabel      string  `json:"y_label"`
	Percent     bool    `json:"percent"` // chart values are percent change from baseline
	LatestLabel string  `json:"latest_label"`
	Latest      float64 `json:"latest"`
	Delta       float64 `json:"delta"` // latest minus first

	Outcome summary.Outcome `json:"outcome"`
	Meaning string          `json:"meaning,omitempty"` // explanation of the latest classification

	Voltage     *library.VoltageAdvice `json:"voltage,omitempty"`
	VoltageNote string                 `json:"voltage_note,omitempty"`

	criterion library.Criterion
}

// Criterion returns the criterion the report was built for.
func (r *Report) Criterion() library.Criterion {
	return r.criterion
}

// DeltaText renders the change since the first reading.
func (r *Report) DeltaText() string {
	if len(r.Rows) < 2 {
		return "0"
	}
	return fmt.Sprintf("%+.3f vs first", r.Delta)
}

// ChartValues returns the plotted series.
func (r *Report) ChartValues() []float64 {
	out := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.ChartValue
	}
	return out
}

// Run evaluates every value in in against the entry's criterion.
func Run(e library.Entry, in Input) (*Report, error) {
	if len(in.Values) == 0 {
		if len(in.Invalid) > 0 {
			return nil, fmt.Errorf("%w (ignored: %s)", ErrNoMeasurements, strings.Join(in.Invalid, ", "))
		}
		return nil, ErrNoMeasurements
	}
	c := *e.Criterion

	rep := &Report{
		TestID:      e.Test.ID,
		CriterionID: c.ID,
		Title:       e.Title(),
		Source:      in.Source,
		Scenario:    in.Scenario,
		Baseline:    in.Baseline,
		Invalid:     in.Invalid,
		criterion:   c,
	}

	rep.Percent = c.Mode == library.ModePercentageChange && in.Baseline != nil && *in.Baseline != 0
	if rep.Percent {
		rep.YLabel = "Percent change"
	} else {
		rep.YLabel = fmt.Sprintf("%s (%s)", c.Parameter, c.Unit)
	}

	statuses := make([]evaluate.Status, len(in.Values))
	details := make([]string, len(in.Values))
	for i, v := range in.Values {
		m := evaluate.Reading(v)
		m.Baseline = in.Baseline
		cl := evaluate.Evaluate(c, m)
		chart := v
		if rep.Percent {
			chart = math.Abs(v-*in.Baseline) / *in.Baseline * 100
		}
		rep.Rows = append(rep.Rows, Row{
			Index:       i + 1,
			Measurement: v,
			ChartValue:  clampFinite(chart),
			Assessment:  cl.Status,
			Insight:     cl.Detail,
		})
		statuses[i] = cl.Status
		details[i] = cl.Detail
	}

	unit := strings.TrimSpace(c.Unit)
	if unit == "" {
		unit = c.Parameter
	}
	rep.LatestLabel = fmt.Sprintf("Latest measurement (%s)", unit)
	rep.Latest = in.Values[len(in.Values)-1]
	rep.Delta = clampFinite(rep.Latest - in.Values[0])

	out, err := summary.Summarize(in.Values, statuses, details, &c)
	if err != nil {
		return nil, fmt.Errorf("summarizing %s: %w", c.ID, err)
	}
	rep.Outcome = out
	rep.Meaning = e.Test.Meaning(string(statuses[len(statuses)-1]))

	if adv, ok := e.Test.AdviseVoltage(in.NameplateKV, in.AppliedKV); ok {
		rep.Voltage = &adv
		rep.VoltageNote = voltageNote
	}
	return rep, nil
}

// clampFinite keeps overflowed results within the float64 range so reports
// stay encodable.
func clampFinite(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}
