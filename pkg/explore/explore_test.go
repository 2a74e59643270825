package explore_test

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/mtslab/mtslab/pkg/evaluate"
	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/library"
	"github.com/mtslab/mtslab/pkg/simulate"
	"github.com/mtslab/mtslab/pkg/summary"
)

func f(v float64) *float64 { return &v }

func entry(c library.Criterion) library.Entry {
	return library.Entry{
		Test: &library.Test{
			ID:   "pole_sync",
			Name: "Breaker timing",
			Implications: map[string]string{
				"Fail":    "Remove the breaker from service.",
				"default": "Keep monitoring.",
			},
		},
		Criterion: &c,
	}
}

func TestRunClassifiesRows(t *testing.T) {
	c := library.Criterion{
		ID: "cb_pole_sync", Label: "Pole timing", Parameter: "Delta", Unit: "ms",
		Mode:   library.ModeAbsolute,
		Bounds: library.Bounds{Maximum: f(2.5), InvestigateAbove: f(2.0)},
		Note:   "Poles drifting apart fail.",
	}
	e := entry(c)

	rep, err := explore.Run(e, explore.FromText(c, "1, 2.1, 2.6", nil))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []evaluate.Status{evaluate.StatusPass, evaluate.StatusInvestigate, evaluate.StatusFail}
	if len(rep.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rep.Rows))
	}
	for i, row := range rep.Rows {
		if row.Assessment != want[i] {
			t.Errorf("row %d: got %s, want %s", i, row.Assessment, want[i])
		}
		if row.ChartValue != row.Measurement {
			t.Errorf("row %d: absolute chart value should be the raw measurement", i)
		}
	}
	if rep.Outcome.Severity != summary.SeverityError {
		t.Errorf("expected error severity, got %s", rep.Outcome.Severity)
	}
	if !strings.HasSuffix(rep.Outcome.Narrative, "Poles drifting apart fail.") {
		t.Errorf("expected note appended, got %q", rep.Outcome.Narrative)
	}
	if rep.Meaning != "Remove the breaker from service." {
		t.Errorf("unexpected meaning %q", rep.Meaning)
	}
	if rep.YLabel != "Delta (ms)" {
		t.Errorf("unexpected y label %q", rep.YLabel)
	}
	if rep.LatestLabel != "Latest measurement (ms)" {
		t.Errorf("unexpected latest label %q", rep.LatestLabel)
	}
	if got := rep.DeltaText(); got != "+1.600 vs first" {
		t.Errorf("DeltaText = %q", got)
	}
	if rep.Baseline != nil {
		t.Error("absolute criteria must not get a default baseline")
	}
}

func TestRunPercentageChart(t *testing.T) {
	c := library.Criterion{
		ID: "wr_pct_dev", Parameter: "Percent change", Unit: "%",
		Mode: library.ModePercentageChange, Bounds: library.Bounds{Maximum: f(10), InvestigateAbove: f(5)},
	}
	rep, err := explore.Run(entry(c), explore.FromText(c, "104 92 111", nil))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Baseline == nil || *rep.Baseline != 100 {
		t.Fatalf("expected default baseline 100, got %v", rep.Baseline)
	}
	if !rep.Percent || rep.YLabel != "Percent change" {
		t.Errorf("expected percent chart, got %v %q", rep.Percent, rep.YLabel)
	}
	wantChart := []float64{4, 8, 11}
	for i, v := range rep.ChartValues() {
		if diff := v - wantChart[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("chart[%d] = %v, want %v", i, v, wantChart[i])
		}
	}
	wantStatus := []evaluate.Status{evaluate.StatusPass, evaluate.StatusInvestigate, evaluate.StatusFail}
	for i, row := range rep.Rows {
		if row.Assessment != wantStatus[i] {
			t.Errorf("row %d: got %s, want %s", i, row.Assessment, wantStatus[i])
		}
	}
	if rep.Meaning != "Remove the breaker from service." {
		t.Errorf("expected Fail meaning, got %q", rep.Meaning)
	}
}

func TestRunPercentageZeroBaseline(t *testing.T) {
	c := library.Criterion{ID: "p", Parameter: "Change", Unit: "%", Mode: library.ModePercentageChange, Bounds: library.Bounds{Maximum: f(10)}}
	rep, err := explore.Run(entry(c), explore.FromText(c, "5", f(0)))
	if err != nil {
		t.Fatal(err)
	}
	if rep.Percent || rep.YLabel != "Change (%)" {
		t.Errorf("zero baseline must plot raw values, got %v %q", rep.Percent, rep.YLabel)
	}
	if rep.Rows[0].Assessment != evaluate.StatusInfo {
		t.Errorf("expected Info, got %s", rep.Rows[0].Assessment)
	}
	if rep.Meaning != "Keep monitoring." {
		t.Errorf("expected default meaning, got %q", rep.Meaning)
	}
	if rep.DeltaText() != "0" {
		t.Errorf("single reading delta should be 0, got %q", rep.DeltaText())
	}
}

func TestRunEmpty(t *testing.T) {
	c := library.Criterion{ID: "x", Mode: library.ModeAbsolute, Bounds: library.Bounds{Maximum: f(1)}}
	in := explore.FromText(c, "abc, def", nil)
	if len(in.Invalid) != 2 {
		t.Errorf("expected 2 invalid tokens, got %v", in.Invalid)
	}
	_, err := explore.Run(entry(c), in)
	if !errors.Is(err, explore.ErrNoMeasurements) {
		t.Fatalf("expected ErrNoMeasurements, got %v", err)
	}
	if !strings.Contains(err.Error(), "ignored: abc, def") {
		t.Errorf("error should name the rejected tokens: %v", err)
	}

	if _, err := explore.Run(entry(c), explore.Input{}); err != explore.ErrNoMeasurements {
		t.Errorf("expected bare ErrNoMeasurements without tokens, got %v", err)
	}
}

func TestRunOverflowingChange(t *testing.T) {
	c := library.Criterion{ID: "wr", Unit: "%", Mode: library.ModePercentageChange, Bounds: library.Bounds{Maximum: f(10)}}
	in := explore.FromValues(c, []float64{-1e308, 1e308}, nil, f(1e-300))
	rep, err := explore.Run(entry(c), in)
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rep.Rows {
		if row.ChartValue != math.MaxFloat64 {
			t.Errorf("row %d: chart value %v, want clamped maximum", row.Index, row.ChartValue)
		}
		if row.Assessment != evaluate.StatusFail {
			t.Errorf("row %d: assessment %s, want Fail", row.Index, row.Assessment)
		}
	}
	if rep.Delta != math.MaxFloat64 {
		t.Errorf("delta = %v, want clamped maximum", rep.Delta)
	}
	if _, err := json.Marshal(rep); err != nil {
		t.Errorf("report must encode as JSON: %v", err)
	}
}

func TestFromSimulation(t *testing.T) {
	c := library.Criterion{ID: "cb_open_time", Mode: library.ModeAbsolute, Bounds: library.Bounds{Maximum: f(80)}}
	opts := explore.DefaultOptions()

	in, err := explore.FromSimulation(c, "", 0, opts)
	if err != nil {
		t.Fatal(err)
	}
	if in.Scenario != simulate.Drifting || len(in.Values) != 6 || in.Source != explore.SourceSimulated {
		t.Errorf("unexpected defaults: %+v", in)
	}

	for _, n := range []int{3, 13} {
		if _, err := explore.FromSimulation(c, simulate.Healthy, n, opts); !errors.Is(err, explore.ErrCountOutOfRange) {
			t.Errorf("count %d: expected ErrCountOutOfRange, got %v", n, err)
		}
	}
	if _, err := explore.FromSimulation(c, "Broken", 6, opts); !errors.Is(err, simulate.ErrUnknownScenario) {
		t.Errorf("expected ErrUnknownScenario, got %v", err)
	}

	if got := explore.SuggestedValues(c); len(got) != 3 {
		t.Errorf("expected 3 suggested values, got %v", got)
	}
}

func TestVoltageContext(t *testing.T) {
	reg, err := library.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	e, err := reg.Criterion("ir_mv_cable")
	if err != nil {
		t.Fatal(err)
	}
	in := explore.FromText(*e.Criterion, "250 180", nil)
	in.NameplateKV = 13.8
	in.AppliedKV = 2.5
	rep, err := explore.Run(e, in)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Voltage == nil {
		t.Fatal("expected voltage advice")
	}
	if rep.Voltage.RecommendedKV != 5.0 || rep.Voltage.Level != library.AdviceWarning {
		t.Errorf("unexpected advice %+v", rep.Voltage)
	}
	if rep.VoltageNote == "" {
		t.Error("expected a voltage note")
	}
}

func TestCalculate(t *testing.T) {
	reg, err := library.Builtin()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		criterion  string
		m          evaluate.Measurement
		wantStatus evaluate.Status
		wantHint   string
		wantVolt   bool
	}{
		{"ir_motor_pi", evaluate.Reading(1.5), evaluate.StatusFail, "Polarization Index ratios", true},
		{"wr_pct_dev", evaluate.Reading(106).WithBaseline(100), evaluate.StatusInvestigate, "baseline", false},
		{"visual_no_damage", evaluate.Measurement{}, evaluate.StatusReview, "overheating", false},
		{"dga_tdcg", evaluate.Reading(1000), evaluate.StatusPass, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.criterion, func(t *testing.T) {
			e, err := reg.Criterion(tt.criterion)
			if err != nil {
				t.Fatal(err)
			}
			got := explore.Calculate(e, tt.m, 0, 0)
			if got.Classification.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Classification.Status, tt.wantStatus)
			}
			if tt.wantHint == "" && got.Hint != "" || !strings.Contains(got.Hint, tt.wantHint) {
				t.Errorf("hint = %q, want it to contain %q", got.Hint, tt.wantHint)
			}
			if (got.Voltage != nil) != tt.wantVolt {
				t.Errorf("voltage advice present = %v, want %v", got.Voltage != nil, tt.wantVolt)
			}
			if got.Meaning == "" {
				t.Error("expected a meaning for every built-in status")
			}
		})
	}
}
