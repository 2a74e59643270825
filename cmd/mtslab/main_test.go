package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mtslab/mtslab/pkg/evaluate"
	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/library"
	"github.com/mtslab/mtslab/pkg/summary"
)

// execute runs the CLI against a builtin-library config unless cfgYAML
// says otherwise.
func execute(t *testing.T, cfgYAML string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	if cfgYAML == "" {
		cfgYAML = "library:\n  source: builtin\n"
	}
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmdFlags(t *testing.T) {
	root := newRootCmd()
	f := root.PersistentFlags()

	output, _ := f.GetString("output")
	if output != "text" {
		t.Errorf("default output = %q, want text", output)
	}
	if f.Lookup("config") == nil {
		t.Error("missing flag: config")
	}

	want := map[string]bool{"library": false, "evaluate": false, "explore": false, "chart": false, "voltage": false, "browse": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing command: %s", name)
		}
	}
}

func TestSeriesCmdFlags(t *testing.T) {
	f := newExploreCmd(&globals{}).Flags()
	for _, flag := range []string{"criterion", "values", "file", "column", "sheet", "simulate", "count", "baseline", "nameplate-kv", "applied-kv", "chart"} {
		if f.Lookup(flag) == nil {
			t.Errorf("explore: missing flag: %s", flag)
		}
	}
	if newChartCmd(&globals{}).Flags().Lookup("out") == nil {
		t.Error("chart: missing flag: out")
	}
}

func TestOutputFormatValidated(t *testing.T) {
	_, _, err := execute(t, "", "library", "list", "--output", "xml")
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("expected output format error, got %v", err)
	}
}

func TestEvaluateCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want evaluate.Status
	}{
		{"fail", []string{"--criterion", "cb_open_time", "--value", "85"}, evaluate.StatusFail},
		{"investigate", []string{"--criterion", "cb_open_time", "--value", "75"}, evaluate.StatusInvestigate},
		{"no value", []string{"--criterion", "cb_open_time"}, evaluate.StatusInfo},
		{"percentage without baseline", []string{"--criterion", "wr_pct_dev", "--value", "120"}, evaluate.StatusInfo},
		{"percentage", []string{"--criterion", "wr_pct_dev", "--value", "103", "--baseline", "100"}, evaluate.StatusPass},
		{"qualitative", []string{"--criterion", "visual_no_damage"}, evaluate.StatusReview},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := execute(t, "", append([]string{"evaluate", "--output", "json"}, tc.args...)...)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			var calc explore.Calculation
			if err := json.Unmarshal([]byte(out), &calc); err != nil {
				t.Fatalf("decode %q: %v", out, err)
			}
			if calc.Classification.Status != tc.want {
				t.Errorf("status = %q, want %q", calc.Classification.Status, tc.want)
			}
		})
	}
}

func TestEvaluateUnknownCriterion(t *testing.T) {
	_, _, err := execute(t, "", "evaluate", "--criterion", "nope", "--value", "1")
	if !errors.Is(err, library.ErrUnknownCriterion) {
		t.Errorf("expected ErrUnknownCriterion, got %v", err)
	}
}

func TestEvaluateTextOutput(t *testing.T) {
	out, _, err := execute(t, "", "evaluate", "--criterion", "cb_open_time", "--value", "85")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "FAIL: Fail") {
		t.Errorf("expected plain fail marker, got:\n%s", out)
	}
}

func exploreJSON(t *testing.T, args ...string) *explore.Report {
	t.Helper()
	out, _, err := execute(t, "", append([]string{"explore", "--output", "json"}, args...)...)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var rep explore.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return &rep
}

func TestExploreValues(t *testing.T) {
	rep := exploreJSON(t, "--criterion", "cb_open_time", "--values", "60, 75, 85")
	if len(rep.Rows) != 3 || rep.Outcome.Severity != summary.SeverityError {
		t.Errorf("rows=%d severity=%q", len(rep.Rows), rep.Outcome.Severity)
	}
	if rep.Delta != 25 {
		t.Errorf("delta = %v, want 25", rep.Delta)
	}
}

func TestExplorePercentageUsesConfiguredBaseline(t *testing.T) {
	rep := exploreJSON(t, "--criterion", "wr_pct_dev", "--values", "104 108")
	if rep.Baseline == nil || *rep.Baseline != 100 || !rep.Percent {
		t.Fatalf("expected percent chart against baseline 100, got %+v", rep.Baseline)
	}
	if rep.Rows[1].Assessment != evaluate.StatusInvestigate {
		t.Errorf("row 2 = %q, want Investigate", rep.Rows[1].Assessment)
	}

	rep = exploreJSON(t, "--criterion", "wr_pct_dev", "--values", "104 108", "--baseline", "105")
	if *rep.Baseline != 105 {
		t.Errorf("baseline = %v, want 105", *rep.Baseline)
	}
}

func TestExploreSimulated(t *testing.T) {
	rep := exploreJSON(t, "--criterion", "cb_open_time", "--simulate", "healthy", "--count", "5")
	if rep.Source != explore.SourceSimulated || len(rep.Rows) != 5 {
		t.Errorf("source=%q rows=%d", rep.Source, len(rep.Rows))
	}
	if rep.Outcome.Severity != summary.SeveritySuccess {
		t.Errorf("healthy series severity = %q", rep.Outcome.Severity)
	}
}

func TestExploreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.csv")
	csv := "date,reading\n2024-01-01,60\n2024-06-01,n/a\n2025-01-01,72\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	out, stderr, err := execute(t, "", "explore", "--output", "json", "--criterion", "cb_open_time", "--file", path, "--column", "reading")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var rep explore.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Source != explore.SourceFile || len(rep.Rows) != 2 || len(rep.Invalid) != 1 {
		t.Errorf("source=%q rows=%d invalid=%v", rep.Source, len(rep.Rows), rep.Invalid)
	}
	if !strings.Contains(stderr, `column "reading"`) {
		t.Errorf("expected import note on stderr, got %q", stderr)
	}
}

func TestExploreErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", []string{"--criterion", "cb_open_time"}, "one of --values"},
		{"two sources", []string{"--criterion", "cb_open_time", "--values", "1", "--simulate", "healthy"}, "only one of"},
		{"no numbers", []string{"--criterion", "cb_open_time", "--values", "abc"}, "at least one numeric value"},
		{"no numbers names tokens", []string{"--criterion", "cb_open_time", "--values", "abc; xyz"}, "ignored: abc, xyz"},
		{"no source suggests values", []string{"--criterion", "cb_open_time"}, `for example --values "`},
		{"bad scenario", []string{"--criterion", "cb_open_time", "--simulate", "chaotic"}, "unknown scenario"},
		{"count out of range", []string{"--criterion", "cb_open_time", "--simulate", "healthy", "--count", "30"}, "out of range"},
		{"missing criterion", []string{"--values", "1"}, "criterion"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, "", append([]string{"explore"}, tc.args...)...)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestChartCmd(t *testing.T) {
	out := filepath.Join(t.TempDir(), "trend.html")
	_, stderr, err := execute(t, "", "chart", "--criterion", "dga_tdcg", "--simulate", "drifting", "--out", out)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	page, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading chart: %v", err)
	}
	if !strings.Contains(string(page), "echarts") {
		t.Error("expected an echarts page")
	}
	if !strings.Contains(stderr, "Chart written to") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestLibraryListAndShow(t *testing.T) {
	out, _, err := execute(t, "", "library", "list", "--query", "breaker", "--output", "json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var tests []library.Test
	if err := json.Unmarshal([]byte(out), &tests); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tests) != 4 {
		t.Errorf("expected 4 breaker tests, got %d", len(tests))
	}

	out, _, err = execute(t, "", "library", "list", "--phase", "Maintenance", "--query", "dissolved", "--output", "json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &tests); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tests) != 1 || tests[0].ID != "transformer_dga" {
		t.Errorf("expected only DGA, got %d tests", len(tests))
	}

	out, _, err = execute(t, "", "library", "show", "breaker_timing", "--format", "markdown")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.HasPrefix(out, "# Circuit Breaker Timing") {
		t.Errorf("unexpected markdown: %q", out[:40])
	}

	if _, _, err := execute(t, "", "library", "show", "nope"); !errors.Is(err, library.ErrUnknownTest) {
		t.Errorf("expected ErrUnknownTest, got %v", err)
	}
}

func TestLibraryValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, library.BuiltinDocument(), 0o644); err != nil {
		t.Fatal(err)
	}
	out, stderr, err := execute(t, "", "library", "validate", good)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "library is valid") || !strings.Contains(stderr, "10 tests, 18 criteria") {
		t.Errorf("stdout=%q stderr=%q", out, stderr)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("tests:\n  - id: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err = execute(t, "", "library", "validate", bad, "--output", "json")
	if err == nil {
		t.Fatal("expected validation error")
	}
	var body struct {
		Valid  bool            `json:"valid"`
		Issues []library.Issue `json:"issues"`
	}
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if body.Valid || len(body.Issues) == 0 {
		t.Errorf("expected issues, got %+v", body)
	}
}

func TestLibraryPublishLocal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.yaml")
	if err := os.WriteFile(src, library.BuiltinDocument(), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "published", "library.yaml")
	cfg := "library:\n  source: local\n  path: " + dest + "\n"

	_, stderr, err := execute(t, cfg, "library", "publish", src)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.Contains(stderr, "Published 10 tests") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected published file: %v", err)
	}

	// The published library is now the configured source.
	out, _, err := execute(t, cfg, "library", "list", "--output", "json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var tests []library.Test
	if err := json.Unmarshal([]byte(out), &tests); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tests) != 10 {
		t.Errorf("expected 10 tests from the published library, got %d", len(tests))
	}

	if _, _, err := execute(t, "", "library", "publish", src); err == nil {
		t.Error("expected publishing to builtin to fail")
	}
}

func TestVoltageCmd(t *testing.T) {
	out, _, err := execute(t, "", "voltage", "--nameplate-kv", "13.8", "--output", "json")
	if err != nil {
		t.Fatalf("voltage: %v", err)
	}
	var adv library.VoltageAdvice
	if err := json.Unmarshal([]byte(out), &adv); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if adv.RecommendedKV != 5.0 || adv.NameplateKV != 13.8 {
		t.Errorf("unexpected advice %+v", adv)
	}

	if _, _, err := execute(t, "", "voltage", "--test", "breaker_timing"); err == nil {
		t.Error("expected error for a test without a voltage table")
	}
}
