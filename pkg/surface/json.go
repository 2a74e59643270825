package surface

import (
	"encoding/json"
	"io"

	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/library"
)

// JSONRenderer writes every result as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Tests(w io.Writer, tests []library.Test) error {
	if tests == nil {
		tests = []library.Test{}
	}
	return encode(w, tests)
}

func (r *JSONRenderer) Card(w io.Writer, t *library.Test) error {
	return encode(w, t)
}

func (r *JSONRenderer) Calculation(w io.Writer, c explore.Calculation) error {
	return encode(w, c)
}

func (r *JSONRenderer) Report(w io.Writer, rep *explore.Report) error {
	return encode(w, rep)
}

func (r *JSONRenderer) Voltage(w io.Writer, t *library.Test, adv library.VoltageAdvice) error {
	return encode(w, struct {
		TestID string `json:"test_id"`
		library.VoltageAdvice
		Table []library.VoltageStep `json:"kv_recommendations"`
	}{t.ID, adv, t.VoltageTable})
}

func (r *JSONRenderer) Issues(w io.Writer, issues []library.Issue) error {
	return encode(w, struct {
		Valid  bool            `json:"valid"`
		Issues []library.Issue `json:"issues"`
	}{len(issues) == 0, append([]library.Issue{}, issues...)})
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
