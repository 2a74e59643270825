package explore

import (
	"github.com/mtslab/mtslab/pkg/evaluate"
	"github.com/mtslab/mtslab/pkg/library"
)

const (
	ratioHint          = "Polarization Index ratios already normalize to the 1- and 10-minute readings."
	baselineHint       = "Enter the reference/baseline value used for the percent-change calculation."
	calculatorVoltNote = "Megohm readings are only comparable when the DC stress follows ANSI/NETA guidance. Use the voltage context inputs above to document the applied stress."
)

// Calculation is the single-value calculator result.
type Calculation struct {
	TestID         string                  `json:"test_id"`
	CriterionID    string                  `json:"criterion_id"`
	Title          string                  `json:"title"`
	Classification evaluate.Classification `json:"classification"`
	Meaning        string                  `json:"meaning,omitempty"`
	Note           string                  `json:"note,omitempty"`
	Hint           string                  `json:"hint,omitempty"`

	Voltage     *library.VoltageAdvice `json:"voltage,omitempty"`
	VoltageNote string                 `json:"voltage_note,omitempty"`
}

// Calculate evaluates one measurement and attaches the guidance text a
// reviewer sees next to it. nameplateKV and appliedKV are optional.
func Calculate(e library.Entry, m evaluate.Measurement, nameplateKV, appliedKV float64) Calculation {
	c := *e.Criterion
	cl := evaluate.Evaluate(c, m)
	calc := Calculation{
		TestID:         e.Test.ID,
		CriterionID:    c.ID,
		Title:          e.Title(),
		Classification: cl,
		Meaning:        e.Test.Meaning(string(cl.Status)),
		Note:           c.Note,
	}
	switch c.Mode {
	case library.ModePercentageChange:
		calc.Hint = baselineHint
	case library.ModeRatio:
		calc.Hint = ratioHint
	case library.ModeQualitative:
		calc.Hint = c.InvestigateNote
	}
	if adv, ok := e.Test.AdviseVoltage(nameplateKV, appliedKV); ok {
		calc.Voltage = &adv
		calc.VoltageNote = calculatorVoltNote
	}
	return calc
}
