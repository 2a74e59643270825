package library

// DefaultRatingKV is the nameplate voltage assumed when none is entered.
const DefaultRatingKV = 34.5

// Voltage adequacy levels returned by DescribeTestVoltage.
const (
	AdviceInfo    = "info"
	AdviceWarning = "warning"
)

// VoltageAdvice is guidance on whether an applied DC test voltage is adequate.
type VoltageAdvice struct {
	NameplateKV   float64 `json:"nameplate_kv"`
	RecommendedKV float64 `json:"recommended_kv"`
	AppliedKV     float64 `json:"applied_kv"`
	Level         string  `json:"level"`
	Message       string  `json:"message"`
}

// RecommendDCTestVoltage returns the DC test voltage of the first row whose
// rating covers nameplateKV, the last row's voltage when none does, and 0
// for an empty table.
func RecommendDCTestVoltage(nameplateKV float64, table []VoltageStep) float64 {
	if len(table) == 0 {
		return 0
	}
	for _, row := range table {
		if nameplateKV <= row.MaxRatingKV {
			return row.DCTestKV
		}
	}
	return table[len(table)-1].DCTestKV
}

// DescribeTestVoltage grades an applied DC voltage against the recommendation.
func DescribeTestVoltage(appliedKV, recommendedKV float64) (level, message string) {
	switch {
	case recommendedKV <= 0:
		return AdviceInfo, "Enter a nameplate voltage to receive test-stress guidance."
	case appliedKV < 0.85*recommendedKV:
		return AdviceWarning, "Applied DC voltage is significantly below the typical ANSI/NETA recommendation — megohm readings may appear artificially high."
	case appliedKV > 1.2*recommendedKV:
		return AdviceWarning, "Applied DC voltage exceeds the usual stress level. Confirm the insulation system is rated for this voltage to avoid overstressing aged assets."
	default:
		return AdviceInfo, "Test voltage aligns with ANSI/NETA guidance, so resistance values represent a valid stress level."
	}
}

// DefaultNameplateKV is DefaultRatingKV capped at the table's highest rating.
func DefaultNameplateKV(table []VoltageStep) float64 {
	if len(table) == 0 {
		return DefaultRatingKV
	}
	return min(DefaultRatingKV, table[len(table)-1].MaxRatingKV)
}

// AdviseVoltage fills in defaults for a test's voltage table and grades the
// applied voltage. A zero nameplateKV uses DefaultNameplateKV; a zero
// appliedKV assumes the recommendation (or the first row when there is none).
// It returns false when the test has no voltage table.
func (t *Test) AdviseVoltage(nameplateKV, appliedKV float64) (VoltageAdvice, bool) {
	if len(t.VoltageTable) == 0 {
		return VoltageAdvice{}, false
	}
	if nameplateKV == 0 {
		nameplateKV = DefaultNameplateKV(t.VoltageTable)
	}
	rec := RecommendDCTestVoltage(nameplateKV, t.VoltageTable)
	if appliedKV == 0 {
		appliedKV = rec
		if appliedKV == 0 {
			appliedKV = t.VoltageTable[0].DCTestKV
		}
	}
	level, msg := DescribeTestVoltage(appliedKV, rec)
	return VoltageAdvice{
		NameplateKV:   nameplateKV,
		RecommendedKV: rec,
		AppliedKV:     appliedKV,
		Level:         level,
		Message:       msg,
	}, true
}
