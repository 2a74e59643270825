// Package simulate generates reproducible demonstration series for a criterion.
//
// The output is a pure function of (criterion ID, scenario, count): the
// pseudo-random source is seeded from a polynomial hash of those inputs, so
// the same request always yields the same values.
package simulate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/mtslab/mtslab/pkg/library"
)

// Scenario is a named synthetic-data profile.
type Scenario string

const (
	Healthy        Scenario = "Healthy"
	Drifting       Scenario = "Drifting"
	OutOfTolerance Scenario = "Out of tolerance"
)

// Scenarios lists the profiles from mildest to most severe.
var Scenarios = []Scenario{Healthy, Drifting, OutOfTolerance}

var (
	// ErrUnknownScenario is returned for a scenario name that is not recognised.
	ErrUnknownScenario = errors.New("simulate: unknown scenario")

	// ErrInvalidCount is returned when fewer than one sample is requested.
	ErrInvalidCount = errors.New("simulate: count must be at least 1")
)

// ParseScenario accepts the canonical names plus case and separator
// variants such as "out-of-tolerance" or "DRIFTING".
func ParseScenario(s string) (Scenario, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	norm = strings.Join(strings.Fields(norm), " ")
	for _, sc := range Scenarios {
		if strings.ToLower(string(sc)) == norm {
			return sc, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScenario, s)
}

// factors are the start and end multipliers of a scenario's trajectory.
type factors struct{ start, end float64 }

var (
	percentFactors = map[Scenario]factors{
		Healthy:        {0.25, 0.45},
		Drifting:       {0.65, 0.95},
		OutOfTolerance: {0.95, 1.3},
	}
	upperFactors = map[Scenario]factors{
		Healthy:        {0.55, 0.7},
		Drifting:       {0.75, 0.98},
		OutOfTolerance: {0.9, 1.2},
	}
	lowerFactors = map[Scenario]factors{
		Healthy:        {1.35, 1.25},
		Drifting:       {1.2, 0.95},
		OutOfTolerance: {1.05, 0.75},
	}
)

const (
	percentBaseline = 100.0
	defaultLimitPct = 10.0
	jitterFraction  = 0.05
	floor           = 0.0001
)

// Series is a generated sequence, latest last. Baseline is set only for
// percentage-change criteria.
type Series struct {
	Values   []float64 `json:"values"`
	Baseline *float64  `json:"baseline,omitempty"`
}

// Seed folds the inputs into a non-zero 32-bit seed with seed = seed*31 + rune.
func Seed(parts ...string) uint64 {
	var seed uint32
	for _, p := range parts {
		for _, r := range p {
			seed = seed*31 + uint32(r)
		}
	}
	if seed == 0 {
		seed = 1
	}
	return uint64(seed)
}

// Synthesize generates count values for c under the given scenario.
func Synthesize(c library.Criterion, scenario Scenario, count int) (Series, error) {
	if _, ok := percentFactors[scenario]; !ok {
		return Series{}, fmt.Errorf("%w: %q", ErrUnknownScenario, scenario)
	}
	if count < 1 {
		return Series{}, fmt.Errorf("%w, got %d", ErrInvalidCount, count)
	}

	seed := Seed(c.ID, string(scenario), strconv.Itoa(count))
	rng := rand.New(rand.NewPCG(seed, seed))
	jitter := func() float64 { return -jitterFraction + 2*jitterFraction*rng.Float64() }
	span := float64(max(count-1, 1))

	if c.Mode == library.ModePercentageChange {
		limit := firstNonZero(c.Maximum, c.InvestigateAbove, c.InvestigateBelow)
		if limit == 0 {
			limit = defaultLimitPct
		}
		fs := percentFactors[scenario]
		start, end := limit*fs.start, limit*fs.end
		values := make([]float64, count)
		for i := range values {
			pct := start + (end-start)*(float64(i)/span)
			pct += jitter() * limit
			pct = max(pct, 0)
			values[i] = percentBaseline * (1 + pct/100)
		}
		b := percentBaseline
		return Series{Values: values, Baseline: &b}, nil
	}

	var start, end float64
	switch {
	case c.Maximum != nil:
		fs := upperFactors[scenario]
		start, end = *c.Maximum*fs.start, *c.Maximum*fs.end
	case c.Minimum != nil:
		fs := lowerFactors[scenario]
		start, end = *c.Minimum*fs.start, *c.Minimum*fs.end
	case scenario == Healthy:
		start, end = 1.0, 1.05
	default:
		start, end = 1.2, 1.35
	}

	values := make([]float64, count)
	for i := range values {
		target := start + (end-start)*(float64(i)/span)
		basis := firstNonZero(c.Maximum, c.Minimum)
		if basis == 0 {
			basis = target
		}
		if basis == 0 {
			basis = 1
		}
		v := max(target+jitter()*basis, floor)
		values[i] = math.Round(v*1e4) / 1e4
	}
	return Series{Values: values}, nil
}

// firstNonZero returns the first set, non-zero value, or 0.
func firstNonZero(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil && *v != 0 {
			return *v
		}
	}
	return 0
}
