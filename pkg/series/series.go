// Package series tokenizes free-text measurement lists.
package series

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Parsed is the result of Parse. Invalid tokens do not abort the parse.
type Parsed struct {
	Values  []float64 `json:"values"`
	Invalid []string  `json:"invalid,omitempty"`
}

// separator reports whether r splits tokens: whitespace, comma, semicolon,
// hyphen or slash. A hyphen always separates, so "-3" parses as 3.
func separator(r rune) bool {
	switch r {
	case ',', ';', '-', '/':
		return true
	}
	return unicode.IsSpace(r)
}

// Parse splits raw on runs of separators and parses each token as a float.
// Unparseable and non-finite tokens are collected in Invalid.
func Parse(raw string) Parsed {
	var p Parsed
	for _, tok := range strings.FieldsFunc(raw, separator) {
		chunk := strings.Trim(strings.TrimSpace(tok), ",")
		if chunk == "" {
			continue
		}
		v, err := strconv.ParseFloat(chunk, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			p.Invalid = append(p.Invalid, chunk)
			continue
		}
		p.Values = append(p.Values, v)
	}
	return p
}

// Format renders values with three decimals, comma separated.
func Format(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 3, 64)
	}
	return strings.Join(parts, ", ")
}
