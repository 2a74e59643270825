package library

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtinYAML []byte

// Decode parses a library document into raw test records. The document is
// YAML (and therefore also JSON): either a mapping with a "tests" list or a
// bare list of tests.
func Decode(data []byte) ([]map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing library document: %w", err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		tests, ok := v["tests"]
		if !ok {
			return nil, fmt.Errorf("parsing library document: missing top-level \"tests\" list")
		}
		list, ok := tests.([]any)
		if !ok {
			return nil, fmt.Errorf("parsing library document: \"tests\" must be a list, got %s", typeName(tests))
		}
		items = list
	case nil:
		return nil, fmt.Errorf("parsing library document: document is empty")
	default:
		return nil, fmt.Errorf("parsing library document: unexpected top-level %s", typeName(doc))
	}

	records := make([]map[string]any, 0, len(items))
	for i, item := range items {
		rec, ok := asMap(item)
		if !ok {
			return nil, fmt.Errorf("parsing library document: tests[%d] is a %s, not a mapping", i, typeName(item))
		}
		records = append(records, rec)
	}
	return records, nil
}

// Parse decodes and validates a library document in one step.
func Parse(data []byte) (*Registry, error) {
	records, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Build(records)
}

// LoadFile reads and validates a library document from disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading library: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return reg, nil
}

// Builtin builds the curated library embedded in the binary.
func Builtin() (*Registry, error) {
	return Parse(builtinYAML)
}

// BuiltinDocument returns the raw embedded library document.
func BuiltinDocument() []byte {
	out := make([]byte, len(builtinYAML))
	copy(out, builtinYAML)
	return out
}
