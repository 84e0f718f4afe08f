package backup

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// schemas maps each readable snapshot version to its compiled schema.
var schemas = mustCompileSchemas()

func mustCompileSchemas() map[int]*jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	versions := map[int]string{1: "schemas/v1.json"}
	out := make(map[int]*jsonschema.Schema, len(versions))
	for v, path := range versions {
		f, err := schemaFS.Open(path)
		if err != nil {
			panic(fmt.Sprintf("opening schema %s: %v", path, err))
		}
		err = compiler.AddResource(path, f)
		f.Close()
		if err != nil {
			panic(fmt.Sprintf("adding schema %s: %v", path, err))
		}
		s, err := compiler.Compile(path)
		if err != nil {
			panic(fmt.Sprintf("compiling schema %s: %v", path, err))
		}
		out[v] = s
	}
	return out
}

// SupportedVersions lists the snapshot versions Read accepts.
func SupportedVersions() []int {
	return slices.Sorted(maps.Keys(schemas))
}

// Read parses and validates a backup document. The version is checked
// before anything else and selects the schema the rest of the document is
// validated against. Unknown fields are ignored, and integral numbers such
// as 5.0 are accepted where an integer is expected. Every failure wraps
// types.ErrMalformedSnapshot.
func Read(raw []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, malformed("not a JSON document: %v", err)
	}
	if dec.More() {
		return nil, malformed("trailing data after the document")
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, malformed("top-level value is not an object")
	}
	version, err := readVersion(obj)
	if err != nil {
		return nil, err
	}
	schema, ok := schemas[version]
	if !ok {
		return nil, malformed("unsupported version %d", version)
	}
	if err := schema.Validate(obj); err != nil {
		return nil, malformed("version %d: %v", version, err)
	}

	normalized, err := json.Marshal(normalizeNumbers(obj))
	if err != nil {
		return nil, malformed("re-encoding document: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(normalized, &snap); err != nil {
		return nil, malformed("decoding version %d: %v", version, err)
	}
	if bytes.Equal(bytes.TrimSpace(snap.Preferences), []byte("null")) {
		snap.Preferences = nil
	}
	snap.Version = version
	return &snap, nil
}

func readVersion(obj map[string]any) (int, error) {
	raw, ok := obj["version"]
	if !ok {
		return 0, malformed("version is missing")
	}
	n, ok := raw.(json.Number)
	if !ok {
		return 0, malformed("version is not a number")
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, malformed("version %s is not an integer", n)
	}
	return int(f), nil
}

// normalizeNumbers rewrites integral numbers in exponent or decimal form
// (5.0, 5e0) as plain integers so they decode into integer fields.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	case json.Number:
		s := string(t)
		if !strings.ContainsAny(s, ".eE") {
			return t
		}
		f, err := t.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return t
		}
		return json.Number(strconv.FormatInt(int64(f), 10))
	default:
		return v
	}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", types.ErrMalformedSnapshot, fmt.Sprintf(format, args...))
}
