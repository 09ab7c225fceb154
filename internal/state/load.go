package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// LoadFile reads an initial state record from path. The format is chosen by
// extension: .cue, .yaml/.yml or .json. The document must be an object.
func LoadFile(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	rec, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// Parse decodes data in the format named by ext (".cue", ".yaml", ".yml",
// ".json"; the leading dot is optional).
func Parse(ext string, data []byte) (Record, error) {
	switch strings.TrimPrefix(strings.ToLower(ext), ".") {
	case "json":
		return UnmarshalRecord(data)
	case "yaml", "yml":
		return parseYAML(data)
	case "cue":
		return parseCUE(data)
	default:
		return nil, fmt.Errorf("unsupported state format %q (want .cue, .yaml, .yml or .json)", ext)
	}
}

func parseYAML(data []byte) (Record, error) {
	var raw map[string]any
	err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&raw)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if raw == nil {
		return Record{}, nil
	}
	return normalizeRecord(raw)
}

// parseCUE evaluates a CUE document and exports it through JSON, so CUE's
// arbitrary-precision numbers take the same path as plain JSON input.
func parseCUE(data []byte) (Record, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename("state.cue"))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile cue: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("state must be concrete: %w", err)
	}
	if value.IncompleteKind() != cue.StructKind {
		return nil, fmt.Errorf("state must be a struct, got %v", value.IncompleteKind())
	}

	exported, err := value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export cue: %w", err)
	}
	return UnmarshalRecord(exported)
}

func normalizeRecord(raw map[string]any) (Record, error) {
	out := make(Record, len(raw))
	for k, v := range raw {
		nv, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

// Normalize converts decoded values into the plain forms the runtime works
// with: integers of any width become int64, json.Number becomes int64 when
// integral and float64 otherwise, and maps are keyed by string.
func Normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint64:
		return int64(val), nil
	case float32:
		return float64(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return f, nil
	case Record:
		return normalizeRecord(val)
	case map[string]any:
		rec, err := normalizeRecord(val)
		if err != nil {
			return nil, err
		}
		return map[string]any(rec), nil
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			nv, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("key %v: %w", k, err)
			}
			m[fmt.Sprint(k)] = nv
		}
		return m, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			nv, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = nv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
