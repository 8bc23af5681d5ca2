package metadata

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// ListSeparator joins lists of scalars into a single string.
const ListSeparator = ", "

// Source describes where a document came from. It drives the defaults.
type Source struct {
	// Path is the source file path. Empty for manually supplied text.
	Path string

	// Markdown is true when the source is a markdown file.
	Markdown bool
}

// Normalise returns a flat, scalar-valued copy of fields with the
// structural defaults applied. The input map is not modified.
// A value that cannot be flattened fails with a validation error.
func Normalise(fields map[string]any, src Source) (map[string]any, error) {
	out := make(map[string]any, len(fields)+4)

	for k, v := range fields {
		if k == "" {
			continue
		}
		scalar, ok, err := Coerce(v)
		if err != nil {
			return nil, domain.NewValidation(src.Path, fmt.Errorf("metadata field %q: %w", k, err))
		}
		if ok {
			out[k] = scalar
		}
	}

	applyDefaults(out, src)
	return out, nil
}

func applyDefaults(m map[string]any, src Source) {
	if src.Path != "" {
		base := filepath.Base(src.Path)
		ext := filepath.Ext(base)

		setDefault(m, domain.MetaFilename, base)
		if e := strings.TrimPrefix(strings.ToLower(ext), "."); e != "" {
			setDefault(m, domain.MetaSourceExt, e)
		}
		if src.Markdown {
			setDefault(m, domain.MetaType, domain.TypeMarkdown)
		} else {
			setDefault(m, domain.MetaType, domain.TypeFile)
		}
		setDefault(m, domain.MetaDocID, strings.TrimSuffix(base, ext))
		return
	}

	// Manual text: doc_id falls back to the caller's title.
	setDefault(m, domain.MetaType, domain.TypeFile)
	if title, ok := m["title"].(string); ok && title != "" {
		setDefault(m, domain.MetaDocID, title)
	}
	setDefault(m, domain.MetaDocID, "doc")
}

func setDefault(m map[string]any, key string, value any) {
	if v, ok := m[key]; ok {
		if s, isStr := v.(string); !isStr || s != "" {
			return
		}
	}
	m[key] = value
}

// Coerce converts a single value to a scalar. The boolean result is
// false when the value should be dropped (nil).
func Coerce(v any) (any, bool, error) {
	switch x := v.(type) {
	case nil:
		return nil, false, nil
	case string:
		return x, true, nil
	case bool:
		return x, true, nil
	case int:
		return int64(x), true, nil
	case int8:
		return int64(x), true, nil
	case int16:
		return int64(x), true, nil
	case int32:
		return int64(x), true, nil
	case int64:
		return x, true, nil
	case uint:
		return coerceUint(uint64(x)), true, nil
	case uint8:
		return int64(x), true, nil
	case uint16:
		return int64(x), true, nil
	case uint32:
		return int64(x), true, nil
	case uint64:
		return coerceUint(x), true, nil
	case float32:
		return coerceFloat(float64(x)), true, nil
	case float64:
		return coerceFloat(x), true, nil
	case time.Time:
		return x.Format(time.RFC3339), true, nil
	case *time.Time:
		if x == nil {
			return nil, false, nil
		}
		return x.Format(time.RFC3339), true, nil
	case fmt.Stringer:
		return x.String(), true, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes()), true, nil
		}
		return coerceList(rv)
	case reflect.Map, reflect.Struct:
		s, err := stringify(v)
		if err != nil {
			return nil, false, err
		}
		return s, true, nil
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, false, nil
		}
		return Coerce(rv.Elem().Interface())
	default:
		return fmt.Sprint(v), true, nil
	}
}

// coerceList joins a list of scalars with ListSeparator. A list holding
// nested values is stringified as JSON instead.
func coerceList(rv reflect.Value) (any, bool, error) {
	parts := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i).Interface()
		if !isScalar(item) {
			s, err := stringify(rv.Interface())
			if err != nil {
				return nil, false, err
			}
			return s, true, nil
		}
		scalar, ok, err := Coerce(item)
		if err != nil {
			return nil, false, err
		}
		if ok {
			parts = append(parts, fmt.Sprint(scalar))
		}
	}
	return strings.Join(parts, ListSeparator), true, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64, time.Time:
		return true
	default:
		return false
	}
}

// stringify renders nested values as JSON. encoding/json sorts map
// keys, so the output is stable.
func stringify(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("cannot stringify %T: %w", v, err)
	}
	return string(b), nil
}

func coerceUint(u uint64) any {
	if u > math.MaxInt64 {
		return fmt.Sprint(u)
	}
	return int64(u)
}

func coerceFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Sprint(f)
	}
	return f
}

// Keys returns the mapping's keys in sorted order.
func Keys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders a scalar metadata value for display.
func String(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}
