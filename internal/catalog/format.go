package catalog

import (
	"fmt"
	"strings"
)

// labelFor resolves a raw option value to its display label, falling back
// to the stringified raw value when the field has no matching option.
func labelFor(f *Field, value any) string {
	raw := stringify(value)
	for _, o := range f.Options {
		if stringify(o.Value) == raw {
			return o.Label
		}
	}
	return raw
}

// FormatValue renders a stored answer for display. Nil values render as the
// empty string. Multi and list values are joined with ", "; multi values are
// resolved through the option table, list tokens are shown verbatim.
func FormatValue(f *Field, value any) string {
	if value == nil {
		return ""
	}

	switch f.Type {
	case TypeMulti:
		items, ok := toStrings(value)
		if !ok {
			return stringify(value)
		}
		labels := make([]string, len(items))
		for i, v := range items {
			labels[i] = labelFor(f, v)
		}
		return strings.Join(labels, ", ")

	case TypeEnum:
		return labelFor(f, value)

	case TypeList:
		items, ok := toStrings(value)
		if !ok {
			return stringify(value)
		}
		return strings.Join(items, ", ")
	}

	return stringify(value)
}

// toStrings converts the array shapes that reach us ([]string directly, or
// []any after a JSON round trip) into a string slice.
func toStrings(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = stringify(item)
		}
		return out, true
	}
	return nil, false
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}
