// Package flow owns the server-side onboarding state machine: which step
// is active, which answers are filled, and how raw patch values are
// normalized into canonical ones.
package flow

import (
	"strings"

	"github.com/kayz/tomo/internal/api"
	"github.com/kayz/tomo/internal/catalog"
)

// NewState returns a fresh snapshot at the first step with no answers.
func NewState() api.State {
	return api.State{
		CurrentStep: catalog.StepProfile,
		Answers:     map[string]any{},
	}
}

// MissingFields lists the unanswered field keys of step, in catalog order.
// The done step has no fields and is never missing anything.
func MissingFields(s api.State, step string) []string {
	def := catalog.StepByKey(step)
	if def == nil {
		return nil
	}
	var missing []string
	for _, f := range def.Fields {
		if s.AnswerFor(f.Key) == nil {
			missing = append(missing, f.Key)
		}
	}
	return missing
}

// StepComplete reports whether every field of step has an answer.
func StepComplete(s api.State, step string) bool {
	return catalog.StepByKey(step) != nil && len(MissingFields(s, step)) == 0
}

// Advance moves CurrentStep forward past every completed step. It is called
// only by the conversational path; direct state patches never advance.
func Advance(s *api.State) {
	for s.CurrentStep != catalog.StepDone {
		if !StepComplete(*s, s.CurrentStep) {
			return
		}
		idx := catalog.StepIndex(s.CurrentStep)
		s.CurrentStep = catalog.StepOrder[idx+1]
	}
}

// ApplyUpdates merges a field-key → value map into the answers, normalizing
// each value for its field. Unknown fields and values that cannot be
// normalized are skipped silently. Updates may target any step, not just
// the current one. Returns the keys that actually changed, in no
// particular order.
func ApplyUpdates(s *api.State, updates map[string]any) []string {
	if s.Answers == nil {
		s.Answers = map[string]any{}
	}
	var changed []string
	for key, value := range updates {
		field, _ := catalog.FieldByKey(key)
		if field == nil {
			continue
		}
		normalized, ok := Normalize(field, value)
		if !ok {
			continue
		}
		if normalized == nil {
			delete(s.Answers, key)
		} else {
			s.Answers[key] = normalized
		}
		changed = append(changed, key)
	}
	return changed
}

// Normalize coerces a raw patch value into the canonical stored form for a
// field. The second return is false when the value cannot be interpreted.
//
// Enum values match by exact option value first, then by label with case,
// spaces, dashes and underscores ignored ("25-34" → "25_34"). Multi values
// normalize element-wise and drop elements that match nothing. List values
// accept a string slice or a comma-separated string. Nil clears the field.
func Normalize(field *catalog.Field, value any) (any, bool) {
	if value == nil {
		return nil, true
	}

	switch field.Type {
	case catalog.TypeText:
		str, ok := value.(string)
		if !ok {
			return nil, false
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return nil, true
		}
		return str, true

	case catalog.TypeEnum:
		return normalizeOption(field, value)

	case catalog.TypeMulti:
		items, ok := anyStrings(value)
		if !ok {
			return nil, false
		}
		var out []string
		for _, item := range items {
			v, ok := normalizeOption(field, item)
			if !ok {
				continue
			}
			if str, isStr := v.(string); isStr {
				out = append(out, str)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true

	case catalog.TypeList:
		if str, ok := value.(string); ok {
			tokens := splitList(str)
			if len(tokens) == 0 {
				return nil, true
			}
			return tokens, true
		}
		items, ok := anyStrings(value)
		if !ok {
			return nil, false
		}
		var out []string
		for _, item := range items {
			if t := strings.TrimSpace(item); t != "" {
				out = append(out, t)
			}
		}
		if len(out) == 0 {
			return nil, true
		}
		return out, true
	}

	return nil, false
}

// normalizeOption resolves a raw value against a field's option table,
// returning the canonical option value (which may be a bool).
func normalizeOption(field *catalog.Field, value any) (any, bool) {
	// Already-typed booleans pass through if an option carries them.
	if b, ok := value.(bool); ok {
		for _, o := range field.Options {
			if o.Value == b {
				return b, true
			}
		}
		return nil, false
	}

	str, ok := value.(string)
	if !ok {
		return nil, false
	}
	str = strings.TrimSpace(str)
	if str == "" {
		return nil, false
	}

	for _, o := range field.Options {
		if sv, isStr := o.Value.(string); isStr && sv == str {
			return sv, true
		}
	}

	// Boolean-valued options accept the usual words.
	for _, o := range field.Options {
		if bv, isBool := o.Value.(bool); isBool {
			switch strings.ToLower(str) {
			case "yes", "true", "y", "1":
				if bv {
					return true, true
				}
			case "no", "false", "n", "0":
				if !bv {
					return false, true
				}
			}
		}
	}

	// Label fallback: "25-34", "Slice of Life", etc.
	want := canonKey(str)
	for _, o := range field.Options {
		if canonKey(o.Label) == want {
			return o.Value, true
		}
		if sv, isStr := o.Value.(string); isStr && canonKey(sv) == want {
			return sv, true
		}
	}

	return nil, false
}

// canonKey lowercases and strips separators so labels and values compare
// loosely: "25-34", "25_34" and "25 34" all collapse to "2534".
func canonKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitList splits comma-separated free text, trimming tokens and dropping
// empties.
func splitList(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, ",") {
		if t := strings.TrimSpace(tok); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func anyStrings(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

// DisplayValue renders a stored answer for transcript summaries: booleans
// become yes/no, list elements get their first letter capitalized, and
// underscores in bare values read as dashes.
func DisplayValue(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case string:
		return strings.ReplaceAll(v, "_", "-")
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = capitalize(item)
		}
		return strings.Join(out, ", ")
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, capitalize(str))
			}
		}
		return strings.Join(out, ", ")
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
