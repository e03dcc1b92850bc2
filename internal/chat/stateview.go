package chat

import (
	"strings"

	"github.com/kayz/tomo/internal/catalog"
)

// SectionStatus is the derived progress marker of one answers-panel
// section.
type SectionStatus int

const (
	SectionPending SectionStatus = iota
	SectionActive
	SectionCompleted
)

// StatusFor derives a section's status purely from positions in the fixed
// step order: strictly before the current step is completed, equal is
// active, after is pending. "done" sits past every data step, so all three
// show completed.
func StatusFor(stepKey, currentStep string) SectionStatus {
	stepIdx := catalog.StepIndex(stepKey)
	curIdx := catalog.StepIndex(currentStep)
	if stepIdx < 0 || curIdx < 0 {
		return SectionPending
	}
	switch {
	case stepIdx < curIdx:
		return SectionCompleted
	case stepIdx == curIdx:
		return SectionActive
	default:
		return SectionPending
	}
}

// Ordinal returns the 1-based badge number for a data step.
func Ordinal(stepKey string) int {
	return catalog.StepIndex(stepKey) + 1
}

// CoerceEnum turns a selected raw option string into the value to emit.
// Enum fields whose options carry booleans emit real booleans, never the
// strings "true"/"false".
func CoerceEnum(field *catalog.Field, selected string) any {
	for _, o := range field.Options {
		if _, isBool := o.Value.(bool); isBool {
			switch selected {
			case "true":
				return true
			case "false":
				return false
			}
		}
	}
	return selected
}

// CoerceMulti turns the set of checked raw values into the emitted value:
// the values as-is, or nil when the last box was unchecked — never an
// empty array.
func CoerceMulti(checked []string) any {
	if len(checked) == 0 {
		return nil
	}
	out := make([]string, len(checked))
	copy(out, checked)
	return out
}

// CoerceList parses comma-separated free text into the emitted value:
// trimmed non-empty tokens, or nil when nothing remains.
func CoerceList(text string) any {
	var out []string
	for _, tok := range strings.Split(text, ",") {
		if t := strings.TrimSpace(tok); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
