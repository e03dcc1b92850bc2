// Package chat implements the client core: the input resolver, the
// conversation controller and the answers-panel derivations. It is UI
// toolkit agnostic; the TUI layers rendering on top.
package chat

import (
	"strings"

	"github.com/kayz/tomo/internal/api"
)

// InputMode is how the input widget presents the active question.
type InputMode int

const (
	ModeFreeText InputMode = iota
	ModeChips
	ModeAutocomplete
)

// Questions with fewer options than this render as chips, the rest as an
// autocomplete list.
const chipThreshold = 5

// EventKind classifies what a key or click resolved to.
type EventKind int

const (
	// EventNone: nothing resolved; unhandled keys fall through to normal
	// text entry.
	EventNone EventKind = iota
	// EventSubmit carries a resolved answer to send.
	EventSubmit
	// EventPrefill fills the text field without sending.
	EventPrefill
)

// Event is the resolver's only output: a command for the controller or the
// surrounding widget, never a callback.
type Event struct {
	Kind    EventKind
	Answer  string
	Prefill string
}

var none = Event{Kind: EventNone}

// ChoiceRow is one visible option row (chip or dropdown entry).
type ChoiceRow struct {
	Value string
	Label string
}

// Resolver turns keyboard and pointer input into at most one resolved
// answer per interaction. It holds the transient per-question widget state:
// the typed text, whether the dropdown is open, and the highlighted row.
type Resolver struct {
	question  *api.Question
	disabled  bool
	input     string
	open      bool
	highlight int // index into Filtered(), -1 for none
}

func NewResolver() *Resolver {
	return &Resolver{highlight: -1}
}

// SetQuestion installs the next active question (nil for free text) and
// resets the dropdown state. The typed text is left alone; submission is
// what clears it.
func (r *Resolver) SetQuestion(q *api.Question) {
	r.question = q
	r.open = false
	r.highlight = -1
}

func (r *Resolver) Question() *api.Question { return r.question }

func (r *Resolver) SetDisabled(disabled bool) { r.disabled = disabled }
func (r *Resolver) Disabled() bool            { return r.disabled }

// Mode selects the rendering for the current question.
func (r *Resolver) Mode() InputMode {
	if r.question == nil || len(r.question.Options) == 0 {
		return ModeFreeText
	}
	if len(r.question.Options) < chipThreshold {
		return ModeChips
	}
	return ModeAutocomplete
}

// SetInput replaces the typed text and recomputes the filtered rows. The
// highlight resets because the previously highlighted row may be filtered
// out.
func (r *Resolver) SetInput(text string) {
	r.input = text
	r.highlight = -1
}

func (r *Resolver) Input() string { return r.input }

// Focus opens the dropdown in autocomplete mode, showing all options.
func (r *Resolver) Focus() {
	if r.Mode() == ModeAutocomplete {
		r.open = true
	}
}

func (r *Resolver) DropdownOpen() bool { return r.open && r.Mode() == ModeAutocomplete }

// Highlight returns the highlighted row index, -1 for none.
func (r *Resolver) Highlight() int { return r.highlight }

// Choices returns every option/label pair of the active question.
func (r *Resolver) Choices() []ChoiceRow {
	q := r.question
	if q == nil {
		return nil
	}
	rows := make([]ChoiceRow, len(q.Options))
	for i, v := range q.Options {
		label := v
		if i < len(q.OptionLabels) {
			label = q.OptionLabels[i]
		}
		rows[i] = ChoiceRow{Value: v, Label: label}
	}
	return rows
}

// Filtered returns the dropdown rows whose label contains the typed text,
// case-insensitively, preserving original order. With no typed text every
// row is visible.
func (r *Resolver) Filtered() []ChoiceRow {
	rows := r.Choices()
	needle := strings.ToLower(strings.TrimSpace(r.input))
	if needle == "" {
		return rows
	}
	var out []ChoiceRow
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Label), needle) {
			out = append(out, row)
		}
	}
	return out
}

// ChipClick resolves a pointer activation of chip i.
func (r *Resolver) ChipClick(i int) Event {
	if r.disabled || r.Mode() != ModeChips {
		return none
	}
	rows := r.Choices()
	if i < 0 || i >= len(rows) {
		return none
	}
	return r.emit(rows[i].Value)
}

// Submit resolves the typed text as a free-text answer. Whitespace-only
// input produces no event and leaves the field unchanged.
func (r *Resolver) Submit() Event {
	if r.disabled {
		return none
	}
	text := strings.TrimSpace(r.input)
	if text == "" {
		return none
	}
	return r.emit(text)
}

// HandleKey processes one key press, named in bubbletea's msg.String()
// convention ("down", "up", "tab", "enter", "esc", "1".."9"). The bool
// reports whether the key was consumed; unconsumed keys should reach the
// text field (so digits type normally outside chip mode).
func (r *Resolver) HandleKey(key string) (Event, bool) {
	if r.disabled {
		return none, false
	}

	switch key {
	case "down":
		if !r.DropdownOpen() {
			return none, false
		}
		if n := len(r.Filtered()); r.highlight < n-1 {
			r.highlight++
		}
		return none, true

	case "up":
		if !r.DropdownOpen() {
			return none, false
		}
		if r.highlight > 0 {
			r.highlight--
		}
		return none, true

	case "tab":
		if r.DropdownOpen() && r.highlight >= 0 {
			if rows := r.Filtered(); r.highlight < len(rows) {
				return r.emit(rows[r.highlight].Value), true
			}
		}
		// No row highlighted: Tab prefills the default value, if any.
		if q := r.question; q != nil && q.DefaultValue != "" {
			r.input = q.DefaultValue
			return Event{Kind: EventPrefill, Prefill: q.DefaultValue}, true
		}
		return none, false

	case "enter":
		if r.DropdownOpen() && r.highlight >= 0 {
			if rows := r.Filtered(); r.highlight < len(rows) {
				return r.emit(rows[r.highlight].Value), true
			}
		}
		ev := r.Submit()
		return ev, ev.Kind != EventNone

	case "esc":
		if !r.DropdownOpen() {
			return none, false
		}
		// Close without resolving and without clearing typed text.
		r.open = false
		r.highlight = -1
		return none, true
	}

	// Digit shortcuts are only live in chip mode; the digit is consumed so
	// it never reaches the text field.
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' && r.Mode() == ModeChips {
		idx := int(key[0] - '1')
		if rows := r.Choices(); idx < len(rows) {
			return r.emit(rows[idx].Value), true
		}
		return none, false
	}

	return none, false
}

// emit produces the single submit event and resets the widget for the next
// turn.
func (r *Resolver) emit(answer string) Event {
	r.input = ""
	r.open = false
	r.highlight = -1
	return Event{Kind: EventSubmit, Answer: answer}
}
