package chat

import (
	"reflect"
	"testing"

	"github.com/kayz/tomo/internal/api"
)

func chipQuestion() *api.Question {
	return &api.Question{
		FieldName:    "sub_or_dub",
		Options:      []string{"opt_a", "opt_b", "opt_c"},
		OptionLabels: []string{"Alpha", "Beta", "Gamma"},
	}
}

func autocompleteQuestion() *api.Question {
	return &api.Question{
		FieldName:    "fruit",
		Options:      []string{"apple", "banana", "cherry", "date", "elderberry"},
		OptionLabels: []string{"Apple", "Banana", "Cherry", "Date", "Elderberry"},
	}
}

func TestModeSelection(t *testing.T) {
	r := NewResolver()
	if r.Mode() != ModeFreeText {
		t.Fatalf("no question should be free text")
	}

	r.SetQuestion(chipQuestion())
	if r.Mode() != ModeChips {
		t.Fatalf("3 options should be chip mode")
	}

	r.SetQuestion(autocompleteQuestion())
	if r.Mode() != ModeAutocomplete {
		t.Fatalf("5 options should be autocomplete mode")
	}

	r.SetQuestion(&api.Question{Options: []string{"a", "b", "c", "d"}})
	if r.Mode() != ModeChips {
		t.Fatalf("4 options should still be chip mode")
	}
}

func TestFreeTextSubmitTrims(t *testing.T) {
	r := NewResolver()
	r.SetInput("  hello  ")
	ev := r.Submit()
	if ev.Kind != EventSubmit || ev.Answer != "hello" {
		t.Fatalf("Submit = %#v, want trimmed answer", ev)
	}
	if r.Input() != "" {
		t.Fatalf("input should clear after submit, got %q", r.Input())
	}
}

func TestFreeTextEmptyDoesNotSubmit(t *testing.T) {
	r := NewResolver()
	r.SetInput("   ")
	if ev := r.Submit(); ev.Kind != EventNone {
		t.Fatalf("whitespace-only input must not emit, got %#v", ev)
	}
	if r.Input() != "   " {
		t.Fatalf("field should be left unchanged, got %q", r.Input())
	}
}

func TestChipClick(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(chipQuestion())

	ev := r.ChipClick(1)
	if ev.Kind != EventSubmit || ev.Answer != "opt_b" {
		t.Fatalf("ChipClick(1) = %#v, want opt_b", ev)
	}

	if ev := r.ChipClick(7); ev.Kind != EventNone {
		t.Fatalf("out-of-range chip click must not emit")
	}
}

func TestDigitKeySelectsChip(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(chipQuestion())

	ev, handled := r.HandleKey("2")
	if !handled {
		t.Fatalf("digit key should be consumed in chip mode")
	}
	if ev.Kind != EventSubmit || ev.Answer != "opt_b" {
		t.Fatalf("digit 2 = %#v, want opt_b", ev)
	}
}

func TestDigitKeyWithoutChipDoesNotEmit(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(chipQuestion())

	ev, handled := r.HandleKey("9")
	if ev.Kind != EventNone {
		t.Fatalf("digit with no chip must not emit, got %#v", ev)
	}
	if handled {
		t.Fatalf("unmatched digit should fall through to text entry")
	}
}

func TestDigitKeyOnlyLiveInChipMode(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(autocompleteQuestion())
	if _, handled := r.HandleKey("1"); handled {
		t.Fatalf("digit shortcuts must not fire in autocomplete mode")
	}

	r.SetQuestion(nil)
	if _, handled := r.HandleKey("1"); handled {
		t.Fatalf("digit shortcuts must not fire in free-text mode")
	}
}

func TestAutocompleteShowsAllOnFocus(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(autocompleteQuestion())
	r.Focus()

	if !r.DropdownOpen() {
		t.Fatalf("dropdown should open on focus")
	}
	rows := r.Filtered()
	if len(rows) != 5 {
		t.Fatalf("expected all 5 rows, got %d", len(rows))
	}
	if rows[0].Label != "Apple" || rows[4].Label != "Elderberry" {
		t.Fatalf("rows out of order: %#v", rows)
	}
}

func TestAutocompleteFilterCaseInsensitive(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(autocompleteQuestion())
	r.Focus()
	r.SetInput("BER")

	var labels []string
	for _, row := range r.Filtered() {
		labels = append(labels, row.Label)
	}
	if !reflect.DeepEqual(labels, []string{"Elderberry"}) {
		t.Fatalf("filter 'BER' = %v, want [Elderberry]", labels)
	}

	r.SetInput("zzz")
	if len(r.Filtered()) != 0 {
		t.Fatalf("empty-result filter should show no rows")
	}
}

func TestArrowDownTabSelectsFirst(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(autocompleteQuestion())
	r.Focus()

	if _, handled := r.HandleKey("down"); !handled {
		t.Fatalf("down should be consumed with dropdown open")
	}
	ev, handled := r.HandleKey("tab")
	if !handled || ev.Kind != EventSubmit || ev.Answer != "apple" {
		t.Fatalf("ArrowDown+Tab = %#v, want apple", ev)
	}
	if r.DropdownOpen() {
		t.Fatalf("dropdown should close after resolution")
	}
}

func TestArrowKeysClampToBounds(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(autocompleteQuestion())
	r.Focus()

	for i := 0; i < 10; i++ {
		r.HandleKey("down")
	}
	if r.Highlight() != 4 {
		t.Fatalf("highlight should clamp at last row, got %d", r.Highlight())
	}

	for i := 0; i < 10; i++ {
		r.HandleKey("up")
	}
	if r.Highlight() != 0 {
		t.Fatalf("highlight should clamp at first row, got %d", r.Highlight())
	}
}

func TestEnterSelectsHighlighted(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(autocompleteQuestion())
	r.Focus()
	r.HandleKey("down")
	r.HandleKey("down")

	ev, _ := r.HandleKey("enter")
	if ev.Kind != EventSubmit || ev.Answer != "banana" {
		t.Fatalf("enter on second row = %#v, want banana", ev)
	}
}

func TestEscapeClosesWithoutClearing(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(autocompleteQuestion())
	r.Focus()
	r.SetInput("che")

	ev, handled := r.HandleKey("esc")
	if !handled || ev.Kind != EventNone {
		t.Fatalf("esc should close silently, got %#v", ev)
	}
	if r.DropdownOpen() {
		t.Fatalf("dropdown should be closed")
	}
	if r.Input() != "che" {
		t.Fatalf("typed text must survive escape, got %q", r.Input())
	}
}

func TestTabPrefillsDefaultValue(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(&api.Question{
		Options:      []string{"a", "b"},
		OptionLabels: []string{"A", "B"},
		DefaultValue: "42",
	})

	ev, handled := r.HandleKey("tab")
	if !handled || ev.Kind != EventPrefill || ev.Prefill != "42" {
		t.Fatalf("tab should prefill default, got %#v", ev)
	}
	if r.Input() != "42" {
		t.Fatalf("input should hold the default, got %q", r.Input())
	}
}

func TestTabPrefillInAutocompleteWithNoHighlight(t *testing.T) {
	q := autocompleteQuestion()
	q.DefaultValue = "banana"
	r := NewResolver()
	r.SetQuestion(q)
	r.Focus()

	ev, handled := r.HandleKey("tab")
	if !handled || ev.Kind != EventPrefill || ev.Prefill != "banana" {
		t.Fatalf("tab with no highlight should prefill, got %#v", ev)
	}
}

func TestTabWithoutDefaultFallsThrough(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(chipQuestion())
	if _, handled := r.HandleKey("tab"); handled {
		t.Fatalf("tab with no default and no highlight should fall through")
	}
}

func TestDisabledBlocksAllPaths(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(chipQuestion())
	r.SetDisabled(true)
	r.SetInput("hello")

	if ev := r.Submit(); ev.Kind != EventNone {
		t.Fatalf("disabled Submit must not emit")
	}
	if ev := r.ChipClick(0); ev.Kind != EventNone {
		t.Fatalf("disabled ChipClick must not emit")
	}
	if ev, _ := r.HandleKey("1"); ev.Kind != EventNone {
		t.Fatalf("disabled digit key must not emit")
	}
}

func TestChoicesFallBackToValueWhenLabelMissing(t *testing.T) {
	r := NewResolver()
	r.SetQuestion(&api.Question{Options: []string{"x", "y"}})
	rows := r.Choices()
	if rows[0].Label != "x" || rows[1].Label != "y" {
		t.Fatalf("missing labels should fall back to values: %#v", rows)
	}
}
