package chat

import (
	"reflect"
	"testing"

	"github.com/kayz/tomo/internal/catalog"
)

func TestStatusForProgression(t *testing.T) {
	tests := []struct {
		step    string
		current string
		want    SectionStatus
	}{
		{step: "profile", current: "profile", want: SectionActive},
		{step: "food", current: "profile", want: SectionPending},
		{step: "anime", current: "profile", want: SectionPending},
		{step: "profile", current: "food", want: SectionCompleted},
		{step: "food", current: "food", want: SectionActive},
		{step: "profile", current: "done", want: SectionCompleted},
		{step: "food", current: "done", want: SectionCompleted},
		{step: "anime", current: "done", want: SectionCompleted},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.step, tt.current); got != tt.want {
			t.Fatalf("StatusFor(%q, %q) = %v, want %v", tt.step, tt.current, got, tt.want)
		}
	}
}

func TestOrdinals(t *testing.T) {
	if Ordinal("profile") != 1 || Ordinal("food") != 2 || Ordinal("anime") != 3 {
		t.Fatalf("ordinals wrong: %d %d %d", Ordinal("profile"), Ordinal("food"), Ordinal("anime"))
	}
}

func TestCoerceEnumBooleanOptions(t *testing.T) {
	field, _ := catalog.FieldByKey("spice_ok")
	if got := CoerceEnum(field, "true"); got != true {
		t.Fatalf("CoerceEnum(true) = %#v, want boolean true", got)
	}
	if got := CoerceEnum(field, "false"); got != false {
		t.Fatalf("CoerceEnum(false) = %#v, want boolean false", got)
	}
}

func TestCoerceEnumStringOptionsPassThrough(t *testing.T) {
	field, _ := catalog.FieldByKey("age_range")
	if got := CoerceEnum(field, "25_34"); got != "25_34" {
		t.Fatalf("CoerceEnum = %#v, want raw string", got)
	}
}

func TestCoerceMulti(t *testing.T) {
	if got := CoerceMulti([]string{"dairy"}); !reflect.DeepEqual(got, []string{"dairy"}) {
		t.Fatalf("CoerceMulti single = %#v", got)
	}
	if got := CoerceMulti(nil); got != nil {
		t.Fatalf("unchecking the last box must emit nil, got %#v", got)
	}
	if got := CoerceMulti([]string{}); got != nil {
		t.Fatalf("empty checked set must emit nil, never []: %#v", got)
	}
}

func TestCoerceList(t *testing.T) {
	got := CoerceList("Naruto, One Piece")
	if !reflect.DeepEqual(got, []string{"Naruto", "One Piece"}) {
		t.Fatalf("CoerceList = %#v", got)
	}
	if got := CoerceList("  "); got != nil {
		t.Fatalf("blank list input must emit nil, got %#v", got)
	}
	if got := CoerceList(" , ,"); got != nil {
		t.Fatalf("empty tokens must be dropped entirely, got %#v", got)
	}
}
