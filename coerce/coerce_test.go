package coerce

import (
	"testing"

	"github.com/i-e-b/mecs-go/arena"
	"github.com/i-e-b/mecs-go/tag"
)

func TestToBooleanScalars(t *testing.T) {
	cases := []struct {
		in   tag.Tag
		want bool
	}{
		{tag.NewInteger(0), false},
		{tag.NewInteger(5), true},
		{tag.NewFraction(0), false},
		{tag.NewFraction(1.5), true},
		{tag.VoidTag, false},
		{tag.UnitTag, false},
		{tag.NotAResultTag, false},
		{tag.InvalidTag, false},
	}
	for _, c := range cases {
		if got := ToBoolean(c.in, nil); got != c.want {
			t.Errorf("ToBoolean(%+v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestToBooleanStrings(t *testing.T) {
	truthy, _ := tag.NewSmallString("yes")
	falseStr, _ := tag.NewSmallString("false")
	zeroStr, _ := tag.NewSmallString("0")
	empty, _ := tag.NewSmallString("")

	if !ToBoolean(truthy, nil) {
		t.Errorf("ToBoolean(%q) should be true", "yes")
	}
	if ToBoolean(falseStr, nil) {
		t.Errorf(`ToBoolean("false") should be false`)
	}
	if ToBoolean(zeroStr, nil) {
		t.Errorf(`ToBoolean("0") should be false`)
	}
	if ToBoolean(empty, nil) {
		t.Errorf("ToBoolean(empty) should be false")
	}
}

func TestToIntegerConversions(t *testing.T) {
	if got := ToInteger(tag.NewInteger(7), nil); got != 7 {
		t.Errorf("ToInteger(Integer 7) = %d, want 7", got)
	}
	if got := ToInteger(tag.NewFraction(3.9), nil); got != 3 {
		t.Errorf("ToInteger(Fraction 3.9) = %d, want 3", got)
	}
	numStr, _ := tag.NewSmallString("123")
	if got := ToInteger(numStr, nil); got != 123 {
		t.Errorf(`ToInteger("123") = %d, want 123`, got)
	}
	badStr, _ := tag.NewSmallString("abc")
	if got := ToInteger(badStr, nil); got != 0 {
		t.Errorf(`ToInteger("abc") = %d, want 0 (parse failure fallback)`, got)
	}
	if got := ToInteger(tag.Tag{Kind: tag.VectorPtr}, nil); got != 0 {
		t.Errorf("ToInteger(pointer kind) = %d, want 0", got)
	}
}

func TestToDoubleConversions(t *testing.T) {
	if got := ToDouble(tag.NewInteger(4), nil); got != 4.0 {
		t.Errorf("ToDouble(Integer 4) = %v, want 4.0", got)
	}
	numStr, _ := tag.NewSmallString("3.5")
	if got := ToDouble(numStr, nil); got != 3.5 {
		t.Errorf(`ToDouble("3.5") = %v, want 3.5`, got)
	}
	badStr, _ := tag.NewSmallString("nope")
	if got := ToDouble(badStr, nil); got != 0 {
		t.Errorf(`ToDouble("nope") = %v, want 0`, got)
	}
}

func TestToStringFormatsScalars(t *testing.T) {
	if got := ToString(tag.NewInteger(-7), nil, nil); got != "-7" {
		t.Errorf("ToString(Integer -7) = %q, want -7", got)
	}
	s, _ := tag.NewSmallString("hi")
	if got := ToString(s, nil, nil); got != "hi" {
		t.Errorf("ToString(SmallString) = %q, want hi", got)
	}
	if got := ToString(tag.VoidTag, nil, nil); got != "<void>" {
		t.Errorf("ToString(Void) = %q, want <void>", got)
	}
	if got := ToString(tag.NotAResultTag, nil, nil); got != "<not-a-result>" {
		t.Errorf("ToString(NotAResult) = %q, want <not-a-result>", got)
	}
}

func TestArenaStringAllocatorAndReaderRoundTrip(t *testing.T) {
	a, err := arena.New(arena.DefaultZoneSize, arena.DefaultZoneSize)
	if err != nil {
		t.Fatalf("arena.New: %v", err)
	}
	alloc := NewArenaStringAllocator(a)
	read := NewArenaStringReader(a)

	longStr := "this string is definitely longer than seven bytes"
	tg, err := alloc(longStr)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if tg.Kind != tag.DynStringPtr {
		t.Fatalf("expected DynStringPtr for a long string, got %v", tg.Kind)
	}
	got, ok := read(tg)
	if !ok || got != longStr {
		t.Fatalf("read() = %q,%v want %q,true", got, ok, longStr)
	}

	shortTag, err := alloc("hi")
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if shortTag.Kind != tag.SmallString {
		t.Fatalf("expected SmallString for a short string, got %v", shortTag.Kind)
	}
}
