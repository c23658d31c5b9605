package value

import (
	"math"
	"testing"
)

func TestSameValue(t *testing.T) {
	negZero := math.Copysign(0, -1)
	cases := []struct {
		a, b Value
		want bool
	}{
		{Number(1), Number(1), true},
		{Number(0), Number(negZero), false},
		{Number(negZero), Number(negZero), true},
		{Number(math.NaN()), Number(math.NaN()), true},
		{Number(1), String("1"), false},
		{String("a"), String("a"), true},
		{Bool(true), Bool(true), true},
		{Bool(true), Bool(false), false},
		{Undefined(), Undefined(), true},
		{Null(), Null(), true},
		{Null(), Undefined(), false},
	}
	for _, tc := range cases {
		if got := SameValue(tc.a, tc.b); got != tc.want {
			t.Errorf("SameValue(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	truthy := []Value{Bool(true), Number(1), Number(-1), String("x")}
	falsy := []Value{Undefined(), Null(), Bool(false), Number(0), Number(math.NaN()), String("")}
	for _, v := range truthy {
		if !v.Truthy() {
			t.Errorf("%s should be truthy", v)
		}
	}
	for _, v := range falsy {
		if v.Truthy() {
			t.Errorf("%s should be falsy", v)
		}
	}
}

func TestNumberFormatting(t *testing.T) {
	cases := map[float64]string{
		1:    "1",
		1.5:  "1.5",
		-2.5: "-2.5",
	}
	for n, want := range cases {
		if got := Number(n).String(); got != want {
			t.Errorf("Number(%v).String() = %q, want %q", n, got, want)
		}
	}
	if Number(math.NaN()).String() != "NaN" {
		t.Errorf("NaN formatting broken")
	}
	if Number(math.Inf(1)).String() != "Infinity" {
		t.Errorf("Infinity formatting broken")
	}
}

func TestObjectInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("b", Number(1), PropWritable)
	o.Set("a", Number(2), PropWritable)
	o.Set("c", Number(3), PropWritable)
	o.Set("a", Number(4), PropWritable) // overwrite keeps position

	want := []string{"b", "a", "c"}
	got := o.Keys()
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
	if v, ok := o.Get("a"); !ok || v.AsNumber() != 4 {
		t.Errorf("overwrite lost: a = %v", v)
	}
}

func TestObjectDelete(t *testing.T) {
	o := NewObject()
	o.Set("fixed", Number(1), PropWritable)
	o.Set("loose", Number(2), PropWritable|PropConfigurable)

	if o.Delete("fixed") {
		t.Errorf("non-configurable property deleted")
	}
	if !o.Delete("loose") {
		t.Errorf("configurable property not deleted")
	}
	if o.Has("loose") || !o.Has("fixed") {
		t.Errorf("delete state wrong: %v", o.Keys())
	}
	if !o.Delete("absent") {
		t.Errorf("deleting an absent property must succeed")
	}
}
