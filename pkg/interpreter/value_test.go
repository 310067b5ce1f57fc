package interpreter

import (
	"math"
	"testing"
)

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		want string
	}{
		{"nil", NewNil(), "nil"},
		{"true", NewBool(true), "true"},
		{"false", NewBool(false), "false"},
		{"integral number", NewNumber(3), "3"},
		{"negative integral", NewNumber(-7), "-7"},
		{"fractional", NewNumber(2.5), "2.5"},
		{"zero", NewNumber(0), "0"},
		{"infinity", NewNumber(math.Inf(1)), "+Inf"},
		{"string", NewStr("hi"), "hi"},
		{"empty string", NewStr(""), ""},
		{"class", &Class{Name: "Widget"}, "Widget"},
		{"instance", &Instance{class: &Class{Name: "Widget"}}, "Widget instance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stringify(tt.val); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFunctionStringify(t *testing.T) {
	named := &Function{name: "f"}
	if got := Stringify(named); got != "<fn f>" {
		t.Errorf("got %q", got)
	}
	literal := &Function{}
	if got := Stringify(literal); got != "<fn>" {
		t.Errorf("got %q", got)
	}
}

func TestTruthiness(t *testing.T) {
	falsy := []Value{NewNil(), NewBool(false)}
	for _, v := range falsy {
		if Truthiness(v) {
			t.Errorf("%v should be falsy", v)
		}
	}
	truthy := []Value{NewBool(true), NewNumber(0), NewNumber(-1), NewStr(""), &Class{Name: "A"}}
	for _, v := range truthy {
		if !Truthiness(v) {
			t.Errorf("%v should be truthy", v)
		}
	}
}

func TestValuesEqual(t *testing.T) {
	fn := &Function{name: "f"}
	other := &Function{name: "f"}

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil nil", NewNil(), NewNil(), true},
		{"nil false", NewNil(), NewBool(false), false},
		{"numbers equal", NewNumber(1), NewNumber(1), true},
		{"numbers unequal", NewNumber(1), NewNumber(2), false},
		{"strings equal", NewStr("a"), NewStr("a"), true},
		{"number vs string", NewNumber(1), NewStr("1"), false},
		{"same function", fn, fn, true},
		{"distinct functions", fn, other, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := valuesEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
