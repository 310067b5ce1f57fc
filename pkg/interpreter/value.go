// Package interpreter implements the Lox tree-walking interpreter.
package interpreter

import (
	"strconv"
)

// Value is the interface for all Lox runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	loxValue() // sealed marker
}

// NilValue represents the nil value.
type NilValue struct{}

func (NilValue) loxValue() {}

// BoolValue represents a boolean value.
type BoolValue struct {
	Value bool
}

func (BoolValue) loxValue() {}

// NumberValue represents a numeric value. All Lox numbers are float64.
type NumberValue struct {
	Value float64
}

func (NumberValue) loxValue() {}

// StrValue represents a string value.
type StrValue struct {
	Value string
}

func (StrValue) loxValue() {}

// NewNil creates a nil value.
func NewNil() Value {
	return NilValue{}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return BoolValue{Value: b}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return NumberValue{Value: n}
}

// NewStr creates a string value.
func NewStr(s string) Value {
	return StrValue{Value: s}
}

// Callable is implemented by values that can appear as the callee of a
// call expression.
type Callable interface {
	Value
	Arity() int
	Call(in *Interpreter, args []Value) (Value, error)
}

// Truthiness returns the boolean interpretation of a Lox value.
// Only nil and false are falsy; everything else, including 0 and "",
// is truthy.
func Truthiness(v Value) bool {
	switch val := v.(type) {
	case NilValue:
		return false
	case BoolValue:
		return val.Value
	default:
		return true
	}
}

// Stringify renders a value the way the print statement does. Strings
// appear without quotes; numbers with an integral value drop the
// fractional part.
func Stringify(v Value) string {
	switch val := v.(type) {
	case NilValue:
		return "nil"
	case BoolValue:
		if val.Value {
			return "true"
		}
		return "false"
	case NumberValue:
		return strconv.FormatFloat(val.Value, 'f', -1, 64)
	case StrValue:
		return val.Value
	case *Function:
		return val.String()
	case *NativeFn:
		return val.String()
	case *Class:
		return val.Name
	case *Instance:
		return val.class.Name + " instance"
	default:
		return "<unknown>"
	}
}

// valuesEqual implements Lox ==. Primitives compare by value, functions,
// classes, and instances by identity, and operands of different types are
// never equal.
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case NilValue:
		_, ok := b.(NilValue)
		return ok
	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av.Value == bv.Value
	case NumberValue:
		bv, ok := b.(NumberValue)
		return ok && av.Value == bv.Value
	case StrValue:
		bv, ok := b.(StrValue)
		return ok && av.Value == bv.Value
	default:
		// reference types: identity
		return a == b
	}
}
