package interpreter

import (
	"time"
)

// defineNatives installs the built-in functions into the global
// environment.
func defineNatives(globals *Env) {
	globals.Define("clock", &NativeFn{
		name:  "clock",
		arity: 0,
		fn: func(in *Interpreter, args []Value) (Value, error) {
			return NewNumber(float64(time.Now().UnixMilli()) / 1000.0), nil
		},
	})
}
