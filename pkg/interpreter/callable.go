package interpreter

import (
	"github.com/rlox-lang/rlox/pkg/ast"
)

// Function is a user-defined function or method. It closes over the
// environment that was current when its declaration was evaluated.
type Function struct {
	name          string // empty for function literals
	declaration   *ast.FunctionExpr
	closure       *Env
	isInitializer bool
}

func (*Function) loxValue() {}

func (f *Function) String() string {
	if f.name == "" {
		return "<fn>"
	}
	return "<fn " + f.name + ">"
}

// Arity reports the declared parameter count.
func (f *Function) Arity() int {
	return len(f.declaration.Params)
}

// Call invokes the function. A single fresh environment holds both the
// parameters and the body's top-level declarations.
func (f *Function) Call(in *Interpreter, args []Value) (Value, error) {
	env := f.closure.Child()
	for i, param := range f.declaration.Params {
		env.Define(param, args[i])
	}

	ctrl, val, err := in.execBlock(f.declaration.Body, env)
	if err != nil {
		return nil, err
	}

	// An initializer always hands back the instance, even on a bare
	// return or falling off the end.
	if f.isInitializer {
		this, _ := f.closure.GetAt(0, "this")
		return this, nil
	}
	if ctrl == ctrlReturn {
		return val, nil
	}
	return NewNil(), nil
}

// bind produces a copy of the method whose closure has this bound to
// instance, one extra environment deep.
func (f *Function) bind(instance *Instance) *Function {
	env := f.closure.Child()
	env.Define("this", instance)
	return &Function{
		name:          f.name,
		declaration:   f.declaration,
		closure:       env,
		isInitializer: f.isInitializer,
	}
}

// NativeFn is a function implemented in Go and exposed to Lox programs.
type NativeFn struct {
	name  string
	arity int
	fn    func(in *Interpreter, args []Value) (Value, error)
}

func (*NativeFn) loxValue() {}

func (n *NativeFn) String() string {
	return "<native fn>"
}

func (n *NativeFn) Arity() int {
	return n.arity
}

func (n *NativeFn) Call(in *Interpreter, args []Value) (Value, error) {
	return n.fn(in, args)
}

// Class is a runtime class object. Classes are first-class values and are
// themselves callable as constructors.
type Class struct {
	Name       string
	Superclass *Class // nil when the class has no superclass
	Methods    map[string]*Function
}

func (*Class) loxValue() {}

// FindMethod looks up a method by name, walking up the superclass chain.
func (c *Class) FindMethod(name string) *Function {
	if m, ok := c.Methods[name]; ok {
		return m
	}
	if c.Superclass != nil {
		return c.Superclass.FindMethod(name)
	}
	return nil
}

// Arity reports the parameter count of the init method, or zero when the
// class declares none.
func (c *Class) Arity() int {
	if init := c.FindMethod("init"); init != nil {
		return init.Arity()
	}
	return 0
}

// Call constructs a new instance, running init when declared.
func (c *Class) Call(in *Interpreter, args []Value) (Value, error) {
	instance := &Instance{class: c, fields: make(map[string]Value)}
	if init := c.FindMethod("init"); init != nil {
		if _, err := init.bind(instance).Call(in, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// Instance is an object created by calling a class. Fields are per
// instance; methods live on the class.
type Instance struct {
	class  *Class
	fields map[string]Value
}

func (*Instance) loxValue() {}

// Get reads a property. Fields shadow methods of the same name; methods
// come back bound to this instance.
func (i *Instance) Get(name string) (Value, bool) {
	if val, ok := i.fields[name]; ok {
		return val, true
	}
	if m := i.class.FindMethod(name); m != nil {
		return m.bind(i), true
	}
	return nil, false
}

// Set writes a field, creating it on first assignment.
func (i *Instance) Set(name string, val Value) {
	i.fields[name] = val
}
