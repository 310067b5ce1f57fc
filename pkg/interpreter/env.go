package interpreter

// Env is a scoped environment for variable bindings.
// It supports parent-chained lookup for lexical scoping, and indexed
// access for references whose scope distance was resolved statically.
type Env struct {
	bindings map[string]Value
	parent   *Env
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings: make(map[string]Value),
		parent:   parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Define binds a variable in this scope, shadowing any outer binding of
// the same name. Redefining in the same scope overwrites.
func (e *Env) Define(name string, val Value) {
	e.bindings[name] = val
}

// Get looks up a variable by name, traversing parent scopes.
func (e *Env) Get(name string) (Value, bool) {
	if val, ok := e.bindings[name]; ok {
		return val, true
	}
	if e.parent != nil {
		return e.parent.Get(name)
	}
	return nil, false
}

// Assign updates an existing binding, traversing parent scopes. It
// reports false when no scope in the chain declares name.
func (e *Env) Assign(name string, val Value) bool {
	if _, ok := e.bindings[name]; ok {
		e.bindings[name] = val
		return true
	}
	if e.parent != nil {
		return e.parent.Assign(name, val)
	}
	return false
}

// ancestor hops up the parent chain dist times. The resolver guarantees
// the chain is deep enough for every distance it hands out.
func (e *Env) ancestor(dist int) *Env {
	env := e
	for i := 0; i < dist; i++ {
		env = env.parent
	}
	return env
}

// GetAt reads name from the environment exactly dist hops up the chain.
func (e *Env) GetAt(dist int, name string) (Value, bool) {
	val, ok := e.ancestor(dist).bindings[name]
	return val, ok
}

// AssignAt writes name in the environment exactly dist hops up the chain.
func (e *Env) AssignAt(dist int, name string, val Value) {
	e.ancestor(dist).bindings[name] = val
}
