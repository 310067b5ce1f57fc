package interpreter

import (
	"testing"
)

func TestEnvDefineGet(t *testing.T) {
	env := NewEnv(nil)
	env.Define("x", NewNumber(1))

	val, ok := env.Get("x")
	if !ok {
		t.Fatal("x not found")
	}
	if val.(NumberValue).Value != 1 {
		t.Errorf("got %v", val)
	}
	if _, ok := env.Get("y"); ok {
		t.Error("y should not resolve")
	}
}

func TestEnvParentChain(t *testing.T) {
	outer := NewEnv(nil)
	outer.Define("x", NewStr("outer"))
	inner := outer.Child()

	if val, ok := inner.Get("x"); !ok || val.(StrValue).Value != "outer" {
		t.Errorf("lookup through parent failed: %v", val)
	}

	// shadowing does not disturb the outer binding
	inner.Define("x", NewStr("inner"))
	if val, _ := inner.Get("x"); val.(StrValue).Value != "inner" {
		t.Errorf("inner shadow not visible: %v", val)
	}
	if val, _ := outer.Get("x"); val.(StrValue).Value != "outer" {
		t.Errorf("outer binding disturbed: %v", val)
	}
}

func TestEnvAssign(t *testing.T) {
	outer := NewEnv(nil)
	outer.Define("x", NewNumber(1))
	inner := outer.Child()

	if !inner.Assign("x", NewNumber(2)) {
		t.Fatal("assign through parent failed")
	}
	if val, _ := outer.Get("x"); val.(NumberValue).Value != 2 {
		t.Errorf("assignment did not reach the declaring scope: %v", val)
	}

	if inner.Assign("missing", NewNumber(3)) {
		t.Error("assign to undeclared variable should fail")
	}
}

func TestEnvIndexedAccess(t *testing.T) {
	root := NewEnv(nil)
	root.Define("x", NewStr("root"))
	mid := root.Child()
	mid.Define("x", NewStr("mid"))
	leaf := mid.Child()

	if val, ok := leaf.GetAt(0, "x"); ok {
		t.Errorf("leaf scope should be empty, got %v", val)
	}
	if val, ok := leaf.GetAt(1, "x"); !ok || val.(StrValue).Value != "mid" {
		t.Errorf("GetAt(1) got %v", val)
	}
	if val, ok := leaf.GetAt(2, "x"); !ok || val.(StrValue).Value != "root" {
		t.Errorf("GetAt(2) got %v", val)
	}

	leaf.AssignAt(2, "x", NewStr("updated"))
	if val, _ := root.Get("x"); val.(StrValue).Value != "updated" {
		t.Errorf("AssignAt(2) got %v", val)
	}
	if val, _ := mid.Get("x"); val.(StrValue).Value != "mid" {
		t.Errorf("mid binding disturbed: %v", val)
	}
}
