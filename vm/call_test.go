package vm

import (
	"errors"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func globalFunction(t *testing.T, e *Engine, src, name string) *Value {
	t.Helper()
	if err := e.DoString(src); err != nil {
		t.Fatalf("DoString: %v", err)
	}
	fn, err := e.Global(name)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if fn.Type() != TypeFunction {
		t.Fatalf("%s is %s, want function", name, fn.Type())
	}
	return fn
}

func TestCallSingleResult(t *testing.T) {
	e := mustEngine(t, EngineOpts{})
	add := globalFunction(t, e, `function add(a, b) return a + b end`, "add")

	v, err := add.Call(NewIntegerValue(2), NewIntegerValue(3))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v.Type() != TypeInteger || v.ToInteger() != 5 {
		t.Fatalf("add(2, 3) = %s, want integer 5", v)
	}
}

func TestCallNoResult(t *testing.T) {
	e := mustEngine(t, EngineOpts{})
	fn := globalFunction(t, e, `function noop() end`, "noop")

	v, err := fn.Call()
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !v.IsNil() {
		t.Fatalf("noop() = %s, want nil", v)
	}
	if !v.IsAttached() {
		t.Fatalf("result of a call should be attached to the engine")
	}
}

func TestCallTableMode(t *testing.T) {
	e := mustEngine(t, EngineOpts{ReturnMode: ReturnModeTable})
	fn := globalFunction(t, e, `function three() return 10, 20, 30 end`, "three")

	v, err := fn.Call()
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !v.IsTable() {
		t.Fatalf("three() = %s, want a result table", v)
	}
	// Results land under keys 0..N-1 in call order.
	for i, want := range []int64{10, 20, 30} {
		got, err := v.TableGetInt(int64(i))
		if err != nil {
			t.Fatalf("TableGetInt(%d): %v", i, err)
		}
		if got.ToInteger() != want {
			t.Fatalf("result[%d] = %s, want integer %d", i, got, want)
		}
	}
}

func TestCallSingleMode(t *testing.T) {
	e := mustEngine(t, EngineOpts{ReturnMode: ReturnModeSingle})
	fn := globalFunction(t, e, `function pair() return 1, 2 end`, "pair")

	if _, err := fn.Call(); !errors.Is(err, ErrTooManyResults) {
		t.Fatalf("pair() under single mode: %v, want ErrTooManyResults", err)
	}

	// One result is still fine under single mode.
	one := globalFunction(t, e, `function one() return 7 end`, "one")
	v, err := one.Call()
	if err != nil {
		t.Fatalf("one(): %v", err)
	}
	if v.ToInteger() != 7 {
		t.Fatalf("one() = %s, want integer 7", v)
	}
}

func TestCallVectorMode(t *testing.T) {
	e := mustEngine(t, EngineOpts{ReturnMode: ReturnModeVector})
	fn := globalFunction(t, e, `function pair() return 1, 2 end`, "pair")

	if _, err := fn.Call(); !errors.Is(err, ErrVectorReturn) {
		t.Fatalf("pair() via Call under vector mode: %v, want ErrVectorReturn", err)
	}

	vals, err := fn.CallMulti()
	if err != nil {
		t.Fatalf("CallMulti: %v", err)
	}
	if len(vals) != 2 || vals[0].ToInteger() != 1 || vals[1].ToInteger() != 2 {
		t.Fatalf("CallMulti = %v, want [1 2]", vals)
	}
}

func TestCallMultiOrder(t *testing.T) {
	e := mustEngine(t, EngineOpts{})
	fn := globalFunction(t, e, `function seq() return "a", "b", "c" end`, "seq")

	vals, err := fn.CallMulti()
	if err != nil {
		t.Fatalf("CallMulti: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(vals) != len(want) {
		t.Fatalf("got %d results, want %d", len(vals), len(want))
	}
	for i, w := range want {
		if got := vals[i].ToString(); got != w {
			t.Fatalf("result %d = %q, want %q", i, got, w)
		}
	}
}

func TestCallScriptError(t *testing.T) {
	e := mustEngine(t, EngineOpts{StdLib: StdLibBase})
	fn := globalFunction(t, e, `function boom() error("boom") end`, "boom")

	_, err := fn.Call()
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("boom() error is %T (%v), want *ScriptError", err, err)
	}

	// The engine survives a failed call.
	add := globalFunction(t, e, `function add(a, b) return a + b end`, "add")
	v, err := add.Call(NewIntegerValue(1), NewIntegerValue(1))
	if err != nil {
		t.Fatalf("Call after failure: %v", err)
	}
	if v.ToInteger() != 2 {
		t.Fatalf("add(1, 1) = %s, want integer 2", v)
	}
}

func TestCallNonFunction(t *testing.T) {
	if _, err := NewIntegerValue(1).Call(); !errors.Is(err, ErrNotFunction) {
		t.Fatalf("Call on an integer: %v, want ErrNotFunction", err)
	}

	// A bare Go function pointer is not an engine object; it must be
	// installed via CreateFunction before it can be called.
	goFn := NewGoFunctionValue(func(l *lua.LState) int { return 0 })
	if _, err := goFn.Call(); !errors.Is(err, ErrNotFunction) {
		t.Fatalf("Call on a bare go function: %v, want ErrNotFunction", err)
	}
}

func TestCallRejectsForeignArgument(t *testing.T) {
	e1 := mustEngine(t, EngineOpts{})
	e2 := mustEngine(t, EngineOpts{})

	fn := globalFunction(t, e1, `function id(x) return x end`, "id")
	foreign, err := e2.CreateString("x")
	if err != nil {
		t.Fatalf("CreateString: %v", err)
	}
	if _, err := fn.Call(foreign); !errors.Is(err, ErrEngineMismatch) {
		t.Fatalf("foreign argument: %v, want ErrEngineMismatch", err)
	}

	// The rejected call must leave the engine stack balanced.
	v, err := fn.Call(NewIntegerValue(4))
	if err != nil {
		t.Fatalf("Call after rejection: %v", err)
	}
	if v.ToInteger() != 4 {
		t.Fatalf("id(4) = %s, want integer 4", v)
	}
}

func TestCallGoFunctionInstalled(t *testing.T) {
	e := mustEngine(t, EngineOpts{})
	fn, err := e.CreateFunction(func(l *lua.LState) int {
		a := int64(l.CheckNumber(1))
		b := int64(l.CheckNumber(2))
		l.Push(lua.LNumber(a * b))
		return 1
	})
	if err != nil {
		t.Fatalf("CreateFunction: %v", err)
	}

	v, err := fn.Call(NewIntegerValue(6), NewIntegerValue(7))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if v.ToInteger() != 42 {
		t.Fatalf("mul(6, 7) = %s, want integer 42", v)
	}
}

func TestCallPassesReferenceArguments(t *testing.T) {
	e := mustEngine(t, EngineOpts{})
	fn := globalFunction(t, e, `function first(t) return t[1] end`, "first")

	tbl, err := e.CreateTable()
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := tbl.TableSetInt(1, NewStringValue("head")); err != nil {
		t.Fatalf("TableSetInt: %v", err)
	}

	v, err := fn.Call(tbl)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got := v.ToString(); got != "head" {
		t.Fatalf("first(t) = %q, want %q", got, "head")
	}
}
