package vm

import (
	lua "github.com/yuin/gopher-lua"
)

// Call invokes a function-tagged Value under a protected call and shapes
// the results by the engine's return convention:
//
//   - no results yield a nil-tagged Value
//   - one result is classified and returned directly
//   - two or more results are an error (single mode), boxed into a fresh
//     table keyed 0..N-1 in result order (table mode, the default), or
//     refused in favor of CallMulti (vector mode)
//
// A script-level failure comes back as a *ScriptError with the engine's
// message; the engine stays valid and reusable afterwards.
func (v *Value) Call(args ...*Value) (*Value, error) {
	rets, err := v.invoke(args)
	if err != nil {
		return nil, err
	}
	switch len(rets) {
	case 0:
		return &Value{eng: v.eng}, nil
	case 1:
		return v.eng.loadValue(rets[0]), nil
	}
	switch v.eng.mode {
	case ReturnModeSingle:
		return nil, ErrTooManyResults
	case ReturnModeVector:
		return nil, ErrVectorReturn
	default:
		tbl := v.eng.state.CreateTable(len(rets), 0)
		for i, r := range rets {
			tbl.RawSet(lua.LNumber(i), r)
		}
		return v.eng.loadValue(tbl), nil
	}
}

// CallMulti invokes the function and returns every result in order. This is
// the explicitly multi-valued invocation form; under the vector convention
// it is the canonical one.
func (v *Value) CallMulti(args ...*Value) ([]*Value, error) {
	rets, err := v.invoke(args)
	if err != nil {
		return nil, err
	}
	out := make([]*Value, 0, len(rets))
	for _, r := range rets {
		out = append(out, v.eng.loadValue(r))
	}
	return out, nil
}

// invoke runs the call pipeline: prep (tag check, push the callee, zero the
// argument counter), left-to-right argument marshaling with per-argument
// validation, then a protected call bracketed by stack-height bookkeeping.
// The engine stack is restored to its pre-call height on every path.
func (v *Value) invoke(args []*Value) ([]lua.LValue, error) {
	if v.t != TypeFunction {
		return nil, ErrNotFunction
	}
	if v.eng == nil {
		return nil, ErrDetached
	}
	if err := v.eng.checkOpen(); err != nil {
		return nil, err
	}
	state := v.eng.state

	base := state.GetTop()
	state.Push(v.eng.reg.get(v.ref))
	cargs := 0
	for _, a := range args {
		lv, err := v.eng.pushable(a)
		if err != nil {
			state.SetTop(base)
			return nil, err
		}
		state.Push(lv)
		cargs++
	}

	if err := state.PCall(cargs, lua.MultRet, nil); err != nil {
		state.SetTop(base)
		return nil, scriptErrorFrom(err)
	}

	retc := state.GetTop() - base
	rets := make([]lua.LValue, 0, retc)
	for i := 1; i <= retc; i++ {
		rets = append(rets, state.Get(base+i))
	}
	state.SetTop(base)
	return rets, nil
}
