package vm

import (
	"errors"

	lua "github.com/yuin/gopher-lua"
)

// loadValue classifies an engine value by runtime type and wraps it in a
// Value attached to this engine. Reference kinds are pinned into the
// registry; scalars copy their payload out.
func (e *Engine) loadValue(lv lua.LValue) *Value {
	switch lv.Type() {
	case lua.LTNil:
		return &Value{eng: e}
	case lua.LTBool:
		return &Value{eng: e, t: TypeBoolean, b: bool(lv.(lua.LBool))}
	case lua.LTNumber:
		n := float64(lv.(lua.LNumber))
		// The engine has one number type. An exactly representable
		// integral classifies as integer, everything else as number.
		if i, ok := integralNumber(n); ok {
			return &Value{eng: e, t: TypeInteger, i: i}
		}
		return &Value{eng: e, t: TypeNumber, n: n}
	case lua.LTString:
		return &Value{eng: e, t: TypeString, ref: e.reg.ref(lv)}
	case lua.LTFunction:
		return &Value{eng: e, t: TypeFunction, ref: e.reg.ref(lv)}
	case lua.LTUserData:
		return &Value{eng: e, t: TypeUserData, ref: e.reg.ref(lv)}
	case lua.LTThread:
		return &Value{eng: e, t: TypeThread, ref: e.reg.ref(lv)}
	case lua.LTTable:
		return &Value{eng: e, t: TypeTable, ref: e.reg.ref(lv)}
	default:
		// Engine extensions without a slot in the variant (channels)
		// are held as opaque userdata-kind references.
		return &Value{eng: e, t: TypeUserData, ref: e.reg.ref(lv)}
	}
}

// pushable converts a Value into an engine value for this engine. Detached
// scalar kinds are engine-agnostic; reference kinds must already belong to
// this engine. Go functions and light userdata are wrapped into engine
// objects on the way in.
func (e *Engine) pushable(v *Value) (lua.LValue, error) {
	if v == nil {
		return nil, errors.New("cannot marshal a nil value")
	}
	switch v.t {
	case TypeNil:
		return lua.LNil, nil
	case TypeBoolean:
		return lua.LBool(v.b), nil
	case TypeNumber:
		return lua.LNumber(v.n), nil
	case TypeInteger:
		return lua.LNumber(v.i), nil
	case TypeDetachedString:
		return lua.LString(v.str.value()), nil
	case TypeGoFunction:
		if v.fn == nil {
			return nil, errors.New("cannot marshal a nil go function")
		}
		return e.state.NewFunction(v.fn), nil
	case TypeLightUserData:
		// The engine has no light userdata kind; box the pointer.
		ud := e.state.NewUserData()
		ud.Value = v.p
		return ud, nil
	default:
		if v.eng == nil {
			return nil, ErrDetached
		}
		if v.eng != e {
			return nil, ErrEngineMismatch
		}
		return v.eng.reg.get(v.ref), nil
	}
}

// integralNumber reports whether n is exactly representable as an integer.
// Magnitudes beyond 2^53 are left as numbers: past that the double grid is
// coarser than the integers.
func integralNumber(n float64) (int64, bool) {
	const maxExact = 1 << 53
	if n < -maxExact || n > maxExact {
		return 0, false
	}
	i := int64(n)
	if float64(i) == n {
		return i, true
	}
	return 0, false
}
