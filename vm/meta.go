package vm

import (
	lua "github.com/yuin/gopher-lua"
)

// metaTarget resolves the receiver into the engine object whose metatable
// is being manipulated. Only tables and full userdata carry their own.
func (v *Value) metaTarget() (lua.LValue, error) {
	switch v.t {
	case TypeTable, TypeUserData:
	default:
		return nil, ErrNotTable
	}
	if v.eng == nil {
		return nil, ErrDetached
	}
	if err := v.eng.checkOpen(); err != nil {
		return nil, err
	}
	return v.eng.reg.get(v.ref), nil
}

// SetMetatable installs mt as the metatable of a table or userdata Value.
// mt must be a table on the same engine; a nil-tagged mt clears it.
func (v *Value) SetMetatable(mt *Value) error {
	obj, err := v.metaTarget()
	if err != nil {
		return err
	}
	if mt == nil || mt.t == TypeNil {
		v.eng.state.SetMetatable(obj, lua.LNil)
		return nil
	}
	if mt.t != TypeTable {
		return ErrNotTable
	}
	lv, err := v.eng.pushable(mt)
	if err != nil {
		return err
	}
	v.eng.state.SetMetatable(obj, lv)
	return nil
}

// Metatable reads the current metatable. Nil-tagged when there is none.
func (v *Value) Metatable() (*Value, error) {
	obj, err := v.metaTarget()
	if err != nil {
		return nil, err
	}
	return v.eng.loadValue(v.eng.state.GetMetatable(obj)), nil
}
