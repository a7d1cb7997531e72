package vm

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Table operations on a table-tagged Value. Keys and values must be
// detached scalar kinds or attached to the same engine as the receiver;
// both are validated before anything is written, so a mismatch mutates
// nothing. Access is raw (no metamethods) and leaves no stack growth.

// table resolves the receiver into its pinned engine table.
func (v *Value) table() (*lua.LTable, error) {
	if v.t != TypeTable {
		return nil, ErrNotTable
	}
	if v.eng == nil {
		return nil, ErrDetached
	}
	if err := v.eng.checkOpen(); err != nil {
		return nil, err
	}
	tbl, ok := v.eng.reg.get(v.ref).(*lua.LTable)
	if !ok {
		return nil, ErrNotTable
	}
	return tbl, nil
}

// TableSet stores value under key in the receiver table.
func (v *Value) TableSet(key, value *Value) error {
	tbl, err := v.table()
	if err != nil {
		return err
	}
	k, err := v.eng.pushable(key)
	if err != nil {
		return err
	}
	val, err := v.eng.pushable(value)
	if err != nil {
		return err
	}
	tbl.RawSet(k, val)
	return nil
}

// TableSetInt is a convenience path for integer keys that skips building an
// intermediate key Value.
func (v *Value) TableSetInt(key int64, value *Value) error {
	tbl, err := v.table()
	if err != nil {
		return err
	}
	val, err := v.eng.pushable(value)
	if err != nil {
		return err
	}
	tbl.RawSet(lua.LNumber(key), val)
	return nil
}

// TableGet reads the element under key from the receiver table.
func (v *Value) TableGet(key *Value) (*Value, error) {
	tbl, err := v.table()
	if err != nil {
		return nil, err
	}
	k, err := v.eng.pushable(key)
	if err != nil {
		return nil, err
	}
	return v.eng.loadValue(tbl.RawGet(k)), nil
}

// TableForEach calls fn for every key-value pair in the receiver table.
// A callback error stops fn from being applied to the remaining pairs and
// is returned; a callback panic is captured into an error the same way.
func (v *Value) TableForEach(fn func(key, value *Value) error) (err error) {
	tbl, terr := v.table()
	if terr != nil {
		return terr
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in ForEach callback: %v", r)
		}
	}()
	tbl.ForEach(func(k, val lua.LValue) {
		if err != nil {
			return
		}
		err = fn(v.eng.loadValue(k), v.eng.loadValue(val))
	})
	return err
}

// TableGetInt reads the element under an integer key.
func (v *Value) TableGetInt(key int64) (*Value, error) {
	tbl, err := v.table()
	if err != nil {
		return nil, err
	}
	return v.eng.loadValue(tbl.RawGet(lua.LNumber(key))), nil
}
