package vm

import (
	lua "github.com/yuin/gopher-lua"
)

// An Elem is a short-lived handle for "element key of table t". Reading it
// with Value and writing it with Assign emulate reference-to-element
// semantics the Value type cannot hold directly.
//
// The Elem pins its own registry copy of the key, so its lifetime is
// independent of whatever Value produced the key. It does not own the
// table. The zero Elem is unbound; every operation on it fails.
type Elem struct {
	eng    *Engine
	tblRef int // borrowed from the table Value
	keyRef int // owned pin
}

// Elem returns an element handle for key within the receiver table.
func (v *Value) Elem(key *Value) (*Elem, error) {
	if _, err := v.table(); err != nil {
		return nil, err
	}
	k, err := v.eng.pushable(key)
	if err != nil {
		return nil, err
	}
	return &Elem{eng: v.eng, tblRef: v.ref, keyRef: v.eng.reg.ref(k)}, nil
}

// ElemInt returns an element handle for an integer key.
func (v *Value) ElemInt(key int64) (*Elem, error) {
	if _, err := v.table(); err != nil {
		return nil, err
	}
	return &Elem{eng: v.eng, tblRef: v.ref, keyRef: v.eng.reg.ref(lua.LNumber(key))}, nil
}

func (el *Elem) check() (*lua.LTable, error) {
	if el == nil || el.eng == nil {
		return nil, ErrUnboundElem
	}
	if err := el.eng.checkOpen(); err != nil {
		return nil, err
	}
	tbl, ok := el.eng.reg.get(el.tblRef).(*lua.LTable)
	if !ok {
		// The table Value was released out from under the handle.
		return nil, ErrUnboundElem
	}
	return tbl, nil
}

// Value reads the current element.
func (el *Elem) Value() (*Value, error) {
	tbl, err := el.check()
	if err != nil {
		return nil, err
	}
	return el.eng.loadValue(tbl.RawGet(el.eng.reg.get(el.keyRef))), nil
}

// Assign stores v into the element. Observably equivalent to TableSet with
// the Elem's key on the Elem's table.
func (el *Elem) Assign(v *Value) error {
	tbl, err := el.check()
	if err != nil {
		return err
	}
	lv, err := el.eng.pushable(v)
	if err != nil {
		return err
	}
	tbl.RawSet(el.eng.reg.get(el.keyRef), lv)
	return nil
}

// Clone copies the handle, re-pinning the key rather than aliasing the pin.
func (el *Elem) Clone() *Elem {
	if el == nil || el.eng == nil || el.eng.closed {
		return &Elem{}
	}
	return &Elem{
		eng:    el.eng,
		tblRef: el.tblRef,
		keyRef: el.eng.reg.dup(el.keyRef),
	}
}

// Close unpins the key and unbinds the handle.
func (el *Elem) Close() error {
	if el == nil || el.eng == nil {
		return nil
	}
	if !el.eng.closed {
		el.eng.reg.unref(el.keyRef)
	}
	el.eng = nil
	el.tblRef = noRef
	el.keyRef = noRef
	return nil
}
