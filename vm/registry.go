package vm

import (
	lua "github.com/yuin/gopher-lua"
)

// noRef marks a slot that does not pin anything.
const noRef = 0

// registry pins engine-owned values into a persistent table so they stay
// reachable from host code without living on the transient call stack.
// Slots follow ref/unref discipline: ref allocates (reusing freed slots
// first), unref clears and recycles. Slot 0 is never handed out.
type registry struct {
	tab  *lua.LTable
	next int
	free []int
}

func newRegistry(state *lua.LState) *registry {
	return &registry{
		tab:  state.NewTable(),
		next: 1,
	}
}

// ref pins lv and returns its slot.
func (r *registry) ref(lv lua.LValue) int {
	var slot int
	if n := len(r.free); n > 0 {
		slot = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		slot = r.next
		r.next++
	}
	r.tab.RawSetInt(slot, lv)
	return slot
}

// get fetches the value pinned at slot.
func (r *registry) get(slot int) lua.LValue {
	return r.tab.RawGetInt(slot)
}

// unref releases the pin. The engine object itself stays alive for as long
// as the engine's collector keeps it; unref only drops this hold on it.
func (r *registry) unref(slot int) {
	if slot == noRef {
		return
	}
	r.tab.RawSetInt(slot, lua.LNil)
	r.free = append(r.free, slot)
}

// dup pins a second slot for whatever slot pins, sharing the underlying
// engine object. Copy semantics for reference values: the handle is
// duplicated, never aliased.
func (r *registry) dup(slot int) int {
	return r.ref(r.get(slot))
}
