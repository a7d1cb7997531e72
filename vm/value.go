package vm

import (
	"fmt"
	"math"
	"unsafe"

	lua "github.com/yuin/gopher-lua"
)

// Type discriminates the variants a Value can hold.
type Type int

const (
	TypeNil Type = iota
	TypeBoolean
	TypeNumber
	TypeInteger
	TypeString
	TypeDetachedString
	TypeFunction
	TypeGoFunction
	TypeUserData
	TypeLightUserData
	TypeThread
	TypeTable
)

func (t Type) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeInteger:
		return "integer"
	case TypeString, TypeDetachedString:
		return "string"
	case TypeFunction:
		return "function"
	case TypeGoFunction:
		return "gofunction"
	case TypeUserData:
		return "userdata"
	case TypeLightUserData:
		return "lightuserdata"
	case TypeThread:
		return "thread"
	case TypeTable:
		return "table"
	default:
		return "unknown"
	}
}

// A Value is a tagged variant over every scriptable value kind. Scalar kinds
// carry their payload inline; reference kinds (string, function, userdata,
// thread, table) carry a registry slot pinning an engine-owned object; a
// detached string carries a manually counted buffer.
//
// A Value with no engine back-reference is detached and restricted to the
// scalar kinds and detached strings. Values are used through pointers; use
// Clone, not assignment, to copy one.
type Value struct {
	eng *Engine
	t   Type

	b   bool
	n   float64
	i   int64
	fn  lua.LGFunction
	p   unsafe.Pointer
	ref int
	str *detachedString
}

// NewValue returns a detached nil-tagged Value.
func NewValue() *Value {
	return &Value{}
}

func NewBooleanValue(b bool) *Value {
	return &Value{t: TypeBoolean, b: b}
}

func NewNumberValue(n float64) *Value {
	return &Value{t: TypeNumber, n: n}
}

func NewIntegerValue(i int64) *Value {
	return &Value{t: TypeInteger, i: i}
}

// NewStringValue returns a detached string Value backed by a counted buffer.
func NewStringValue(s string) *Value {
	return &Value{t: TypeDetachedString, str: newDetachedString(s)}
}

// NewGoFunctionValue holds a bare Go function pointer. It is not an engine
// object; marshaling wraps it into one on the way in.
func NewGoFunctionValue(fn lua.LGFunction) *Value {
	return &Value{t: TypeGoFunction, fn: fn}
}

func NewLightUserDataValue(p unsafe.Pointer) *Value {
	return &Value{t: TypeLightUserData, p: p}
}

// NewValue returns a nil-tagged Value attached to this engine.
func (e *Engine) NewValue() *Value {
	return &Value{eng: e}
}

func (e *Engine) NewBooleanValue(b bool) *Value {
	return &Value{eng: e, t: TypeBoolean, b: b}
}

func (e *Engine) NewNumberValue(n float64) *Value {
	return &Value{eng: e, t: TypeNumber, n: n}
}

func (e *Engine) NewIntegerValue(i int64) *Value {
	return &Value{eng: e, t: TypeInteger, i: i}
}

// NewStringValue returns an engine-backed string Value, pinned in the
// registry. Equivalent to CreateString.
func (e *Engine) NewStringValue(s string) (*Value, error) {
	return e.CreateString(s)
}

func (e *Engine) NewGoFunctionValue(fn lua.LGFunction) *Value {
	return &Value{eng: e, t: TypeGoFunction, fn: fn}
}

func (e *Engine) NewLightUserDataValue(p unsafe.Pointer) *Value {
	return &Value{eng: e, t: TypeLightUserData, p: p}
}

// Engine returns the engine this Value is attached to, or nil if detached.
func (v *Value) Engine() *Engine {
	return v.eng
}

// IsAttached reports whether the Value carries an engine back-reference.
func (v *Value) IsAttached() bool {
	return v.eng != nil
}

func (v *Value) Type() Type {
	return v.t
}

// Predicates. Pure tag checks, except where the engine's runtime type
// lattice is looser than the wrapper's tags.

func (v *Value) IsNil() bool {
	return v.t == TypeNil
}

func (v *Value) IsBoolean() bool {
	return v.t == TypeBoolean
}

// IsNumber is true for both the number and integer tags.
func (v *Value) IsNumber() bool {
	return v.t == TypeNumber || v.t == TypeInteger
}

func (v *Value) IsInteger() bool {
	return v.t == TypeInteger
}

// IsString is true for engine-backed and detached strings alike; the storage
// strategy is an attachment detail, not a value kind.
func (v *Value) IsString() bool {
	return v.t == TypeString || v.t == TypeDetachedString
}

// IsFunction is true for script-level and Go functions.
func (v *Value) IsFunction() bool {
	return v.t == TypeFunction || v.t == TypeGoFunction
}

func (v *Value) IsGoFunction() bool {
	return v.t == TypeGoFunction
}

// IsUserData is true for full and light userdata.
func (v *Value) IsUserData() bool {
	return v.t == TypeUserData || v.t == TypeLightUserData
}

func (v *Value) IsLightUserData() bool {
	return v.t == TypeLightUserData
}

func (v *Value) IsThread() bool {
	return v.t == TypeThread
}

func (v *Value) IsTable() bool {
	return v.t == TypeTable
}

// isRefKind reports whether the payload is a registry slot.
func (v *Value) isRefKind() bool {
	switch v.t {
	case TypeString, TypeFunction, TypeUserData, TypeThread, TypeTable:
		return true
	}
	return false
}

// Conversions. Total: a mismatched tag yields the natural zero value.

func (v *Value) ToBoolean() bool {
	if v.t == TypeBoolean {
		return v.b
	}
	return false
}

func (v *Value) ToNumber() float64 {
	switch v.t {
	case TypeNumber:
		return v.n
	case TypeInteger:
		return float64(v.i)
	}
	return 0
}

// ToInteger converts a number by rounding half to even; this is the numeric
// contract replacing the constant-bias reinterpretation trick, which performs
// the same rounding on IEEE doubles.
func (v *Value) ToInteger() int64 {
	switch v.t {
	case TypeInteger:
		return v.i
	case TypeNumber:
		return numberToInteger(v.n)
	}
	return 0
}

func (v *Value) ToString() string {
	switch v.t {
	case TypeString:
		if v.eng == nil || v.eng.closed {
			return ""
		}
		if s, ok := v.eng.reg.get(v.ref).(lua.LString); ok {
			return string(s)
		}
	case TypeDetachedString:
		return v.str.value()
	}
	return ""
}

func (v *Value) ToGoFunction() lua.LGFunction {
	if v.t == TypeGoFunction {
		return v.fn
	}
	return nil
}

// ToUserData returns the data associated with a userdata Value, or the raw
// pointer of a light userdata.
func (v *Value) ToUserData() any {
	switch v.t {
	case TypeUserData:
		if v.eng == nil || v.eng.closed {
			return nil
		}
		if ud, ok := v.eng.reg.get(v.ref).(*lua.LUserData); ok {
			return ud.Value
		}
	case TypeLightUserData:
		return v.p
	}
	return nil
}

// Length returns the length of a table or string Value, 0 for anything else.
func (v *Value) Length() int64 {
	switch v.t {
	case TypeTable:
		if v.eng == nil || v.eng.closed {
			return 0
		}
		if tbl, ok := v.eng.reg.get(v.ref).(*lua.LTable); ok {
			return int64(tbl.Len())
		}
	case TypeString:
		return int64(len(v.ToString()))
	case TypeDetachedString:
		return v.str.length()
	}
	return 0
}

// Mutators. Each releases the prior payload before installing the new one.
// Attachment survives re-assignment.

func (v *Value) SetNil() {
	v.release()
}

func (v *Value) SetBoolean(b bool) {
	v.release()
	v.t = TypeBoolean
	v.b = b
}

func (v *Value) SetNumber(n float64) {
	v.release()
	v.t = TypeNumber
	v.n = n
}

func (v *Value) SetInteger(i int64) {
	v.release()
	v.t = TypeInteger
	v.i = i
}

// SetString stores s as a detached string on an engine-less Value, and as a
// registry-pinned engine string otherwise. Same logical value, different
// storage, chosen by attachment state.
func (v *Value) SetString(s string) error {
	if v.eng == nil {
		v.release()
		v.t = TypeDetachedString
		v.str = newDetachedString(s)
		return nil
	}
	if err := v.eng.checkOpen(); err != nil {
		return err
	}
	v.release()
	v.t = TypeString
	v.ref = v.eng.reg.ref(lua.LString(s))
	return nil
}

func (v *Value) SetGoFunction(fn lua.LGFunction) {
	v.release()
	v.t = TypeGoFunction
	v.fn = fn
}

func (v *Value) SetLightUserData(p unsafe.Pointer) {
	v.release()
	v.t = TypeLightUserData
	v.p = p
}

// Clone copies the Value. Reference kinds get a fresh registry slot pointing
// at the same engine object; detached strings share the buffer and bump its
// count; scalars copy their payload.
func (v *Value) Clone() *Value {
	c := *v
	switch {
	case v.isRefKind():
		if v.eng == nil || v.eng.closed {
			return &Value{eng: v.eng}
		}
		c.ref = v.eng.reg.dup(v.ref)
	case v.t == TypeDetachedString:
		c.str = v.str.retain()
	}
	return &c
}

// Close releases the payload: reference kinds are unpinned from the
// registry, detached strings drop one count. The Value becomes nil-tagged
// and stays usable.
func (v *Value) Close() error {
	if v == nil {
		return nil
	}
	v.release()
	return nil
}

func (v *Value) release() {
	switch {
	case v.isRefKind():
		if v.eng != nil && !v.eng.closed {
			v.eng.reg.unref(v.ref)
		}
	case v.t == TypeDetachedString:
		if v.str != nil {
			v.str.release()
		}
	}
	v.t = TypeNil
	v.b = false
	v.n = 0
	v.i = 0
	v.fn = nil
	v.p = nil
	v.ref = noRef
	v.str = nil
}

// Equals compares tag and payload. Reference kinds compare by underlying
// engine object, so two independently pinned handles to one table are equal.
// Strings compare by content regardless of storage.
func (v *Value) Equals(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.IsString() && other.IsString() {
		return v.ToString() == other.ToString()
	}
	if v.t != other.t {
		return false
	}
	switch v.t {
	case TypeNil:
		return true
	case TypeBoolean:
		return v.b == other.b
	case TypeNumber:
		return v.n == other.n
	case TypeInteger:
		return v.i == other.i
	case TypeGoFunction:
		return false
	case TypeLightUserData:
		return v.p == other.p
	default:
		if v.eng != other.eng || v.eng == nil || v.eng.closed {
			return false
		}
		return v.eng.reg.get(v.ref) == other.eng.reg.get(other.ref)
	}
}

func (v *Value) String() string {
	switch v.t {
	case TypeNil:
		return "Value(nil)"
	case TypeBoolean:
		return fmt.Sprintf("Value(boolean: %t)", v.b)
	case TypeNumber:
		return fmt.Sprintf("Value(number: %g)", v.n)
	case TypeInteger:
		return fmt.Sprintf("Value(integer: %d)", v.i)
	case TypeString, TypeDetachedString:
		return fmt.Sprintf("Value(string: %q)", v.ToString())
	case TypeGoFunction:
		return "Value(gofunction)"
	case TypeLightUserData:
		return fmt.Sprintf("Value(lightuserdata: %p)", v.p)
	default:
		return fmt.Sprintf("Value(%s: ref %d)", v.t, v.ref)
	}
}

// numberToInteger rounds half to even. Out-of-range and NaN inputs yield 0.
func numberToInteger(n float64) int64 {
	r := math.RoundToEven(n)
	if math.IsNaN(r) || r < math.MinInt64 || r >= math.MaxInt64 {
		return 0
	}
	return int64(r)
}
