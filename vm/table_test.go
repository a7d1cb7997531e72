package vm

import (
	"errors"
	"testing"
)

func TestTableRoundTrip(t *testing.T) {
	e := mustEngine(t, EngineOpts{})
	tbl, err := e.CreateTable()
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	if err := tbl.TableSetInt(1, NewIntegerValue(10)); err != nil {
		t.Fatalf("TableSetInt: %v", err)
	}
	v, err := tbl.TableGetInt(1)
	if err != nil {
		t.Fatalf("TableGetInt: %v", err)
	}
	if v.ToInteger() != 10 {
		t.Fatalf("t[1] = %s, want integer 10", v)
	}

	key := NewStringValue("name")
	if err := tbl.TableSet(key, NewStringValue("lural")); err != nil {
		t.Fatalf("TableSet: %v", err)
	}
	v, err = tbl.TableGet(key)
	if err != nil {
		t.Fatalf("TableGet: %v", err)
	}
	if got := v.ToString(); got != "lural" {
		t.Fatalf("t.name = %q, want %q", got, "lural")
	}

	// Tables can key other tables; lookup goes by object identity.
	tblKey, err := e.CreateTable()
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := tbl.TableSet(tblKey, NewIntegerValue(99)); err != nil {
		t.Fatalf("TableSet with table key: %v", err)
	}
	keyClone := tblKey.Clone()
	v, err = tbl.TableGet(keyClone)
	if err != nil {
		t.Fatalf("TableGet with table key: %v", err)
	}
	if v.ToInteger() != 99 {
		t.Fatalf("t[tk] = %s, want integer 99", v)
	}
	keyClone.Close()

	// Zero-keyed elements are reachable through the integer path too.
	if err := tbl.TableSetInt(0, NewBooleanValue(true)); err != nil {
		t.Fatalf("TableSetInt(0): %v", err)
	}
	v, err = tbl.TableGetInt(0)
	if err != nil {
		t.Fatalf("TableGetInt(0): %v", err)
	}
	if !v.ToBoolean() {
		t.Fatalf("t[0] = %s, want boolean true", v)
	}
}

func TestTableMissingKey(t *testing.T) {
	e := mustEngine(t, EngineOpts{})
	tbl, err := e.CreateTable()
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	v, err := tbl.TableGetInt(99)
	if err != nil {
		t.Fatalf("TableGetInt: %v", err)
	}
	if !v.IsNil() {
		t.Fatalf("missing element = %s, want nil", v)
	}
}

func TestTableNestedValues(t *testing.T) {
	e := mustEngine(t, EngineOpts{})
	outer, err := e.CreateTable()
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	inner, err := e.CreateTable()
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := inner.TableSetInt(1, NewIntegerValue(1)); err != nil {
		t.Fatalf("TableSetInt: %v", err)
	}
	if err := outer.TableSetInt(1, inner); err != nil {
		t.Fatalf("TableSetInt: %v", err)
	}

	got, err := outer.TableGetInt(1)
	if err != nil {
		t.Fatalf("TableGetInt: %v", err)
	}
	if !got.IsTable() {
		t.Fatalf("nested element = %s, want table", got)
	}
	if !got.Equals(inner) {
		t.Fatalf("nested element does not pin the same table")
	}
}

func TestTableOpsOnNonTable(t *testing.T) {
	v := NewIntegerValue(1)
	if err := v.TableSetInt(1, NewValue()); !errors.Is(err, ErrNotTable) {
		t.Fatalf("TableSetInt on an integer: %v, want ErrNotTable", err)
	}
	if _, err := v.TableGetInt(1); !errors.Is(err, ErrNotTable) {
		t.Fatalf("TableGetInt on an integer: %v, want ErrNotTable", err)
	}
}

func TestTableRejectsForeignValues(t *testing.T) {
	e1 := mustEngine(t, EngineOpts{})
	e2 := mustEngine(t, EngineOpts{})

	tbl, err := e1.CreateTable()
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	foreign, err := e2.CreateString("other")
	if err != nil {
		t.Fatalf("CreateString: %v", err)
	}

	if err := tbl.TableSetInt(1, foreign); !errors.Is(err, ErrEngineMismatch) {
		t.Fatalf("foreign value: %v, want ErrEngineMismatch", err)
	}
	if err := tbl.TableSet(foreign, NewIntegerValue(1)); !errors.Is(err, ErrEngineMismatch) {
		t.Fatalf("foreign key: %v, want ErrEngineMismatch", err)
	}

	// The failed writes must not have touched the table.
	v, err := tbl.TableGetInt(1)
	if err != nil {
		t.Fatalf("TableGetInt: %v", err)
	}
	if !v.IsNil() {
		t.Fatalf("rejected write mutated the table: %s", v)
	}
}

func TestTableForEach(t *testing.T) {
	e := mustEngine(t, EngineOpts{})
	tbl, err := e.CreateTable()
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	for i := int64(1); i <= 3; i++ {
		if err := tbl.TableSetInt(i, NewIntegerValue(i*10)); err != nil {
			t.Fatalf("TableSetInt(%d): %v", i, err)
		}
	}

	var sum int64
	err = tbl.TableForEach(func(key, value *Value) error {
		sum += value.ToInteger()
		return nil
	})
	if err != nil {
		t.Fatalf("TableForEach: %v", err)
	}
	if sum != 60 {
		t.Fatalf("sum = %d, want 60", sum)
	}

	// A panicking callback surfaces as an error, not a crash.
	err = tbl.TableForEach(func(key, value *Value) error {
		panic("test panic")
	})
	if err == nil || err.Error() != "panic in ForEach callback: test panic" {
		t.Fatalf("panic in callback: %v", err)
	}
}

func TestMetatable(t *testing.T) {
	e := mustEngine(t, EngineOpts{})
	tbl, err := e.CreateTable()
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	mt, err := tbl.Metatable()
	if err != nil {
		t.Fatalf("Metatable: %v", err)
	}
	if !mt.IsNil() {
		t.Fatalf("fresh table metatable = %s, want nil", mt)
	}

	meta, err := e.CreateTable()
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := tbl.SetMetatable(meta); err != nil {
		t.Fatalf("SetMetatable: %v", err)
	}
	mt, err = tbl.Metatable()
	if err != nil {
		t.Fatalf("Metatable: %v", err)
	}
	if !mt.Equals(meta) {
		t.Fatalf("metatable does not match the installed table")
	}

	if err := tbl.SetMetatable(nil); err != nil {
		t.Fatalf("SetMetatable(nil): %v", err)
	}
	mt, err = tbl.Metatable()
	if err != nil {
		t.Fatalf("Metatable: %v", err)
	}
	if !mt.IsNil() {
		t.Fatalf("cleared metatable = %s, want nil", mt)
	}

	if err := NewIntegerValue(1).SetMetatable(meta); !errors.Is(err, ErrNotTable) {
		t.Fatalf("SetMetatable on an integer: %v, want ErrNotTable", err)
	}
}

func TestTableLength(t *testing.T) {
	e := mustEngine(t, EngineOpts{})
	tbl, err := e.CreateTableWithCapacity(3, 0)
	if err != nil {
		t.Fatalf("CreateTableWithCapacity: %v", err)
	}
	for i := int64(1); i <= 3; i++ {
		if err := tbl.TableSetInt(i, NewIntegerValue(i)); err != nil {
			t.Fatalf("TableSetInt(%d): %v", i, err)
		}
	}
	if got := tbl.Length(); got != 3 {
		t.Fatalf("Length = %d, want 3", got)
	}
}
