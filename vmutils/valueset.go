package vmutils

import (
	"errors"
	"strconv"

	"github.com/lualocal/lualocal/vm"
)

// A ValueSet is a collection of vm.Value objects
// that can be ergonomically accessed and closed at the same time.
type ValueSet struct {
	values []*vm.Value
}

func NewValueSet(values []*vm.Value) *ValueSet {
	return &ValueSet{values: values}
}

// Returns the values in the ValueSet.
func (vs *ValueSet) Values() []*vm.Value {
	return vs.values
}

// Returns the value at the given index.
// Returns a (lua-like) error if the index is out of bounds.
func (vs *ValueSet) ValueAt(index int) (*vm.Value, error) {
	if index < 0 || index >= len(vs.values) {
		return nil, errors.New("expected at least " + strconv.Itoa(index+1) + " values but got " + strconv.Itoa(len(vs.values)) + " values")
	}
	return vs.values[index], nil
}

// Internal helper function to create a error message for type mismatches
func TypeMismatchError(index int, expectedType string, actualType string) error {
	return errors.New("expected arg #" + strconv.Itoa(index) + " to be a " + expectedType + ", but got " + actualType)
}

// Checks that the value at the given index is nil
//
// Returns a (lua-like) error if the index is out of bounds or if the value at that index
// is not nil.
func (vs *ValueSet) NilAt(index int) error {
	value, err := vs.ValueAt(index)
	if err != nil {
		return err
	}
	if !value.IsNil() {
		return TypeMismatchError(index, "nil", value.Type().String())
	}
	return nil
}

// Casts the value at the given index to a boolean
//
// Returns a (lua-like) error if the index is out of bounds or if the value at that index
// is not a boolean.
func (vs *ValueSet) BoolAt(index int) (bool, error) {
	value, err := vs.ValueAt(index)
	if err != nil {
		return false, err
	}
	if !value.IsBoolean() {
		return false, TypeMismatchError(index, "boolean", value.Type().String())
	}
	return value.ToBoolean(), nil
}

// Casts the value at the given index to an integer
//
// Returns a (lua-like) error if the index is out of bounds or if the value at that index
// is not an integer/number.
func (vs *ValueSet) IntegerAt(index int) (int64, error) {
	value, err := vs.ValueAt(index)
	if err != nil {
		return 0, err
	}
	if !value.IsNumber() {
		return 0, TypeMismatchError(index, "integer", value.Type().String())
	}
	return value.ToInteger(), nil
}

// Casts the value at the given index to a number
//
// Returns a (lua-like) error if the index is out of bounds or if the value at that index
// is not an integer/number.
func (vs *ValueSet) NumberAt(index int) (float64, error) {
	value, err := vs.ValueAt(index)
	if err != nil {
		return 0, err
	}
	if !value.IsNumber() {
		return 0, TypeMismatchError(index, "number", value.Type().String())
	}
	return value.ToNumber(), nil
}

// Casts the value at the given index to a string
//
// Returns a (lua-like) error if the index is out of bounds or if the value at that index
// is not a string.
func (vs *ValueSet) StringAt(index int) (string, error) {
	value, err := vs.ValueAt(index)
	if err != nil {
		return "", err
	}
	if !value.IsString() {
		return "", TypeMismatchError(index, "string", value.Type().String())
	}
	return value.ToString(), nil
}

// Casts the value at the given index to a table
//
// Returns a (lua-like) error if the index is out of bounds or if the value at that index
// is not a table.
func (vs *ValueSet) TableAt(index int) (*vm.Value, error) {
	value, err := vs.ValueAt(index)
	if err != nil {
		return nil, err
	}
	if !value.IsTable() {
		return nil, TypeMismatchError(index, "table", value.Type().String())
	}
	return value, nil
}

// Casts the value at the given index to a function
//
// Returns a (lua-like) error if the index is out of bounds or if the value at that index
// is not a function.
func (vs *ValueSet) FunctionAt(index int) (*vm.Value, error) {
	value, err := vs.ValueAt(index)
	if err != nil {
		return nil, err
	}
	if !value.IsFunction() {
		return nil, TypeMismatchError(index, "function", value.Type().String())
	}
	return value, nil
}

// Casts the value at the given index to a userdata
//
// Returns a (lua-like) error if the index is out of bounds or if the value at that index
// is not a userdata.
func (vs *ValueSet) UserDataAt(index int) (*vm.Value, error) {
	value, err := vs.ValueAt(index)
	if err != nil {
		return nil, err
	}
	if !value.IsUserData() {
		return nil, TypeMismatchError(index, "userdata", value.Type().String())
	}
	return value, nil
}

// Pushes a nil value to the ValueSet
func (vs *ValueSet) PushNil() {
	vs.values = append(vs.values, vm.NewValue())
}

// Pushes a boolean value to the ValueSet
func (vs *ValueSet) PushBool(value bool) {
	vs.values = append(vs.values, vm.NewBooleanValue(value))
}

// Pushes an integer value to the ValueSet
func (vs *ValueSet) PushInteger(value int64) {
	vs.values = append(vs.values, vm.NewIntegerValue(value))
}

// Pushes a number value to the ValueSet
func (vs *ValueSet) PushNumber(value float64) {
	vs.values = append(vs.values, vm.NewNumberValue(value))
}

// Pushes a string value to the ValueSet
//
// The string is held detached and marshaled into an engine string when
// it is sent to the engine.
func (vs *ValueSet) PushString(value string) {
	vs.values = append(vs.values, vm.NewStringValue(value))
}

// Pushes an existing value to the ValueSet
func (vs *ValueSet) PushValue(value *vm.Value) {
	vs.values = append(vs.values, value)
}

// Closes all vm.Value objects in the ValueSet.
func (vs *ValueSet) Close() {
	for _, v := range vs.values {
		if v != nil {
			v.Close()
		}
	}
}
