package vmutils

import (
	"errors"
	"fmt"

	"github.com/lualocal/lualocal/vm"
)

// Ergonomic userdata handling
type TypedUserData[T any] struct {
	data         *T                                                                // the actual data
	fields       map[string]*vm.Value                                              // fields of the user data
	fieldGetters map[string]func(*T) (*vm.Value, error)                            // field getters
	fieldSetters map[string]func(*T, *vm.Engine, *vm.Value) error                  // field setters
	methods      map[string]func(*T, *vm.Engine, []*vm.Value) ([]*vm.Value, error) // methods of the user data
	typename     string                                                            // type name of the user data
	metamethods  map[string]func(*T, *vm.Engine, []*vm.Value) ([]*vm.Value, error) // metamethods
}

// Creates a new TypedUserData which can be used to ergonomically build user data
func NewTypedUserData[T any](data *T) *TypedUserData[T] {
	return &TypedUserData[T]{
		data:         data,
		fields:       make(map[string]*vm.Value),
		fieldGetters: make(map[string]func(*T) (*vm.Value, error)),
		fieldSetters: make(map[string]func(*T, *vm.Engine, *vm.Value) error),
		methods:      make(map[string]func(*T, *vm.Engine, []*vm.Value) ([]*vm.Value, error)),
		typename:     "",
		metamethods:  make(map[string]func(*T, *vm.Engine, []*vm.Value) ([]*vm.Value, error)),
	}
}

// Parse the first value as a TypedUserData of type T returning the data and the remaining values
func ParseSelf[T any](typeName string, values []*vm.Value) (*T, []*vm.Value, error) {
	if len(values) == 0 {
		return nil, nil, errors.New("expected argument #1 to be a userdata, but got nil")
	}

	self := values[0]
	if self.Type() != vm.TypeUserData {
		return nil, nil, TypeMismatchError(0, "userdata", self.Type().String())
	}

	data, ok := self.ToUserData().(*T)
	if !ok {
		return nil, nil, TypeMismatchError(0, "userdata of type "+typeName, "userdata")
	}

	return data, values[1:], nil
}

// Adds a field to the TypedUserData
func (tud *TypedUserData[T]) AddField(name string, value *vm.Value) {
	tud.fields[name] = value
}

// Adds a field getter to the TypedUserData
func (tud *TypedUserData[T]) AddFieldGetter(name string, getter func(*T) (*vm.Value, error)) {
	tud.fieldGetters[name] = getter
}

// Adds a field setter to the TypedUserData
func (tud *TypedUserData[T]) AddFieldSetter(name string, setter func(*T, *vm.Engine, *vm.Value) error) {
	tud.fieldSetters[name] = setter
}

// Adds a method to the TypedUserData
func (tud *TypedUserData[T]) AddMethod(name string, method func(*T, *vm.Engine, []*vm.Value) ([]*vm.Value, error)) {
	tud.methods[name] = method
}

// Sets the type name exposed through the __type metafield
func (tud *TypedUserData[T]) SetTypeName(typename string) {
	tud.typename = typename
}

// Adds a metamethod to the TypedUserData
func (tud *TypedUserData[T]) AddMetamethod(name string, method func(*T, *vm.Engine, []*vm.Value) ([]*vm.Value, error)) {
	tud.metamethods[name] = method
}

// Returns `true` if the __index metamethod can be a plain table
//
// A fastpath is only allowed if there are no field getters and no custom
// __index metamethod.
func (tud *TypedUserData[T]) indexFastPath() bool {
	if len(tud.fieldGetters) != 0 {
		return false
	}
	if _, ok := tud.metamethods["__index"]; ok {
		return false
	}
	return true
}

// selfMethod wraps a (*T, engine, args) method into an engine callback that
// re-parses its receiver on every call.
func (tud *TypedUserData[T]) selfMethod(method func(*T, *vm.Engine, []*vm.Value) ([]*vm.Value, error)) vm.Callback {
	return func(e *vm.Engine, args []*vm.Value) ([]*vm.Value, error) {
		self, rest, err := ParseSelf[T](tud.typename, args)
		if err != nil {
			return nil, err
		}
		return method(self, e, rest)
	}
}

// newIndexCallback builds the __newindex handler routing writes through the
// registered field setters.
func (tud *TypedUserData[T]) newIndexCallback() vm.Callback {
	return func(e *vm.Engine, args []*vm.Value) ([]*vm.Value, error) {
		self, rest, err := ParseSelf[T](tud.typename, args)
		if err != nil {
			return nil, err
		}
		if len(rest) != 2 {
			return nil, errors.New("expected 2 arguments for __newindex, got " + fmt.Sprint(len(rest)))
		}

		if !rest[0].IsString() {
			return nil, TypeMismatchError(0, "string", rest[0].Type().String())
		}
		fieldName := rest[0].ToString()

		setter, ok := tud.fieldSetters[fieldName]
		if !ok {
			return nil, errors.New("no setter defined for field " + fieldName)
		}
		if err := setter(self, e, rest[1]); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

// Creates a new UserData
func (tud *TypedUserData[T]) Create(e *vm.Engine) (*vm.Value, error) {
	if tud.indexFastPath() {
		return tud.createFast(e)
	}
	return tud.createSlow(e)
}

func (tud *TypedUserData[T]) createFast(e *vm.Engine) (*vm.Value, error) {
	udMt, err := e.CreateTable()
	if err != nil {
		return nil, err
	}
	if err := udMt.TableSet(vm.NewStringValue("__type"), vm.NewStringValue(tud.typename)); err != nil {
		return nil, err
	}

	for key, method := range tud.metamethods {
		method := method
		funct, err := e.CreateCallback(tud.selfMethod(method))
		if err != nil {
			return nil, err
		}
		if err := udMt.TableSet(vm.NewStringValue(key), funct); err != nil {
			return nil, err
		}
	}

	// fastpath has no field getters, so __index can be a plain table
	indexMt, err := e.CreateTable()
	if err != nil {
		return nil, err
	}
	for key, value := range tud.fields {
		if err := indexMt.TableSet(vm.NewStringValue(key), value); err != nil {
			return nil, err
		}
	}
	for key, method := range tud.methods {
		method := method
		funct, err := e.CreateCallback(tud.selfMethod(method))
		if err != nil {
			return nil, err
		}
		if err := indexMt.TableSet(vm.NewStringValue(key), funct); err != nil {
			return nil, err
		}
	}
	if err := udMt.TableSet(vm.NewStringValue("__index"), indexMt); err != nil {
		return nil, err
	}

	// Field setters are handled via __newindex
	if len(tud.fieldSetters) != 0 {
		newIndexFunc, err := e.CreateCallback(tud.newIndexCallback())
		if err != nil {
			return nil, err
		}
		if err := udMt.TableSet(vm.NewStringValue("__newindex"), newIndexFunc); err != nil {
			return nil, err
		}
	}

	ud, err := e.CreateUserData(tud.data)
	if err != nil {
		return nil, err
	}
	if err := ud.SetMetatable(udMt); err != nil {
		return nil, err
	}
	return ud, nil
}

func (tud *TypedUserData[T]) createSlow(e *vm.Engine) (*vm.Value, error) {
	udMt, err := e.CreateTable()
	if err != nil {
		return nil, err
	}
	if err := udMt.TableSet(vm.NewStringValue("__type"), vm.NewStringValue(tud.typename)); err != nil {
		return nil, err
	}

	for key, method := range tud.metamethods {
		if key == "__index" {
			continue
		}
		method := method
		funct, err := e.CreateCallback(tud.selfMethod(method))
		if err != nil {
			return nil, err
		}
		if err := udMt.TableSet(vm.NewStringValue(key), funct); err != nil {
			return nil, err
		}
	}

	// Create the field getter functions once
	fieldGetterFuncs := make(map[string]*vm.Value)
	for key, getter := range tud.fieldGetters {
		getter := getter
		funct, err := e.CreateCallback(func(cbEngine *vm.Engine, args []*vm.Value) ([]*vm.Value, error) {
			self, _, err := ParseSelf[T](tud.typename, args)
			if err != nil {
				return nil, err
			}
			value, err := getter(self)
			if err != nil {
				return nil, err
			}
			return []*vm.Value{value}, nil
		})
		if err != nil {
			return nil, err
		}
		fieldGetterFuncs[key] = funct
	}

	methodFuncs := make(map[string]*vm.Value)
	for key, method := range tud.methods {
		method := method
		funct, err := e.CreateCallback(tud.selfMethod(method))
		if err != nil {
			return nil, err
		}
		methodFuncs[key] = funct
	}

	indexCallback := func(cbEngine *vm.Engine, args []*vm.Value) ([]*vm.Value, error) {
		_, rest, err := ParseSelf[T](tud.typename, args)
		if err != nil {
			return nil, err
		}
		if len(rest) < 1 {
			return nil, errors.New("expected at least 1 argument for __index, got " + fmt.Sprint(len(rest)))
		}
		if !rest[0].IsString() {
			return nil, TypeMismatchError(0, "string", rest[0].Type().String())
		}
		fieldName := rest[0].ToString()

		// Field getters take priority over methods
		if fieldGetter, ok := fieldGetterFuncs[fieldName]; ok {
			return fieldGetter.CallMulti(args[0])
		}
		if method, ok := methodFuncs[fieldName]; ok {
			return []*vm.Value{method}, nil
		}
		if field, ok := tud.fields[fieldName]; ok {
			return []*vm.Value{field}, nil
		}
		return nil, errors.New("no field or method found for " + fieldName)
	}

	indexFunc, err := e.CreateCallback(indexCallback)
	if err != nil {
		return nil, err
	}
	if err := udMt.TableSet(vm.NewStringValue("__index"), indexFunc); err != nil {
		return nil, err
	}

	// Field setters are handled via __newindex
	if len(tud.fieldSetters) != 0 {
		newIndexFunc, err := e.CreateCallback(tud.newIndexCallback())
		if err != nil {
			return nil, err
		}
		if err := udMt.TableSet(vm.NewStringValue("__newindex"), newIndexFunc); err != nil {
			return nil, err
		}
	}

	ud, err := e.CreateUserData(tud.data)
	if err != nil {
		return nil, err
	}
	if err := ud.SetMetatable(udMt); err != nil {
		return nil, err
	}
	return ud, nil
}
