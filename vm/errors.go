package vm

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Contract violations. These are raised synchronously at the call site and
// never leave the Value/Elem in a worse state than before the call.
var (
	// ErrNotTable is returned when a table operation is attempted on a
	// Value that is not tagged as a table.
	ErrNotTable = errors.New("cannot index a value that is not a table")

	// ErrNotFunction is returned when calling a Value that is not a
	// script-level function. Go-function-tagged values are rejected too:
	// they hold a bare function pointer, not an engine object.
	ErrNotFunction = errors.New("cannot call a value that is not a function")

	// ErrEngineMismatch is returned when values from two different engine
	// instances meet in one operation.
	ErrEngineMismatch = errors.New("cannot mix values from different engine instances")

	// ErrDetached is returned when an operation needs an attached engine
	// but the Value has none.
	ErrDetached = errors.New("cannot operate on a reference value that is not attached to an engine")

	// ErrUnboundElem is returned for any operation on a zero Elem.
	ErrUnboundElem = errors.New("cannot use an unbound table element")

	// ErrEngineClosed is returned when the owning engine has been closed.
	ErrEngineClosed = errors.New("cannot operate on a closed engine")

	// ErrVectorReturn is returned by Call when the engine runs under
	// ReturnModeVector and the callee produced two or more results.
	ErrVectorReturn = errors.New("multiple results under the vector convention: use CallMulti")

	// ErrTooManyResults is returned by Call under ReturnModeSingle when
	// the callee produced two or more results.
	ErrTooManyResults = errors.New("a function may not return more than one value")
)

// A ScriptError carries the engine's own error text for a failed chunk or
// protected call. The engine instance remains usable after one.
type ScriptError struct {
	Message string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script error: %s", e.Message)
}

// scriptErrorFrom lifts an engine-reported failure into a ScriptError,
// keeping the script-level message rather than the wrapped stack trace.
func scriptErrorFrom(err error) *ScriptError {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		return &ScriptError{Message: apiErr.Object.String()}
	}
	return &ScriptError{Message: err.Error()}
}
