package vm

import (
	"errors"

	lua "github.com/yuin/gopher-lua"
)

// ReturnMode selects, for the whole engine, the host-side shape of a call
// that produced two or more results. The zero value is the shipped default.
type ReturnMode int

const (
	// ReturnModeTable boxes every result into a fresh table keyed 0..N-1
	// in result order.
	ReturnModeTable ReturnMode = iota
	// ReturnModeSingle treats more than one result as a hard error.
	ReturnModeSingle
	// ReturnModeVector reserves multi-result calls for CallMulti, which
	// returns the ordered result sequence.
	ReturnModeVector
)

func (m ReturnMode) String() string {
	switch m {
	case ReturnModeTable:
		return "table"
	case ReturnModeSingle:
		return "single"
	case ReturnModeVector:
		return "vector"
	default:
		return "unknown"
	}
}

// StdLib selects which standard libraries an engine loads.
type StdLib uint32

const (
	StdLibBase StdLib = 1 << iota
	StdLibPackage
	StdLibTable
	StdLibString
	StdLibMath
	StdLibOS
	StdLibIO
	StdLibDebug
	StdLibCoroutine
	StdLibChannel

	// StdLibAll loads every standard library.
	StdLibAll StdLib = 1 << 31
)

var stdLibLoaders = []struct {
	flag StdLib
	name string
	open lua.LGFunction
}{
	{StdLibPackage, lua.LoadLibName, lua.OpenPackage},
	{StdLibBase, lua.BaseLibName, lua.OpenBase},
	{StdLibTable, lua.TabLibName, lua.OpenTable},
	{StdLibString, lua.StringLibName, lua.OpenString},
	{StdLibMath, lua.MathLibName, lua.OpenMath},
	{StdLibOS, lua.OsLibName, lua.OpenOs},
	{StdLibIO, lua.IoLibName, lua.OpenIo},
	{StdLibDebug, lua.DebugLibName, lua.OpenDebug},
	{StdLibCoroutine, lua.CoroutineLibName, lua.OpenCoroutine},
	{StdLibChannel, lua.ChannelLibName, lua.OpenChannel},
}

// EngineOpts configures engine creation. The zero value loads no libraries
// and uses the table return mode.
type EngineOpts struct {
	StdLib     StdLib
	ReturnMode ReturnMode
}

// An Engine owns exactly one interpreter instance. Destroying it tears the
// instance down and invalidates every Value derived from it. An Engine and
// everything attached to it belong to a single logical thread; nothing here
// locks.
type Engine struct {
	state  *lua.LState
	reg    *registry
	mode   ReturnMode
	closed bool
}

// CreateEngine creates an engine with the entire standard library loaded
// and the default return mode.
func CreateEngine() (*Engine, error) {
	return CreateEngineComplex(EngineOpts{StdLib: StdLibAll})
}

// CreateEngineComplex creates an engine with explicit options.
func CreateEngineComplex(opts EngineOpts) (*Engine, error) {
	state := lua.NewState(lua.Options{SkipOpenLibs: true})
	if state == nil {
		return nil, errors.New("failed to create engine instance")
	}
	e := &Engine{
		state: state,
		reg:   newRegistry(state),
		mode:  opts.ReturnMode,
	}
	if opts.StdLib != 0 {
		e.openStdLib(opts.StdLib)
	}
	return e, nil
}

// OpenLibraries loads the full standard library. Best-effort: a library
// that fails to load is skipped.
func (e *Engine) OpenLibraries() {
	if e.checkOpen() != nil {
		return
	}
	e.openStdLib(StdLibAll)
}

func (e *Engine) openStdLib(libs StdLib) {
	for _, lib := range stdLibLoaders {
		if libs&StdLibAll == 0 && libs&lib.flag == 0 {
			continue
		}
		// Loader errors are swallowed; library loading is best-effort.
		_ = e.state.CallByParam(lua.P{
			Fn:      e.state.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name))
	}
}

// ReturnMode reports the engine-wide multi-result convention.
func (e *Engine) ReturnMode() ReturnMode {
	return e.mode
}

// DoString runs a chunk of script source immediately. A script-reported
// failure comes back as a *ScriptError carrying the engine's message; the
// instance stays usable.
func (e *Engine) DoString(src string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if err := e.state.DoString(src); err != nil {
		return scriptErrorFrom(err)
	}
	return nil
}

// LoadString compiles a chunk without running it. The result is a
// function-tagged Value; calling it runs the chunk.
func (e *Engine) LoadString(src string) (*Value, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	fn, err := e.state.LoadString(src)
	if err != nil {
		return nil, scriptErrorFrom(err)
	}
	return e.loadValue(fn), nil
}

// CreateTable allocates a new empty table and returns it as a table-tagged
// Value attached to this engine.
func (e *Engine) CreateTable() (*Value, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	return e.loadValue(e.state.NewTable()), nil
}

// CreateTableWithCapacity allocates a table sized for narr array elements
// and nrec record elements.
func (e *Engine) CreateTableWithCapacity(narr, nrec int) (*Value, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	return e.loadValue(e.state.CreateTable(narr, nrec)), nil
}

// CreateString returns a string-tagged Value pinned on this engine.
func (e *Engine) CreateString(s string) (*Value, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	return e.loadValue(lua.LString(s)), nil
}

// CreateStringBytes creates a string Value from raw byte data.
func (e *Engine) CreateStringBytes(b []byte) (*Value, error) {
	return e.CreateString(string(b))
}

// CreateFunction wraps a Go function into a script-level function object.
// The result is function-tagged and callable through the call pipeline.
func (e *Engine) CreateFunction(fn lua.LGFunction) (*Value, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, errors.New("function cannot be nil")
	}
	return e.loadValue(e.state.NewFunction(fn)), nil
}

// A Callback is the high-level form of a host function: classified values
// in, values out. A returned error is raised as a script-level error.
type Callback func(e *Engine, args []*Value) ([]*Value, error)

// CreateCallback wraps fn into a script-callable function object. Arguments
// arrive already classified into Values; returned Values are marshaled back
// as the call's results.
func (e *Engine) CreateCallback(fn Callback) (*Value, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, errors.New("callback cannot be nil")
	}
	lfn := func(l *lua.LState) int {
		n := l.GetTop()
		args := make([]*Value, 0, n)
		for i := 1; i <= n; i++ {
			args = append(args, e.loadValue(l.Get(i)))
		}
		rets, err := fn(e, args)
		if err != nil {
			l.RaiseError("%s", err.Error())
			return 0
		}
		for _, r := range rets {
			lv, err := e.pushable(r)
			if err != nil {
				l.RaiseError("%s", err.Error())
				return 0
			}
			l.Push(lv)
		}
		return len(rets)
	}
	return e.loadValue(e.state.NewFunction(lfn)), nil
}

// CreateUserData returns a userdata-tagged Value holding data.
func (e *Engine) CreateUserData(data any) (*Value, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	ud := e.state.NewUserData()
	ud.Value = data
	return e.loadValue(ud), nil
}

// CreateThread returns a thread-tagged Value for a fresh coroutine.
func (e *Engine) CreateThread() (*Value, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	th, _ := e.state.NewThread()
	return e.loadValue(th), nil
}

// Resume runs or continues a coroutine on this engine with fn as its body
// and the given arguments. Reports the yielded or returned values and
// whether the coroutine has finished.
func (e *Engine) Resume(co *Value, fn *Value, args ...*Value) ([]*Value, bool, error) {
	if err := e.checkOpen(); err != nil {
		return nil, false, err
	}
	if co == nil || co.t != TypeThread {
		return nil, false, errors.New("cannot resume a value that is not a thread")
	}
	if co.eng != e {
		return nil, false, ErrEngineMismatch
	}
	if fn == nil || fn.t != TypeFunction {
		return nil, false, ErrNotFunction
	}
	if fn.eng != e {
		return nil, false, ErrEngineMismatch
	}
	th, ok := e.reg.get(co.ref).(*lua.LState)
	if !ok {
		return nil, false, errors.New("thread value no longer pins a thread")
	}
	lfn, ok := e.reg.get(fn.ref).(*lua.LFunction)
	if !ok {
		return nil, false, ErrNotFunction
	}
	lvArgs := make([]lua.LValue, 0, len(args))
	for _, a := range args {
		lv, err := e.pushable(a)
		if err != nil {
			return nil, false, err
		}
		lvArgs = append(lvArgs, lv)
	}
	st, err, rets := e.state.Resume(th, lfn, lvArgs...)
	if st == lua.ResumeError {
		return nil, false, scriptErrorFrom(err)
	}
	out := make([]*Value, 0, len(rets))
	for _, r := range rets {
		out = append(out, e.loadValue(r))
	}
	return out, st == lua.ResumeOK, nil
}

// Global reads a named global binding into a Value.
func (e *Engine) Global(name string) (*Value, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	return e.loadValue(e.state.GetGlobal(name)), nil
}

// SetGlobal writes a Value to a named global binding.
func (e *Engine) SetGlobal(name string, v *Value) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	lv, err := e.pushable(v)
	if err != nil {
		return err
	}
	e.state.SetGlobal(name, lv)
	return nil
}

// Close tears down the interpreter instance. Every Value and Elem derived
// from this engine is invalid afterwards. Closing twice is a no-op.
func (e *Engine) Close() error {
	if e == nil || e.closed {
		return nil
	}
	e.closed = true
	e.state.Close()
	return nil
}

// IsClosed reports whether the engine has been torn down.
func (e *Engine) IsClosed() bool {
	return e == nil || e.closed
}

func (e *Engine) checkOpen() error {
	if e == nil || e.closed {
		return ErrEngineClosed
	}
	return nil
}

func (e *Engine) String() string {
	if e.IsClosed() {
		return "<closed engine>"
	}
	return "engine(" + e.mode.String() + " return mode)"
}
