package secs

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	lua "github.com/yuin/gopher-lua"
)

// callbackRegistryKey is the registry table holding script system callbacks.
const callbackRegistryKey = "secs.callbacks"

// Interpreter is the single embedded Lua state.
// It is not safe for concurrent use: whoever holds the *Interpreter value
// owns it, and ownership only moves over the scheduler's hand-off channels.
type Interpreter struct {
	L *lua.LState

	callbacks *lua.LTable

	// pending collects declarations made by the chunk currently being loaded.
	pending []ScriptDecl
}

// NewInterpreter creates the interpreter and installs the script-facing globals.
func NewInterpreter(cfg InterpreterConfig) *Interpreter {
	L := lua.NewState(lua.Options{
		CallStackSize:       cfg.CallStackSize,
		RegistrySize:        cfg.RegistrySize,
		SkipOpenLibs:        cfg.SkipOpenLibs,
		IncludeGoStackTrace: cfg.IncludeGoStackTrace,
	})

	vm := &Interpreter{L: L}

	vm.callbacks = L.NewTable()
	L.SetField(L.Get(lua.RegistryIndex), callbackRegistryKey, vm.callbacks)

	registerBundleType(L)
	registerVectorType(L)
	L.SetGlobal("system", L.NewFunction(vm.declareSystem))
	L.SetGlobal("vec3", L.NewFunction(luaVec3))
	L.SetGlobal("vec3_len", L.NewFunction(luaVec3Len))

	return vm
}

// Close releases the Lua state. Callback handles must be released first.
func (vm *Interpreter) Close() {
	vm.L.Close()
}

// CallbackHandle identifies one script callback stored in the interpreter registry.
type CallbackHandle struct {
	key string
}

// Bind stores fn in the interpreter registry under key.
func (vm *Interpreter) Bind(key string, fn *lua.LFunction) CallbackHandle {
	vm.callbacks.RawSetString(key, fn)
	return CallbackHandle{key: key}
}

// Function resolves a handle. Returns nil once the handle was released.
func (vm *Interpreter) Function(h CallbackHandle) *lua.LFunction {
	fn, _ := vm.callbacks.RawGetString(h.key).(*lua.LFunction)
	return fn
}

// Unbind releases the registry entry behind h.
func (vm *Interpreter) Unbind(h CallbackHandle) {
	vm.callbacks.RawSetString(h.key, lua.LNil)
}

// Bound returns the number of live callback handles.
func (vm *Interpreter) Bound() int {
	n := 0
	vm.callbacks.ForEach(func(lua.LValue, lua.LValue) { n++ })
	return n
}

// load runs a chunk and returns the system declarations it made.
func (vm *Interpreter) load(chunkName, source string) ([]ScriptDecl, error) {
	vm.pending = nil
	defer func() { vm.pending = nil }()

	fn, err := vm.L.Load(strings.NewReader(source), chunkName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDeclaration, chunkName, err)
	}
	vm.L.Push(fn)
	if err := vm.L.PCall(0, lua.MultRet, nil); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDeclaration, chunkName, err)
	}
	vm.L.SetTop(0)

	decls := vm.pending
	for i := range decls {
		if decls[i].Name == "" {
			decls[i].Name = fmt.Sprintf("%s#%d", chunkName, i+1)
		}
	}
	return decls, nil
}

// declareSystem implements the Lua global system{...}.
func (vm *Interpreter) declareSystem(L *lua.LState) int {
	tbl := L.CheckTable(1)
	decl, err := declFromTable(tbl)
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	vm.pending = append(vm.pending, decl)
	return 0
}

func luaVec3(L *lua.LState) int {
	vec := mgl64.Vec3{
		float64(L.OptNumber(1, 0)),
		float64(L.OptNumber(2, 0)),
		float64(L.OptNumber(3, 0)),
	}
	L.Push(vecToTable(L, vec))
	return 1
}

func luaVec3Len(L *lua.LState) int {
	vec, err := tableToVec(L.CheckTable(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	L.Push(lua.LNumber(vec.Len()))
	return 1
}
