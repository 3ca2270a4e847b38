package secs

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
)

// Unit is one schedulable piece of behavior run once per tick.
type Unit interface {
	// Name returns the unit name for logs and diagnostics.
	Name() string

	// Stage returns the stage the unit runs in.
	Stage() Stage

	// Access returns the unit's accessor.
	Access() *Dependencies

	// execute runs one fetch+execute cycle on behalf of the scheduler.
	execute(s *Scheduler, w *World)
}

// UnitState is the position of a script unit in its per-tick cycle.
type UnitState int32

const (
	// Idle means the unit holds no interpreter.
	Idle UnitState = iota
	// Awaiting means the unit is blocked receiving the interpreter.
	Awaiting
	// Running means the unit holds the interpreter and is invoking its callback.
	Running
	// Returning means the unit is sending the interpreter back.
	Returning
)

// String returns the string representation of the state.
func (s UnitState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Awaiting:
		return "Awaiting"
	case Running:
		return "Running"
	case Returning:
		return "Returning"
	default:
		return "Unknown"
	}
}

var errCallbackReleased = errors.New("callback handle released")

// ScriptUnit couples an accessor, a callback living in the interpreter, and
// the two endpoints of the hand-off channel the interpreter travels over.
type ScriptUnit struct {
	id    uuid.UUID
	name  string
	stage Stage

	// Lists of resources required for the unit to run.
	deps       *Dependencies
	readNames  []string
	writeNames []string

	// Identifier of the Lua function executed on each run.
	callback CallbackHandle

	// receiver delivers the interpreter on run; sender returns it.
	receiver <-chan *Interpreter
	sender   chan<- *Interpreter

	state    atomic.Int32
	failures atomic.Uint64
	logger   *slog.Logger
}

// ID returns the unique identity of this unit instance.
func (u *ScriptUnit) ID() uuid.UUID { return u.id }

// Name returns the declared system name.
func (u *ScriptUnit) Name() string { return u.name }

// Stage returns the stage the unit runs in.
func (u *ScriptUnit) Stage() Stage { return u.stage }

// Access returns the unit's accessor.
func (u *ScriptUnit) Access() *Dependencies { return u.deps }

// State returns the current cycle state.
func (u *ScriptUnit) State() UnitState { return UnitState(u.state.Load()) }

// IsIdle reports whether the unit holds no interpreter.
func (u *ScriptUnit) IsIdle() bool { return u.State() == Idle }

// Failures returns how many invocations ended with a script error.
func (u *ScriptUnit) Failures() uint64 { return u.failures.Load() }

// Callback returns the handle of the unit's callback.
func (u *ScriptUnit) Callback() CallbackHandle { return u.callback }

// Run performs one invocation: wait for the interpreter, fetch and narrow
// the declared resources, call the script, then hand the interpreter back.
// The interpreter is sent back on every exit path, including script errors.
func (u *ScriptUnit) Run(w *World) {
	u.state.Store(int32(Awaiting))
	vm := <-u.receiver
	u.state.Store(int32(Running))

	defer func() {
		u.state.Store(int32(Returning))
		u.sender <- vm
		u.state.Store(int32(Idle))
	}()

	data := Fetch(u.deps, w)
	defer data.Release()

	bundle := u.narrow(data)
	defer bundle.close()

	if err := u.invoke(vm, bundle); err != nil {
		u.failures.Add(1)
		u.logger.Warn("secs: script system error",
			"unit", u.name,
			"id", u.id,
			"error", err)
	}
}

// narrow converts every borrow into a capability view, preserving declared order.
func (u *ScriptUnit) narrow(data *ScriptSystemData) *scriptResourceData {
	bundle := &scriptResourceData{
		unit:       u.name,
		readNames:  u.readNames,
		writeNames: u.writeNames,
		reads:      make([]Capability, 0, len(data.Reads)),
		writes:     make([]MutableCapability, 0, len(data.Writes)),
	}

	for _, ref := range data.Reads {
		view, ok := data.Capabilities.Get(ref.ID(), ref.Value())
		if !ok {
			panic(&NotNarrowableError{ID: ref.ID()})
		}
		bundle.reads = append(bundle.reads, view)
	}

	for _, ref := range data.Writes {
		view, ok := data.Capabilities.GetMut(ref.ID(), ref.Value())
		if !ok {
			panic(&NotNarrowableError{ID: ref.ID()})
		}
		bundle.writes = append(bundle.writes, view)
	}

	return bundle
}

// invoke calls the bound callback with the bundle as its sole argument.
func (u *ScriptUnit) invoke(vm *Interpreter, bundle *scriptResourceData) error {
	fn := vm.Function(u.callback)
	if fn == nil {
		return errCallbackReleased
	}

	L := vm.L
	defer L.SetTop(0)

	return L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, newBundle(L, bundle))
}

// execute hands the interpreter to the unit on a dedicated goroutine and
// blocks until it comes back.
func (u *ScriptUnit) execute(s *Scheduler, w *World) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		u.Run(w)
	}()

	s.toUnit <- s.vm.Swap(nil)
	s.vm.Store(<-s.fromUnit)
	<-done
}
