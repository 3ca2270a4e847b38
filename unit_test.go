package secs

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unitHidden int

// detach gives u private channel endpoints so a test can drive Run directly.
func detach(u *ScriptUnit) (chan<- *Interpreter, <-chan *Interpreter) {
	to := make(chan *Interpreter)
	from := make(chan *Interpreter)
	u.receiver, u.sender = to, from
	return to, from
}

func TestScriptUnit_TokenRoundTrip(t *testing.T) {
	m := newTestManager(t, nil)
	var counter testCounter
	require.NoError(t, m.RegisterResource("counter", &counter, Number[testCounter]()))
	require.NoError(t, m.LoadScript("bad.lua", `
		system { name = "bad", writes = { "counter" }, run = function() error("nope") end }
	`))

	u := scriptUnits(m)[0]
	vm := m.Scheduler().Interpreter()
	to, from := detach(u)

	done := make(chan struct{})
	go func() {
		defer close(done)
		u.Run(m.World())
	}()

	assert.Eventually(t, func() bool { return u.State() == Awaiting }, time.Second, time.Millisecond)
	to <- vm
	back := <-from
	<-done

	assert.Same(t, vm, back, "the same interpreter comes back")
	assert.True(t, u.IsIdle())
	assert.Equal(t, uint64(1), u.Failures())
	assert.Empty(t, m.World().Borrows())
}

func TestScriptUnit_MissingCapabilityIsFatalButReturnsToken(t *testing.T) {
	w := NewWorld()
	Insert(w, NewCapabilityTable())
	hidden := unitHidden(1)
	id := Insert(w, &hidden)

	deps, err := NewDependencies([]ResourceID{id}, nil)
	require.NoError(t, err)

	vm := NewInterpreter(InterpreterConfig{})
	defer vm.Close()

	u := &ScriptUnit{id: uuid.New(), name: "hidden", deps: deps, logger: slog.Default()}
	to, from := detach(u)

	back := make(chan *Interpreter, 1)
	go func() {
		to <- vm
		back <- <-from
	}()

	assert.PanicsWithError(t, (&NotNarrowableError{ID: id}).Error(), func() {
		u.Run(w)
	})
	assert.Same(t, vm, <-back)
	assert.Equal(t, Idle, u.State())
	assert.Empty(t, w.Borrows())
}

func TestScriptUnit_ReleasedCallback(t *testing.T) {
	logger, buf := newCaptureLogger()
	m := newTestManager(t, logger)
	require.NoError(t, m.LoadScript("gone.lua", `system { name = "gone", run = function() end }`))

	u := scriptUnits(m)[0]
	m.Scheduler().Interpreter().Unbind(u.Callback())

	m.RunOnce()
	assert.Equal(t, uint64(1), u.Failures())
	assert.Contains(t, buf.String(), errCallbackReleased.Error())
}

func TestUnitState_String(t *testing.T) {
	assert.Equal(t, "Idle", Idle.String())
	assert.Equal(t, "Awaiting", Awaiting.String())
	assert.Equal(t, "Running", Running.String())
	assert.Equal(t, "Returning", Returning.String())
	assert.Equal(t, "Unknown", UnitState(42).String())
}
