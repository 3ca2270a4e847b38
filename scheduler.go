package secs

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler runs execution units once per tick, stage by stage and in
// declaration order within a stage.
//
// Script units all contend for the single interpreter, so they never run
// concurrently with each other. Between units the scheduler itself holds
// the interpreter.
type Scheduler struct {
	world *World

	units   [stageCount][]Unit
	unitsMu sync.RWMutex

	// Interpreter ownership. vm is nil while a script unit holds it.
	vm       atomic.Pointer[Interpreter]
	toUnit   chan *Interpreter
	fromUnit chan *Interpreter
	runMu    sync.Mutex

	// Execution state
	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Tick tracking
	tickRate   time.Duration
	tickNumber atomic.Uint64

	logger *slog.Logger
}

// NewScheduler creates a scheduler over w that starts out holding vm.
func NewScheduler(w *World, vm *Interpreter, tickRate time.Duration, logger *slog.Logger) *Scheduler {
	if tickRate <= 0 {
		tickRate = 50 * time.Millisecond // 20 TPS
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		world:    w,
		toUnit:   make(chan *Interpreter),
		fromUnit: make(chan *Interpreter),
		tickRate: tickRate,
		logger:   logger,
	}
	s.vm.Store(vm)
	return s
}

// endpoints returns the channel ends handed to a new script unit:
// where it receives the interpreter and where it sends it back.
func (s *Scheduler) endpoints() (<-chan *Interpreter, chan<- *Interpreter) {
	return s.toUnit, s.fromUnit
}

// Add appends units to their stages, keeping declaration order.
func (s *Scheduler) Add(units ...Unit) {
	s.unitsMu.Lock()
	defer s.unitsMu.Unlock()

	for _, u := range units {
		s.units[u.Stage()] = append(s.units[u.Stage()], u)
	}
}

// Units returns every unit in execution order.
func (s *Scheduler) Units() []Unit {
	s.unitsMu.RLock()
	defer s.unitsMu.RUnlock()

	var out []Unit
	for stage := Before; stage < stageCount; stage++ {
		out = append(out, s.units[stage]...)
	}
	return out
}

// RunOnce executes every unit once, in order. Script errors are logged by
// the units themselves and never reach the caller.
func (s *Scheduler) RunOnce(w *World) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.tickNumber.Add(1)

	for _, u := range s.Units() {
		if _, ok := u.(*ScriptUnit); ok && s.vm.Load() == nil {
			panic("secs: scheduler does not hold the interpreter")
		}
		u.execute(s, w)
	}
}

// Interpreter returns the interpreter if the scheduler currently holds it,
// or nil while a script unit holds it or after Shutdown. It never blocks,
// so native systems may call it from Run.
func (s *Scheduler) Interpreter() *Interpreter {
	return s.vm.Load()
}

// withInterpreter runs fn while holding the interpreter between ticks.
func (s *Scheduler) withInterpreter(fn func(vm *Interpreter) error) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	vm := s.vm.Load()
	if vm == nil {
		panic("secs: scheduler does not hold the interpreter")
	}
	return fn(vm)
}

// locked runs fn between ticks.
func (s *Scheduler) locked(fn func() error) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return fn()
}

// Ticks returns the number of ticks executed so far.
func (s *Scheduler) Ticks() uint64 {
	return s.tickNumber.Load()
}

// Batches groups the units of a stage into conflict-free batches, in
// declaration order. Script units always conflict with each other since
// they share the interpreter. Units are still run serially; the grouping
// is reported for diagnostics.
func (s *Scheduler) Batches(stage Stage) [][]Unit {
	s.unitsMu.RLock()
	units := append([]Unit(nil), s.units[stage]...)
	s.unitsMu.RUnlock()

	var batches [][]Unit
	remaining := units

	for len(remaining) > 0 {
		var batch []Unit
		var nextRemaining []Unit

		for _, candidate := range remaining {
			conflict := false
			for _, existing := range batch {
				if unitsConflict(candidate, existing) {
					conflict = true
					break
				}
			}

			if !conflict {
				batch = append(batch, candidate)
			} else {
				nextRemaining = append(nextRemaining, candidate)
			}
		}

		batches = append(batches, batch)
		remaining = nextRemaining
	}

	return batches
}

func unitsConflict(a, b Unit) bool {
	_, aScript := a.(*ScriptUnit)
	_, bScript := b.(*ScriptUnit)
	if aScript && bScript {
		return true
	}
	return a.Access().Conflicts(b.Access())
}

// Start begins the scheduler's tick loop. It stops when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	if s.running.Swap(true) {
		return // Already running
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.tickLoop(ctx)
}

// Stop shuts the tick loop down and waits for the current tick to finish.
func (s *Scheduler) Stop() {
	if !s.running.Swap(false) {
		return // Not running
	}

	close(s.stopCh)
	<-s.doneCh
}

// tickLoop is the main scheduler loop.
func (s *Scheduler) tickLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return

		case <-ctx.Done():
			s.running.Store(false)
			return

		case <-ticker.C:
			s.RunOnce(s.world)
		}
	}
}

// Shutdown stops the tick loop, releases every callback handle and closes
// the interpreter. The scheduler cannot run afterward.
func (s *Scheduler) Shutdown() {
	s.Stop()

	s.runMu.Lock()
	defer s.runMu.Unlock()

	vm := s.vm.Swap(nil)
	if vm == nil {
		return
	}

	for _, u := range s.Units() {
		if su, ok := u.(*ScriptUnit); ok {
			vm.Unbind(su.callback)
		}
	}
	vm.Close()
}
