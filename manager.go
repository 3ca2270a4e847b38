package secs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Manager is the central SECS coordinator.
// It owns the World, the resource and capability tables, the single
// interpreter and the scheduler that runs every unit.
// Multiple Manager instances can coexist in the same process; each has its
// own World and interpreter.
type Manager struct {
	cfg Config

	// world holds every resource value, the capability table included
	world *World

	// names maps script-facing names to resource identities
	names *ResourceTable

	// caps holds the narrowing functions of script-visible resources
	caps *CapabilityTable

	// scheduler owns the interpreter between ticks
	scheduler *Scheduler

	logger *slog.Logger
}

// NewManager creates a manager with the built-in clock resources registered.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		cfg:    cfg,
		world:  NewWorld(),
		names:  NewResourceTable(),
		caps:   NewCapabilityTable(),
		logger: logger,
	}
	Insert(m.world, m.caps)

	vm := NewInterpreter(cfg.Interpreter)
	m.scheduler = NewScheduler(m.world, vm, cfg.TickRate, logger)

	if err := m.RegisterResource(DeltaTimeResource, new(DeltaTime), Seconds[DeltaTime]()); err != nil {
		panic(err)
	}
	if err := m.RegisterResource(TickResource, new(TickCount), Number[TickCount]()); err != nil {
		panic(err)
	}
	if err := m.AddSystem(newClockSystem(nil), Before); err != nil {
		panic(err)
	}

	return m
}

// RegisterResource inserts res into the World under name. res must be a
// non-nil pointer; its pointed-to type is the resource identity, so each
// type can be registered once. A narrowing makes the resource visible to
// scripts and must be built for the same type.
func (m *Manager) RegisterResource(name string, res any, narrowing ...Narrowing) error {
	id, typ, err := identityOfValue(res)
	if err != nil {
		return &ConfigError{Unit: "register", Resource: name, Err: fmt.Errorf("%w: %v", ErrInvalidDeclaration, err)}
	}
	for _, n := range narrowing {
		if n.fn == nil || n.id != id {
			return &ConfigError{
				Unit:     "register",
				Resource: name,
				Err:      fmt.Errorf("%w: narrowing for %v applied to %v", ErrInvalidDeclaration, n.typ, typ),
			}
		}
	}

	return m.scheduler.locked(func() error {
		if m.world.Has(id) {
			return &ConfigError{
				Unit:     "register",
				Resource: name,
				Err:      fmt.Errorf("%w: type %v already registered", ErrDuplicateResource, typ),
			}
		}
		if err := m.names.register(name, id); err != nil {
			return &ConfigError{Unit: "register", Resource: name, Err: err}
		}

		m.world.insert(id, res)
		for _, n := range narrowing {
			m.caps.Register(n)
		}

		m.logger.Debug("secs: resource registered",
			"name", name,
			"type", typ.String(),
			"script_visible", len(narrowing) > 0)
		return nil
	})
}

// AddSystem registers a native system in stage. Every resource the system
// declares must already be registered.
func (m *Manager) AddSystem(sys Runnable, stage Stage) error {
	if stage < Before || stage >= stageCount {
		return &ConfigError{Unit: fmt.Sprintf("%T", sys), Err: fmt.Errorf("%w: invalid stage %d", ErrInvalidDeclaration, stage)}
	}

	u, err := analyzeSystem(sys, stage, m.logger)
	if err != nil {
		return &ConfigError{Unit: fmt.Sprintf("%T", sys), Err: err}
	}

	for _, id := range append(u.deps.DeclaredReads(), u.deps.Writes()...) {
		if !m.world.Has(id) {
			return &ConfigError{
				Unit:     u.name,
				Resource: ResourceType(id).String(),
				Err:      ErrUnknownResource,
			}
		}
	}

	m.scheduler.Add(u)
	return nil
}

// LoadScript runs a Lua chunk and registers every system it declares.
// Registration is all or nothing: on error no unit from the chunk is added
// and every callback bound so far is released.
func (m *Manager) LoadScript(chunkName, source string) error {
	return m.scheduler.withInterpreter(func(vm *Interpreter) error {
		decls, err := vm.load(chunkName, source)
		if err != nil {
			return &ConfigError{Unit: chunkName, Err: err}
		}

		units := make([]Unit, 0, len(decls))
		for _, decl := range decls {
			u, err := m.newScriptUnit(vm, decl)
			if err != nil {
				for _, prev := range units {
					vm.Unbind(prev.(*ScriptUnit).callback)
				}
				return err
			}
			units = append(units, u)
		}

		m.scheduler.Add(units...)
		m.logger.Debug("secs: script loaded", "chunk", chunkName, "systems", len(units))
		return nil
	})
}

// newScriptUnit validates one declaration, resolves its names and binds its callback.
func (m *Manager) newScriptUnit(vm *Interpreter, decl ScriptDecl) (*ScriptUnit, error) {
	if err := decl.Validate(); err != nil {
		return nil, &ConfigError{Unit: decl.Name, Err: err}
	}

	reads, err := m.resolveVisible(decl.Name, decl.Reads)
	if err != nil {
		return nil, err
	}
	writes, err := m.resolveVisible(decl.Name, decl.Writes)
	if err != nil {
		return nil, err
	}

	deps, err := NewDependencies(reads, writes)
	if err != nil {
		return nil, &ConfigError{Unit: decl.Name, Err: err}
	}

	receiver, sender := m.scheduler.endpoints()
	u := &ScriptUnit{
		id:         uuid.New(),
		name:       decl.Name,
		stage:      decl.Stage,
		deps:       deps,
		readNames:  append([]string(nil), decl.Reads...),
		writeNames: append([]string(nil), decl.Writes...),
		receiver:   receiver,
		sender:     sender,
		logger:     m.logger,
	}
	u.callback = vm.Bind(decl.Name+"/"+u.id.String(), decl.Run)
	return u, nil
}

// resolveVisible resolves names and checks each has a capability table entry.
func (m *Manager) resolveVisible(unit string, names []string) ([]ResourceID, error) {
	ids := make([]ResourceID, 0, len(names))
	for _, name := range names {
		id, err := m.names.Lookup(name)
		if err != nil {
			return nil, &ConfigError{Unit: unit, Resource: name, Err: err}
		}
		if !m.caps.Has(id) {
			return nil, &ConfigError{Unit: unit, Resource: name, Err: ErrNotScriptVisible}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RunOnce executes a single tick.
func (m *Manager) RunOnce() {
	m.scheduler.RunOnce(m.world)
}

// Start starts the scheduler's tick loop.
func (m *Manager) Start(ctx context.Context) {
	m.scheduler.Start(ctx)
}

// Stop stops the tick loop. The manager can be started again.
func (m *Manager) Stop() {
	m.scheduler.Stop()
}

// Shutdown stops the tick loop and closes the interpreter.
func (m *Manager) Shutdown() {
	m.scheduler.Shutdown()
}

// World returns the resource store.
func (m *Manager) World() *World { return m.world }

// Scheduler returns the scheduler.
func (m *Manager) Scheduler() *Scheduler { return m.scheduler }

// Resources returns the name table.
func (m *Manager) Resources() *ResourceTable { return m.names }

// Capabilities returns the capability table.
func (m *Manager) Capabilities() *CapabilityTable { return m.caps }

// Config returns the configuration the manager was created with.
func (m *Manager) Config() Config { return m.cfg }
