package secs

import (
	"context"
	"log/slog"
)

// Builder configures SECS before initialization.
// Use NewBuilder() to create a builder and chain configuration methods.
type Builder struct {
	cfg       Config
	logger    *slog.Logger
	bundles   []func(*Manager) *Bundle
	resources []resourceRegistration
	systems   []systemRegistration
	scripts   []scriptRegistration
}

// resourceRegistration holds a named resource registration.
type resourceRegistration struct {
	name      string
	res       any
	narrowing []Narrowing
}

// systemRegistration holds a native system registration.
type systemRegistration struct {
	system Runnable
	stage  Stage
}

// scriptRegistration holds a Lua chunk to load.
type scriptRegistration struct {
	chunk  string
	source string
}

// NewBuilder creates a new SECS builder using DefaultConfig.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig()}
}

// Config replaces the configuration.
func (b *Builder) Config(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// Logger sets the logger used by the manager and every unit.
func (b *Builder) Logger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Bundle adds a bundle to the builder.
func (b *Builder) Bundle(callback func(*Manager) *Bundle) *Builder {
	b.bundles = append(b.bundles, callback)
	return b
}

// Resource adds a global resource. Pass a narrowing to make it script visible:
//
//	builder.Resource("counter", &counter, secs.Number[Counter]())
func (b *Builder) Resource(name string, res any, narrowing ...Narrowing) *Builder {
	b.resources = append(b.resources, resourceRegistration{name, res, narrowing})
	return b
}

// System adds a native system.
func (b *Builder) System(sys Runnable, stage Stage) *Builder {
	b.systems = append(b.systems, systemRegistration{sys, stage})
	return b
}

// Script adds a Lua chunk whose system declarations are registered on build.
func (b *Builder) Script(chunk, source string) *Builder {
	b.scripts = append(b.scripts, scriptRegistration{chunk, source})
	return b
}

// Build creates the Manager without starting it.
// Resources are registered first, then native systems, then scripts, so a
// script may reference any resource regardless of where it was added.
func (b *Builder) Build() (*Manager, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}

	m := NewManager(b.cfg, b.logger)

	bundles := make([]*Bundle, 0, len(b.bundles))
	for _, f := range b.bundles {
		bundles = append(bundles, f(m))
	}

	// Resources
	for _, reg := range b.resources {
		if err := m.RegisterResource(reg.name, reg.res, reg.narrowing...); err != nil {
			m.Shutdown()
			return nil, err
		}
	}
	for _, bund := range bundles {
		if err := bund.buildResources(m); err != nil {
			m.Shutdown()
			return nil, err
		}
	}

	// Native systems
	for _, reg := range b.systems {
		if err := m.AddSystem(reg.system, reg.stage); err != nil {
			m.Shutdown()
			return nil, err
		}
	}
	for _, bund := range bundles {
		if err := bund.buildSystems(m); err != nil {
			m.Shutdown()
			return nil, err
		}
	}

	// Scripts
	for _, reg := range b.scripts {
		if err := m.LoadScript(reg.chunk, reg.source); err != nil {
			m.Shutdown()
			return nil, err
		}
	}
	for _, bund := range bundles {
		if err := bund.buildScripts(m); err != nil {
			m.Shutdown()
			return nil, err
		}
	}

	for _, bund := range bundles {
		for _, hook := range bund.postInitHooks {
			hook(m)
		}
	}

	return m, nil
}

// Init builds the Manager and starts its tick loop.
// It panics if any resource, system or script fails to register.
func (b *Builder) Init() *Manager {
	m, err := b.Build()
	if err != nil {
		panic("secs: failed to build systems: " + err.Error())
	}

	m.Start(context.Background())
	return m
}
