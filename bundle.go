package secs

import (
	"fmt"
)

// Bundle groups related resources, native systems and scripts together.
// Bundles are registered with the SECS builder and keep a gameplay feature
// in one place.
type Bundle struct {
	name string

	// resources holds bundle-level resources (registered with the manager)
	resources []resourceRegistration

	// systems holds native system registrations
	systems []systemRegistration

	// scripts holds Lua chunks
	scripts []scriptRegistration

	postInitHooks []func(*Manager)
}

// NewBundle creates a new bundle with the given name.
func NewBundle(name string) *Bundle {
	return &Bundle{name: name}
}

// Name returns the bundle name.
func (b *Bundle) Name() string {
	return b.name
}

// Resource registers a bundle-level resource.
// Resources are shared by every unit of the manager, not only this bundle.
func (b *Bundle) Resource(name string, res any, narrowing ...Narrowing) *Bundle {
	b.resources = append(b.resources, resourceRegistration{name, res, narrowing})
	return b
}

// System registers a native system in the given stage.
func (b *Bundle) System(sys Runnable, stage Stage) *Bundle {
	b.systems = append(b.systems, systemRegistration{sys, stage})
	return b
}

// Script registers a Lua chunk.
func (b *Bundle) Script(chunk, source string) *Bundle {
	b.scripts = append(b.scripts, scriptRegistration{chunk, source})
	return b
}

// PostInit registers a hook run once the manager is fully built.
func (b *Bundle) PostInit(hook func(*Manager)) *Bundle {
	b.postInitHooks = append(b.postInitHooks, hook)
	return b
}

// Build returns a callback function that returns this bundle.
// This allows for cleaner inline bundle initialization:
//
//	bund := secs.NewBundle("physics").
//	    Resource("gravity", &gravity, secs.Vector[Gravity]()).
//	    Script("physics.lua", src).
//	    Build()
//
//	mngr := secs.NewBuilder().
//	    Bundle(bund).
//	    Init()
func (b *Bundle) Build() func(*Manager) *Bundle {
	return func(*Manager) *Bundle {
		return b
	}
}

func (b *Bundle) buildResources(m *Manager) error {
	for _, reg := range b.resources {
		if err := m.RegisterResource(reg.name, reg.res, reg.narrowing...); err != nil {
			return fmt.Errorf("bundle %s: %w", b.name, err)
		}
	}
	return nil
}

func (b *Bundle) buildSystems(m *Manager) error {
	for _, reg := range b.systems {
		if err := m.AddSystem(reg.system, reg.stage); err != nil {
			return fmt.Errorf("bundle %s: %w", b.name, err)
		}
	}
	return nil
}

func (b *Bundle) buildScripts(m *Manager) error {
	for _, reg := range b.scripts {
		if err := m.LoadScript(reg.chunk, reg.source); err != nil {
			return fmt.Errorf("bundle %s: %w", b.name, err)
		}
	}
	return nil
}
