package secs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type builderGravity [3]float64
type builderHeight float64

type fallSystem struct {
	Height *builderHeight `secs:"res,mut"`
}

func (s *fallSystem) Run() error {
	*s.Height -= 1
	return nil
}

func TestBuilder_BuildWithBundle(t *testing.T) {
	gravity := builderGravity{0, -10, 0}
	height := builderHeight(100)
	var counter testCounter
	var hooked *Manager

	bund := NewBundle("physics").
		Resource("gravity", &gravity, Vector[builderGravity]()).
		Resource("height", &height, Number[builderHeight]()).
		System(&fallSystem{}, Default).
		Script("physics.lua", `
			system {
				name = "measure",
				stage = "after",
				reads = { "gravity", "height" },
				writes = { "counter" },
				run = function(bundle)
					bundle:write("counter", bundle:read("height") + bundle:read("gravity").y)
				end,
			}
		`).
		PostInit(func(m *Manager) { hooked = m })

	assert.Equal(t, "physics", bund.Name())

	m, err := NewBuilder().
		Resource("counter", &counter, Number[testCounter]()).
		Bundle(bund.Build()).
		Build()
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)

	assert.Same(t, m, hooked)

	m.RunOnce()
	assert.Equal(t, builderHeight(99), height)
	assert.Equal(t, testCounter(89), counter)
}

func TestBuilder_ScriptsSeeBundleResources(t *testing.T) {
	var counter testCounter

	bund := NewBundle("late").Resource("counter", &counter, Number[testCounter]())

	m, err := NewBuilder().
		Script("early.lua", `system { writes = { "counter" }, run = function(b) b:write(1, 7) end }`).
		Bundle(bund.Build()).
		Build()
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)

	m.RunOnce()
	assert.Equal(t, testCounter(7), counter)
}

func TestBuilder_BuildErrors(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LogLevel = "verbose"

		_, err := NewBuilder().Config(cfg).Build()
		assert.Error(t, err)
	})

	t.Run("bundle script references unknown resource", func(t *testing.T) {
		bund := NewBundle("broken").Script("ghost.lua", `system { reads = { "ghost" }, run = function() end }`)

		_, err := NewBuilder().Bundle(bund.Build()).Build()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownResource)
		assert.Contains(t, err.Error(), "bundle broken")
	})

	t.Run("duplicate resource name", func(t *testing.T) {
		var a testCounter
		var b testLabel

		_, err := NewBuilder().
			Resource("x", &a).
			Resource("x", &b).
			Build()
		assert.ErrorIs(t, err, ErrDuplicateResource)
	})
}

func TestBuilder_InitPanicsOnError(t *testing.T) {
	assert.PanicsWithValue(t,
		`secs: failed to build systems: secs: ghost.lua#1: resource "ghost": unknown resource: "ghost"`,
		func() {
			NewBuilder().Script("ghost.lua", `system { reads = { "ghost" }, run = function() end }`).Init()
		})
}

func TestBuilder_InitStarts(t *testing.T) {
	m := NewBuilder().Init()
	t.Cleanup(m.Shutdown)

	assert.True(t, m.Scheduler().running.Load())
}
