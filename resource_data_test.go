package secs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bundleVelocity [3]float64

func newBundleManager(t *testing.T) (*Manager, *testCounter, *testLabel, *bundleVelocity) {
	t.Helper()
	logger, _ := newCaptureLogger()
	m := newTestManager(t, logger)

	counter := new(testCounter)
	label := testLabel("hi")
	vel := bundleVelocity{1, 2, 3}
	require.NoError(t, m.RegisterResource("counter", counter, Number[testCounter]()))
	require.NoError(t, m.RegisterResource("label", &label, Text[testLabel]()))
	require.NoError(t, m.RegisterResource("velocity", &vel, Vector[bundleVelocity]()))
	return m, counter, &label, &vel
}

func TestBundle_ReadAllAndCount(t *testing.T) {
	m, counter, _, _ := newBundleManager(t)
	require.NoError(t, m.LoadScript("all.lua", `
		system {
			reads = { "label", "velocity" },
			writes = { "counter" },
			run = function(bundle)
				local all = bundle:read()
				assert(all.label == "hi")
				assert(all.velocity.z == 3)
				assert(all.counter ~= nil)
				assert(bundle:read(1) == "hi")
				assert(bundle:read(2).y == 2)
				assert(string.find(tostring(bundle), "reads=2, writes=1", 1, true))
				bundle:write("counter", bundle:write())
			end,
		}
	`))

	m.RunOnce()
	assert.Equal(t, testCounter(1), *counter)
	assert.Equal(t, uint64(0), scriptUnits(m)[0].Failures())
}

func TestBundle_VectorWrite(t *testing.T) {
	m, _, _, vel := newBundleManager(t)
	require.NoError(t, m.LoadScript("vec.lua", `
		system {
			writes = { "velocity" },
			run = function(bundle)
				local v = bundle:read("velocity")
				bundle:write("velocity", vec3(v.x * 2, v.y * 2, v.z * 2))
			end,
		}
	`))

	m.RunOnce()
	assert.Equal(t, bundleVelocity{2, 4, 6}, *vel)
}

func TestBundle_AccessOutsideDeclaration(t *testing.T) {
	tests := []struct {
		name string
		run  string
	}{
		{"read undeclared", `bundle:read("velocity")`},
		{"write a read", `bundle:write("label", "x")`},
		{"position out of range", `bundle:read(3)`},
		{"position zero", `bundle:read(0)`},
		{"write position past writes", `bundle:write(2, 1)`},
		{"wrong value type", `bundle:write("counter", "ten")`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, counter, label, _ := newBundleManager(t)
			require.NoError(t, m.LoadScript("oob.lua", `
				system {
					reads = { "label" },
					writes = { "counter" },
					run = function(bundle) `+tc.run+` end,
				}
			`))

			m.RunOnce()
			assert.Equal(t, uint64(1), scriptUnits(m)[0].Failures())
			assert.Equal(t, testCounter(0), *counter)
			assert.Equal(t, testLabel("hi"), *label)
		})
	}
}

func TestBundle_UnusableAfterRun(t *testing.T) {
	m, counter, _, _ := newBundleManager(t)
	require.NoError(t, m.LoadScript("escape.lua", `
		local kept
		system {
			name = "keeper",
			writes = { "counter" },
			run = function(bundle) kept = bundle end,
		}
		system {
			name = "thief",
			run = function() kept:write("counter", 99) end,
		}
	`))

	m.RunOnce()

	units := scriptUnits(m)
	require.Len(t, units, 2)
	assert.Equal(t, uint64(0), units[0].Failures())
	assert.Equal(t, uint64(1), units[1].Failures())
	assert.Equal(t, testCounter(0), *counter)
	assert.Empty(t, m.World().Borrows())
}

func TestBundle_PositionalReadCoversWrites(t *testing.T) {
	m, counter, _, _ := newBundleManager(t)
	require.NoError(t, m.LoadScript("pos.lua", `
		system {
			name = "writer",
			writes = { "counter" },
			run = function(bundle) bundle:write(1, bundle:read(1) + 1) end,
		}
		system {
			name = "mixed",
			reads = { "label" },
			writes = { "counter" },
			run = function(bundle)
				assert(bundle:read(1) == "hi")
				bundle:write(1, bundle:read(2) * 10)
			end,
		}
	`))

	m.RunOnce()
	m.RunOnce()

	assert.Equal(t, testCounter(110), *counter)
	for _, u := range scriptUnits(m) {
		assert.Equal(t, uint64(0), u.Failures(), u.Name())
	}
}

func TestBundle_VectorReadSupportsArithmetic(t *testing.T) {
	m, _, _, vel := newBundleManager(t)
	require.NoError(t, m.LoadScript("add.lua", `
		system {
			writes = { "velocity" },
			run = function(bundle)
				bundle:write("velocity", bundle:read("velocity") + vec3(7, 9, 11))
			end,
		}
	`))

	m.RunOnce()
	assert.Equal(t, bundleVelocity{8, 11, 14}, *vel)
	assert.Equal(t, uint64(0), scriptUnits(m)[0].Failures())
}
