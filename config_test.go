package secs

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 50*time.Millisecond, cfg.TickRate)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
tick_rate: 100ms
log_level: debug
interpreter:
  call_stack_size: 256
  skip_open_libs: true
`))
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, cfg.TickRate)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, 256, cfg.Interpreter.CallStackSize)
	assert.True(t, cfg.Interpreter.SkipOpenLibs)
	assert.False(t, cfg.Interpreter.IncludeGoStackTrace)
}

func TestParseConfig_KeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`log_level: warn`))
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, cfg.TickRate)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad level", `log_level: loud`},
		{"zero tick rate", `tick_rate: 0s`},
		{"negative stack", "interpreter:\n  call_stack_size: -1"},
		{"not yaml", `tick_rate: [`},
		{"bad duration", `tick_rate: soon`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_rate: 1s\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.TickRate)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigSchema(t *testing.T) {
	out, err := ConfigSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(out, &schema))

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "tick_rate")
	assert.Contains(t, props, "log_level")
	assert.Contains(t, props, "interpreter")
}

func TestManager_InterpreterConfigApplied(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interpreter.SkipOpenLibs = true
	m := NewManager(cfg, nil)
	t.Cleanup(m.Shutdown)

	var counter testCounter
	require.NoError(t, m.RegisterResource("counter", &counter, Number[testCounter]()))

	// Without open libs the string library is absent but the secs globals remain.
	require.NoError(t, m.LoadScript("bare.lua", `
		system {
			writes = { "counter" },
			run = function(bundle)
				if string == nil then bundle:write(1, vec3_len(vec3(0, 3, 4))) end
			end,
		}
	`))

	m.RunOnce()
	assert.Equal(t, testCounter(5), counter)
}
