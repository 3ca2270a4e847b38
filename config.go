package secs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Config configures a Manager.
type Config struct {
	// TickRate is the interval between ticks when the scheduler loop is started.
	TickRate time.Duration `yaml:"tick_rate" json:"tick_rate" validate:"gt=0" jsonschema:"description=Interval between ticks in nanoseconds (YAML accepts 50ms style durations)"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`

	// Interpreter configures the embedded Lua state.
	Interpreter InterpreterConfig `yaml:"interpreter" json:"interpreter"`
}

// InterpreterConfig maps onto lua.Options.
type InterpreterConfig struct {
	CallStackSize       int  `yaml:"call_stack_size" json:"call_stack_size,omitempty" validate:"gte=0"`
	RegistrySize        int  `yaml:"registry_size" json:"registry_size,omitempty" validate:"gte=0"`
	SkipOpenLibs        bool `yaml:"skip_open_libs" json:"skip_open_libs,omitempty"`
	IncludeGoStackTrace bool `yaml:"include_go_stack_trace" json:"include_go_stack_trace,omitempty"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		TickRate: 50 * time.Millisecond, // 20 TPS
		LogLevel: "info",
	}
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks the configuration with its validation tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ConfigSchema returns the JSON schema of Config.
func ConfigSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Config{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}
