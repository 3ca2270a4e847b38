package secs

import (
	"fmt"
	"strings"
)

// Stage represents a scheduling stage for unit execution.
// Units are executed in stage order: Before → Default → After,
// and in declaration order within a stage.
type Stage int

const (
	// Before stage runs first. The built-in clock runs here so every
	// later unit observes the current tick's delta time.
	Before Stage = iota

	// Default stage runs second. Use for most simulation logic.
	Default

	// After stage runs last. Use for cleanup and bookkeeping.
	After

	// stageCount is the total number of stages.
	stageCount
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case Before:
		return "Before"
	case Default:
		return "Default"
	case After:
		return "After"
	default:
		return "Unknown"
	}
}

// ParseStage parses a stage name case-insensitively.
func ParseStage(name string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "before":
		return Before, nil
	case "", "default":
		return Default, nil
	case "after":
		return After, nil
	default:
		return 0, fmt.Errorf("%w: unknown stage %q", ErrInvalidDeclaration, name)
	}
}
