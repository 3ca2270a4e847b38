package secs

import (
	"errors"
	"fmt"
)

// Configuration error kinds. Match them with errors.Is.
var (
	// ErrUnknownResource is returned when a name does not resolve to a registered resource.
	ErrUnknownResource = errors.New("unknown resource")

	// ErrDuplicateResource is returned when a resource name is registered twice.
	ErrDuplicateResource = errors.New("duplicate resource name")

	// ErrNotScriptVisible is returned when a script references a resource
	// that has no capability table entry.
	ErrNotScriptVisible = errors.New("resource is not script visible")

	// ErrSelfConflict is returned when an accessor would read and write the same resource.
	ErrSelfConflict = errors.New("conflicting resource access")

	// ErrInvalidDeclaration is returned when a script system declaration is malformed.
	ErrInvalidDeclaration = errors.New("invalid system declaration")
)

// ConfigError reports a registration-time configuration failure.
// Unit names the script system or resource being registered.
type ConfigError struct {
	Unit     string
	Resource string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("secs: %s: resource %q: %v", e.Unit, e.Resource, e.Err)
	}
	return fmt.Sprintf("secs: %s: %v", e.Unit, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// MissingResourceError is the panic value raised when a fetch requests a
// resource that was never inserted into the World.
type MissingResourceError struct {
	ID ResourceID
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("secs: requested resource %s does not exist", e.ID)
}

// BorrowError is the panic value raised when a borrow would overlap an
// incompatible outstanding borrow.
type BorrowError struct {
	ID   ResourceID
	Mode string
}

func (e *BorrowError) Error() string {
	return fmt.Sprintf("secs: %s borrow of %s conflicts with an outstanding borrow", e.Mode, e.ID)
}

// NotNarrowableError is the panic value raised when a borrowed resource has no
// capability table entry at invocation time.
type NotNarrowableError struct {
	ID ResourceID
}

func (e *NotNarrowableError) Error() string {
	return fmt.Sprintf("secs: resource %s not registered in capability table", e.ID)
}
