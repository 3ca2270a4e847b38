package secs

// Runnable is the interface implemented by native systems.
// The Run method contains the system's logic and is called once per tick
// after the system's tagged resource fields have been injected.
type Runnable interface {
	Run() error
}

// RunnableFunc adapts a plain function into a Runnable without resource fields.
type RunnableFunc func() error

// Run implements Runnable.
func (f RunnableFunc) Run() error { return f() }
