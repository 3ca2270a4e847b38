package secs

import (
	"fmt"
	"reflect"

	lua "github.com/yuin/gopher-lua"
)

// Capability is the read side of a script-visible resource.
// It hides the concrete resource type from script code.
type Capability interface {
	// Read converts the current resource value into a Lua value.
	Read(L *lua.LState) lua.LValue
}

// MutableCapability is a Capability that scripts may also write through.
type MutableCapability interface {
	Capability

	// Write stores v into the resource. A type mismatch returns an error
	// which is raised as a Lua error in the calling script.
	Write(L *lua.LState, v lua.LValue) error
}

// Narrowing is a type-erased narrowing function for one resource type.
// Build it with NarrowWith or one of the adapters in views.go.
type Narrowing struct {
	id  ResourceID
	typ reflect.Type
	fn  func(res any) MutableCapability
}

// NarrowWith wraps a typed narrowing function for resource type T.
func NarrowWith[T any](fn func(*T) MutableCapability) Narrowing {
	return Narrowing{
		id:  IdentityOf[T](),
		typ: reflect.TypeOf((*T)(nil)).Elem(),
		fn: func(res any) MutableCapability {
			return fn(res.(*T))
		},
	}
}

// ID returns the identity of the resource type this narrowing applies to.
func (n Narrowing) ID() ResourceID { return n.id }

// CapabilityTable maps resource identities to narrowing functions.
// It is itself a resource: every script unit reads it implicitly.
// Entries are installed during setup and never mutated afterward.
type CapabilityTable struct {
	entries map[ResourceID]Narrowing
}

// NewCapabilityTable creates an empty table.
func NewCapabilityTable() *CapabilityTable {
	return &CapabilityTable{
		entries: make(map[ResourceID]Narrowing),
	}
}

// Register installs a narrowing function, replacing any previous entry for the same type.
func (ct *CapabilityTable) Register(n Narrowing) {
	if n.fn == nil {
		panic("secs: zero Narrowing registered")
	}
	ct.entries[n.id] = n
}

// RegisterCapability installs fn as the narrowing function for resource type T.
func RegisterCapability[T any](ct *CapabilityTable, fn func(*T) MutableCapability) {
	ct.Register(NarrowWith(fn))
}

// Has reports whether resources with the given identity are script visible.
func (ct *CapabilityTable) Has(id ResourceID) bool {
	_, ok := ct.entries[id]
	return ok
}

// Get narrows a shared resource into a read-only view.
// Returns false if id has no entry or res is not of the registered type.
func (ct *CapabilityTable) Get(id ResourceID, res any) (Capability, bool) {
	c, ok := ct.narrow(id, res)
	if !ok {
		return nil, false
	}
	return readOnly{c}, true
}

// GetMut narrows an exclusively borrowed resource into a writable view.
// Returns false if id has no entry or res is not of the registered type.
func (ct *CapabilityTable) GetMut(id ResourceID, res any) (MutableCapability, bool) {
	return ct.narrow(id, res)
}

func (ct *CapabilityTable) narrow(id ResourceID, res any) (MutableCapability, bool) {
	n, ok := ct.entries[id]
	if !ok || res == nil {
		return nil, false
	}
	if t := reflect.TypeOf(res); t.Kind() != reflect.Ptr || t.Elem() != n.typ {
		return nil, false
	}
	c := n.fn(res)
	return c, c != nil
}

// readOnly strips the write half of a view handed out by Get.
type readOnly struct {
	c MutableCapability
}

func (r readOnly) Read(L *lua.LState) lua.LValue {
	return r.c.Read(L)
}

func (r readOnly) String() string {
	return fmt.Sprintf("readonly(%T)", r.c)
}
