package secs

import (
	"fmt"
	"sort"
	"sync"
)

// ResourceTable maps human-readable resource names to resource identities.
// Names are unique; it is filled during setup and read-only afterward.
type ResourceTable struct {
	mu    sync.RWMutex
	names map[string]ResourceID
}

// NewResourceTable creates an empty table.
func NewResourceTable() *ResourceTable {
	return &ResourceTable{
		names: make(map[string]ResourceID),
	}
}

// RegisterName registers resource type T under name.
func RegisterName[T any](t *ResourceTable, name string) error {
	return t.register(name, IdentityOf[T]())
}

// register binds name to id. Re-registering a name is an error even for the same id.
func (t *ResourceTable) register(name string, id ResourceID) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDeclaration)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.names[name]; ok {
		return fmt.Errorf("%w: %q already bound to %s", ErrDuplicateResource, name, prev)
	}
	t.names[name] = id
	return nil
}

// Lookup resolves a name. Unknown names fail with ErrUnknownResource.
func (t *ResourceTable) Lookup(name string) (ResourceID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.names[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}
	return id, nil
}

// Resolve looks up every name in order.
func (t *ResourceTable) Resolve(names []string) ([]ResourceID, error) {
	ids := make([]ResourceID, 0, len(names))
	for _, name := range names {
		id, err := t.Lookup(name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Names returns the registered names in sorted order.
func (t *ResourceTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.names))
	for name := range t.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
