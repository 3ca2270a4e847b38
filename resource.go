package secs

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// ResourceID is a unique identifier for a resource type.
// Valid IDs range from 0 to 254.
type ResourceID uint8

// MaxResources is the maximum number of resource types supported.
const MaxResources = 255

// identityRegistry manages resource type registration with lock-free reads.
// IDs are assigned sequentially, never recycled, and shared by every World
// in the process so two identities are equal iff they denote the same type.
type identityRegistry struct {
	// types maps reflect.Type to ResourceID
	types sync.Map // map[reflect.Type]ResourceID

	// typesArr stores the type for each ID; written once during registration
	typesArr [MaxResources]reflect.Type

	nextID atomic.Uint32
	arrMu  sync.RWMutex
}

var identities = &identityRegistry{}

// identityOfType returns the ResourceID for t, assigning one on first use.
func identityOfType(t reflect.Type) ResourceID {
	if id, ok := identities.types.Load(t); ok {
		return id.(ResourceID)
	}

	newID := identities.nextID.Add(1) - 1
	if newID >= MaxResources {
		panic(fmt.Sprintf("secs: resource limit exceeded (max %d types)", MaxResources))
	}

	actual, loaded := identities.types.LoadOrStore(t, ResourceID(newID))
	if loaded {
		// Another goroutine registered this type first; our ID is wasted.
		return actual.(ResourceID)
	}

	identities.arrMu.Lock()
	identities.typesArr[newID] = t
	identities.arrMu.Unlock()

	return ResourceID(newID)
}

// IdentityOf returns the ResourceID of resource type T.
func IdentityOf[T any]() ResourceID {
	return identityOfType(reflect.TypeOf((*T)(nil)).Elem())
}

// identityOfValue returns the ResourceID of the type a resource pointer points to.
func identityOfValue(res any) (ResourceID, reflect.Type, error) {
	t := reflect.TypeOf(res)
	if t == nil || t.Kind() != reflect.Ptr || reflect.ValueOf(res).IsNil() {
		return 0, nil, fmt.Errorf("resource must be a non-nil pointer, got %T", res)
	}
	return identityOfType(t.Elem()), t.Elem(), nil
}

// ResourceType returns the Go type registered under id, or nil.
func ResourceType(id ResourceID) reflect.Type {
	if int(id) >= MaxResources {
		return nil
	}
	identities.arrMu.RLock()
	defer identities.arrMu.RUnlock()
	return identities.typesArr[id]
}

// String returns the resource type name for debugging.
func (id ResourceID) String() string {
	if t := ResourceType(id); t != nil {
		return fmt.Sprintf("%s#%d", t.String(), uint8(id))
	}
	return fmt.Sprintf("resource#%d", uint8(id))
}
