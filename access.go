package secs

import (
	"fmt"
	"reflect"
)

// Dependencies is the accessor of one execution unit: the resources it
// reads and writes, in declaration order. It is computed once when the
// unit is registered and is immutable afterward.
//
// There is no default value. A unit whose needs are only known at runtime
// must state them explicitly through NewDependencies.
type Dependencies struct {
	reads  []ResourceID
	writes []ResourceID

	// Precomputed sets for fast conflict checks
	readMask  Bitmask
	writeMask Bitmask
}

// capabilityTableID is injected into every accessor's reads.
var capabilityTableID = IdentityOf[CapabilityTable]()

var capabilityTableType = reflect.TypeOf(CapabilityTable{})

// NewDependencies builds an accessor from declared read and write identities.
// An identity may appear only once across both lists, and the capability
// table may never be written.
func NewDependencies(reads, writes []ResourceID) (*Dependencies, error) {
	d := &Dependencies{
		reads:  make([]ResourceID, 0, len(reads)),
		writes: append([]ResourceID(nil), writes...),
	}

	for _, id := range reads {
		if id == capabilityTableID {
			continue // always read implicitly
		}
		if d.readMask.Has(id) {
			return nil, fmt.Errorf("%w: %s read twice", ErrSelfConflict, id)
		}
		d.readMask.Set(id)
		d.reads = append(d.reads, id)
	}

	for _, id := range d.writes {
		if id == capabilityTableID {
			return nil, fmt.Errorf("%w: the capability table cannot be written", ErrSelfConflict)
		}
		if d.writeMask.Has(id) {
			return nil, fmt.Errorf("%w: %s written twice", ErrSelfConflict, id)
		}
		if d.readMask.Has(id) {
			return nil, fmt.Errorf("%w: %s both read and written", ErrSelfConflict, id)
		}
		d.writeMask.Set(id)
	}

	return d, nil
}

// Reads returns the declared reads followed by the capability table identity.
func (d *Dependencies) Reads() []ResourceID {
	reads := make([]ResourceID, 0, len(d.reads)+1)
	reads = append(reads, d.reads...)
	return append(reads, capabilityTableID)
}

// DeclaredReads returns the declared reads without the capability table.
func (d *Dependencies) DeclaredReads() []ResourceID {
	return append([]ResourceID(nil), d.reads...)
}

// Writes returns the declared writes verbatim.
func (d *Dependencies) Writes() []ResourceID {
	return append([]ResourceID(nil), d.writes...)
}

// Touches reports whether the accessor reads or writes id.
func (d *Dependencies) Touches(id ResourceID) bool {
	return id == capabilityTableID || d.readMask.Has(id) || d.writeMask.Has(id)
}

// Conflicts returns true if this access pattern conflicts with another:
// either side writes something the other reads or writes.
// The implicit capability table read never conflicts since it cannot be written.
func (d *Dependencies) Conflicts(other *Dependencies) bool {
	if d.writeMask.ContainsAny(other.writeMask) {
		return true
	}
	if d.writeMask.ContainsAny(other.readMask) {
		return true
	}
	return d.readMask.ContainsAny(other.writeMask)
}

// String returns a compact description for logs.
func (d *Dependencies) String() string {
	return fmt.Sprintf("reads=%v writes=%v", d.reads, d.writes)
}
