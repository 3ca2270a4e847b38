package secs

// Bitmask is a 256-bit set of resource identities.
// It backs the access sets of Dependencies so conflict checks stay allocation free.
type Bitmask [4]uint64

// Set adds id to the set.
func (m *Bitmask) Set(id ResourceID) {
	m[id/64] |= 1 << (id % 64)
}

// Has reports whether id is in the set.
func (m *Bitmask) Has(id ResourceID) bool {
	return m[id/64]&(1<<(id%64)) != 0
}

// ContainsAny reports whether the two sets share any identity.
func (m *Bitmask) ContainsAny(other Bitmask) bool {
	return (m[0]&other[0] != 0) ||
		(m[1]&other[1] != 0) ||
		(m[2]&other[2] != 0) ||
		(m[3]&other[3] != 0)
}
