package secs

import (
	"sync"
)

// World is the shared resource store.
// It holds one value per resource type and enforces the borrow rule:
// one exclusive borrow XOR any number of shared borrows per identity.
// A conflicting borrow request panics with *BorrowError.
type World struct {
	mu    sync.RWMutex
	cells map[ResourceID]*cell
}

// cell holds a single resource and its borrow state.
type cell struct {
	value any // pointer to the resource

	mu      sync.Mutex
	readers int
	writer  bool
}

// BorrowState describes the outstanding borrows of one resource.
type BorrowState struct {
	Readers int
	Writer  bool
}

// NewWorld creates an empty resource store.
func NewWorld() *World {
	return &World{
		cells: make(map[ResourceID]*cell),
	}
}

// Insert stores res as the resource of type T, replacing any previous value.
func Insert[T any](w *World, res *T) ResourceID {
	id := IdentityOf[T]()
	w.insert(id, res)
	return id
}

// insert stores a resource pointer under id.
func (w *World) insert(id ResourceID, res any) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if c, ok := w.cells[id]; ok {
		c.mu.Lock()
		busy := c.readers > 0 || c.writer
		c.mu.Unlock()
		if busy {
			panic(&BorrowError{ID: id, Mode: "replace"})
		}
	}
	w.cells[id] = &cell{value: res}
}

// Has reports whether a resource with the given identity was ever inserted.
func (w *World) Has(id ResourceID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.cells[id]
	return ok
}

// Resource returns the stored resource of type T without borrowing it.
// Intended for setup code and assertions outside the tick loop.
func Resource[T any](w *World) (*T, bool) {
	c := w.cell(IdentityOf[T]())
	if c == nil {
		return nil, false
	}
	res, ok := c.value.(*T)
	return res, ok
}

// Borrows returns a snapshot of every resource that currently has outstanding borrows.
func (w *World) Borrows() map[ResourceID]BorrowState {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make(map[ResourceID]BorrowState)
	for id, c := range w.cells {
		c.mu.Lock()
		if c.readers > 0 || c.writer {
			out[id] = BorrowState{Readers: c.readers, Writer: c.writer}
		}
		c.mu.Unlock()
	}
	return out
}

func (w *World) cell(id ResourceID) *cell {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cells[id]
}

// Ref is a shared borrow of one resource.
type Ref struct {
	id       ResourceID
	cell     *cell
	released bool
}

// RefMut is an exclusive borrow of one resource.
type RefMut struct {
	id       ResourceID
	cell     *cell
	released bool
}

// borrow takes a shared borrow. Returns false if the resource was never inserted.
func (w *World) borrow(id ResourceID) (*Ref, bool) {
	c := w.cell(id)
	if c == nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writer {
		panic(&BorrowError{ID: id, Mode: "shared"})
	}
	c.readers++
	return &Ref{id: id, cell: c}, true
}

// borrowMut takes an exclusive borrow. Returns false if the resource was never inserted.
func (w *World) borrowMut(id ResourceID) (*RefMut, bool) {
	c := w.cell(id)
	if c == nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writer || c.readers > 0 {
		panic(&BorrowError{ID: id, Mode: "exclusive"})
	}
	c.writer = true
	return &RefMut{id: id, cell: c}, true
}

// ID returns the identity of the borrowed resource.
func (r *Ref) ID() ResourceID { return r.id }

// Value returns the borrowed resource pointer.
func (r *Ref) Value() any { return r.cell.value }

// Release ends the borrow. Calling it more than once is a no-op.
func (r *Ref) Release() {
	if r.released {
		return
	}
	r.released = true
	r.cell.mu.Lock()
	r.cell.readers--
	r.cell.mu.Unlock()
}

// ID returns the identity of the borrowed resource.
func (r *RefMut) ID() ResourceID { return r.id }

// Value returns the borrowed resource pointer.
func (r *RefMut) Value() any { return r.cell.value }

// Release ends the borrow. Calling it more than once is a no-op.
func (r *RefMut) Release() {
	if r.released {
		return
	}
	r.released = true
	r.cell.mu.Lock()
	r.cell.writer = false
	r.cell.mu.Unlock()
}
