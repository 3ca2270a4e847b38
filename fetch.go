package secs

// ScriptSystemData is the set of borrows taken for one invocation of one unit.
// Reads and Writes are positionally aligned with the accessor's declared order.
type ScriptSystemData struct {
	Capabilities *CapabilityTable

	capRef *Ref
	Reads  []*Ref
	Writes []*RefMut
}

// Fetch borrows exactly the resources declared by deps: the capability table
// and every read as shared borrows, then every write as an exclusive borrow,
// each in declaration order.
//
// A resource that was never inserted into w is a configuration error and
// panics with *MissingResourceError. Overlapping borrows panic with *BorrowError.
func Fetch(deps *Dependencies, w *World) *ScriptSystemData {
	if deps == nil {
		panic("secs: fetch without dependencies")
	}

	data := &ScriptSystemData{
		Reads:  make([]*Ref, 0, len(deps.reads)),
		Writes: make([]*RefMut, 0, len(deps.writes)),
	}

	// Borrows taken before a panic must not outlive it.
	complete := false
	defer func() {
		if !complete {
			data.Release()
		}
	}()

	capRef, ok := w.borrow(capabilityTableID)
	if !ok {
		panic(&MissingResourceError{ID: capabilityTableID})
	}
	data.capRef = capRef
	data.Capabilities = capRef.Value().(*CapabilityTable)

	for _, id := range deps.reads {
		ref, ok := w.borrow(id)
		if !ok {
			panic(&MissingResourceError{ID: id})
		}
		data.Reads = append(data.Reads, ref)
	}

	for _, id := range deps.writes {
		ref, ok := w.borrowMut(id)
		if !ok {
			panic(&MissingResourceError{ID: id})
		}
		data.Writes = append(data.Writes, ref)
	}

	complete = true
	return data
}

// Release ends every borrow held by data. Safe to call more than once.
func (data *ScriptSystemData) Release() {
	for _, ref := range data.Writes {
		ref.Release()
	}
	for _, ref := range data.Reads {
		ref.Release()
	}
	if data.capRef != nil {
		data.capRef.Release()
	}
}
