package secs

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

const resourceDataTypeName = "secs.ScriptResourceData"

// scriptResourceData is the bundle passed to a script callback.
// It only lives for one invocation: close() detaches it from the borrowed
// resources and any later use from Lua raises an error.
type scriptResourceData struct {
	unit string

	reads      []Capability
	readNames  []string
	writes     []MutableCapability
	writeNames []string

	closed bool
}

func (d *scriptResourceData) close() {
	d.closed = true
	d.reads = nil
	d.writes = nil
}

// lookup resolves a read key: a name (writes first, then reads) or a 1-based
// position counted over the reads followed by the writes.
func (d *scriptResourceData) lookup(key lua.LValue) (Capability, bool) {
	switch k := key.(type) {
	case lua.LString:
		for i, name := range d.writeNames {
			if name == string(k) {
				return d.writes[i], true
			}
		}
		for i, name := range d.readNames {
			if name == string(k) {
				return d.reads[i], true
			}
		}
	case lua.LNumber:
		i := int(k) - 1
		switch {
		case i < 0:
		case i < len(d.reads):
			return d.reads[i], true
		case i < len(d.reads)+len(d.writes):
			return d.writes[i-len(d.reads)], true
		}
	}
	return nil, false
}

// lookupMut resolves a write key: a name or a 1-based write position.
func (d *scriptResourceData) lookupMut(key lua.LValue) (MutableCapability, bool) {
	switch k := key.(type) {
	case lua.LString:
		for i, name := range d.writeNames {
			if name == string(k) {
				return d.writes[i], true
			}
		}
	case lua.LNumber:
		i := int(k) - 1
		if i >= 0 && i < len(d.writes) {
			return d.writes[i], true
		}
	}
	return nil, false
}

// registerBundleType installs the metatable shared by every bundle userdata.
func registerBundleType(L *lua.LState) {
	mt := L.NewTypeMetatable(resourceDataTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"read":  bundleRead,
		"write": bundleWrite,
	}))
	L.SetField(mt, "__tostring", L.NewFunction(bundleString))
}

// newBundle wraps data into a userdata with the bundle metatable.
func newBundle(L *lua.LState, data *scriptResourceData) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = data
	L.SetMetatable(ud, L.GetTypeMetatable(resourceDataTypeName))
	return ud
}

func checkBundle(L *lua.LState) *scriptResourceData {
	ud := L.CheckUserData(1)
	data, ok := ud.Value.(*scriptResourceData)
	if !ok {
		L.ArgError(1, "resource bundle expected")
		return nil
	}
	if data.closed {
		L.RaiseError("secs: bundle of %s used after its run returned", data.unit)
		return nil
	}
	return data
}

// bundleRead implements bundle:read([key]).
// Without a key it returns a table of every visible value keyed by name.
func bundleRead(L *lua.LState) int {
	data := checkBundle(L)

	if L.GetTop() < 2 {
		tbl := L.NewTable()
		for i, name := range data.readNames {
			tbl.RawSetString(name, data.reads[i].Read(L))
		}
		for i, name := range data.writeNames {
			tbl.RawSetString(name, data.writes[i].Read(L))
		}
		L.Push(tbl)
		return 1
	}

	key := L.Get(2)
	view, ok := data.lookup(key)
	if !ok {
		L.ArgError(2, fmt.Sprintf("%s does not read %s", data.unit, key.String()))
		return 0
	}
	L.Push(view.Read(L))
	return 1
}

// bundleWrite implements bundle:write(key, value).
// Without arguments it returns the number of writable views.
func bundleWrite(L *lua.LState) int {
	data := checkBundle(L)

	if L.GetTop() < 2 {
		L.Push(lua.LNumber(len(data.writes)))
		return 1
	}

	key := L.Get(2)
	view, ok := data.lookupMut(key)
	if !ok {
		L.ArgError(2, fmt.Sprintf("%s does not write %s", data.unit, key.String()))
		return 0
	}
	if err := view.Write(L, L.Get(3)); err != nil {
		L.RaiseError("secs: write %s: %v", key.String(), err)
	}
	return 0
}

func bundleString(L *lua.LState) int {
	ud := L.CheckUserData(1)
	data, _ := ud.Value.(*scriptResourceData)
	if data == nil {
		L.Push(lua.LString("ScriptResourceData"))
		return 1
	}
	L.Push(lua.LString(fmt.Sprintf("ScriptResourceData(%s, reads=%d, writes=%d)",
		data.unit, len(data.readNames), len(data.writeNames))))
	return 1
}
