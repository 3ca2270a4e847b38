package secs

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	lua "github.com/yuin/gopher-lua"
)

// number is the set of resource types exposed to scripts as Lua numbers.
type number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Number exposes a numeric resource as a Lua number.
func Number[T number]() Narrowing {
	return NarrowWith(func(p *T) MutableCapability { return numberView[T]{p} })
}

type numberView[T number] struct{ p *T }

func (v numberView[T]) Read(*lua.LState) lua.LValue { return lua.LNumber(*v.p) }

func (v numberView[T]) Write(_ *lua.LState, lv lua.LValue) error {
	n, ok := lv.(lua.LNumber)
	if !ok {
		return fmt.Errorf("expected number, got %s", lv.Type())
	}
	*v.p = T(n)
	return nil
}

// Text exposes a string resource as a Lua string.
func Text[T ~string]() Narrowing {
	return NarrowWith(func(p *T) MutableCapability { return textView[T]{p} })
}

type textView[T ~string] struct{ p *T }

func (v textView[T]) Read(*lua.LState) lua.LValue { return lua.LString(*v.p) }

func (v textView[T]) Write(_ *lua.LState, lv lua.LValue) error {
	s, ok := lv.(lua.LString)
	if !ok {
		return fmt.Errorf("expected string, got %s", lv.Type())
	}
	*v.p = T(s)
	return nil
}

// Flag exposes a boolean resource as a Lua boolean.
func Flag[T ~bool]() Narrowing {
	return NarrowWith(func(p *T) MutableCapability { return flagView[T]{p} })
}

type flagView[T ~bool] struct{ p *T }

func (v flagView[T]) Read(*lua.LState) lua.LValue { return lua.LBool(*v.p) }

func (v flagView[T]) Write(_ *lua.LState, lv lua.LValue) error {
	b, ok := lv.(lua.LBool)
	if !ok {
		return fmt.Errorf("expected boolean, got %s", lv.Type())
	}
	*v.p = T(b)
	return nil
}

// Seconds exposes a duration resource as a Lua number of seconds.
func Seconds[T ~int64]() Narrowing {
	return NarrowWith(func(p *T) MutableCapability { return secondsView[T]{p} })
}

type secondsView[T ~int64] struct{ p *T }

func (v secondsView[T]) Read(*lua.LState) lua.LValue {
	return lua.LNumber(time.Duration(*v.p).Seconds())
}

func (v secondsView[T]) Write(_ *lua.LState, lv lua.LValue) error {
	n, ok := lv.(lua.LNumber)
	if !ok {
		return fmt.Errorf("expected seconds, got %s", lv.Type())
	}
	*v.p = T(float64(n) * float64(time.Second))
	return nil
}

// Vector exposes a three component vector resource as a {x=, y=, z=} table.
func Vector[T ~[3]float64]() Narrowing {
	return NarrowWith(func(p *T) MutableCapability { return vectorView[T]{p} })
}

type vectorView[T ~[3]float64] struct{ p *T }

func (v vectorView[T]) Read(L *lua.LState) lua.LValue {
	return vecToTable(L, mgl64.Vec3(*v.p))
}

func (v vectorView[T]) Write(_ *lua.LState, lv lua.LValue) error {
	tbl, ok := lv.(*lua.LTable)
	if !ok {
		return fmt.Errorf("expected vector table, got %s", lv.Type())
	}
	vec, err := tableToVec(tbl)
	if err != nil {
		return err
	}
	*v.p = T(vec)
	return nil
}

// Self exposes a resource whose pointer already implements MutableCapability.
func Self[T any, P interface {
	*T
	MutableCapability
}]() Narrowing {
	return NarrowWith(func(p *T) MutableCapability { return P(p) })
}

const vectorTypeName = "secs.Vec3"

// registerVectorType installs the metatable shared by every vector table.
func registerVectorType(L *lua.LState) {
	mt := L.NewTypeMetatable(vectorTypeName)
	L.SetField(mt, "__add", L.NewFunction(vecBinary(mgl64.Vec3.Add)))
	L.SetField(mt, "__sub", L.NewFunction(vecBinary(mgl64.Vec3.Sub)))
	L.SetField(mt, "__unm", L.NewFunction(vecNegate))
	L.SetField(mt, "__eq", L.NewFunction(vecEqual))
	L.SetField(mt, "__tostring", L.NewFunction(vecString))
}

// vecToTable builds a {x=, y=, z=} table. It carries the vector metatable
// when the state has one registered.
func vecToTable(L *lua.LState, vec mgl64.Vec3) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("x", lua.LNumber(vec.X()))
	tbl.RawSetString("y", lua.LNumber(vec.Y()))
	tbl.RawSetString("z", lua.LNumber(vec.Z()))
	if mt := L.GetTypeMetatable(vectorTypeName); mt != lua.LNil {
		L.SetMetatable(tbl, mt)
	}
	return tbl
}

// checkVec reads argument n as a vector, raising an argument error otherwise.
func checkVec(L *lua.LState, n int) mgl64.Vec3 {
	vec, err := tableToVec(L.CheckTable(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return vec
}

func vecBinary(op func(a, b mgl64.Vec3) mgl64.Vec3) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(vecToTable(L, op(checkVec(L, 1), checkVec(L, 2))))
		return 1
	}
}

func vecNegate(L *lua.LState) int {
	L.Push(vecToTable(L, checkVec(L, 1).Mul(-1)))
	return 1
}

func vecEqual(L *lua.LState) int {
	L.Push(lua.LBool(checkVec(L, 1) == checkVec(L, 2)))
	return 1
}

func vecString(L *lua.LState) int {
	vec := checkVec(L, 1)
	L.Push(lua.LString(fmt.Sprintf("vec3(%g, %g, %g)", vec.X(), vec.Y(), vec.Z())))
	return 1
}

// tableToVec accepts both {x=, y=, z=} and {1, 2, 3} shapes.
func tableToVec(tbl *lua.LTable) (mgl64.Vec3, error) {
	var vec mgl64.Vec3
	for i, key := range [3]string{"x", "y", "z"} {
		lv := tbl.RawGetString(key)
		if lv == lua.LNil {
			lv = tbl.RawGetInt(i + 1)
		}
		n, ok := lv.(lua.LNumber)
		if !ok {
			return vec, fmt.Errorf("vector component %s: expected number, got %s", key, lv.Type())
		}
		vec[i] = float64(n)
	}
	return vec, nil
}
