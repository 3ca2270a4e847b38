package secs

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	lua "github.com/yuin/gopher-lua"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = validator.New()

// ScriptDecl is the data-driven declaration of one script system:
//
//	system {
//	    name   = "gravity",
//	    stage  = "default",
//	    reads  = { "delta_time" },
//	    writes = { "velocity" },
//	    run    = function(bundle) ... end,
//	}
type ScriptDecl struct {
	Name   string         `validate:"required"`
	Stage  Stage          `validate:"gte=0,lt=3"`
	Reads  []string       `validate:"unique,dive,required"`
	Writes []string       `validate:"unique,dive,required"`
	Run    *lua.LFunction `validate:"-"`
}

// declFromTable converts the table passed to system{...} into a ScriptDecl.
// The name may be empty here; load assigns a positional default.
func declFromTable(tbl *lua.LTable) (ScriptDecl, error) {
	var decl ScriptDecl

	switch name := tbl.RawGetString("name").(type) {
	case lua.LString:
		decl.Name = string(name)
	case *lua.LNilType:
	default:
		return decl, fmt.Errorf("name must be a string, got %s", name.Type())
	}

	decl.Stage = Default
	switch stage := tbl.RawGetString("stage").(type) {
	case lua.LString:
		s, err := ParseStage(string(stage))
		if err != nil {
			return decl, err
		}
		decl.Stage = s
	case *lua.LNilType:
	default:
		return decl, fmt.Errorf("stage must be a string, got %s", stage.Type())
	}

	var err error
	if decl.Reads, err = stringList(tbl.RawGetString("reads"), "reads"); err != nil {
		return decl, err
	}
	if decl.Writes, err = stringList(tbl.RawGetString("writes"), "writes"); err != nil {
		return decl, err
	}

	fn, ok := tbl.RawGetString("run").(*lua.LFunction)
	if !ok {
		return decl, fmt.Errorf("run must be a function")
	}
	decl.Run = fn

	return decl, nil
}

// stringList converts an optional Lua array of strings.
func stringList(lv lua.LValue, field string) ([]string, error) {
	if lv == lua.LNil {
		return nil, nil
	}
	tbl, ok := lv.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s must be a list of names, got %s", field, lv.Type())
	}

	out := make([]string, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		s, ok := tbl.RawGetInt(i).(lua.LString)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string", field, i)
		}
		out = append(out, string(s))
	}
	return out, nil
}

// Validate checks the structural rules of a declaration.
func (d ScriptDecl) Validate() error {
	if d.Run == nil {
		return fmt.Errorf("%w: %s: run must be a function", ErrInvalidDeclaration, d.Name)
	}
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDeclaration, err)
	}
	return nil
}
