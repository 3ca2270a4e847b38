package secs

import (
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
)

// fieldMeta holds metadata about a single injectable resource field.
type fieldMeta struct {
	// Index is the struct field index
	Index int

	// Name is the field name for debugging
	Name string

	// ResourceType is the type the field points to
	ResourceType reflect.Type

	// Mutable indicates the field has write access
	Mutable bool

	// Slot is the position of the borrow in ScriptSystemData.Reads or Writes
	Slot int
}

// nativeUnit runs a Go system against resources injected from a fetch.
type nativeUnit struct {
	name   string
	stage  Stage
	system Runnable
	value  reflect.Value // the system struct, addressable
	fields []fieldMeta
	deps   *Dependencies
	logger *slog.Logger
}

// analyzeSystem inspects a native system and computes its accessor.
// Pointer fields tagged secs:"res" are shared reads; secs:"res,mut" are writes.
// All other fields are left alone and keep their values between runs.
func analyzeSystem(sys Runnable, stage Stage, logger *slog.Logger) (*nativeUnit, error) {
	if sys == nil {
		return nil, fmt.Errorf("%w: nil system", ErrInvalidDeclaration)
	}

	u := &nativeUnit{
		name:   fmt.Sprintf("%T", sys),
		stage:  stage,
		system: sys,
		logger: logger,
	}

	rv := reflect.ValueOf(sys)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		// Function systems and other non-struct systems have no resource fields.
		deps, err := NewDependencies(nil, nil)
		if err != nil {
			return nil, err
		}
		u.deps = deps
		return u, nil
	}

	u.value = rv.Elem()
	systemType := u.value.Type()
	u.name = systemType.Name()

	var reads, writes []ResourceID
	for i := 0; i < systemType.NumField(); i++ {
		field := systemType.Field(i)
		tag := parseTag(field.Tag.Get(tagName))
		if !tag.Resource {
			continue
		}

		if !field.IsExported() {
			return nil, fmt.Errorf("%w: %s.%s: resource fields must be exported", ErrInvalidDeclaration, u.name, field.Name)
		}
		if field.Type.Kind() != reflect.Ptr {
			return nil, fmt.Errorf("%w: %s.%s: resource fields must be pointers", ErrInvalidDeclaration, u.name, field.Name)
		}

		if field.Type.Elem() == capabilityTableType {
			return nil, fmt.Errorf("%w: %s.%s: the capability table cannot be injected", ErrInvalidDeclaration, u.name, field.Name)
		}

		meta := fieldMeta{
			Index:        i,
			Name:         field.Name,
			ResourceType: field.Type.Elem(),
			Mutable:      tag.Mutable,
		}

		id := identityOfType(meta.ResourceType)
		if tag.Mutable {
			meta.Slot = len(writes)
			writes = append(writes, id)
		} else {
			meta.Slot = len(reads)
			reads = append(reads, id)
		}
		u.fields = append(u.fields, meta)
	}

	deps, err := NewDependencies(reads, writes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.name, err)
	}
	u.deps = deps
	return u, nil
}

// Name returns the system type name.
func (u *nativeUnit) Name() string { return u.name }

// Stage returns the stage the unit runs in.
func (u *nativeUnit) Stage() Stage { return u.stage }

// Access returns the unit's accessor.
func (u *nativeUnit) Access() *Dependencies { return u.deps }

func (u *nativeUnit) execute(_ *Scheduler, w *World) {
	data := Fetch(u.deps, w)
	defer data.Release()

	// Execute with panic recovery
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("secs: panic in system",
				"unit", u.name,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	defer u.zero()
	u.inject(data)

	if err := u.system.Run(); err != nil {
		u.logger.Warn("secs: system error", "unit", u.name, "error", err)
	}
}

// inject points every resource field at its borrowed value.
func (u *nativeUnit) inject(data *ScriptSystemData) {
	for i := range u.fields {
		field := &u.fields[i]
		var res any
		if field.Mutable {
			res = data.Writes[field.Slot].Value()
		} else {
			res = data.Reads[field.Slot].Value()
		}
		u.value.Field(field.Index).Set(reflect.ValueOf(res))
	}
}

// zero clears resource fields so nothing outlives the borrow.
func (u *nativeUnit) zero() {
	for i := range u.fields {
		f := u.value.Field(u.fields[i].Index)
		f.Set(reflect.Zero(f.Type()))
	}
}
