// Package record reflects over a programmer-defined record type once at
// registration time and thereafter offers field access and functional
// (copy-with-overrides) update without further type assertions from callers.
//
// The approach is a reflection walk over the struct's exported fields,
// keyed by field name (struct tags are not read), limited to the single
// concern the table engine needs: get a field by name, and produce a
// replaced copy of a row with a set of fields overridden, the Go analogue of
// Python's dataclasses.replace.
package record

import (
	"fmt"
	"reflect"

	"github.com/acksell/ormtab/dberr"
)

// Descriptor describes the shape of a record type D: an aggregate of named,
// typed fields. Values of D are treated as immutable once stored; Replace
// always returns a new value.
type Descriptor struct {
	typ    reflect.Type
	fields map[string]int // field name -> StructField index
}

// Describe builds a Descriptor from a sample value of the record type.
// sample may be a struct or a pointer to one; it is only used to learn the
// type, not retained. Returns a *dberr.TypeErr if sample is not a struct.
func Describe(sample any) (*Descriptor, error) {
	t := reflect.TypeOf(sample)
	if t == nil {
		return nil, fmt.Errorf("record: sample is nil")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &dberr.TypeErr{Expected: "struct record type", Got: sample}
	}

	fields := make(map[string]int)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fields[f.Name] = i
	}
	return &Descriptor{typ: t, fields: fields}, nil
}

// Name returns the declared record type's name.
func (d *Descriptor) Name() string { return d.typ.Name() }

// Type returns the declared record type.
func (d *Descriptor) Type() reflect.Type { return d.typ }

// IsInstance reports whether row is a value of the declared record type D.
func (d *Descriptor) IsInstance(row any) bool {
	if row == nil {
		return false
	}
	return reflect.TypeOf(row) == d.typ
}

// FieldType returns the declared type of field, and whether it exists.
func (d *Descriptor) FieldType(field string) (reflect.Type, bool) {
	idx, ok := d.fields[field]
	if !ok {
		return nil, false
	}
	return d.typ.Field(idx).Type, true
}

// HasField reports whether field is a declared field of D.
func (d *Descriptor) HasField(field string) bool {
	_, ok := d.fields[field]
	return ok
}

// Get returns the value of field on row. row must be an instance of D.
func (d *Descriptor) Get(row any, field string) (any, error) {
	idx, ok := d.fields[field]
	if !ok {
		return nil, fmt.Errorf("record: unknown field %q on %s", field, d.typ)
	}
	v := reflect.ValueOf(row)
	if v.Type() != d.typ {
		return nil, fmt.Errorf("record: value %v is not a %s", row, d.typ)
	}
	return v.Field(idx).Interface(), nil
}

// Replace returns a copy of row with every field named in updates
// overridden to the paired value, leaving every other field untouched —
// the field-wise copy-with-overrides idiom behind Python's
// dataclasses.replace(old, **updates).
func (d *Descriptor) Replace(row any, updates map[string]any) (any, error) {
	v := reflect.ValueOf(row)
	if v.Type() != d.typ {
		return nil, fmt.Errorf("record: value %v is not a %s", row, d.typ)
	}
	out := reflect.New(d.typ).Elem()
	out.Set(v)
	for field, val := range updates {
		idx, ok := d.fields[field]
		if !ok {
			return nil, fmt.Errorf("record: unknown field %q on %s", field, d.typ)
		}
		fv := out.Field(idx)
		rv := reflect.ValueOf(val)
		if !rv.IsValid() {
			return nil, fmt.Errorf("record: nil value for field %q", field)
		}
		if !rv.Type().AssignableTo(fv.Type()) {
			if rv.Type().ConvertibleTo(fv.Type()) {
				rv = rv.Convert(fv.Type())
			} else {
				return nil, fmt.Errorf("record: value %v of type %s not assignable to field %q of type %s", val, rv.Type(), field, fv.Type())
			}
		}
		fv.Set(rv)
	}
	return out.Interface(), nil
}
