// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bitfield

import (
	"errors"
	"fmt"
)

// Values constrains the values a field accepts on Set.
type Values interface {
	Contains(v uint16) bool
}

// Set is an explicit list of accepted values.
type Set []uint16

// Contains implements Values.
func (s Set) Contains(v uint16) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Range accepts values in [Min, Max].
type Range struct {
	Min uint16
	Max uint16
}

// Contains implements Values.
func (r Range) Contains(v uint16) bool {
	return v >= r.Min && v <= r.Max
}

// Field describes the bits [Start, End) of a 16-bit register.
type Field struct {
	Name  string
	Start uint8
	End   uint8
	// Valid restricts writes. nil accepts anything, truncated to the field
	// width.
	Valid Values
}

// Width returns the number of bits in the field.
func (f *Field) Width() uint8 {
	return f.End - f.Start
}

func (f *Field) mask() uint16 {
	return uint16(1<<f.Width()) - 1
}

// UnknownFieldError is returned when a field name is not part of a Register.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("bitfield: unknown field %q", e.Name)
}

// InvalidValueError is returned when a value is outside the field's Valid
// values.
type InvalidValueError struct {
	Name  string
	Value uint16
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("bitfield: invalid value %d for field %q", e.Value, e.Name)
}

// Register holds the cached raw content of a 16-bit register and the fields
// laid over it.
//
// It is not safe for concurrent use.
type Register struct {
	fields []Field
	index  map[string]int
	source uint16
}

// New returns a Register for the given field layout.
//
// Field names must be unique and every field must fit within 16 bits.
func New(fields []Field) (*Register, error) {
	r := &Register{fields: fields, index: make(map[string]int, len(fields))}
	for i := range fields {
		f := &fields[i]
		if f.Name == "" {
			return nil, errors.New("bitfield: empty field name")
		}
		if f.Start >= f.End || f.End > 16 {
			return nil, fmt.Errorf("bitfield: field %q has invalid range [%d, %d)", f.Name, f.Start, f.End)
		}
		if _, ok := r.index[f.Name]; ok {
			return nil, fmt.Errorf("bitfield: duplicate field %q", f.Name)
		}
		r.index[f.Name] = i
	}
	return r, nil
}

// Load replaces the cached register content, typically after a device read.
func (r *Register) Load(raw uint16) {
	r.source = raw
}

// Dump returns the cached register content, typically before a device write.
func (r *Register) Dump() uint16 {
	return r.source
}

// Fields returns a copy of the layout in declaration order.
func (r *Register) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// Has reports whether the field exists.
func (r *Register) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Get returns the value of a field decoded from the cached content.
func (r *Register) Get(name string) (uint16, error) {
	f, err := r.field(name)
	if err != nil {
		return 0, err
	}
	return (r.source >> f.Start) & f.mask(), nil
}

// Set stores value into a field of the cached content. Bits outside the field
// are left untouched.
func (r *Register) Set(name string, value uint16) error {
	f, err := r.field(name)
	if err != nil {
		return err
	}
	if f.Valid != nil && !f.Valid.Contains(value) {
		return &InvalidValueError{Name: name, Value: value}
	}
	m := f.mask() << f.Start
	r.source = (r.source &^ m) | ((value << f.Start) & m)
	return nil
}

// Bool returns true if the field is non-zero.
func (r *Register) Bool(name string) (bool, error) {
	v, err := r.Get(name)
	return v != 0, err
}

// SetBool stores 1 or 0 into the field.
func (r *Register) SetBool(name string, b bool) error {
	var v uint16
	if b {
		v = 1
	}
	return r.Set(name, v)
}

func (r *Register) field(name string) (*Field, error) {
	i, ok := r.index[name]
	if !ok {
		return nil, &UnknownFieldError{Name: name}
	}
	return &r.fields[i], nil
}

// String returns the fields and their values.
func (r *Register) String() string {
	s := fmt.Sprintf("0x%04X{", r.source)
	for i := range r.fields {
		f := &r.fields[i]
		if i != 0 {
			s += " "
		}
		s += fmt.Sprintf("%s:%d", f.Name, (r.source>>f.Start)&f.mask())
	}
	return s + "}"
}
