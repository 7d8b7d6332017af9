package dsl

import (
	"reflect"

	"github.com/reoring/attrskema"
)

// RecordBuilder declares the fields of a record bound to T.
//
// The schema it builds is shared: Shape and Schema return references to the
// same *attrskema.RecordSchema, so fields added later (including fields that
// refer back to the record) are seen by every reference.
type RecordBuilder[T any] struct {
	rs *attrskema.RecordSchema
}

// Record starts a record schema for the struct type T.
func Record[T any](name string) *RecordBuilder[T] {
	return &RecordBuilder[T]{rs: &attrskema.RecordSchema{Name: name, GoType: reflect.TypeFor[T]()}}
}

// DynamicRecord starts a record schema decoded into map[string]any.
func DynamicRecord(name string) *RecordBuilder[map[string]any] {
	return &RecordBuilder[map[string]any]{rs: &attrskema.RecordSchema{Name: name, GoType: attrskema.DynamicRecord}}
}

// Field appends a field. Declaration order is decode order.
func (b *RecordBuilder[T]) Field(name string, s attrskema.Shape) *RecordBuilder[T] {
	b.rs.Fields = append(b.rs.Fields, attrskema.Field{Name: name, Shape: s})
	return b
}

// Schema returns the record schema.
func (b *RecordBuilder[T]) Schema() *attrskema.RecordSchema { return b.rs }

// Shape returns a record shape referring to this builder's schema.
func (b *RecordBuilder[T]) Shape() attrskema.Shape { return RecordOf(b.rs) }

// Bind compiles the schema against reg.
func (b *RecordBuilder[T]) Bind(reg *attrskema.Registry, opts ...attrskema.CompileOption) (*attrskema.Codec[T], error) {
	return attrskema.Compile[T](reg, b.rs, opts...)
}

// MustBind is like Bind but panics on error.
func (b *RecordBuilder[T]) MustBind(reg *attrskema.Registry, opts ...attrskema.CompileOption) *attrskema.Codec[T] {
	c, err := b.Bind(reg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}
