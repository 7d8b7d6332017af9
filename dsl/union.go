package dsl

import (
	"reflect"

	"github.com/reoring/attrskema"
)

// UnionBuilder declares the variants of a union decoded into U.
type UnionBuilder[U any] struct {
	us *attrskema.UnionSchema
}

// Union starts a union schema. U must be an interface implemented by the
// natural Go type of every variant payload.
func Union[U any](name string) *UnionBuilder[U] {
	return &UnionBuilder[U]{us: &attrskema.UnionSchema{Name: name, GoType: reflect.TypeFor[U]()}}
}

// DynamicUnion starts a union decoded into attrskema.DynamicValue, which
// records the name of the variant that matched.
func DynamicUnion(name string) *UnionBuilder[attrskema.DynamicValue] {
	return &UnionBuilder[attrskema.DynamicValue]{us: &attrskema.UnionSchema{Name: name, GoType: attrskema.DynamicVariant}}
}

// Variant appends a variant. The first variant whose payload decodes wins,
// so declare narrower payloads first.
func (b *UnionBuilder[U]) Variant(name string, s attrskema.Shape) *UnionBuilder[U] {
	b.us.Variants = append(b.us.Variants, attrskema.Variant{Name: name, Shape: s})
	return b
}

// Schema returns the union schema.
func (b *UnionBuilder[U]) Schema() *attrskema.UnionSchema { return b.us }

// Shape returns a union shape referring to this builder's schema.
func (b *UnionBuilder[U]) Shape() attrskema.Shape { return UnionOf(b.us) }
