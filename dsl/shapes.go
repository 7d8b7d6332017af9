package dsl

import (
	"reflect"
	"time"

	"github.com/reoring/attrskema"
)

// Prim is the shape of a primitive type P. The registry used at Bind time must
// hold a capability for P.
func Prim[P any]() attrskema.Shape {
	return attrskema.Shape{Kind: attrskema.ShapePrimitive, Type: reflect.TypeFor[P]()}
}

func String() attrskema.Shape  { return Prim[string]() }
func Bool() attrskema.Shape    { return Prim[bool]() }
func Int() attrskema.Shape     { return Prim[int]() }
func Int64() attrskema.Shape   { return Prim[int64]() }
func Float64() attrskema.Shape { return Prim[float64]() }
func Bytes() attrskema.Shape   { return Prim[[]byte]() }

// Time is the shape of time.Time; register codec.TimeRFC3339 (or another
// time.Time capability) to use it.
func Time() attrskema.Shape { return Prim[time.Time]() }

// Optional marks elem as optional. Absent attributes decode to nil; nil
// values encode to no attribute.
func Optional(elem attrskema.Shape) attrskema.Shape {
	return attrskema.Shape{Kind: attrskema.ShapeOptional, Elem: &elem}
}

// Sequence is a list of elem.
func Sequence(elem attrskema.Shape) attrskema.Shape {
	return attrskema.Shape{Kind: attrskema.ShapeSequence, Elem: &elem}
}

// Mapping is a string-keyed map of elem.
func Mapping(elem attrskema.Shape) attrskema.Shape {
	return attrskema.Shape{Kind: attrskema.ShapeMapping, Elem: &elem}
}

// Enum is a closed set of string symbols of type E.
func Enum[E ~string](symbols ...E) attrskema.Shape {
	ss := make([]string, len(symbols))
	for i, s := range symbols {
		ss[i] = string(s)
	}
	return attrskema.Shape{Kind: attrskema.ShapeEnum, Type: reflect.TypeFor[E](), Symbols: ss}
}

// RecordOf is a nested record shape.
func RecordOf(rs *attrskema.RecordSchema) attrskema.Shape {
	return attrskema.Shape{Kind: attrskema.ShapeRecord, Record: rs}
}

// UnionOf is a union shape.
func UnionOf(us *attrskema.UnionSchema) attrskema.Shape {
	return attrskema.Shape{Kind: attrskema.ShapeUnion, Union: us}
}
