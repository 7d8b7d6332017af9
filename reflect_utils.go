package attrskema

import (
	"reflect"
	"strings"
)

// ResolveStructKey applies the repository-wide rule to resolve a struct field's
// attribute name.
// Priority: attr:"name" > dynamodbav:"name" > json:"name" > field name; "-"
// disables the field.
func ResolveStructKey(sf reflect.StructField) string {
	for _, tag := range []string{"attr", "dynamodbav", "json"} {
		v, ok := sf.Tag.Lookup(tag)
		if !ok || v == "" {
			continue
		}
		if v == "-" {
			return "-"
		}
		if i := strings.IndexByte(v, ','); i >= 0 {
			v = v[:i]
		}
		if v != "" {
			return v
		}
	}
	return sf.Name
}

// structKeys maps attribute names to exported field indexes of struct type t.
func structKeys(t reflect.Type) map[string]int {
	out := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := ResolveStructKey(sf)
		if name == "-" || name == "" {
			continue
		}
		if _, dup := out[name]; dup {
			continue
		}
		out[name] = i
	}
	return out
}

var (
	anyType    = reflect.TypeFor[any]()
	stringType = reflect.TypeFor[string]()
)

// NaturalType returns the Go type a shape decodes to when it is not bound to
// a more specific type: the primitive type, the record or union GoType, and
// *T, []T or map[string]T for containers.
func (s Shape) NaturalType() (reflect.Type, error) {
	switch s.Kind {
	case ShapePrimitive:
		if s.Type == nil {
			return nil, &SchemaError{Detail: "primitive shape has no type"}
		}
		return s.Type, nil
	case ShapeEnum:
		if s.Type == nil {
			return stringType, nil
		}
		return s.Type, nil
	case ShapeRecord:
		if s.Record == nil || s.Record.GoType == nil {
			return nil, &SchemaError{Detail: "record shape has no Go type"}
		}
		return s.Record.GoType, nil
	case ShapeUnion:
		if s.Union == nil || s.Union.GoType == nil {
			return nil, &SchemaError{Detail: "union shape has no Go type"}
		}
		return s.Union.GoType, nil
	case ShapeOptional, ShapeSequence, ShapeMapping:
		if s.Elem == nil {
			return nil, &SchemaError{Detail: s.Kind.String() + " shape has no element"}
		}
		et, err := s.Elem.NaturalType()
		if err != nil {
			return nil, err
		}
		switch s.Kind {
		case ShapeOptional:
			return reflect.PointerTo(et), nil
		case ShapeSequence:
			return reflect.SliceOf(et), nil
		default:
			return reflect.MapOf(stringType, et), nil
		}
	default:
		return nil, &SchemaError{Detail: "invalid shape kind"}
	}
}
