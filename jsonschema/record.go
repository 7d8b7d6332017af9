// Package jsonschema exports attrskema record schemas as JSON Schema
// (draft 2020-12). The schema describes a decoded value rendered as JSON:
// records are objects whose optional fields may be absent, dynamic union
// values are {"variant": name, "value": payload}, and primitives use their
// JSON form (bytes as base64, time.Time as date-time, text marshalers as
// strings).
package jsonschema

import (
	"encoding"
	"fmt"
	"reflect"
	"time"

	json "github.com/goccy/go-json"

	"github.com/reoring/attrskema"
	"github.com/reoring/attrskema/codec"
)

// Draft is the $schema URI written on the root schema.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Option configures FromRecord.
type Option func(*generator)

// WithPrimitive overrides (or adds) the schema used for primitive type t.
func WithPrimitive(t reflect.Type, s *Schema) Option {
	return func(g *generator) { g.prims[t] = s }
}

type generator struct {
	prims map[reflect.Type]*Schema
	defs  map[string]*Schema
	owner map[string]any // name -> *RecordSchema or *UnionSchema
}

// FromRecord returns a root schema referring to rs. Every named record and
// union reachable from rs is emitted once under $defs.
func FromRecord(rs *attrskema.RecordSchema, opts ...Option) (*Schema, error) {
	if rs == nil {
		return nil, fmt.Errorf("jsonschema: nil record schema")
	}
	g := &generator{
		prims: map[reflect.Type]*Schema{},
		defs:  map[string]*Schema{},
		owner: map[string]any{},
	}
	for _, o := range opts {
		o(g)
	}
	ref, err := g.record(rs)
	if err != nil {
		return nil, err
	}
	return &Schema{Schema: Draft, Ref: ref.Ref, Defs: g.defs}, nil
}

func defRef(name string) *Schema { return &Schema{Ref: "#/$defs/" + name} }

// claim reserves a $defs name for owner. It reports false when owner already
// holds the name.
func (g *generator) claim(name string, owner any) (bool, error) {
	if prev, ok := g.owner[name]; ok {
		if prev != owner {
			return false, fmt.Errorf("jsonschema: two different schemas are named %q", name)
		}
		return false, nil
	}
	g.owner[name] = owner
	return true, nil
}

func (g *generator) record(rs *attrskema.RecordSchema) (*Schema, error) {
	fresh, err := g.claim(rs.Name, rs)
	if err != nil || !fresh {
		return defRef(rs.Name), err
	}
	// Placeholder first so self references resolve to the same entry.
	obj := &Schema{Title: rs.Name, Type: "object", Properties: map[string]*Schema{}, AdditionalProperties: false}
	g.defs[rs.Name] = obj
	for _, f := range rs.Fields {
		s, err := g.shape(f.Shape)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", rs.Name, f.Name, err)
		}
		obj.Properties[f.Name] = s
		if f.Shape.Kind != attrskema.ShapeOptional {
			obj.Required = append(obj.Required, f.Name)
		}
	}
	return defRef(rs.Name), nil
}

func (g *generator) union(us *attrskema.UnionSchema) (*Schema, error) {
	fresh, err := g.claim(us.Name, us)
	if err != nil || !fresh {
		return defRef(us.Name), err
	}
	u := &Schema{Title: us.Name}
	g.defs[us.Name] = u
	dynamic := us.GoType == attrskema.DynamicVariant
	for _, v := range us.Variants {
		s, err := g.shape(v.Shape)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", us.Name, v.Name, err)
		}
		if dynamic {
			s = &Schema{
				Type: "object",
				Properties: map[string]*Schema{
					"variant": {Const: v.Name},
					"value":   s,
				},
				Required:             []string{"variant", "value"},
				AdditionalProperties: false,
			}
		}
		u.OneOf = append(u.OneOf, s)
	}
	return defRef(us.Name), nil
}

func (g *generator) shape(s attrskema.Shape) (*Schema, error) {
	switch s.Kind {
	case attrskema.ShapePrimitive:
		return g.primitive(s.Type)
	case attrskema.ShapeEnum:
		return &Schema{Type: "string", Enum: append([]string(nil), s.Symbols...)}, nil
	case attrskema.ShapeRecord:
		if s.Record == nil {
			return nil, fmt.Errorf("record shape has no schema")
		}
		return g.record(s.Record)
	case attrskema.ShapeUnion:
		if s.Union == nil {
			return nil, fmt.Errorf("union shape has no schema")
		}
		return g.union(s.Union)
	case attrskema.ShapeOptional, attrskema.ShapeSequence, attrskema.ShapeMapping:
		if s.Elem == nil {
			return nil, fmt.Errorf("%s shape has no element", s.Kind)
		}
		elem, err := g.shape(*s.Elem)
		if err != nil {
			return nil, err
		}
		switch s.Kind {
		case attrskema.ShapeOptional:
			return elem, nil
		case attrskema.ShapeSequence:
			return &Schema{Type: "array", Items: elem}, nil
		default:
			return &Schema{Type: "object", AdditionalProperties: elem}, nil
		}
	default:
		return nil, fmt.Errorf("invalid shape kind %d", int(s.Kind))
	}
}

var (
	timeType      = reflect.TypeFor[time.Time]()
	unixTimeType  = reflect.TypeFor[codec.UnixTime]()
	bytesType     = reflect.TypeFor[[]byte]()
	textMarshaler = reflect.TypeFor[encoding.TextMarshaler]()
	jsonMarshaler = reflect.TypeFor[json.Marshaler]()
)

func (g *generator) primitive(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, fmt.Errorf("primitive shape has no type")
	}
	if s, ok := g.prims[t]; ok {
		cp := *s
		return &cp, nil
	}
	switch {
	case t == timeType:
		return &Schema{Type: "string", Format: "date-time"}, nil
	case t == unixTimeType:
		return &Schema{Type: "integer"}, nil
	case t == bytesType:
		return &Schema{Type: "string", ContentEncoding: "base64"}, nil
	case t.Implements(jsonMarshaler):
		// Custom JSON form; nothing is known about its shape.
		return &Schema{}, nil
	case t.Implements(textMarshaler):
		return &Schema{Type: "string"}, nil
	}
	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}, nil
	case reflect.Bool:
		return &Schema{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}, nil
	default:
		return nil, fmt.Errorf("no JSON Schema for primitive %s", t)
	}
}
