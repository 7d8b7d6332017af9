package attrskema

import (
	"fmt"
	"reflect"
)

// Primitive is the conversion capability for one primitive Go type: an
// extractor (stored value -> P) and an encoder (P -> stored value). Build one
// with PrimitiveOf.
type Primitive struct {
	goType  reflect.Type
	extract func(StoredValue) (reflect.Value, error)
	encode  func(reflect.Value) (StoredValue, bool)
}

// PrimitiveOf builds the capability for P.
//
// extract should return a *DecodingError (NewExtractionFailure, or
// NewMissingField for backend null markers) or any other error, which the
// engine reports as ExtractionFailure. encode returns false when the value has
// no stored representation; the field is then omitted.
func PrimitiveOf[P any](extract func(StoredValue) (P, error), encode func(P) (StoredValue, bool)) Primitive {
	t := reflect.TypeFor[P]()
	return Primitive{
		goType: t,
		extract: func(v StoredValue) (reflect.Value, error) {
			p, err := extract(v)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&p).Elem(), nil
		},
		encode: func(rv reflect.Value) (StoredValue, bool) {
			p, ok := rv.Interface().(P)
			if !ok {
				return nil, false
			}
			return encode(p)
		},
	}
}

// Type reports the Go type the capability converts.
func (p Primitive) Type() reflect.Type { return p.goType }

func (p Primitive) valid() bool { return p.goType != nil && p.extract != nil && p.encode != nil }

// Extract runs the extractor and returns the value as P's reflect.Value.
func (p Primitive) Extract(v StoredValue) (reflect.Value, error) { return p.extract(v) }

// Encode runs the encoder on a value of P.
func (p Primitive) Encode(v any) (StoredValue, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Type() != p.goType {
		return nil, false
	}
	return p.encode(rv)
}

func (p Primitive) String() string { return fmt.Sprintf("primitive(%s)", p.goType) }
