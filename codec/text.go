package codec

import (
	"encoding"

	json "github.com/goccy/go-json"

	"github.com/reoring/attrskema"
	"github.com/reoring/attrskema/attr"
)

// Text converts S <-> T using T's text marshaling. P is inferred from T:
//
//	codec.Text[ksuid.KSUID]()
func Text[T any, P interface {
	*T
	encoding.TextUnmarshaler
}]() attrskema.Primitive {
	return attrskema.PrimitiveOf(
		func(v attrskema.StoredValue) (T, error) {
			var out T
			s, ok := v.(attr.S)
			if !ok {
				return out, typeError("S", v)
			}
			if err := P(&out).UnmarshalText([]byte(s)); err != nil {
				return out, attrskema.NewExtractionFailure(err)
			}
			return out, nil
		},
		func(t T) (attrskema.StoredValue, bool) {
			m, ok := any(t).(encoding.TextMarshaler)
			if !ok {
				m, ok = any(&t).(encoding.TextMarshaler)
			}
			if !ok {
				return nil, false
			}
			b, err := m.MarshalText()
			if err != nil {
				return nil, false
			}
			return attr.S(b), true
		},
	)
}

// JSON converts S holding a JSON document <-> T. Values that fail to marshal
// have no stored representation.
func JSON[T any]() attrskema.Primitive {
	return attrskema.PrimitiveOf(
		func(v attrskema.StoredValue) (T, error) {
			var out T
			s, ok := v.(attr.S)
			if !ok {
				return out, typeError("S", v)
			}
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return out, attrskema.NewExtractionFailure(err)
			}
			return out, nil
		},
		func(t T) (attrskema.StoredValue, bool) {
			b, err := json.Marshal(t)
			if err != nil {
				return nil, false
			}
			return attr.S(b), true
		},
	)
}
