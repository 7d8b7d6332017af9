package attrskema

import (
	"reflect"

	"go.uber.org/zap"
)

var anyZero = reflect.Zero(anyType)

func (p *recordPlan) get(rec reflect.Value, f *fieldPlan) reflect.Value {
	if p.dynamic {
		if rec.IsNil() {
			return anyZero
		}
		v := rec.MapIndex(reflect.ValueOf(f.name))
		if !v.IsValid() {
			return anyZero
		}
		return v
	}
	return rec.Field(f.index)
}

// encode runs the Record Encoder. Omitted fields (Optional None) never produce
// a key. With strict set, a field that fails to encode fails the whole record
// (nested records are all-or-nothing); otherwise it is dropped.
func (p *recordPlan) encode(rec reflect.Value, strict bool) (AttributeMap, bool) {
	out := make(AttributeMap, len(p.fields))
	for i := range p.fields {
		f := &p.fields[i]
		sv, state := f.encode(p.get(rec, f))
		switch state {
		case encoded:
			out[f.name] = sv
		case failed:
			if strict {
				return nil, false
			}
			if ce := Logger().Check(zap.DebugLevel, "dropping unencodable field"); ce != nil {
				ce.Write(zap.String("record", p.schema.Name), zap.String("field", f.name))
			}
		}
	}
	return out, true
}
