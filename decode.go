package attrskema

import (
	"reflect"

	"golang.org/x/sync/errgroup"
)

// recordPlan is a compiled record schema: one synthesized decoder/encoder
// pair per declared field, in declaration order.
type recordPlan struct {
	schema   *RecordSchema
	goType   reflect.Type
	dynamic  bool // bound to map[string]any
	parallel int
	fields   []fieldPlan
}

type fieldPlan struct {
	name   string
	index  int // struct field index; -1 for dynamic records
	decode decodeFn
	encode encodeFn
}

func (p *recordPlan) newValue() reflect.Value {
	if p.dynamic {
		return reflect.MakeMapWithSize(p.goType, len(p.fields))
	}
	return reflect.New(p.goType).Elem()
}

func (p *recordPlan) set(rec reflect.Value, f *fieldPlan, v reflect.Value) {
	if p.dynamic {
		// Optional None stays absent rather than stored as nil.
		if v.Kind() == reflect.Interface && v.IsNil() {
			return
		}
		rec.SetMapIndex(reflect.ValueOf(f.name), v)
		return
	}
	rec.Field(f.index).Set(v)
}

func (p *recordPlan) lookup(m AttributeMap, f *fieldPlan) (StoredValue, error) {
	v, ok := m[f.name]
	if !ok {
		return nil, NewMissingField(p.schema.Name, f.name)
	}
	return v, nil
}

// decode runs the Record Decoder: every field must decode, and the error of
// the first failing field in declaration order is returned.
func (p *recordPlan) decode(m AttributeMap) (reflect.Value, error) {
	if p.parallel > 1 && len(p.fields) > 1 {
		return p.decodeParallel(m)
	}
	out := p.newValue()
	for i := range p.fields {
		f := &p.fields[i]
		v, lookupErr := p.lookup(m, f)
		rv, err := f.decode(v, lookupErr)
		if err != nil {
			return reflect.Value{}, err
		}
		p.set(out, f, rv)
	}
	return out, nil
}

// decodeParallel evaluates fields concurrently. Completion order never decides
// the reported error: errors are collected per field and scanned in
// declaration order.
func (p *recordPlan) decodeParallel(m AttributeMap) (reflect.Value, error) {
	vals := make([]reflect.Value, len(p.fields))
	errs := make([]error, len(p.fields))
	var g errgroup.Group
	g.SetLimit(p.parallel)
	for i := range p.fields {
		g.Go(func() error {
			f := &p.fields[i]
			v, lookupErr := p.lookup(m, f)
			vals[i], errs[i] = f.decode(v, lookupErr)
			return nil
		})
	}
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return reflect.Value{}, err
		}
	}
	out := p.newValue()
	for i := range p.fields {
		p.set(out, &p.fields[i], vals[i])
	}
	return out, nil
}
