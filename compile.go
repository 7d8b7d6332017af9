package attrskema

import (
	"errors"
	"reflect"
	"sort"

	"go.uber.org/zap"
)

// decodeFn is a synthesized single-field decoder. lookupErr carries the
// result of the attribute lookup (MissingField when the key was absent).
type decodeFn func(v StoredValue, lookupErr error) (reflect.Value, error)

// encodeFn is a synthesized single-field encoder.
type encodeFn func(rv reflect.Value) (StoredValue, encodeState)

type encodeState uint8

const (
	encoded encodeState = iota
	omitted             // Optional None: no value, not a failure.
	failed              // no stored representation.
)

// site names the record field a synthesized function serves; errors built at
// runtime carry it.
type site struct {
	record string
	field  string
}

type recordKey struct {
	schema *RecordSchema
	goType reflect.Type
}

type compiler struct {
	reg       *Registry
	structure Structure
	opts      compileOptions
	records   map[recordKey]*recordPlan
}

func newCompiler(reg *Registry, opts compileOptions) *compiler {
	return &compiler{
		reg:       reg,
		structure: reg.Structure(),
		opts:      opts,
		records:   map[recordKey]*recordPlan{},
	}
}

// record compiles (or returns the cached plan of) a record schema. The plan is
// cached before its fields are compiled so recursive schemas terminate.
func (c *compiler) record(rs *RecordSchema, path []string) (*recordPlan, error) {
	if rs == nil {
		return nil, schemaErrorf(path, "nil record schema")
	}
	if rs.GoType == nil {
		return nil, schemaErrorf(path, "record %q has no Go type", rs.Name)
	}
	key := recordKey{schema: rs, goType: rs.GoType}
	if p, ok := c.records[key]; ok {
		return p, nil
	}
	p := &recordPlan{
		schema:   rs,
		goType:   rs.GoType,
		parallel: c.opts.parallelFields,
		fields:   make([]fieldPlan, 0, len(rs.Fields)),
	}
	var keys map[string]int
	switch {
	case rs.GoType == DynamicRecord:
		p.dynamic = true
	case rs.GoType.Kind() == reflect.Struct:
		keys = structKeys(rs.GoType)
	default:
		return nil, schemaErrorf(path, "record %q: Go type %s is neither a struct nor map[string]any", rs.Name, rs.GoType)
	}
	c.records[key] = p

	seen := make(map[string]struct{}, len(rs.Fields))
	for _, f := range rs.Fields {
		fpath := childPath(path, f.Name)
		if f.Name == "" {
			return nil, schemaErrorf(fpath, "empty field name")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, schemaErrorf(fpath, "duplicate field name")
		}
		seen[f.Name] = struct{}{}

		fp := fieldPlan{name: f.Name, index: -1}
		target := anyType
		if !p.dynamic {
			idx, ok := keys[f.Name]
			if !ok {
				return nil, schemaErrorf(fpath, "no exported field of %s maps to attribute %q", rs.GoType, f.Name)
			}
			fp.index = idx
			target = rs.GoType.Field(idx).Type
		}
		dec, enc, err := c.shape(f.Shape, target, site{record: rs.Name, field: f.Name}, fpath)
		if err != nil {
			delete(c.records, key)
			return nil, err
		}
		fp.decode, fp.encode = dec, enc
		p.fields = append(p.fields, fp)
	}
	Logger().Debug("compiled record plan",
		zap.String("record", rs.Name),
		zap.Stringer("go_type", rs.GoType),
		zap.Int("fields", len(p.fields)),
		zap.Bool("dynamic", p.dynamic))
	return p, nil
}

// shape synthesizes the decoder/encoder pair for s bound to Go type target.
func (c *compiler) shape(s Shape, target reflect.Type, st site, path []string) (decodeFn, encodeFn, error) {
	if target == nil {
		return nil, nil, schemaErrorf(path, "nil target type")
	}
	// Interfaces (dynamic records, any-typed fields) hold the shape's natural
	// type. Optional and Union bind interfaces themselves.
	if target.Kind() == reflect.Interface && s.Kind != ShapeOptional && s.Kind != ShapeUnion {
		nt, err := s.NaturalType()
		if err != nil {
			return nil, nil, prefixSchemaError(path, err)
		}
		if !nt.Implements(target) {
			return nil, nil, schemaErrorf(path, "%s does not implement %s", nt, target)
		}
		dec, enc, err := c.shape(s, nt, st, path)
		if err != nil {
			return nil, nil, err
		}
		return boxDecode(dec, target), unboxEncode(enc, nt), nil
	}

	switch s.Kind {
	case ShapePrimitive:
		return c.primitive(s, target, st, path)
	case ShapeRecord:
		return c.nestedRecord(s, target, st, path)
	case ShapeOptional:
		return c.optional(s, target, st, path)
	case ShapeSequence:
		return c.sequence(s, target, st, path)
	case ShapeMapping:
		return c.mapping(s, target, st, path)
	case ShapeEnum:
		return c.enum(s, target, st, path)
	case ShapeUnion:
		return c.union(s, target, st, path)
	default:
		return nil, nil, schemaErrorf(path, "invalid shape kind %d", int(s.Kind))
	}
}

func (c *compiler) primitive(s Shape, target reflect.Type, st site, path []string) (decodeFn, encodeFn, error) {
	if s.Type == nil {
		return nil, nil, schemaErrorf(path, "primitive shape has no type")
	}
	prim, ok := c.reg.Lookup(s.Type)
	if !ok {
		return nil, nil, schemaErrorf(path, "no primitive capability registered for %s", s.Type)
	}
	convert := target != s.Type
	if convert && !(target.Kind() == s.Type.Kind() && s.Type.ConvertibleTo(target) && target.ConvertibleTo(s.Type)) {
		return nil, nil, schemaErrorf(path, "primitive %s cannot bind to %s", s.Type, target)
	}
	dec := func(v StoredValue, lookupErr error) (reflect.Value, error) {
		if lookupErr != nil {
			return reflect.Value{}, lookupErr
		}
		rv, err := prim.extract(v)
		if err != nil {
			return reflect.Value{}, extractionError(st, err)
		}
		if convert {
			rv = rv.Convert(target)
		}
		return rv, nil
	}
	enc := func(rv reflect.Value) (StoredValue, encodeState) {
		if convert {
			rv = rv.Convert(s.Type)
		}
		sv, ok := prim.encode(rv)
		if !ok {
			return nil, failed
		}
		return sv, encoded
	}
	return dec, enc, nil
}

func (c *compiler) nestedRecord(s Shape, target reflect.Type, st site, path []string) (decodeFn, encodeFn, error) {
	if s.Record == nil {
		return nil, nil, schemaErrorf(path, "record shape has no schema")
	}
	if s.Record.GoType != target {
		return nil, nil, schemaErrorf(path, "record %q (%s) cannot bind to %s", s.Record.Name, s.Record.GoType, target)
	}
	plan, err := c.record(s.Record, path)
	if err != nil {
		return nil, nil, err
	}
	structure := c.structure
	dec := func(v StoredValue, lookupErr error) (reflect.Value, error) {
		if lookupErr != nil {
			return reflect.Value{}, lookupErr
		}
		m, err := structure.ExtractMap(v)
		if err != nil {
			return reflect.Value{}, extractionError(st, err)
		}
		return plan.decode(m)
	}
	enc := func(rv reflect.Value) (StoredValue, encodeState) {
		m, ok := plan.encode(rv, true)
		if !ok {
			return nil, failed
		}
		return structure.EncodeMap(m), encoded
	}
	return dec, enc, nil
}

func (c *compiler) optional(s Shape, target reflect.Type, st site, path []string) (decodeFn, encodeFn, error) {
	if s.Elem == nil {
		return nil, nil, schemaErrorf(path, "optional shape has no element")
	}
	switch target.Kind() {
	case reflect.Pointer:
		elemT := target.Elem()
		inner, innerEnc, err := c.shape(*s.Elem, elemT, st, path)
		if err != nil {
			return nil, nil, err
		}
		dec := func(v StoredValue, lookupErr error) (reflect.Value, error) {
			rv, err := inner(v, lookupErr)
			if err != nil {
				if isMissing(err) {
					return reflect.Zero(target), nil
				}
				return reflect.Value{}, err
			}
			p := reflect.New(elemT)
			p.Elem().Set(rv)
			return p, nil
		}
		enc := func(rv reflect.Value) (StoredValue, encodeState) {
			if rv.IsNil() {
				return nil, omitted
			}
			return innerEnc(rv.Elem())
		}
		return dec, enc, nil
	case reflect.Interface:
		inner, innerEnc, err := c.shape(*s.Elem, target, st, path)
		if err != nil {
			return nil, nil, err
		}
		dec := func(v StoredValue, lookupErr error) (reflect.Value, error) {
			rv, err := inner(v, lookupErr)
			if err != nil {
				if isMissing(err) {
					return reflect.Zero(target), nil
				}
				return reflect.Value{}, err
			}
			return rv, nil
		}
		enc := func(rv reflect.Value) (StoredValue, encodeState) {
			if !rv.IsValid() || rv.IsNil() {
				return nil, omitted
			}
			return innerEnc(rv)
		}
		return dec, enc, nil
	default:
		return nil, nil, schemaErrorf(path, "optional requires a pointer or interface, got %s", target)
	}
}

func (c *compiler) sequence(s Shape, target reflect.Type, st site, path []string) (decodeFn, encodeFn, error) {
	if s.Elem == nil {
		return nil, nil, schemaErrorf(path, "sequence shape has no element")
	}
	if target.Kind() != reflect.Slice {
		return nil, nil, schemaErrorf(path, "sequence requires a slice, got %s", target)
	}
	inner, innerEnc, err := c.shape(*s.Elem, target.Elem(), st, childPath(path, "[]"))
	if err != nil {
		return nil, nil, err
	}
	structure := c.structure
	dec := func(v StoredValue, lookupErr error) (reflect.Value, error) {
		if lookupErr != nil {
			return reflect.Value{}, lookupErr
		}
		items, err := structure.ExtractList(v)
		if err != nil {
			return reflect.Value{}, extractionError(st, err)
		}
		out := reflect.MakeSlice(target, len(items), len(items))
		for i, item := range items {
			ev, err := inner(item, nil)
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	}
	enc := func(rv reflect.Value) (StoredValue, encodeState) {
		n := rv.Len()
		items := make([]StoredValue, n)
		for i := 0; i < n; i++ {
			sv, state := innerEnc(rv.Index(i))
			if state != encoded {
				return nil, failed
			}
			items[i] = sv
		}
		return structure.EncodeList(items), encoded
	}
	return dec, enc, nil
}

func (c *compiler) mapping(s Shape, target reflect.Type, st site, path []string) (decodeFn, encodeFn, error) {
	if s.Elem == nil {
		return nil, nil, schemaErrorf(path, "mapping shape has no element")
	}
	if target.Kind() != reflect.Map || target.Key().Kind() != reflect.String {
		return nil, nil, schemaErrorf(path, "mapping requires a string-keyed map, got %s", target)
	}
	keyT := target.Key()
	inner, innerEnc, err := c.shape(*s.Elem, target.Elem(), st, childPath(path, "{}"))
	if err != nil {
		return nil, nil, err
	}
	structure := c.structure
	dec := func(v StoredValue, lookupErr error) (reflect.Value, error) {
		if lookupErr != nil {
			return reflect.Value{}, lookupErr
		}
		m, err := structure.ExtractMap(v)
		if err != nil {
			return reflect.Value{}, extractionError(st, err)
		}
		out := reflect.MakeMapWithSize(target, len(m))
		// sorted so the reported entry error does not depend on map iteration
		for _, k := range sortedKeys(m) {
			ev, err := inner(m[k], nil)
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(keyT), ev)
		}
		return out, nil
	}
	enc := func(rv reflect.Value) (StoredValue, encodeState) {
		out := make(AttributeMap, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			sv, state := innerEnc(iter.Value())
			if state != encoded {
				return nil, failed
			}
			out[iter.Key().String()] = sv
		}
		return structure.EncodeMap(out), encoded
	}
	return dec, enc, nil
}

func (c *compiler) enum(s Shape, target reflect.Type, st site, path []string) (decodeFn, encodeFn, error) {
	if target.Kind() != reflect.String {
		return nil, nil, schemaErrorf(path, "enum requires a string-kinded type, got %s", target)
	}
	if s.Type != nil && s.Type != target {
		return nil, nil, schemaErrorf(path, "enum %s cannot bind to %s", s.Type, target)
	}
	if len(s.Symbols) == 0 {
		return nil, nil, schemaErrorf(path, "enum declares no symbols")
	}
	symbols := make(map[string]struct{}, len(s.Symbols))
	for _, sym := range s.Symbols {
		if _, dup := symbols[sym]; dup {
			return nil, nil, schemaErrorf(path, "duplicate enum symbol %q", sym)
		}
		symbols[sym] = struct{}{}
	}
	prim, ok := c.reg.Lookup(stringType)
	if !ok {
		return nil, nil, schemaErrorf(path, "enum requires a string primitive capability")
	}
	dec := func(v StoredValue, lookupErr error) (reflect.Value, error) {
		if lookupErr != nil {
			return reflect.Value{}, lookupErr
		}
		rv, err := prim.extract(v)
		if err != nil {
			return reflect.Value{}, newDecodingError(MissingField, CodeInvalidEnum, st.record, st.field, err)
		}
		if _, ok := symbols[rv.String()]; !ok {
			return reflect.Value{}, newDecodingError(MissingField, CodeInvalidEnum, st.record, st.field, nil)
		}
		return rv.Convert(target), nil
	}
	enc := func(rv reflect.Value) (StoredValue, encodeState) {
		sym := rv.String()
		if _, ok := symbols[sym]; !ok {
			return nil, failed
		}
		sv, ok := prim.encode(reflect.ValueOf(sym))
		if !ok {
			return nil, failed
		}
		return sv, encoded
	}
	return dec, enc, nil
}

type variantPlan struct {
	name   string
	goType reflect.Type
	decode decodeFn
	encode encodeFn
}

func (c *compiler) union(s Shape, target reflect.Type, st site, path []string) (decodeFn, encodeFn, error) {
	u := s.Union
	if u == nil {
		return nil, nil, schemaErrorf(path, "union shape has no schema")
	}
	if u.GoType == nil {
		return nil, nil, schemaErrorf(path, "union %q has no Go type", u.Name)
	}
	dynamic := u.GoType == DynamicVariant
	if !dynamic && u.GoType.Kind() != reflect.Interface {
		return nil, nil, schemaErrorf(path, "union %q: Go type %s must be an interface or DynamicVariant", u.Name, u.GoType)
	}
	box := target != u.GoType
	if box && !(target.Kind() == reflect.Interface && u.GoType.Implements(target)) {
		return nil, nil, schemaErrorf(path, "union %q (%s) cannot bind to %s", u.Name, u.GoType, target)
	}

	variants := make([]variantPlan, 0, len(u.Variants))
	seen := make(map[string]struct{}, len(u.Variants))
	for _, v := range u.Variants {
		vpath := childPath(path, v.Name)
		if _, dup := seen[v.Name]; dup {
			return nil, nil, schemaErrorf(vpath, "duplicate variant name")
		}
		seen[v.Name] = struct{}{}
		if v.Shape.Kind == ShapeOptional {
			return nil, nil, schemaErrorf(vpath, "variant payload cannot be optional")
		}
		vt, err := v.Shape.NaturalType()
		if err != nil {
			return nil, nil, prefixSchemaError(vpath, err)
		}
		if !dynamic && !vt.Implements(u.GoType) {
			return nil, nil, schemaErrorf(vpath, "%s does not implement %s", vt, u.GoType)
		}
		dec, enc, err := c.shape(v.Shape, vt, site{record: u.Name, field: v.Name}, vpath)
		if err != nil {
			return nil, nil, err
		}
		variants = append(variants, variantPlan{name: v.Name, goType: vt, decode: dec, encode: enc})
	}

	wrap := func(vp *variantPlan, rv reflect.Value) reflect.Value {
		out := reflect.New(u.GoType).Elem()
		if dynamic {
			out.Set(reflect.ValueOf(DynamicValue{Name: vp.name, Value: rv.Interface()}))
		} else {
			out.Set(rv)
		}
		if box {
			b := reflect.New(target).Elem()
			b.Set(out)
			return b
		}
		return out
	}
	dec := func(v StoredValue, lookupErr error) (reflect.Value, error) {
		if lookupErr != nil {
			return reflect.Value{}, lookupErr
		}
		for i := range variants {
			rv, err := variants[i].decode(v, nil)
			if err == nil {
				return wrap(&variants[i], rv), nil
			}
		}
		e := newDecodingError(Other, CodeNoVariant, st.record, st.field, nil)
		if u.Name != "" {
			e.Message += " (" + u.Name + ")"
		}
		return reflect.Value{}, e
	}
	enc := func(rv reflect.Value) (StoredValue, encodeState) {
		// Unwrap to the concrete value: a payload, or a DynamicValue.
		if box || !dynamic {
			if !rv.IsValid() || rv.IsNil() {
				return nil, failed
			}
			rv = rv.Elem()
		}
		if !dynamic {
			return encodeVariantByType(variants, rv)
		}
		dv, ok := rv.Interface().(DynamicValue)
		if !ok {
			return nil, failed
		}
		for i := range variants {
			if variants[i].name != dv.Name {
				continue
			}
			pv := reflect.ValueOf(dv.Value)
			if !pv.IsValid() || pv.Type() != variants[i].goType {
				return nil, failed
			}
			return variantEncode(&variants[i], pv)
		}
		return nil, failed
	}
	return dec, enc, nil
}

// encodeVariantByType encodes a payload with the first variant declared for
// its dynamic type.
func encodeVariantByType(variants []variantPlan, payload reflect.Value) (StoredValue, encodeState) {
	for i := range variants {
		if variants[i].goType == payload.Type() {
			return variantEncode(&variants[i], payload)
		}
	}
	return nil, failed
}

func variantEncode(vp *variantPlan, payload reflect.Value) (StoredValue, encodeState) {
	sv, state := vp.encode(payload)
	if state != encoded {
		return nil, failed
	}
	return sv, encoded
}

func boxDecode(dec decodeFn, target reflect.Type) decodeFn {
	return func(v StoredValue, lookupErr error) (reflect.Value, error) {
		rv, err := dec(v, lookupErr)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(target).Elem()
		out.Set(rv)
		return out, nil
	}
}

func unboxEncode(enc encodeFn, nt reflect.Type) encodeFn {
	return func(rv reflect.Value) (StoredValue, encodeState) {
		if !rv.IsValid() || rv.IsNil() {
			return nil, failed
		}
		inner := rv.Elem()
		if inner.Type() != nt {
			return nil, failed
		}
		return enc(inner)
	}
}

func extractionError(st site, err error) error {
	var de *DecodingError
	if errors.As(err, &de) {
		return &DecodingError{
			Kind:    de.Kind,
			Code:    de.Code,
			Record:  st.record,
			Field:   st.field,
			Message: de.Message,
			Cause:   de.Cause,
		}
	}
	return newDecodingError(ExtractionFailure, CodeExtractionFailure, st.record, st.field, err)
}

func isMissing(err error) bool {
	if de, ok := err.(*DecodingError); ok {
		return de.Kind == MissingField
	}
	return errors.Is(err, ErrMissingField)
}

func prefixSchemaError(path []string, err error) error {
	var se *SchemaError
	if errors.As(err, &se) && len(se.Path) == 0 {
		return schemaErrorf(path, "%s", se.Detail)
	}
	return err
}

func sortedKeys(m AttributeMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func childPath(path []string, name string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = name
	return out
}
