// Package schemafile loads record and union schemas from YAML. Schemas loaded
// this way decode into map[string]any (unions into attrskema.DynamicValue),
// so they need no Go types.
//
//	root: Order
//	records:
//	  Order:
//	    id: string
//	    note: {optional: string}
//	    lines: {list: Line}
//	    status: {enum: [open, closed]}
//	    pay: Payment
//	  Line:
//	    sku: string
//	    qty: int
//	unions:
//	  Payment:
//	    card: Card
//	    cash: int64
//
// Fields and variants keep the order they are written in. Records and unions
// may be referenced before they are declared, and may refer to themselves.
package schemafile

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"time"

	"github.com/segmentio/ksuid"
	"gopkg.in/yaml.v3"

	"github.com/reoring/attrskema"
	"github.com/reoring/attrskema/attr"
	"github.com/reoring/attrskema/codec"
)

var primitiveTypes = map[string]reflect.Type{
	"string":   reflect.TypeFor[string](),
	"bool":     reflect.TypeFor[bool](),
	"int":      reflect.TypeFor[int](),
	"int64":    reflect.TypeFor[int64](),
	"float64":  reflect.TypeFor[float64](),
	"bytes":    reflect.TypeFor[[]byte](),
	"time":     reflect.TypeFor[time.Time](),
	"unixtime": reflect.TypeFor[codec.UnixTime](),
	"ksuid":    reflect.TypeFor[ksuid.KSUID](),
}

// PrimitiveNames lists the primitive type names a schema file may use.
func PrimitiveNames() []string {
	out := make([]string, 0, len(primitiveTypes))
	for n := range primitiveTypes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// NewRegistry returns an attr registry holding a capability for every
// primitive name.
func NewRegistry() (*attrskema.Registry, error) {
	return attr.NewRegistry(codec.TimeRFC3339(), codec.TimeUnix(), codec.Text[ksuid.KSUID]())
}

// File is a parsed schema file.
type File struct {
	// Root names the default record; it may be empty.
	Root string

	records map[string]*attrskema.RecordSchema
	unions  map[string]*attrskema.UnionSchema
	order   []string
}

// Load reads and parses a schema file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses a schema file.
func Parse(data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schemafile: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("schemafile: empty document")
	}
	top, err := pairs(doc.Content[0])
	if err != nil {
		return nil, err
	}

	f := &File{
		records: map[string]*attrskema.RecordSchema{},
		unions:  map[string]*attrskema.UnionSchema{},
	}
	var records, unions []pair
	var rootNode *yaml.Node
	for _, p := range top {
		switch p.key.Value {
		case "root":
			if f.Root, err = scalar(p.val, "root"); err != nil {
				return nil, err
			}
			rootNode = p.val
		case "records":
			if records, err = pairs(p.val); err != nil {
				return nil, err
			}
		case "unions":
			if unions, err = pairs(p.val); err != nil {
				return nil, err
			}
		default:
			return nil, errorAt(p.key, "unknown key %q", p.key.Value)
		}
	}

	// Declare every name first so references resolve regardless of order.
	for _, p := range records {
		if err := f.checkName(p.key); err != nil {
			return nil, err
		}
		f.records[p.key.Value] = &attrskema.RecordSchema{Name: p.key.Value, GoType: attrskema.DynamicRecord}
		f.order = append(f.order, p.key.Value)
	}
	for _, p := range unions {
		if err := f.checkName(p.key); err != nil {
			return nil, err
		}
		f.unions[p.key.Value] = &attrskema.UnionSchema{Name: p.key.Value, GoType: attrskema.DynamicVariant}
	}

	for _, p := range records {
		fields, err := pairs(p.val)
		if err != nil {
			return nil, err
		}
		rs := f.records[p.key.Value]
		for _, fp := range fields {
			s, err := f.typeExpr(fp.val)
			if err != nil {
				return nil, err
			}
			rs.Fields = append(rs.Fields, attrskema.Field{Name: fp.key.Value, Shape: s})
		}
	}
	for _, p := range unions {
		variants, err := pairs(p.val)
		if err != nil {
			return nil, err
		}
		us := f.unions[p.key.Value]
		for _, vp := range variants {
			s, err := f.typeExpr(vp.val)
			if err != nil {
				return nil, err
			}
			if s.Kind == attrskema.ShapeOptional {
				return nil, errorAt(vp.val, "variant %q cannot be optional", vp.key.Value)
			}
			us.Variants = append(us.Variants, attrskema.Variant{Name: vp.key.Value, Shape: s})
		}
	}

	if f.Root != "" {
		if _, ok := f.records[f.Root]; !ok {
			return nil, errorAt(rootNode, "root record %q is not declared", f.Root)
		}
	}
	return f, nil
}

func (f *File) checkName(k *yaml.Node) error {
	name := k.Value
	if name == "" {
		return errorAt(k, "empty name")
	}
	if _, ok := primitiveTypes[name]; ok {
		return errorAt(k, "%q is a primitive type name", name)
	}
	if _, ok := f.records[name]; ok {
		return errorAt(k, "%q is already declared", name)
	}
	if _, ok := f.unions[name]; ok {
		return errorAt(k, "%q is already declared", name)
	}
	return nil
}

// typeExpr resolves a type expression: a primitive, record or union name, or
// a single-key mapping {optional|list|map: T} or {enum: [symbols]}.
func (f *File) typeExpr(n *yaml.Node) (attrskema.Shape, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		name, err := scalar(n, "type")
		if err != nil {
			return attrskema.Shape{}, err
		}
		if t, ok := primitiveTypes[name]; ok {
			return attrskema.Shape{Kind: attrskema.ShapePrimitive, Type: t}, nil
		}
		if rs, ok := f.records[name]; ok {
			return attrskema.Shape{Kind: attrskema.ShapeRecord, Record: rs}, nil
		}
		if us, ok := f.unions[name]; ok {
			return attrskema.Shape{Kind: attrskema.ShapeUnion, Union: us}, nil
		}
		return attrskema.Shape{}, errorAt(n, "unknown type %q", name)
	case yaml.MappingNode:
		ps, err := pairs(n)
		if err != nil {
			return attrskema.Shape{}, err
		}
		if len(ps) != 1 {
			return attrskema.Shape{}, errorAt(n, "type expression must have exactly one key")
		}
		k, v := ps[0].key, ps[0].val
		var kind attrskema.ShapeKind
		switch k.Value {
		case "optional":
			kind = attrskema.ShapeOptional
		case "list":
			kind = attrskema.ShapeSequence
		case "map":
			kind = attrskema.ShapeMapping
		case "enum":
			return enumExpr(v)
		default:
			return attrskema.Shape{}, errorAt(k, "unknown type constructor %q", k.Value)
		}
		elem, err := f.typeExpr(v)
		if err != nil {
			return attrskema.Shape{}, err
		}
		return attrskema.Shape{Kind: kind, Elem: &elem}, nil
	default:
		return attrskema.Shape{}, errorAt(n, "invalid type expression")
	}
}

func enumExpr(n *yaml.Node) (attrskema.Shape, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) == 0 {
		return attrskema.Shape{}, errorAt(n, "enum requires a non-empty list of symbols")
	}
	seen := make(map[string]struct{}, len(n.Content))
	syms := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		s, err := scalar(c, "enum symbol")
		if err != nil {
			return attrskema.Shape{}, err
		}
		if _, dup := seen[s]; dup {
			return attrskema.Shape{}, errorAt(c, "duplicate enum symbol %q", s)
		}
		seen[s] = struct{}{}
		syms = append(syms, s)
	}
	return attrskema.Shape{Kind: attrskema.ShapeEnum, Type: reflect.TypeFor[string](), Symbols: syms}, nil
}

// Record returns the named record schema.
func (f *File) Record(name string) (*attrskema.RecordSchema, bool) {
	rs, ok := f.records[name]
	return rs, ok
}

// Union returns the named union schema.
func (f *File) Union(name string) (*attrskema.UnionSchema, bool) {
	us, ok := f.unions[name]
	return us, ok
}

// Records lists record names in file order.
func (f *File) Records() []string { return append([]string(nil), f.order...) }

// Bind compiles the named record (Root when name is empty) against reg.
func (f *File) Bind(reg *attrskema.Registry, name string, opts ...attrskema.CompileOption) (*attrskema.Codec[map[string]any], error) {
	if name == "" {
		name = f.Root
	}
	if name == "" {
		return nil, errors.New("schemafile: no record named and no root declared")
	}
	rs, ok := f.records[name]
	if !ok {
		return nil, fmt.Errorf("schemafile: unknown record %q", name)
	}
	return attrskema.Compile[map[string]any](reg, rs, opts...)
}
