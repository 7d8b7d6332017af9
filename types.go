package attrskema

import "reflect"

// StoredValue is one attribute as held by the store. The engine never looks
// inside it; primitive capabilities and the Structure do.
type StoredValue = any

// AttributeMap maps attribute names to stored values. It is the boundary
// format of Decode and Encode.
type AttributeMap map[string]StoredValue

// Structure supplies the container-shaped capabilities of a backend: viewing a
// stored value as a nested attribute map or as a list, and the inverse.
//
// Extract methods must not mutate their input. Returned maps and slices may
// alias the input; the engine only reads them.
type Structure interface {
	ExtractMap(v StoredValue) (AttributeMap, error)
	ExtractList(v StoredValue) ([]StoredValue, error)
	EncodeMap(m AttributeMap) StoredValue
	EncodeList(l []StoredValue) StoredValue
}

// ShapeKind enumerates field type shapes.
type ShapeKind int

const (
	ShapePrimitive ShapeKind = iota + 1
	ShapeRecord
	ShapeOptional
	ShapeSequence
	ShapeMapping
	ShapeEnum
	ShapeUnion
)

func (k ShapeKind) String() string {
	switch k {
	case ShapePrimitive:
		return "primitive"
	case ShapeRecord:
		return "record"
	case ShapeOptional:
		return "optional"
	case ShapeSequence:
		return "sequence"
	case ShapeMapping:
		return "mapping"
	case ShapeEnum:
		return "enum"
	case ShapeUnion:
		return "union"
	default:
		return "invalid"
	}
}

// Shape describes the type of one field or variant payload.
//
// Only the members relevant to Kind are set:
//   - Primitive: Type is the primitive Go type (looked up in the Registry).
//   - Record: Record.
//   - Optional, Sequence, Mapping: Elem.
//   - Enum: Type (a string-kinded type) and Symbols.
//   - Union: Union.
type Shape struct {
	Kind    ShapeKind
	Type    reflect.Type
	Elem    *Shape
	Record  *RecordSchema
	Union   *UnionSchema
	Symbols []string
}

// Field is one named field of a record.
type Field struct {
	Name  string
	Shape Shape
}

// RecordSchema is the ordered field list of a record type.
//
// GoType is the Go representation: a struct type, or map[string]any for
// dynamic records. Fields may be appended after the schema pointer has been
// handed out (to build recursive schemas) but must not change once compiled.
type RecordSchema struct {
	Name   string
	GoType reflect.Type
	Fields []Field
}

// Variant is one alternative of a union.
type Variant struct {
	Name  string
	Shape Shape
}

// UnionSchema is the ordered variant list of a tagged union. Declaration order
// is the decode priority: the first variant whose payload decodes wins.
//
// GoType is normally an interface implemented by every variant payload type.
// With GoType set to DynamicVariant the decoded value is a DynamicValue
// carrying the variant name.
type UnionSchema struct {
	Name     string
	GoType   reflect.Type
	Variants []Variant
}

// DynamicValue is the decoded form of a union whose GoType is DynamicVariant.
type DynamicValue struct {
	Name  string `json:"variant"`
	Value any    `json:"value"`
}

var (
	// DynamicRecord is the GoType of schemas decoded into plain maps.
	DynamicRecord = reflect.TypeFor[map[string]any]()
	// DynamicVariant is the GoType of unions decoded into DynamicValue.
	DynamicVariant = reflect.TypeFor[DynamicValue]()
)

// Field returns the field with the given name.
func (rs *RecordSchema) Field(name string) (Field, bool) {
	for _, f := range rs.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
