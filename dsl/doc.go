// Package dsl is a builder API for attrskema schemas.
//
// Overview
//   - Records: Record[T](name).Field(name, shape)... then Bind/MustBind to a
//     Registry to obtain an *attrskema.Codec[T].
//   - Unions: Union[U](name).Variant(name, shape)...; U is an interface that
//     every variant payload type implements. Declaration order is decode
//     priority.
//   - Shapes: String/Bool/Int/Int64/Float64/Bytes/Time, Prim[P] for any
//     registered primitive, Optional/Sequence/Mapping, Enum[E], RecordOf and
//     UnionOf.
//   - Dynamic schemas: DynamicRecord(name) decodes into map[string]any and
//     DynamicUnion(name) into attrskema.DynamicValue. schemafile builds these
//     from YAML.
//
// Recursive records reference their own builder:
//
//	node := dsl.Record[Node]("Node")
//	node.Field("name", dsl.String()).
//	    Field("children", dsl.Sequence(node.Shape()))
//	codec := node.MustBind(attr.MustRegistry())
//
// Field names are attribute names. For struct types they are matched against
// the attr, dynamodbav or json tag of each exported field, falling back to the
// Go field name.
package dsl
