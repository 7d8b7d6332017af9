// Package attrskema derives decoders and encoders between Go records and
// key-value attribute maps (the item format of wide-column/NoSQL stores)
// from an explicit schema, without per-type code.
//
// A RecordSchema lists a record's fields in order; each field has a Shape:
// Primitive, Record, Optional, Sequence, Mapping, Enum or Union. Compile
// checks the schema against a Registry of primitive capabilities and the Go
// type it binds to, then synthesizes one decoder/encoder pair per field.
// Decoding and encoding are pure, synchronous and safe for concurrent use.
//
// Decoding reports failures as *DecodingError values of three kinds:
// MissingField (the attribute is absent), ExtractionFailure (the value has the
// wrong representation) and Other (for example, no union variant matched).
// Optional fields are the only place MissingField turns into a value (None).
// Encoding never fails: a field whose value has no stored representation is
// left out of the map.
//
// Layout:
//   - root: schema model, registry, compiler, Decode/Encode entry points.
//   - dsl/: builders for record and union schemas and shape helpers.
//   - attr/: a DynamoDB-style stored value model with JSON and msgpack forms.
//   - codec/: reusable primitive capabilities (time, text, JSON).
//   - schemafile/: YAML schema definitions for dynamic records.
//   - jsonschema/: JSON Schema projection of a record schema.
//   - store/: a pebble-backed table that stores records through a Codec.
//   - config/: YAML configuration for the CLI.
//   - i18n/: localized error messages.
//   - cmd/attrskema: CLI; examples/orders: a runnable typed example.
//
// Typical usage:
//
//	reg := attr.MustRegistry(codec.TimeRFC3339())
//	orders := dsl.Record[Order]("Order").
//	    Field("id", dsl.String()).
//	    Field("note", dsl.Optional(dsl.String())).
//	    MustBind(reg)
//
//	item := attrskema.Encode(order, orders)
//	back, err := attrskema.Decode(item, orders)
package attrskema
