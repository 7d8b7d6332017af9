package attrskema

import (
	"fmt"
	"reflect"
	"runtime"
)

// Codec is a compiled record schema bound to the Go type T. It decodes
// attribute maps into T and encodes T into attribute maps.
//
// A Codec is immutable and safe for concurrent use.
type Codec[T any] struct {
	schema    *RecordSchema
	plan      *recordPlan
	structure Structure
}

type compileOptions struct {
	parallelFields int
}

// CompileOption configures Compile.
type CompileOption func(*compileOptions)

// WithParallelFields evaluates the fields of every record concurrently with at
// most n goroutines per record. n <= 0 selects GOMAXPROCS; n == 1 is
// sequential. The reported error is still the first failing field in
// declaration order.
func WithParallelFields(n int) CompileOption {
	return func(o *compileOptions) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		o.parallelFields = n
	}
}

// Compile validates rs against reg and T and synthesizes its decoder and
// encoder. Every error it returns is a *SchemaError: unknown primitive types,
// Go types that do not fit a shape, duplicate names, and so on.
func Compile[T any](reg *Registry, rs *RecordSchema, opts ...CompileOption) (*Codec[T], error) {
	if reg == nil {
		return nil, &SchemaError{Detail: "nil registry"}
	}
	if rs == nil {
		return nil, &SchemaError{Detail: "nil record schema"}
	}
	t := reflect.TypeFor[T]()
	if rs.GoType != t {
		return nil, &SchemaError{Path: []string{rs.Name}, Detail: fmt.Sprintf("schema Go type %v does not match %v", rs.GoType, t)}
	}
	var o compileOptions
	for _, opt := range opts {
		opt(&o)
	}
	c := newCompiler(reg, o)
	plan, err := c.record(rs, []string{rs.Name})
	if err != nil {
		return nil, err
	}
	return &Codec[T]{schema: rs, plan: plan, structure: c.structure}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile[T any](reg *Registry, rs *RecordSchema, opts ...CompileOption) *Codec[T] {
	c, err := Compile[T](reg, rs, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Schema returns the compiled record schema.
func (c *Codec[T]) Schema() *RecordSchema { return c.schema }

// Decode decodes an attribute map into T.
func (c *Codec[T]) Decode(m AttributeMap) (T, error) {
	var zero T
	rv, err := c.plan.decode(m)
	if err != nil {
		return zero, err
	}
	return rv.Interface().(T), nil
}

// Encode encodes v into an attribute map. It is total: fields without a
// stored representation, and optional fields holding None, are left out.
func (c *Codec[T]) Encode(v T) AttributeMap {
	m, _ := c.plan.encode(reflect.ValueOf(&v).Elem(), false)
	return m
}

// DecodeValue decodes a stored value holding a nested attribute map.
func (c *Codec[T]) DecodeValue(v StoredValue) (T, error) {
	var zero T
	m, err := c.structure.ExtractMap(v)
	if err != nil {
		return zero, extractionError(site{record: c.schema.Name}, err)
	}
	return c.Decode(m)
}

// EncodeValue encodes v as a nested stored value. Unlike Encode it is
// all-or-nothing: it reports false when any field fails to encode.
func (c *Codec[T]) EncodeValue(v T) (StoredValue, bool) {
	m, ok := c.plan.encode(reflect.ValueOf(&v).Elem(), true)
	if !ok {
		return nil, false
	}
	return c.structure.EncodeMap(m), true
}

// Decode is the decode entry point: it decodes m with the compiled codec c.
func Decode[T any](m AttributeMap, c *Codec[T]) (T, error) { return c.Decode(m) }

// Encode is the encode entry point: it encodes v with the compiled codec c.
func Encode[T any](v T, c *Codec[T]) AttributeMap { return c.Encode(v) }
