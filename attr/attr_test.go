package attr_test

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/reoring/attrskema"
	"github.com/reoring/attrskema/attr"
)

func sampleItem() attrskema.AttributeMap {
	return attrskema.AttributeMap{
		"id":    attr.S("u-1"),
		"age":   attr.N("42"),
		"blob":  attr.B{0x01, 0x02},
		"ok":    attr.BOOL(true),
		"gone":  attr.NULL{},
		"addr":  attr.M{"city": attr.S("Kyoto"), "geo": attr.L{attr.N("35.0"), attr.N("135.7")}},
		"tags":  attr.SS{"a", "b"},
		"nums":  attr.NS{"1", "2.5"},
		"bins":  attr.BS{{0xff}, {0x00}},
		"empty": attr.L{},
	}
}

func TestJSON_Roundtrip(t *testing.T) {
	b, err := attr.MarshalJSON(sampleItem())
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	if !bytes.Contains(b, []byte(`"id":{"S":"u-1"}`)) {
		t.Fatalf("unexpected JSON: %s", b)
	}
	got, err := attr.UnmarshalJSON(b)
	if err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if !reflect.DeepEqual(got, sampleItem()) {
		t.Fatalf("roundtrip mismatch:\n got %#v\nwant %#v", got, sampleItem())
	}
}

func TestJSON_Value(t *testing.T) {
	b, err := attr.MarshalValueJSON(attr.N("7"))
	if err != nil || string(b) != `{"N":"7"}` {
		t.Fatalf("unexpected value JSON %s %v", b, err)
	}
	v, err := attr.UnmarshalValueJSON([]byte(`{"L":[{"S":"x"},{"BOOL":false}]}`))
	if err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if !reflect.DeepEqual(v, attr.L{attr.S("x"), attr.BOOL(false)}) {
		t.Fatalf("unexpected value %#v", v)
	}
}

func TestJSON_Invalid(t *testing.T) {
	cases := map[string]string{
		"not object":      `[]`,
		"two descriptors": `{"a":{"S":"x","N":"1"}}`,
		"unknown type":    `{"a":{"Q":"x"}}`,
		"bad number":      `{"a":{"N":"one"}}`,
		"nan":             `{"a":{"N":"NaN"}}`,
		"null false":      `{"a":{"NULL":false}}`,
		"nested":          `{"a":{"M":{"b":{"N":"x"}}}}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := attr.UnmarshalJSON([]byte(in)); err == nil {
				t.Fatalf("expected error for %s", in)
			}
		})
	}
	if _, err := attr.MarshalJSON(attrskema.AttributeMap{"x": 42}); err == nil {
		t.Fatalf("expected error for foreign value")
	}
}

func TestBinary_Roundtrip(t *testing.T) {
	b, err := attr.MarshalBinary(sampleItem())
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	got, err := attr.UnmarshalBinary(b)
	if err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if !reflect.DeepEqual(got, sampleItem()) {
		t.Fatalf("roundtrip mismatch:\n got %#v\nwant %#v", got, sampleItem())
	}

	// Deterministic output regardless of map iteration order.
	b2, _ := attr.MarshalBinary(sampleItem())
	if !bytes.Equal(b, b2) {
		t.Fatalf("binary form must be deterministic")
	}
}

func TestBinary_Stream(t *testing.T) {
	var buf []byte
	var err error
	for _, id := range []string{"a", "b", "c"} {
		buf, err = attr.AppendBinary(buf, attrskema.AttributeMap{"id": attr.S(id)})
		if err != nil {
			t.Fatalf("append err: %v", err)
		}
	}
	var ids []string
	for len(buf) > 0 {
		var item attrskema.AttributeMap
		item, buf, err = attr.ReadBinary(buf)
		if err != nil {
			t.Fatalf("read err: %v", err)
		}
		ids = append(ids, string(item["id"].(attr.S)))
	}
	if strings.Join(ids, "") != "abc" {
		t.Fatalf("unexpected items %v", ids)
	}
}

func TestBinary_Invalid(t *testing.T) {
	b, _ := attr.MarshalBinary(attrskema.AttributeMap{"id": attr.S("x")})
	if _, err := attr.UnmarshalBinary(b[:len(b)-1]); err == nil {
		t.Fatalf("expected error for truncated input")
	}
	if _, err := attr.UnmarshalBinary(append(b, 0xc0)); err == nil {
		t.Fatalf("expected error for trailing bytes")
	}
	if _, err := attr.MarshalBinary(attrskema.AttributeMap{"x": []int{1}}); err == nil {
		t.Fatalf("expected error for foreign value")
	}
}

func extract[P any](t *testing.T, p attrskema.Primitive, v attrskema.StoredValue) (P, error) {
	t.Helper()
	rv, err := p.Extract(v)
	if err != nil {
		var zero P
		return zero, err
	}
	return rv.Interface().(P), nil
}

func TestPrimitives_Numbers(t *testing.T) {
	if v, err := extract[int8](t, attr.Signed[int8](8), attr.N("-128")); err != nil || v != -128 {
		t.Fatalf("int8: %v %v", v, err)
	}
	if _, err := extract[int8](t, attr.Signed[int8](8), attr.N("128")); !errors.Is(err, attrskema.ErrExtractionFailure) {
		t.Fatalf("expected overflow to be an extraction failure, got %v", err)
	}
	if _, err := extract[uint16](t, attr.Unsigned[uint16](16), attr.N("-1")); !errors.Is(err, attrskema.ErrExtractionFailure) {
		t.Fatalf("expected negative uint to fail, got %v", err)
	}
	if v, err := extract[float32](t, attr.Float[float32](32), attr.N("1.25")); err != nil || v != 1.25 {
		t.Fatalf("float32: %v %v", v, err)
	}
	if _, err := extract[int](t, attr.Signed[int](64), attr.S("1")); !errors.Is(err, attrskema.ErrExtractionFailure) {
		t.Fatalf("expected S to be rejected, got %v", err)
	}
	var te *attr.TypeError
	_, err := extract[int](t, attr.Signed[int](64), attr.S("1"))
	if !errors.As(err, &te) || te.Want != "N" {
		t.Fatalf("expected TypeError cause, got %v", err)
	}
}

func TestPrimitives_NullIsMissing(t *testing.T) {
	for _, p := range attr.Primitives() {
		if _, err := p.Extract(attr.NULL{}); !attrskema.IsMissingField(err) {
			t.Fatalf("%v: expected NULL to be missing, got %v", p, err)
		}
	}
}

func TestPrimitives_FloatSpecialValues(t *testing.T) {
	p := attr.Float[float64](64)
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, ok := p.Encode(f); ok {
			t.Fatalf("%v must have no representation", f)
		}
	}
	if v, ok := p.Encode(0.1); !ok || v != attr.N("0.1") {
		t.Fatalf("unexpected encoding %v", v)
	}
}

func TestPrimitives_BytesAreCopied(t *testing.T) {
	src := attr.B{1, 2, 3}
	got, err := extract[[]byte](t, attr.Bytes(), src)
	if err != nil {
		t.Fatalf("extract err: %v", err)
	}
	got[0] = 9
	if src[0] != 1 {
		t.Fatalf("extract must not alias the stored value")
	}
}

func TestStructure_SetsAsLists(t *testing.T) {
	s := attr.Structure()
	l, err := s.ExtractList(attr.NS{"1", "2"})
	if err != nil {
		t.Fatalf("extract err: %v", err)
	}
	if !reflect.DeepEqual(l, []attrskema.StoredValue{attr.N("1"), attr.N("2")}) {
		t.Fatalf("unexpected list %#v", l)
	}
	if _, err := s.ExtractList(attr.S("x")); !errors.Is(err, attrskema.ErrExtractionFailure) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
	if _, err := s.ExtractMap(attr.NULL{}); !attrskema.IsMissingField(err) {
		t.Fatalf("expected NULL map to be missing, got %v", err)
	}
	if _, ok := s.EncodeMap(attrskema.AttributeMap{}).(attr.M); !ok {
		t.Fatalf("EncodeMap must produce M")
	}
}

func TestRegistry_Extra(t *testing.T) {
	if _, err := attr.NewRegistry(attr.String()); err == nil {
		t.Fatalf("expected duplicate string capability to fail")
	}
	reg := attr.MustRegistry()
	if len(reg.Types()) != len(attr.Primitives()) {
		t.Fatalf("unexpected registered types %v", reg.Types())
	}
}
