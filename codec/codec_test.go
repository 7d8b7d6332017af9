package codec_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/reoring/attrskema"
	"github.com/reoring/attrskema/attr"
	"github.com/reoring/attrskema/codec"
)

func TestTimeRFC3339_Basic(t *testing.T) {
	p := codec.TimeRFC3339()

	in := attr.S("2025-01-01T00:00:00Z")
	rv, err := p.Extract(in)
	if err != nil {
		t.Fatalf("extract err: %v", err)
	}
	got := rv.Interface().(time.Time)
	if !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v", got)
	}

	out, ok := p.Encode(got)
	if !ok {
		t.Fatalf("encode failed")
	}
	if out != in {
		t.Fatalf("roundtrip mismatch: %v != %v", out, in)
	}
}

func TestTimeRFC3339_CanonicalUTC(t *testing.T) {
	p := codec.TimeRFC3339()
	loc := time.FixedZone("JST", 9*3600)
	out, ok := p.Encode(time.Date(2025, 1, 1, 9, 0, 0, 500_000_000, loc))
	if !ok {
		t.Fatalf("encode failed")
	}
	if out != attr.S("2025-01-01T00:00:00.5Z") {
		t.Fatalf("unexpected canonical form: %v", out)
	}
}

func TestTimeRFC3339_Invalid(t *testing.T) {
	p := codec.TimeRFC3339()
	_, err := p.Extract(attr.S("yesterday"))
	if !errors.Is(err, attrskema.ErrExtractionFailure) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
	_, err = p.Extract(attr.N("1"))
	if !errors.Is(err, attrskema.ErrExtractionFailure) {
		t.Fatalf("expected extraction failure for N, got %v", err)
	}
	_, err = p.Extract(attr.NULL{})
	if !attrskema.IsMissingField(err) {
		t.Fatalf("expected NULL to be missing, got %v", err)
	}
}

func TestTimeUnix_Roundtrip(t *testing.T) {
	p := codec.TimeUnix()
	rv, err := p.Extract(attr.N("1735689600"))
	if err != nil {
		t.Fatalf("extract err: %v", err)
	}
	u := rv.Interface().(codec.UnixTime)
	if !u.Time().Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v", u.Time())
	}
	out, ok := p.Encode(codec.UnixTime(u.Time().Add(900 * time.Millisecond)))
	if !ok || out != attr.N("1735689600") {
		t.Fatalf("expected truncated seconds, got %v ok=%v", out, ok)
	}
	if _, err := p.Extract(attr.N("1.5")); !errors.Is(err, attrskema.ErrExtractionFailure) {
		t.Fatalf("expected extraction failure for fractional seconds, got %v", err)
	}
}

func TestText_KSUID(t *testing.T) {
	p := codec.Text[ksuid.KSUID]()
	id := ksuid.New()

	out, ok := p.Encode(id)
	if !ok {
		t.Fatalf("encode failed")
	}
	if out != attr.S(id.String()) {
		t.Fatalf("unexpected encoded id: %v", out)
	}
	rv, err := p.Extract(out)
	if err != nil {
		t.Fatalf("extract err: %v", err)
	}
	if rv.Interface().(ksuid.KSUID) != id {
		t.Fatalf("roundtrip mismatch")
	}
	if _, err := p.Extract(attr.S("not-a-ksuid")); !errors.Is(err, attrskema.ErrExtractionFailure) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
}

type settings struct {
	Theme string `json:"theme"`
	Size  int    `json:"size"`
}

func TestJSON_Struct(t *testing.T) {
	p := codec.JSON[settings]()
	rv, err := p.Extract(attr.S(`{"theme":"dark","size":12}`))
	if err != nil {
		t.Fatalf("extract err: %v", err)
	}
	if got := rv.Interface().(settings); got != (settings{Theme: "dark", Size: 12}) {
		t.Fatalf("unexpected value: %+v", got)
	}
	out, ok := p.Encode(settings{Theme: "light", Size: 1})
	if !ok || out != attr.S(`{"theme":"light","size":1}`) {
		t.Fatalf("unexpected encoding: %v ok=%v", out, ok)
	}
	if _, err := p.Extract(attr.S(`{"size":"x"}`)); !errors.Is(err, attrskema.ErrExtractionFailure) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
}

type event struct {
	ID   ksuid.KSUID
	At   time.Time
	Seen codec.UnixTime
}

func TestCodecs_InRecord(t *testing.T) {
	reg := attr.MustRegistry(codec.TimeRFC3339(), codec.TimeUnix(), codec.Text[ksuid.KSUID]())
	rs := &attrskema.RecordSchema{
		Name:   "Event",
		GoType: reflect.TypeFor[event](),
		Fields: []attrskema.Field{
			{Name: "ID", Shape: prim[ksuid.KSUID]()},
			{Name: "At", Shape: prim[time.Time]()},
			{Name: "Seen", Shape: prim[codec.UnixTime]()},
		},
	}
	c := attrskema.MustCompile[event](reg, rs)

	in := event{
		ID:   ksuid.New(),
		At:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Seen: codec.UnixTime(time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)),
	}
	m := c.Encode(in)
	if len(m) != 3 {
		t.Fatalf("expected 3 attributes, got %v", m)
	}
	got, err := c.Decode(m)
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if got.ID != in.ID || !got.At.Equal(in.At) || !got.Seen.Time().Equal(in.Seen.Time()) {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", got, in)
	}
}

func prim[P any]() attrskema.Shape {
	return attrskema.Shape{Kind: attrskema.ShapePrimitive, Type: reflect.TypeFor[P]()}
}
