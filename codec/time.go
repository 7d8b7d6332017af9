// Package codec provides primitive capabilities beyond Go's basic types for
// the attr backend: timestamps, text-marshaling types and embedded JSON.
package codec

import (
	"fmt"
	"strconv"
	"time"

	"github.com/reoring/attrskema"
	"github.com/reoring/attrskema/attr"
)

// TimeRFC3339 converts S <-> time.Time. Decoding accepts RFC3339 with or
// without fractional seconds; encoding writes UTC RFC3339Nano.
func TimeRFC3339() attrskema.Primitive {
	return attrskema.PrimitiveOf(
		func(v attrskema.StoredValue) (time.Time, error) {
			s, ok := v.(attr.S)
			if !ok {
				return time.Time{}, typeError("S", v)
			}
			t, err := parseRFC3339(string(s))
			if err != nil {
				return time.Time{}, attrskema.NewExtractionFailure(err)
			}
			return t, nil
		},
		func(t time.Time) (attrskema.StoredValue, bool) {
			return attr.S(formatRFC3339Canonical(t)), true
		},
	)
}

// UnixTime is a time stored as whole Unix seconds.
type UnixTime time.Time

// Time returns u as a time.Time in UTC.
func (u UnixTime) Time() time.Time { return time.Time(u).UTC() }

// MarshalJSON renders u as integer seconds.
func (u UnixTime) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, time.Time(u).Unix(), 10), nil
}

// UnmarshalJSON accepts integer seconds.
func (u *UnixTime) UnmarshalJSON(b []byte) error {
	sec, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("codec: unix time must be integer seconds: %w", err)
	}
	*u = UnixTime(time.Unix(sec, 0).UTC())
	return nil
}

// TimeUnix converts N (integer seconds) <-> UnixTime. Sub-second precision
// is truncated on encode.
func TimeUnix() attrskema.Primitive {
	return attrskema.PrimitiveOf(
		func(v attrskema.StoredValue) (UnixTime, error) {
			n, ok := v.(attr.N)
			if !ok {
				return UnixTime{}, typeError("N", v)
			}
			sec, err := strconv.ParseInt(string(n), 10, 64)
			if err != nil {
				return UnixTime{}, attrskema.NewExtractionFailure(err)
			}
			return UnixTime(time.Unix(sec, 0).UTC()), nil
		},
		func(u UnixTime) (attrskema.StoredValue, bool) {
			return attr.N(strconv.FormatInt(time.Time(u).Unix(), 10)), true
		},
	)
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

// Go trims trailing zeros from RFC3339Nano.
func formatRFC3339Canonical(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// typeError classifies a value of the wrong attribute type the way attr's own
// primitives do: NULL counts as missing.
func typeError(want string, v attrskema.StoredValue) error {
	if _, ok := v.(attr.NULL); ok {
		return attrskema.NewMissingField("", "")
	}
	return attrskema.NewExtractionFailure(&attr.TypeError{Want: want, Got: v})
}
