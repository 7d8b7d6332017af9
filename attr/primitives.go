package attr

import (
	"bytes"
	"math"
	"strconv"

	"github.com/reoring/attrskema"
)

// Primitives returns capabilities for string, bool, the sized integer types,
// float32, float64 and []byte.
func Primitives() []attrskema.Primitive {
	return []attrskema.Primitive{
		String(),
		Bool(),
		Signed[int](strconv.IntSize),
		Signed[int8](8),
		Signed[int16](16),
		Signed[int32](32),
		Signed[int64](64),
		Unsigned[uint](strconv.IntSize),
		Unsigned[uint8](8),
		Unsigned[uint16](16),
		Unsigned[uint32](32),
		Unsigned[uint64](64),
		Float[float32](32),
		Float[float64](64),
		Bytes(),
	}
}

// NewRegistry returns a registry with this package's structure, Primitives
// and extra capabilities.
func NewRegistry(extra ...attrskema.Primitive) (*attrskema.Registry, error) {
	prims := append(Primitives(), extra...)
	return attrskema.NewRegistry(Structure(), prims...)
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(extra ...attrskema.Primitive) *attrskema.Registry {
	r, err := NewRegistry(extra...)
	if err != nil {
		panic(err)
	}
	return r
}

// String converts S <-> string.
func String() attrskema.Primitive {
	return attrskema.PrimitiveOf(
		func(v attrskema.StoredValue) (string, error) {
			s, ok := v.(S)
			if !ok {
				return "", mismatch("S", v)
			}
			return string(s), nil
		},
		func(s string) (attrskema.StoredValue, bool) { return S(s), true },
	)
}

// Bool converts BOOL <-> bool.
func Bool() attrskema.Primitive {
	return attrskema.PrimitiveOf(
		func(v attrskema.StoredValue) (bool, error) {
			b, ok := v.(BOOL)
			if !ok {
				return false, mismatch("BOOL", v)
			}
			return bool(b), nil
		},
		func(b bool) (attrskema.StoredValue, bool) { return BOOL(b), true },
	)
}

// Signed converts N <-> a signed integer type of the given bit size. Values
// that do not parse or overflow the type are extraction failures.
func Signed[I ~int | ~int8 | ~int16 | ~int32 | ~int64](bits int) attrskema.Primitive {
	return attrskema.PrimitiveOf(
		func(v attrskema.StoredValue) (I, error) {
			n, ok := v.(N)
			if !ok {
				return 0, mismatch("N", v)
			}
			i, err := strconv.ParseInt(string(n), 10, bits)
			if err != nil {
				return 0, attrskema.NewExtractionFailure(err)
			}
			return I(i), nil
		},
		func(i I) (attrskema.StoredValue, bool) { return N(strconv.FormatInt(int64(i), 10)), true },
	)
}

// Unsigned converts N <-> an unsigned integer type of the given bit size.
func Unsigned[U ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](bits int) attrskema.Primitive {
	return attrskema.PrimitiveOf(
		func(v attrskema.StoredValue) (U, error) {
			n, ok := v.(N)
			if !ok {
				return 0, mismatch("N", v)
			}
			u, err := strconv.ParseUint(string(n), 10, bits)
			if err != nil {
				return 0, attrskema.NewExtractionFailure(err)
			}
			return U(u), nil
		},
		func(u U) (attrskema.StoredValue, bool) { return N(strconv.FormatUint(uint64(u), 10)), true },
	)
}

// Float converts N <-> a floating point type. NaN and infinities have no
// stored representation and encode to nothing.
func Float[F ~float32 | ~float64](bits int) attrskema.Primitive {
	return attrskema.PrimitiveOf(
		func(v attrskema.StoredValue) (F, error) {
			n, ok := v.(N)
			if !ok {
				return 0, mismatch("N", v)
			}
			f, err := strconv.ParseFloat(string(n), bits)
			if err != nil {
				return 0, attrskema.NewExtractionFailure(err)
			}
			return F(f), nil
		},
		func(f F) (attrskema.StoredValue, bool) {
			x := float64(f)
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, false
			}
			return N(strconv.FormatFloat(x, 'g', -1, bits)), true
		},
	)
}

// Bytes converts B <-> []byte. Both directions copy.
func Bytes() attrskema.Primitive {
	return attrskema.PrimitiveOf(
		func(v attrskema.StoredValue) ([]byte, error) {
			b, ok := v.(B)
			if !ok {
				return nil, mismatch("B", v)
			}
			return bytes.Clone(b), nil
		},
		func(b []byte) (attrskema.StoredValue, bool) { return B(bytes.Clone(b)), true },
	)
}
