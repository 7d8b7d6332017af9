package attrskema_test

import (
	"fmt"
	"math"
	"strconv"

	"github.com/reoring/attrskema"
)

// plainStructure is a minimal backend: maps are AttributeMap, lists are
// []any, strings are string, and numbers are decimal strings.
type plainStructure struct{}

func (plainStructure) ExtractMap(v attrskema.StoredValue) (attrskema.AttributeMap, error) {
	if m, ok := v.(attrskema.AttributeMap); ok {
		return m, nil
	}
	return nil, attrskema.NewExtractionFailure(fmt.Errorf("expected map, got %T", v))
}

func (plainStructure) ExtractList(v attrskema.StoredValue) ([]attrskema.StoredValue, error) {
	if l, ok := v.([]attrskema.StoredValue); ok {
		return l, nil
	}
	return nil, attrskema.NewExtractionFailure(fmt.Errorf("expected list, got %T", v))
}

func (plainStructure) EncodeMap(m attrskema.AttributeMap) attrskema.StoredValue   { return m }
func (plainStructure) EncodeList(l []attrskema.StoredValue) attrskema.StoredValue { return l }

func plainString() attrskema.Primitive {
	return attrskema.PrimitiveOf(
		func(v attrskema.StoredValue) (string, error) {
			s, ok := v.(string)
			if !ok {
				return "", fmt.Errorf("expected string, got %T", v)
			}
			return s, nil
		},
		func(s string) (attrskema.StoredValue, bool) { return s, true },
	)
}

// plainInt rejects non-numeric strings.
func plainInt() attrskema.Primitive {
	return attrskema.PrimitiveOf(
		func(v attrskema.StoredValue) (int, error) {
			s, ok := v.(string)
			if !ok {
				return 0, fmt.Errorf("expected number, got %T", v)
			}
			return strconv.Atoi(s)
		},
		func(i int) (attrskema.StoredValue, bool) { return strconv.Itoa(i), true },
	)
}

func plainFloat() attrskema.Primitive {
	return attrskema.PrimitiveOf(
		func(v attrskema.StoredValue) (float64, error) {
			s, ok := v.(string)
			if !ok {
				return 0, fmt.Errorf("expected number, got %T", v)
			}
			return strconv.ParseFloat(s, 64)
		},
		func(f float64) (attrskema.StoredValue, bool) {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, false
			}
			return strconv.FormatFloat(f, 'g', -1, 64), true
		},
	)
}

func plainRegistry() *attrskema.Registry {
	reg, err := attrskema.NewRegistry(plainStructure{}, plainString(), plainInt(), plainFloat())
	if err != nil {
		panic(err)
	}
	return reg
}

func list(vs ...attrskema.StoredValue) []attrskema.StoredValue { return vs }
