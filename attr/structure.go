package attr

import "github.com/reoring/attrskema"

// Structure returns the structural capability for this package's values.
// ExtractList also accepts the set types, yielding S, N or B elements.
func Structure() attrskema.Structure { return structure{} }

type structure struct{}

func (structure) ExtractMap(v attrskema.StoredValue) (attrskema.AttributeMap, error) {
	switch m := v.(type) {
	case M:
		return attrskema.AttributeMap(m), nil
	case attrskema.AttributeMap:
		return m, nil
	default:
		return nil, mismatch("M", v)
	}
}

func (structure) ExtractList(v attrskema.StoredValue) ([]attrskema.StoredValue, error) {
	switch l := v.(type) {
	case L:
		return []attrskema.StoredValue(l), nil
	case SS:
		out := make([]attrskema.StoredValue, len(l))
		for i, s := range l {
			out[i] = S(s)
		}
		return out, nil
	case NS:
		out := make([]attrskema.StoredValue, len(l))
		for i, n := range l {
			out[i] = N(n)
		}
		return out, nil
	case BS:
		out := make([]attrskema.StoredValue, len(l))
		for i, b := range l {
			out[i] = B(b)
		}
		return out, nil
	default:
		return nil, mismatch("L", v)
	}
}

func (structure) EncodeMap(m attrskema.AttributeMap) attrskema.StoredValue { return M(m) }

func (structure) EncodeList(l []attrskema.StoredValue) attrskema.StoredValue { return L(l) }
