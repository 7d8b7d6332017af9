package attr

import (
	"fmt"
	"sort"

	"github.com/tinylib/msgp/msgp"

	"github.com/reoring/attrskema"
)

// Binary form: an item is a msgpack map of name -> value, and every value is
// a two-element array [descriptor, payload]. Map keys are written sorted so
// equal items produce equal bytes.

// AppendBinary appends the binary form of item to b.
func AppendBinary(b []byte, item attrskema.AttributeMap) ([]byte, error) {
	return appendMap(b, item)
}

// MarshalBinary returns the binary form of item.
func MarshalBinary(item attrskema.AttributeMap) ([]byte, error) {
	return AppendBinary(nil, item)
}

// ReadBinary reads one item from b and returns the remaining bytes.
func ReadBinary(b []byte) (attrskema.AttributeMap, []byte, error) {
	return readMap(b)
}

// UnmarshalBinary reads exactly one item from b.
func UnmarshalBinary(b []byte) (attrskema.AttributeMap, error) {
	item, rest, err := readMap(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("attr: %d trailing bytes after item", len(rest))
	}
	return item, nil
}

func appendMap(b []byte, m attrskema.AttributeMap) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b = msgp.AppendMapHeader(b, uint32(len(keys)))
	var err error
	for _, k := range keys {
		b = msgp.AppendString(b, k)
		if b, err = appendValue(b, m[k]); err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
	}
	return b, nil
}

func appendValue(b []byte, v attrskema.StoredValue) ([]byte, error) {
	b = msgp.AppendArrayHeader(b, 2)
	switch t := v.(type) {
	case S:
		b = msgp.AppendString(b, "S")
		return msgp.AppendString(b, string(t)), nil
	case N:
		b = msgp.AppendString(b, "N")
		return msgp.AppendString(b, string(t)), nil
	case B:
		b = msgp.AppendString(b, "B")
		return msgp.AppendBytes(b, t), nil
	case BOOL:
		b = msgp.AppendString(b, "BOOL")
		return msgp.AppendBool(b, bool(t)), nil
	case NULL:
		b = msgp.AppendString(b, "NULL")
		return msgp.AppendNil(b), nil
	case M:
		b = msgp.AppendString(b, "M")
		return appendMap(b, attrskema.AttributeMap(t))
	case L:
		b = msgp.AppendString(b, "L")
		b = msgp.AppendArrayHeader(b, uint32(len(t)))
		var err error
		for i, e := range t {
			if b, err = appendValue(b, e); err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return b, nil
	case SS:
		b = msgp.AppendString(b, "SS")
		return appendStrings(b, t), nil
	case NS:
		b = msgp.AppendString(b, "NS")
		return appendStrings(b, t), nil
	case BS:
		b = msgp.AppendString(b, "BS")
		b = msgp.AppendArrayHeader(b, uint32(len(t)))
		for _, e := range t {
			b = msgp.AppendBytes(b, e)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("attr: cannot marshal %s", TypeName(v))
	}
}

func appendStrings(b []byte, ss []string) []byte {
	b = msgp.AppendArrayHeader(b, uint32(len(ss)))
	for _, s := range ss {
		b = msgp.AppendString(b, s)
	}
	return b
}

func readMap(b []byte) (attrskema.AttributeMap, []byte, error) {
	n, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return nil, nil, err
	}
	out := make(attrskema.AttributeMap, n)
	for i := uint32(0); i < n; i++ {
		var k string
		if k, b, err = msgp.ReadStringBytes(b); err != nil {
			return nil, nil, err
		}
		var v attrskema.StoredValue
		if v, b, err = readValue(b); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = v
	}
	return out, b, nil
}

func readValue(b []byte) (attrskema.StoredValue, []byte, error) {
	sz, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, nil, err
	}
	if sz != 2 {
		return nil, nil, fmt.Errorf("attr: value array has %d elements, want 2", sz)
	}
	tag, b, err := msgp.ReadStringBytes(b)
	if err != nil {
		return nil, nil, err
	}
	switch tag {
	case "S", "N":
		s, rest, err := msgp.ReadStringBytes(b)
		if err != nil {
			return nil, nil, err
		}
		if tag == "S" {
			return S(s), rest, nil
		}
		return N(s), rest, nil
	case "B":
		v, rest, err := msgp.ReadBytesBytes(b, nil)
		if err != nil {
			return nil, nil, err
		}
		return B(v), rest, nil
	case "BOOL":
		v, rest, err := msgp.ReadBoolBytes(b)
		if err != nil {
			return nil, nil, err
		}
		return BOOL(v), rest, nil
	case "NULL":
		rest, err := msgp.ReadNilBytes(b)
		if err != nil {
			return nil, nil, err
		}
		return NULL{}, rest, nil
	case "M":
		m, rest, err := readMap(b)
		if err != nil {
			return nil, nil, err
		}
		return M(m), rest, nil
	case "L":
		n, rest, err := msgp.ReadArrayHeaderBytes(b)
		if err != nil {
			return nil, nil, err
		}
		l := make(L, n)
		for i := range l {
			if l[i], rest, err = readValue(rest); err != nil {
				return nil, nil, fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return l, rest, nil
	case "SS", "NS":
		ss, rest, err := readStrings(b)
		if err != nil {
			return nil, nil, err
		}
		if tag == "SS" {
			return SS(ss), rest, nil
		}
		return NS(ss), rest, nil
	case "BS":
		n, rest, err := msgp.ReadArrayHeaderBytes(b)
		if err != nil {
			return nil, nil, err
		}
		bs := make(BS, n)
		for i := range bs {
			if bs[i], rest, err = msgp.ReadBytesBytes(rest, nil); err != nil {
				return nil, nil, err
			}
		}
		return bs, rest, nil
	default:
		return nil, nil, fmt.Errorf("attr: unknown type descriptor %q", tag)
	}
}

func readStrings(b []byte) ([]string, []byte, error) {
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, nil, err
	}
	out := make([]string, n)
	for i := range out {
		if out[i], b, err = msgp.ReadStringBytes(b); err != nil {
			return nil, nil, err
		}
	}
	return out, b, nil
}
