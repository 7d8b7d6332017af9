package attr

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/reoring/attrskema"
)

// MarshalJSON renders an item in DynamoDB JSON: every value is an object with
// a single type descriptor key, e.g. {"id": {"S": "a"}, "qty": {"N": "2"}}.
// Keys are emitted in sorted order.
func MarshalJSON(item attrskema.AttributeMap) ([]byte, error) {
	w, err := wireMap(item)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// MarshalValueJSON renders a single value in DynamoDB JSON.
func MarshalValueJSON(v attrskema.StoredValue) ([]byte, error) {
	w, err := toWire(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses an item in DynamoDB JSON.
func UnmarshalJSON(data []byte) (attrskema.AttributeMap, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("attr: parse item: %w", err)
	}
	if raw == nil {
		return nil, errors.New("attr: item must be a JSON object")
	}
	return fromWireMap(raw)
}

// UnmarshalValueJSON parses a single value in DynamoDB JSON.
func UnmarshalValueJSON(data []byte) (attrskema.StoredValue, error) {
	return fromWire(json.RawMessage(data))
}

func wireMap(m attrskema.AttributeMap) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		w, err := toWire(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = w
	}
	return out, nil
}

func toWire(v attrskema.StoredValue) (map[string]any, error) {
	switch t := v.(type) {
	case S:
		return map[string]any{"S": string(t)}, nil
	case N:
		return map[string]any{"N": string(t)}, nil
	case B:
		return map[string]any{"B": []byte(t)}, nil
	case BOOL:
		return map[string]any{"BOOL": bool(t)}, nil
	case NULL:
		return map[string]any{"NULL": true}, nil
	case M:
		m, err := wireMap(attrskema.AttributeMap(t))
		if err != nil {
			return nil, err
		}
		return map[string]any{"M": m}, nil
	case L:
		items := make([]any, len(t))
		for i, e := range t {
			w, err := toWire(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = w
		}
		return map[string]any{"L": items}, nil
	case SS:
		return map[string]any{"SS": []string(t)}, nil
	case NS:
		return map[string]any{"NS": []string(t)}, nil
	case BS:
		return map[string]any{"BS": [][]byte(t)}, nil
	default:
		return nil, fmt.Errorf("attr: cannot marshal %s", TypeName(v))
	}
}

func fromWireMap(raw map[string]json.RawMessage) (attrskema.AttributeMap, error) {
	out := make(attrskema.AttributeMap, len(raw))
	for k, r := range raw {
		v, err := fromWire(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func fromWire(data json.RawMessage) (attrskema.StoredValue, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("attr: value must be an object: %w", err)
	}
	if len(obj) != 1 {
		return nil, fmt.Errorf("attr: value must have exactly one type descriptor, got %d", len(obj))
	}
	for tag, body := range obj {
		switch tag {
		case "S":
			var s string
			if err := json.Unmarshal(body, &s); err != nil {
				return nil, fmt.Errorf("attr: S: %w", err)
			}
			return S(s), nil
		case "N":
			var s string
			if err := json.Unmarshal(body, &s); err != nil {
				return nil, fmt.Errorf("attr: N: %w", err)
			}
			if err := validNumber(s); err != nil {
				return nil, err
			}
			return N(s), nil
		case "B":
			var b []byte
			if err := json.Unmarshal(body, &b); err != nil {
				return nil, fmt.Errorf("attr: B: %w", err)
			}
			return B(b), nil
		case "BOOL":
			var b bool
			if err := json.Unmarshal(body, &b); err != nil {
				return nil, fmt.Errorf("attr: BOOL: %w", err)
			}
			return BOOL(b), nil
		case "NULL":
			var b bool
			if err := json.Unmarshal(body, &b); err != nil || !b {
				return nil, errors.New("attr: NULL must be true")
			}
			return NULL{}, nil
		case "M":
			var raw map[string]json.RawMessage
			if err := json.Unmarshal(body, &raw); err != nil {
				return nil, fmt.Errorf("attr: M: %w", err)
			}
			m, err := fromWireMap(raw)
			if err != nil {
				return nil, err
			}
			return M(m), nil
		case "L":
			var raw []json.RawMessage
			if err := json.Unmarshal(body, &raw); err != nil {
				return nil, fmt.Errorf("attr: L: %w", err)
			}
			l := make(L, len(raw))
			for i, r := range raw {
				v, err := fromWire(r)
				if err != nil {
					return nil, fmt.Errorf("[%d]: %w", i, err)
				}
				l[i] = v
			}
			return l, nil
		case "SS":
			var ss []string
			if err := json.Unmarshal(body, &ss); err != nil {
				return nil, fmt.Errorf("attr: SS: %w", err)
			}
			return SS(ss), nil
		case "NS":
			var ns []string
			if err := json.Unmarshal(body, &ns); err != nil {
				return nil, fmt.Errorf("attr: NS: %w", err)
			}
			for _, n := range ns {
				if err := validNumber(n); err != nil {
					return nil, err
				}
			}
			return NS(ns), nil
		case "BS":
			var bs [][]byte
			if err := json.Unmarshal(body, &bs); err != nil {
				return nil, fmt.Errorf("attr: BS: %w", err)
			}
			return BS(bs), nil
		default:
			return nil, fmt.Errorf("attr: unknown type descriptor %q", tag)
		}
	}
	panic("unreachable")
}

func validNumber(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil
		}
		return fmt.Errorf("attr: invalid number %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("attr: invalid number %q", s)
	}
	return nil
}
