// Package attr is a DynamoDB-style stored value model for attrskema: the
// value types, the structural capability, primitive capabilities for Go's
// basic types, and two wire forms (DynamoDB JSON and a msgpack binary form).
package attr

import (
	"fmt"

	"github.com/reoring/attrskema"
)

// Value is implemented by every stored value type of this package.
type Value interface{ attrValue() }

type (
	// S is a string attribute.
	S string
	// N is a number attribute in decimal string form.
	N string
	// B is a binary attribute.
	B []byte
	// BOOL is a boolean attribute.
	BOOL bool
	// NULL is the null attribute. Extractors treat it like an absent attribute.
	NULL struct{}
	// M is a nested attribute map. Its values are Values.
	M attrskema.AttributeMap
	// L is a list attribute. Its elements are Values.
	L []attrskema.StoredValue
	// SS is a string set.
	SS []string
	// NS is a number set.
	NS []string
	// BS is a binary set.
	BS [][]byte
)

func (S) attrValue()    {}
func (N) attrValue()    {}
func (B) attrValue()    {}
func (BOOL) attrValue() {}
func (NULL) attrValue() {}
func (M) attrValue()    {}
func (L) attrValue()    {}
func (SS) attrValue()   {}
func (NS) attrValue()   {}
func (BS) attrValue()   {}

// TypeName returns the DynamoDB type descriptor of v ("S", "N", "M", ...), or
// the Go type for foreign values.
func TypeName(v attrskema.StoredValue) string {
	switch v.(type) {
	case S:
		return "S"
	case N:
		return "N"
	case B:
		return "B"
	case BOOL:
		return "BOOL"
	case NULL:
		return "NULL"
	case M:
		return "M"
	case L:
		return "L"
	case SS:
		return "SS"
	case NS:
		return "NS"
	case BS:
		return "BS"
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// TypeError reports a stored value of an unexpected type.
type TypeError struct {
	Want string
	Got  attrskema.StoredValue
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("attr: expected %s, got %s", e.Want, TypeName(e.Got))
}

// mismatch classifies v against the expected type name: NULL is reported as a
// missing attribute, anything else as an extraction failure.
func mismatch(want string, v attrskema.StoredValue) error {
	if _, ok := v.(NULL); ok {
		return attrskema.NewMissingField("", "")
	}
	return attrskema.NewExtractionFailure(&TypeError{Want: want, Got: v})
}
