package attrskema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/attrskema/i18n"
)

// ErrorKind is the coarse classification of a decoding failure.
type ErrorKind int

const (
	// MissingField reports an absent attribute. Optional fields recover from it.
	MissingField ErrorKind = iota + 1
	// ExtractionFailure reports a present value of the wrong representation.
	ExtractionFailure
	// Other reports structural failures with no more specific cause.
	Other
)

func (k ErrorKind) String() string {
	switch k {
	case MissingField:
		return "missing_field"
	case ExtractionFailure:
		return "extraction_failure"
	case Other:
		return "other"
	default:
		return "unknown"
	}
}

// Error codes (stable, suitable for i18n lookups and metrics labels).
const (
	CodeMissingField      = "missing_field"
	CodeExtractionFailure = "extraction_failure"
	CodeInvalidEnum       = "invalid_enum"
	CodeNoVariant         = "no_variant"
	CodeOther             = "other"
)

// DecodingError is returned by every decode path. Failures are plain values:
// each one is built where it happens and is never re-wrapped on the way up, so
// Record and Field name the innermost record and field involved.
type DecodingError struct {
	Kind    ErrorKind
	Code    string
	Record  string // record or union schema name (may be empty)
	Field   string // field or variant name (may be empty)
	Message string
	Cause   error
}

var (
	ErrMissingField      = &DecodingError{Kind: MissingField}
	ErrExtractionFailure = &DecodingError{Kind: ExtractionFailure}
	ErrOther             = &DecodingError{Kind: Other}
	// ErrNoVariant matches union decodes where no variant accepted the value.
	ErrNoVariant = &DecodingError{Kind: Other, Code: CodeNoVariant}
)

func (e *DecodingError) Error() string {
	b := &strings.Builder{}
	code := e.Code
	if code == "" {
		code = e.Kind.String()
	}
	b.WriteString(code)
	if e.Record != "" || e.Field != "" {
		b.WriteString(" at ")
		switch {
		case e.Record != "" && e.Field != "":
			fmt.Fprintf(b, "%s.%s", e.Record, e.Field)
		case e.Record != "":
			b.WriteString(e.Record)
		default:
			b.WriteString(e.Field)
		}
	}
	if e.Message != "" && e.Message != code {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(b, " (caused by: %v)", e.Cause)
	}
	return b.String()
}

func (e *DecodingError) Unwrap() error { return e.Cause }

// Is matches sentinels by Kind, and by Code when the target sets one.
func (e *DecodingError) Is(target error) bool {
	t, ok := target.(*DecodingError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// NewMissingField builds a MissingField error for the named field.
func NewMissingField(record, field string) *DecodingError {
	return newDecodingError(MissingField, CodeMissingField, record, field, nil)
}

// NewExtractionFailure builds an ExtractionFailure wrapping cause. Primitive
// extractors use it to reject values.
func NewExtractionFailure(cause error) *DecodingError {
	return newDecodingError(ExtractionFailure, CodeExtractionFailure, "", "", cause)
}

// NewOther builds an Other error with a free-form detail message.
func NewOther(detail string) *DecodingError {
	e := newDecodingError(Other, CodeOther, "", "", nil)
	if detail != "" {
		e.Message = detail
	}
	return e
}

func newDecodingError(kind ErrorKind, code, record, field string, cause error) *DecodingError {
	return &DecodingError{
		Kind:    kind,
		Code:    code,
		Record:  record,
		Field:   field,
		Message: i18n.T(code, nil),
		Cause:   cause,
	}
}

// AsDecodingError extracts a *DecodingError from err.
func AsDecodingError(err error) (*DecodingError, bool) {
	if err == nil {
		return nil, false
	}
	var de *DecodingError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsMissingField reports whether err is (or wraps) a MissingField failure.
func IsMissingField(err error) bool { return errors.Is(err, ErrMissingField) }

// SchemaError reports a schema that cannot be compiled against a registry or
// Go type. It is a construction-time error; decoding never returns it.
type SchemaError struct {
	Path   []string
	Detail string
}

func (e *SchemaError) Error() string {
	if len(e.Path) == 0 {
		return "attrskema: " + e.Detail
	}
	return "attrskema: " + strings.Join(e.Path, ".") + ": " + e.Detail
}

func schemaErrorf(path []string, format string, args ...any) error {
	p := make([]string, len(path))
	copy(p, path)
	return &SchemaError{Path: p, Detail: fmt.Sprintf(format, args...)}
}
