package attrskema_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/reoring/attrskema"
	"github.com/reoring/attrskema/i18n"
)

func TestDecodingError_IsByKindAndCode(t *testing.T) {
	enum := &attrskema.DecodingError{Kind: attrskema.MissingField, Code: attrskema.CodeInvalidEnum}
	if !errors.Is(enum, attrskema.ErrMissingField) {
		t.Fatalf("invalid_enum must match the MissingField sentinel")
	}
	if errors.Is(enum, attrskema.ErrExtractionFailure) {
		t.Fatalf("kinds must not cross-match")
	}
	other := attrskema.NewOther("boom")
	if !errors.Is(other, attrskema.ErrOther) {
		t.Fatalf("expected Other to match")
	}
	if errors.Is(other, attrskema.ErrNoVariant) {
		t.Fatalf("ErrNoVariant must only match code no_variant")
	}
}

func TestDecodingError_AsThroughWrapping(t *testing.T) {
	base := attrskema.NewMissingField("User", "email")
	wrapped := fmt.Errorf("load user: %w", base)
	de, ok := attrskema.AsDecodingError(wrapped)
	if !ok || de != base {
		t.Fatalf("expected to extract the original error")
	}
	if !attrskema.IsMissingField(wrapped) {
		t.Fatalf("IsMissingField must see through wrapping")
	}
	if _, ok := attrskema.AsDecodingError(nil); ok {
		t.Fatalf("nil is not a decoding error")
	}
}

func TestDecodingError_Message(t *testing.T) {
	cause := errors.New("bad digit")
	e := attrskema.NewExtractionFailure(cause)
	e.Record, e.Field = "Order", "total"
	got := e.Error()
	for _, want := range []string{"extraction_failure", "Order.total", "bad digit"} {
		if !strings.Contains(got, want) {
			t.Fatalf("message %q does not contain %q", got, want)
		}
	}
	if !errors.Is(e, cause) {
		t.Fatalf("cause must be reachable via Unwrap")
	}
	if s := attrskema.NewOther("custom detail").Error(); !strings.Contains(s, "custom detail") {
		t.Fatalf("unexpected Other message %q", s)
	}
}

func TestDecodingError_Localized(t *testing.T) {
	i18n.SetLanguage("ja")
	defer i18n.SetLanguage("en")
	e := attrskema.NewMissingField("User", "email")
	if e.Message != "属性が存在しません" {
		t.Fatalf("expected Japanese message, got %q", e.Message)
	}
}

func TestSchemaError_Path(t *testing.T) {
	e := &attrskema.SchemaError{Path: []string{"Order", "lines", "[]", "qty"}, Detail: "boom"}
	if e.Error() != "attrskema: Order.lines.[].qty: boom" {
		t.Fatalf("unexpected message %q", e.Error())
	}
	if (&attrskema.SchemaError{Detail: "x"}).Error() != "attrskema: x" {
		t.Fatalf("unexpected message without path")
	}
}
