package i18n

import "sync/atomic"

// Translator retrieves localized messages for error codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "field").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "missing_field":
			return "属性が存在しません"
		case "extraction_failure":
			return "属性値を取り出せません"
		case "invalid_enum":
			return "列挙値が不正です"
		case "no_variant":
			return "一致するバリアントがありません"
		case "other":
			return "デコードに失敗しました"
		}
	default: // "en"
		switch code {
		case "missing_field":
			return "attribute missing"
		case "extraction_failure":
			return "attribute value could not be extracted"
		case "invalid_enum":
			return "invalid enum symbol"
		case "no_variant":
			return "no union variant matched"
		case "other":
			return "decoding failed"
		}
	}
	return code
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	current.Store(&holder{tr: dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). A nil Translator restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return current.Load().tr.Message(code, data) }
