package dump

import "strings"

// Kind is the encoding class of a raw attribute value token.
type Kind int

const (
	// KindUnknown covers tokens with no recognized encoding marker.
	KindUnknown Kind = iota
	// KindString marks a double-quoted text value.
	KindString
	// KindHex marks a 0x-prefixed hex value.
	KindHex
	// KindBase64 marks a 0s-prefixed base64 value.
	KindBase64
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindHex:
		return "hex"
	case KindBase64:
		return "base64"
	default:
		return "unknown"
	}
}

// Classify inspects a raw value token and reports its encoding. Checks are
// ordered and the first match wins; every input maps to exactly one Kind.
// Classification informs rendering only, never whether a set or remove is
// correct.
func Classify(value string) Kind {
	switch {
	case strings.HasPrefix(value, `"`):
		return KindString
	case strings.HasPrefix(value, "0x"), strings.HasPrefix(value, "0X"):
		return KindHex
	case strings.HasPrefix(value, "0s"), strings.HasPrefix(value, "0S"):
		return KindBase64
	default:
		return KindUnknown
	}
}
