package dump

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// EncodeValue renders raw attribute bytes as a dump value token. Printable
// values become a double-quoted string with backslash and quote escaped;
// anything else becomes a 0s-prefixed base64 token. DecodeValue inverts
// either form.
func EncodeValue(data []byte) string {
	if isPrintable(data) {
		var b strings.Builder
		b.WriteByte('"')
		for _, c := range data {
			if c == '\\' || c == '"' {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		}
		b.WriteByte('"')
		return b.String()
	}
	return "0s" + base64.StdEncoding.EncodeToString(data)
}

// DecodeValue converts a dump value token back to raw bytes, accepting all
// encodings setfattr does: quoted text with `\\`, `\"` and `\ooo` octal
// escapes, 0x hex, 0s base64, and everything else verbatim.
func DecodeValue(token string) ([]byte, error) {
	switch Classify(token) {
	case KindString:
		return decodeQuoted(token)
	case KindHex:
		data, err := hex.DecodeString(token[2:])
		if err != nil {
			return nil, fmt.Errorf("decode hex value %q: %w", token, err)
		}
		return data, nil
	case KindBase64:
		data, err := base64.StdEncoding.DecodeString(token[2:])
		if err != nil {
			return nil, fmt.Errorf("decode base64 value %q: %w", token, err)
		}
		return data, nil
	default:
		return []byte(token), nil
	}
}

func decodeQuoted(token string) ([]byte, error) {
	if len(token) < 2 || !strings.HasSuffix(token, `"`) {
		return nil, fmt.Errorf("unterminated string value %q", token)
	}
	body := token[1 : len(token)-1]
	var out []byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		if i == len(body)-1 {
			// Lone trailing backslash, keep it.
			out = append(out, c)
			continue
		}
		next := body[i+1]
		if next >= '0' && next <= '7' {
			// Octal escape, up to three digits as getfattr emits.
			v, n := 0, 0
			for n < 3 && i+1+n < len(body) {
				d := body[i+1+n]
				if d < '0' || d > '7' {
					break
				}
				v = v*8 + int(d-'0')
				n++
			}
			out = append(out, byte(v))
			i += n
			continue
		}
		// `\\`, `\"` and, leniently, any other escaped character.
		out = append(out, next)
		i++
	}
	return out, nil
}

func isPrintable(data []byte) bool {
	for _, c := range data {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
