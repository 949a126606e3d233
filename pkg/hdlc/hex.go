package hdlc

import (
	"encoding/hex"
	"strings"
)

// ParseHex decodes a hex string such as "01 0a FF". Spaces are ignored and
// digits may be in either case.
func ParseHex(s string) ([]byte, error) {
	s = strings.Replace(s, " ", "", -1)
	if len(s)%2 != 0 {
		return nil, ErrOddHexDigits
	}
	return hex.DecodeString(s)
}

// FormatHex renders bytes as space separated uppercase hex pairs.
func FormatHex(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(data) * 3)
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{b})))
	}
	return sb.String()
}
