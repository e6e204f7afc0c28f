package auth

import (
	"net/url"
	"sort"
	"strings"
)

const upperHex = "0123456789ABCDEF"

// PercentEncode escapes every byte outside the RFC 3986 unreserved set using
// uppercase hex.
func PercentEncode(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

type encodedParam struct {
	key   string
	value string
}

// normalizeParams encodes and sorts params by key, then value, and joins them
// into the OAuth parameter string.
func normalizeParams(params url.Values) string {
	pairs := make([]encodedParam, 0, len(params))
	for key, values := range params {
		encodedKey := PercentEncode(key)
		if len(values) == 0 {
			pairs = append(pairs, encodedParam{key: encodedKey})
			continue
		}
		for _, value := range values {
			pairs = append(pairs, encodedParam{key: encodedKey, value: PercentEncode(value)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key == pairs[j].key {
			return pairs[i].value < pairs[j].value
		}
		return pairs[i].key < pairs[j].key
	})

	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		parts = append(parts, pair.key+"="+pair.value)
	}
	return strings.Join(parts, "&")
}
