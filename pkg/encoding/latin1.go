// Package encoding provides text decoding helpers for strings embedded in
// sector records.
package encoding

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
)

// Latin1ToUTF8 converts ISO-8859-1 bytes to a UTF-8 string.
// Every byte maps to exactly one rune, so nothing is lost.
func Latin1ToUTF8(data []byte) string {
	result, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// The ISO-8859-1 decoder never rejects input; keep the raw bytes anyway.
		return string(data)
	}
	return string(result)
}

// UTF8ToLatin1 converts a UTF-8 string to ISO-8859-1 bytes.
// Runes outside Latin-1 make the conversion fail and the input is returned as-is.
func UTF8ToLatin1(s string) []byte {
	result, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// CString returns data up to the first null byte, or at most limit bytes when
// no terminator is present. A non-positive limit means no limit.
func CString(data []byte, limit int) []byte {
	if idx := bytes.IndexByte(data, 0); idx >= 0 {
		return data[:idx]
	}
	if limit > 0 && len(data) > limit {
		return data[:limit]
	}
	return data
}
