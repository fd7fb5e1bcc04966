package csv

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DecodeToUTF8 reads all of r and returns valid UTF-8 text. If the input
// is already valid UTF-8 it is returned unchanged with fallback=false. If
// not, it is best-effort transcoded from ISO-8859-1 (Latin-1, a strict
// superset of byte values that always decodes without error) and
// fallback=true is returned so the caller can record an "encoding
// fallback" warning, per spec.md §3/§7.
func DecodeToUTF8(r io.Reader) (text string, fallback bool, err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", false, err
	}
	if utf8.Valid(raw) {
		return string(raw), false, nil
	}
	decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), raw)
	if err != nil {
		return string(raw), true, nil
	}
	return string(decoded), true, nil
}

// StripNullBytes removes NUL bytes from line, reporting whether any were
// present. Some CSV sources (e.g. exports embedding a truncated UTF-16
// stream) contain stray NULs that would otherwise break downstream
// string handling.
func StripNullBytes(line string) (string, bool) {
	if !bytes.ContainsRune([]byte(line), 0) {
		return line, false
	}
	return string(bytes.ReplaceAll([]byte(line), []byte{0}, nil)), true
}
