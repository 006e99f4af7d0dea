// Package encoding provides text decoding for the legacy code pages used by
// 3D GameStudio asset files.
package encoding

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DefaultCharset is the code page GameStudio tools wrote file names in.
const DefaultCharset = "windows-1252"

// Lookup returns the encoding for a charset name.
// An empty name or "utf-8" returns nil, meaning no conversion.
func Lookup(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	case "iso-8859-15", "latin9":
		return charmap.ISO8859_15, nil
	case "cp437", "ibm437":
		return charmap.CodePage437, nil
	case "cp850", "ibm850":
		return charmap.CodePage850, nil
	default:
		return nil, fmt.Errorf("unsupported charset: %q", name)
	}
}

// ToUTF8 converts bytes in the given encoding to a UTF-8 string.
// Returns the original bytes as a string if enc is nil or conversion fails.
func ToUTF8(data []byte, enc encoding.Encoding) string {
	if enc == nil {
		return string(data)
	}
	result, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// NameDecoder returns a function converting NUL-terminated names in enc to UTF-8.
func NameDecoder(enc encoding.Encoding) func([]byte) string {
	return func(data []byte) string {
		return CStringToUTF8(data, enc)
	}
}

// CStringToUTF8 cuts data at the first NUL and converts the rest to UTF-8.
func CStringToUTF8(data []byte, enc encoding.Encoding) string {
	if idx := bytes.IndexByte(data, 0); idx >= 0 {
		data = data[:idx]
	}
	return ToUTF8(data, enc)
}

// NormalizePath converts a DOS-style path to forward slashes.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
