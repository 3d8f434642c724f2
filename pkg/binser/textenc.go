package binser

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// TextEncoding pairs an x/text encoding with the metadata the serializer
// needs: a stable name for configuration and the code unit width in bytes,
// which determines how wide the null terminator is.
type TextEncoding struct {
	Name     string
	Encoding encoding.Encoding
	// UnitWidth is the size of one code unit in bytes (1 for byte-oriented
	// encodings, 2 for UTF-16).
	UnitWidth int
}

// Encodings available out of the box. Additional encodings can be built from
// any golang.org/x/text encoding.
var (
	UTF8        = TextEncoding{Name: "utf-8", Encoding: unicode.UTF8, UnitWidth: 1}
	UTF16LE     = TextEncoding{Name: "utf-16-le", Encoding: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), UnitWidth: 2}
	UTF16BE     = TextEncoding{Name: "utf-16-be", Encoding: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), UnitWidth: 2}
	ShiftJIS    = TextEncoding{Name: "shift-jis", Encoding: japanese.ShiftJIS, UnitWidth: 1}
	Windows1252 = TextEncoding{Name: "windows-1252", Encoding: charmap.Windows1252, UnitWidth: 1}
)

// EncodingByName maps a configuration string to one of the built-in
// encodings.
func EncodingByName(name string) (TextEncoding, error) {
	switch name {
	case UTF8.Name, "utf8", "":
		return UTF8, nil
	case UTF16LE.Name, "utf16", "utf-16":
		return UTF16LE, nil
	case UTF16BE.Name:
		return UTF16BE, nil
	case ShiftJIS.Name, "sjis":
		return ShiftJIS, nil
	case Windows1252.Name, "cp1252":
		return Windows1252, nil
	}
	return TextEncoding{}, newErrf(ErrEncoding, "unknown encoding %q", name)
}

// IsZero reports whether the encoding is unset.
func (e TextEncoding) IsZero() bool { return e.Encoding == nil }

func (e TextEncoding) decode(b []byte) (string, error) {
	out, err := e.Encoding.NewDecoder().Bytes(b)
	if err != nil {
		return "", newErrf(ErrEncoding, "decode %s: %v", e.Name, err)
	}
	return string(out), nil
}

func (e TextEncoding) encode(s string) ([]byte, error) {
	out, err := e.Encoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, newErrf(ErrEncoding, "encode %s: %v", e.Name, err)
	}
	return out, nil
}
