// Package textenc detects and decodes the text encodings SQL script files
// commonly arrive in. Editors on Windows in particular save .sql files as
// UTF-16 with a BOM; everything downstream of here works on UTF-8 strings.
package textenc

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Encoding identifies a detected text encoding.
type Encoding string

const (
	Unknown Encoding = ""
	UTF8    Encoding = "utf8"
	UTF8BOM Encoding = "utf8bom"
	UTF16LE Encoding = "utf16le"
	UTF16BE Encoding = "utf16be"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// DetectBOM returns the encoding indicated by a byte order mark at the start
// of b and the BOM's length in bytes. Without a BOM it returns (Unknown, 0).
// The UTF-16 checks run first: the UTF-8 BOM shares no prefix with them, but
// a UTF-16 LE BOM must not be mistaken for anything else.
func DetectBOM(b []byte) (Encoding, int) {
	switch {
	case bytes.HasPrefix(b, bomUTF8):
		return UTF8BOM, len(bomUTF8)
	case bytes.HasPrefix(b, bomUTF16BE):
		return UTF16BE, len(bomUTF16BE)
	case bytes.HasPrefix(b, bomUTF16LE):
		return UTF16LE, len(bomUTF16LE)
	}
	return Unknown, 0
}

// guessSampleSize bounds the heuristic scan; scripts megabytes long reveal
// their encoding within the first few hundred bytes.
const guessSampleSize = 512

// Guess determines the probable encoding of b: BOM first, then a zero-byte
// pattern check for BOM-less UTF-16 (ASCII-range text interleaves NUL bytes,
// at even offsets for BE and odd for LE), then UTF-8 validity.
func Guess(b []byte) Encoding {
	if enc, _ := DetectBOM(b); enc != Unknown {
		return enc
	}

	sample := b
	if len(sample) > guessSampleSize {
		sample = sample[:guessSampleSize]
	}

	evenNUL, oddNUL := 0, 0
	for i, c := range sample {
		if c != 0x00 {
			continue
		}
		if i%2 == 0 {
			evenNUL++
		} else {
			oddNUL++
		}
	}
	// Half the sampled bytes being NUL on one parity is the UTF-16 signature.
	if pairs := len(sample) / 2; pairs > 0 {
		if evenNUL >= pairs/2 && evenNUL > oddNUL {
			return UTF16BE
		}
		if oddNUL >= pairs/2 && oddNUL > evenNUL {
			return UTF16LE
		}
	}

	if utf8.Valid(b) {
		return UTF8
	}
	return Unknown
}

// DecodeString converts raw script bytes to a UTF-8 string, consuming any
// BOM. Bytes that look like plain UTF-8 (or defy detection) pass through
// unchanged.
func DecodeString(b []byte) (string, error) {
	switch Guess(b) {
	case UTF8BOM:
		return string(b[len(bomUTF8):]), nil
	case UTF16LE:
		return decodeUTF16(b, unicode.LittleEndian)
	case UTF16BE:
		return decodeUTF16(b, unicode.BigEndian)
	default:
		return string(b), nil
	}
}

func decodeUTF16(b []byte, endianness unicode.Endianness) (string, error) {
	dec := unicode.UTF16(endianness, unicode.IgnoreBOM).NewDecoder()
	if enc, n := DetectBOM(b); enc != Unknown {
		b = b[n:]
	}
	out, err := dec.Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decoding UTF-16: %w", err)
	}
	return string(out), nil
}

// TrimBOM strips a leading UTF-8 BOM rune from an already-decoded string.
// Statements pasted out of editor buffers occasionally keep one, and it
// would otherwise read as a stray identifier byte during validation.
func TrimBOM(s string) string {
	return string(bytes.TrimPrefix([]byte(s), bomUTF8))
}
