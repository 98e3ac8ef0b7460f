// FILE: syslogfwd/src/internal/encoding/encoding.go
package encoding

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Replacement is written in place of runes the target charset cannot represent
const Replacement = '?'

// Encoder converts a finished message into wire bytes
type Encoder interface {
	Encode(message string) ([]byte, error)
	Name() string
}

// New returns the encoder for a charset name. Names are case-insensitive.
func New(name string) (Encoder, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return utf8Encoder{}, nil
	case "us-ascii", "ascii":
		return &transformEncoder{
			name: "us-ascii",
			t: runes.Map(func(r rune) rune {
				if r > unicode.MaxASCII {
					return Replacement
				}
				return r
			}),
		}, nil
	case "iso-8859-1", "latin1":
		return newCharmapEncoder("iso-8859-1", charmap.ISO8859_1), nil
	case "windows-1252", "cp1252":
		return newCharmapEncoder("windows-1252", charmap.Windows1252), nil
	case "utf-16le":
		return newUnicodeEncoder("utf-16le", xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM)), nil
	case "utf-16be":
		return newUnicodeEncoder("utf-16be", xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM)), nil
	default:
		return nil, fmt.Errorf("unknown encoding: %s", name)
	}
}

// utf8Encoder passes the message bytes through unchanged
type utf8Encoder struct{}

func (utf8Encoder) Encode(message string) ([]byte, error) {
	return []byte(message), nil
}

func (utf8Encoder) Name() string {
	return "utf-8"
}

type transformEncoder struct {
	name string
	t    transform.Transformer
}

func (e *transformEncoder) Encode(message string) ([]byte, error) {
	out, _, err := transform.Bytes(e.t, []byte(message))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.name, err)
	}
	return out, nil
}

func (e *transformEncoder) Name() string {
	return e.name
}

// newCharmapEncoder maps runes outside the charmap to Replacement before encoding
func newCharmapEncoder(name string, cm *charmap.Charmap) Encoder {
	mapper := runes.Map(func(r rune) rune {
		if _, ok := cm.EncodeRune(r); !ok {
			return Replacement
		}
		return r
	})
	return &transformEncoder{
		name: name,
		t:    transform.Chain(mapper, cm.NewEncoder()),
	}
}

func newUnicodeEncoder(name string, enc encoding.Encoding) Encoder {
	return &transformEncoder{
		name: name,
		t:    encoding.ReplaceUnsupported(enc.NewEncoder()),
	}
}
