package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// ErrUndecodable is returned when no decoder in the chain accepts a unit.
var ErrUndecodable = errors.New("no encoding in fallback chain could decode unit")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type decoder struct {
	name   string
	decode func([]byte) (string, error)
}

// Chain is an ordered list of decoders tried until one succeeds.
type Chain struct {
	decoders []decoder
}

// NewChain resolves encoding names into a decoder chain. Besides "utf-8" and
// "utf-8-bom", any WHATWG encoding label (gbk, gb18030, big5, shift_jis, ...)
// is accepted.
func NewChain(names []string) (*Chain, error) {
	if len(names) == 0 {
		return nil, errors.New("encoding chain is empty")
	}
	chain := &Chain{decoders: make([]decoder, 0, len(names))}
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		dec, err := lookupDecoder(name)
		if err != nil {
			return nil, err
		}
		chain.decoders = append(chain.decoders, dec)
	}
	return chain, nil
}

// Names returns the decoder names in priority order.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.decoders))
	for _, dec := range c.decoders {
		names = append(names, dec.name)
	}
	return names
}

// Decode returns the text of data under the first decoder that accepts it,
// together with that decoder's name.
func (c *Chain) Decode(data []byte) (string, string, error) {
	var attempts []string
	for _, dec := range c.decoders {
		text, err := dec.decode(data)
		if err == nil {
			return text, dec.name, nil
		}
		attempts = append(attempts, fmt.Sprintf("%s: %v", dec.name, err))
	}
	return "", "", fmt.Errorf("%w (%s)", ErrUndecodable, strings.Join(attempts, "; "))
}

func lookupDecoder(name string) (decoder, error) {
	switch name {
	case "utf-8", "utf8":
		return decoder{name: "utf-8", decode: decodeUTF8}, nil
	case "utf-8-bom", "utf-8-sig", "utf8-bom":
		return decoder{name: "utf-8-bom", decode: decodeUTF8BOM}, nil
	case "utf-16":
		return decoder{name: "utf-16", decode: decodeUTF16}, nil
	case "gb18030":
		return decoder{name: name, decode: strictDecoder(simplifiedchinese.GB18030)}, nil
	case "gbk", "gb2312":
		return decoder{name: name, decode: strictDecoder(simplifiedchinese.GBK)}, nil
	case "big5":
		return decoder{name: name, decode: strictDecoder(traditionalchinese.Big5)}, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return decoder{}, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return decoder{name: name, decode: strictDecoder(enc)}, nil
}

// decodeUTF8 accepts only valid UTF-8 without a byte order mark.
func decodeUTF8(data []byte) (string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return "", errors.New("byte order mark present")
	}
	if !utf8.Valid(data) {
		return "", errors.New("invalid utf-8")
	}
	return string(data), nil
}

func decodeUTF8BOM(data []byte) (string, error) {
	if !bytes.HasPrefix(data, utf8BOM) {
		return "", errors.New("no byte order mark")
	}
	rest := data[len(utf8BOM):]
	if !utf8.Valid(rest) {
		return "", errors.New("invalid utf-8 after byte order mark")
	}
	return string(rest), nil
}

func decodeUTF16(data []byte) (string, error) {
	if !bytes.HasPrefix(data, []byte{0xFF, 0xFE}) && !bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		return "", errors.New("no utf-16 byte order mark")
	}
	// ExpectBOM lets the mark pick the byte order.
	return strictTransform(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder(), data)
}

// strictDecoder wraps a legacy decoder. x/text substitutes U+FFFD for invalid
// sequences instead of failing, so any replacement character counts as a
// failure here.
func strictDecoder(enc encoding.Encoding) func([]byte) (string, error) {
	return func(data []byte) (string, error) {
		return strictTransform(enc.NewDecoder(), data)
	}
}

type byteDecoder interface {
	Bytes([]byte) ([]byte, error)
}

func strictTransform(dec byteDecoder, data []byte) (string, error) {
	out, err := dec.Bytes(data)
	if err != nil {
		return "", err
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", errors.New("invalid byte sequence")
	}
	return string(out), nil
}
