package cassette

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Body encodings. The encoding is an explicit discriminant in the wire
// format; decoders never have to sniff whether content is text or bytes.
const (
	EncodingText   = "text"
	EncodingBase64 = "base64"
)

// Body holds a buffered request or response body. Text bodies keep the
// content as a string for readable cassettes; anything that is not valid
// UTF-8 is carried as raw bytes and serialized base64-encoded. Round-tripping
// a Body through the codec reproduces the original bytes exactly in both
// branches.
type Body struct {
	Encoding string
	Text     string
	Data     []byte
}

// NewBody canonicalizes raw bytes into a Body. Valid UTF-8 becomes a text
// body; everything else a base64 body. Total over all inputs.
func NewBody(raw []byte) Body {
	if utf8.Valid(raw) {
		return Body{Encoding: EncodingText, Text: string(raw)}
	}
	return Body{Encoding: EncodingBase64, Data: bytes.Clone(raw)}
}

// Bytes returns the exact original bytes of the body.
func (b Body) Bytes() []byte {
	if b.Encoding == EncodingBase64 {
		return b.Data
	}
	return []byte(b.Text)
}

// Equal reports exact structural equality: same encoding, same content.
func (b Body) Equal(other Body) bool {
	return b.Encoding == other.Encoding && bytes.Equal(b.Bytes(), other.Bytes())
}

// bodyDoc is the wire shape of a Body.
type bodyDoc struct {
	Encoding string `yaml:"encoding"`
	Content  string `yaml:"content"`
}

// MarshalYAML encodes the body with its explicit encoding tag.
func (b Body) MarshalYAML() (any, error) {
	switch b.Encoding {
	case EncodingText, "":
		return bodyDoc{Encoding: EncodingText, Content: b.Text}, nil
	case EncodingBase64:
		return bodyDoc{
			Encoding: EncodingBase64,
			Content:  base64.StdEncoding.EncodeToString(b.Data),
		}, nil
	default:
		return nil, fmt.Errorf("cassette: unknown body encoding %q", b.Encoding)
	}
}

// UnmarshalYAML decodes a tagged body document.
func (b *Body) UnmarshalYAML(node *yaml.Node) error {
	var doc bodyDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}

	switch doc.Encoding {
	case EncodingText:
		*b = Body{Encoding: EncodingText, Text: doc.Content}
	case EncodingBase64:
		data, err := base64.StdEncoding.DecodeString(doc.Content)
		if err != nil {
			return fmt.Errorf("cassette: invalid base64 body: %w", err)
		}
		*b = Body{Encoding: EncodingBase64, Data: data}
	default:
		return fmt.Errorf("cassette: unknown body encoding %q", doc.Encoding)
	}
	return nil
}
