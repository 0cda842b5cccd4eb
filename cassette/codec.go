package cassette

import (
	"bytes"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// Separator is the line that divides successive documents in a cassette
// stream. Marshaled documents always end in a newline, so writing the
// separator between documents yields the literal "\n---\n" convention that
// DecodeStream splits on.
const Separator = "---\n"

// Sentinel errors for malformed cassette documents.
var (
	ErrMissingRequest  = errors.New("cassette: document has no request tag")
	ErrMissingResponse = errors.New("cassette: document has no response tag")
)

// Encode serializes one interaction as a single YAML document.
func Encode(in Interaction) ([]byte, error) {
	data, err := yaml.Marshal(&in)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// EncodeStream serializes a sequence of interactions as a document stream,
// separated per the cassette file convention.
func EncodeStream(ins []Interaction) ([]byte, error) {
	var buf bytes.Buffer
	for i, in := range ins {
		if i > 0 {
			buf.WriteString(Separator)
		}
		doc, err := Encode(in)
		if err != nil {
			return nil, err
		}
		buf.Write(doc)
	}
	return buf.Bytes(), nil
}

// Decode parses one document. Both halves of the pair must be present under
// their explicit request/response tags; field-shape heuristics are never
// used to tell the two apart.
func Decode(doc []byte) (Interaction, error) {
	var tagged struct {
		Request  *Request  `yaml:"request"`
		Response *Response `yaml:"response"`
	}
	if err := yaml.Unmarshal(doc, &tagged); err != nil {
		return Interaction{}, err
	}
	if tagged.Request == nil {
		return Interaction{}, ErrMissingRequest
	}
	if tagged.Response == nil {
		return Interaction{}, ErrMissingResponse
	}
	return Interaction{Request: *tagged.Request, Response: *tagged.Response}, nil
}

// DecodeStream parses a whole cassette stream. Each document is decoded
// independently; a malformed document fails with a ParseError identifying
// its position in the stream. An empty stream decodes to no interactions.
func DecodeStream(data []byte) ([]Interaction, error) {
	text := strings.TrimPrefix(string(data), Separator)

	var ins []Interaction
	for i, chunk := range strings.Split(text, "\n"+Separator) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		in, err := Decode([]byte(chunk))
		if err != nil {
			return nil, &ParseError{Doc: i, Err: err}
		}
		ins = append(ins, in)
	}
	return ins, nil
}
