package vcr

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonwraymond/httptape/cassette"
)

// RequestRedactor transforms a canonical request in place immediately after
// capture, before it is matched (replay) or persisted (record).
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Ownership: the record passed in is a private copy; mutating it never
//   affects the live request.
type RequestRedactor interface {
	RedactRequest(req *cassette.Request)
}

// ResponseRedactor transforms a canonical response in place before it is
// persisted. It affects only the stored copy, never the value returned to
// the caller.
type ResponseRedactor interface {
	RedactResponse(resp *cassette.Response)
}

// RequestRedactorFunc adapts a function to RequestRedactor.
type RequestRedactorFunc func(req *cassette.Request)

func (f RequestRedactorFunc) RedactRequest(req *cassette.Request) { f(req) }

// ResponseRedactorFunc adapts a function to ResponseRedactor.
type ResponseRedactorFunc func(resp *cassette.Response)

func (f ResponseRedactorFunc) RedactResponse(resp *cassette.Response) { f(resp) }

// HeaderReplacer replaces every value of one header with a fixed
// placeholder, on whichever side it is registered. Headers not present are
// left alone. Name matching is exact, consistent with the structural
// matching relation.
type HeaderReplacer struct {
	Name        string
	Placeholder string
}

func (h HeaderReplacer) RedactRequest(req *cassette.Request) {
	replaceHeader(req.Header, h.Name, h.Placeholder)
}

func (h HeaderReplacer) RedactResponse(resp *cassette.Response) {
	replaceHeader(resp.Header, h.Name, h.Placeholder)
}

func replaceHeader(header map[string][]string, name, placeholder string) {
	if _, ok := header[name]; ok {
		header[name] = []string{placeholder}
	}
}

// BearerTokenRedactor scrubs JWT bearer credentials from Authorization
// headers so session tokens never land in a cassette. Only values that
// actually parse as a JWT are replaced; other bearer schemes pass through
// untouched. Signature verification is irrelevant here, the token is only
// being recognized, so the parse is unverified.
type BearerTokenRedactor struct {
	Placeholder string
	parser      *jwt.Parser
}

// NewBearerTokenRedactor creates a redactor that rewrites JWT bearer tokens
// to "Bearer <placeholder>".
func NewBearerTokenRedactor(placeholder string) *BearerTokenRedactor {
	return &BearerTokenRedactor{
		Placeholder: placeholder,
		parser:      jwt.NewParser(),
	}
}

func (b *BearerTokenRedactor) RedactRequest(req *cassette.Request) {
	b.redact(req.Header)
}

func (b *BearerTokenRedactor) RedactResponse(resp *cassette.Response) {
	b.redact(resp.Header)
}

func (b *BearerTokenRedactor) redact(header map[string][]string) {
	values, ok := header["Authorization"]
	if !ok {
		return
	}
	for i, value := range values {
		token, found := strings.CutPrefix(value, "Bearer ")
		if !found {
			continue
		}
		if _, _, err := b.parser.ParseUnverified(token, jwt.MapClaims{}); err != nil {
			continue
		}
		values[i] = "Bearer " + b.Placeholder
	}
}

var (
	_ RequestRedactor  = HeaderReplacer{}
	_ ResponseRedactor = HeaderReplacer{}
	_ RequestRedactor  = (*BearerTokenRedactor)(nil)
	_ ResponseRedactor = (*BearerTokenRedactor)(nil)
)
