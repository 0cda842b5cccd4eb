package cassette

import "fmt"

// ParseError reports a malformed document in a cassette stream. Doc is the
// zero-based position of the offending document.
type ParseError struct {
	Doc int
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cassette: document %d: %v", e.Doc, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
