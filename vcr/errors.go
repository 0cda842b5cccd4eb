package vcr

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/httptape/cassette"
)

// Sentinel errors for engine construction and replay.
var (
	ErrUnknownMode = errors.New("vcr: unknown mode")
	ErrNoMatch     = errors.New("vcr: no recorded request matches")
)

// LookupError reports a replay-mode call for which no recorded request is
// structurally equal to the outgoing one. It carries the unmatched canonical
// request (after redaction) so a test harness can report exactly which call
// was unexpected. It matches ErrNoMatch under errors.Is.
type LookupError struct {
	Cassette string
	Request  cassette.Request
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("vcr: no recorded request matches %s %s in %s",
		e.Request.Method, e.Request.URL, e.Cassette)
}

func (e *LookupError) Is(target error) bool { return target == ErrNoMatch }
