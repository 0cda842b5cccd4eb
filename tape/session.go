package tape

import "github.com/jonwraymond/httptape/cassette"

// Session holds the parsed contents of one replay cassette. It is populated
// once, when the path is first opened for replay, and read-only thereafter,
// so concurrent lookups need no locking.
type Session struct {
	interactions []cassette.Interaction
}

func newSession(ins []cassette.Interaction) *Session {
	return &Session{interactions: ins}
}

// Len returns the number of recorded interactions.
func (s *Session) Len() int { return len(s.interactions) }

// Lookup scans the recorded requests in insertion order and returns the
// index of the first one structurally equal to req. The scan is stateless:
// it never consumes a match, so repeated lookups of the same request always
// resolve to the first recorded occurrence.
func (s *Session) Lookup(req cassette.Request) (int, bool) {
	for i := range s.interactions {
		if s.interactions[i].Request.Equal(req) {
			return i, true
		}
	}
	return 0, false
}

// Request returns the recorded request at index i.
func (s *Session) Request(i int) cassette.Request {
	return s.interactions[i].Request
}

// Response returns the recorded response paired with the request at index i.
func (s *Session) Response(i int) cassette.Response {
	return s.interactions[i].Response
}
