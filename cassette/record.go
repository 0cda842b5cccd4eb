package cassette

// Request is the canonical form of an outgoing HTTP request. Header names
// are preserved case-sensitively exactly as captured; the order of values
// under one name is significant, the order of names is not.
type Request struct {
	Method string              `yaml:"method"`
	URL    string              `yaml:"url"`
	Header map[string][]string `yaml:"headers"`
	Body   Body                `yaml:"body"`
}

// Response is the canonical form of a completed HTTP response. An empty
// Version means the protocol version was unspecified.
type Response struct {
	Status  int                 `yaml:"status"`
	Version string              `yaml:"version,omitempty"`
	Header  map[string][]string `yaml:"headers"`
	Body    Body                `yaml:"body"`
}

// Interaction pairs one recorded request with the response it received.
type Interaction struct {
	Request  Request  `yaml:"request"`
	Response Response `yaml:"response"`
}

// Equal reports exact structural equality across all four request fields.
// This is the sole matching relation used for replay; there is no fuzzy or
// partial matching. Volatile values must be normalized by a redactor before
// comparison if they should not participate.
func (r Request) Equal(other Request) bool {
	return r.Method == other.Method &&
		r.URL == other.URL &&
		headersEqual(r.Header, other.Header) &&
		r.Body.Equal(other.Body)
}

// Equal reports exact structural equality across all response fields.
func (r Response) Equal(other Response) bool {
	return r.Status == other.Status &&
		r.Version == other.Version &&
		headersEqual(r.Header, other.Header) &&
		r.Body.Equal(other.Body)
}

func headersEqual(a, b map[string][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for name, values := range a {
		bv, ok := b[name]
		if !ok || len(values) != len(bv) {
			return false
		}
		for i := range values {
			if values[i] != bv[i] {
				return false
			}
		}
	}
	return true
}

func cloneHeader(h map[string][]string) map[string][]string {
	out := make(map[string][]string, len(h))
	for name, values := range h {
		copied := make([]string, len(values))
		copy(copied, values)
		out[name] = copied
	}
	return out
}
