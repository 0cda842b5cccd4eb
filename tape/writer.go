package tape

import (
	"bytes"
	"os"
	"sync"

	"github.com/jonwraymond/httptape/cassette"
)

// Writer appends interactions to one cassette file. Appends are serialized
// per path: the whole open-append-close sequence runs under the writer's
// lock, so concurrent record-mode calls never interleave partial documents.
// A cassette only ever grows during a record session; it is never rewritten
// in place.
type Writer struct {
	mu   sync.Mutex
	path string
}

// Path returns the canonical path of the cassette file.
func (w *Writer) Path() string { return w.path }

// Append encodes the interaction as one document and appends it to the
// file, creating the file if absent. The separator line is written before
// every document after the first, so the file stays decodable as a stream.
func (w *Writer) Append(in cassette.Interaction) error {
	doc, err := cassette.Encode(in)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &FileError{Path: w.path, Op: "open", Err: err}
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return &FileError{Path: w.path, Op: "stat", Err: err}
	}

	var buf bytes.Buffer
	if st.Size() > 0 {
		buf.WriteString(cassette.Separator)
	}
	buf.Write(doc)

	payload := buf.Bytes()
	if isCompressed(w.path) {
		// One independent frame per append; decode handles the
		// concatenated frames transparently.
		payload = compress(payload)
	}

	_, werr := f.Write(payload)
	cerr := f.Close()
	if werr != nil {
		return &FileError{Path: w.path, Op: "write", Err: werr}
	}
	if cerr != nil {
		return &FileError{Path: w.path, Op: "close", Err: cerr}
	}
	return nil
}
