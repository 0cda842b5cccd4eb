package tape

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/httptape/cassette"
)

// ReadFileFunc reads a whole file. Injectable so tests can count or fake
// filesystem access.
type ReadFileFunc func(path string) ([]byte, error)

// Registry maps cassette file paths to their in-memory state: a Session for
// replay or a Writer for record. A registry is created once by test harness
// setup and shared by reference among every engine that uses it; a given
// path has at most one Session in memory at a time, and entries are never
// evicted for the life of the registry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	writers  map[string]*Writer
	group    singleflight.Group
	readFile ReadFileFunc
}

// Option configures a Registry.
type Option func(*Registry)

// WithReadFile overrides how replay cassettes are read from disk.
func WithReadFile(fn ReadFileFunc) Option {
	return func(r *Registry) {
		r.readFile = fn
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		writers:  make(map[string]*Writer),
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultRegistry is the registry used by engines that are not given one
// explicitly.
var DefaultRegistry = NewRegistry()

// OpenReplay returns the Session for path, reading and parsing the full
// document stream the first time the path is opened. Concurrent first opens
// collapse to a single read; one caller populates, the rest observe the
// installed Session. Fails with a *FileError if the file cannot be read, or
// an error wrapping *cassette.ParseError if any document is malformed.
func (r *Registry) OpenReplay(path string) (*Session, error) {
	key, err := canonicalPath(path)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	session := r.sessions[key]
	r.mu.RUnlock()
	if session != nil {
		return session, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		r.mu.RLock()
		existing := r.sessions[key]
		r.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		session, err := r.load(key)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.sessions[key] = session
		r.mu.Unlock()
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (r *Registry) load(key string) (*Session, error) {
	data, err := r.readFile(key)
	if err != nil {
		return nil, &FileError{Path: key, Op: "read", Err: err}
	}

	if isCompressed(key) {
		data, err = decompress(data)
		if err != nil {
			return nil, &FileError{Path: key, Op: "decompress", Err: err}
		}
	}

	ins, err := cassette.DecodeStream(data)
	if err != nil {
		return nil, fmt.Errorf("tape: parse %s: %w", key, err)
	}
	return newSession(ins), nil
}

// OpenRecord returns the Writer for path, registering one if the path has
// not been opened for record yet. Existing file content is left untouched;
// the file itself is only created on first append.
func (r *Registry) OpenRecord(path string) (*Writer, error) {
	key, err := canonicalPath(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.writers[key]; ok {
		return w, nil
	}
	w := &Writer{path: key}
	r.writers[key] = w
	return w, nil
}

// Reopen drops the cached Session for path so the next OpenReplay re-reads
// the file. A no-op for paths that were never loaded.
func (r *Registry) Reopen(path string) error {
	key, err := canonicalPath(path)
	if err != nil {
		return err
	}

	r.group.Forget(key)

	r.mu.Lock()
	delete(r.sessions, key)
	r.mu.Unlock()
	return nil
}

// canonicalPath keys registry entries by absolute path, so the same file
// reached through different relative paths shares one entry.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &FileError{Path: path, Op: "resolve", Err: err}
	}
	return filepath.Clean(abs), nil
}
