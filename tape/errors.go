package tape

import "fmt"

// FileError reports a filesystem-level failure on a cassette file. It is not
// recoverable locally and is surfaced to the caller immediately.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("tape: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
