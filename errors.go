package easyfile

import (
	"errors"
	"fmt"
)

// ErrFileOperation is the base error for all domain errors raised by
// this package. Every translated failure (currently the decode errors)
// satisfies errors.Is(err, ErrFileOperation).
//
// Missing files are deliberately NOT translated: read-class operations
// on a nonexistent path surface the filesystem's native error, so the
// conventional errors.Is(err, os.ErrNotExist) check works everywhere.
var ErrFileOperation = errors.New("file operation failed")

// Format identifies the serialization format involved in a decode
// failure.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DecodeError reports that a file's content could not be decoded as
// JSON or YAML, or did not conform to the requested target type.
//
// It always carries the offending path and the underlying codec error;
// it never carries partially-decoded data.
type DecodeError struct {
	// Path is the file whose content failed to decode.
	Path string
	// Format discriminates JSON from YAML failures.
	Format Format
	// Err is the underlying codec failure.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s from %q: %v", e.Format, e.Path, e.Err)
}

// Unwrap exposes both [ErrFileOperation] and the underlying cause, so
// errors.Is works against either.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrFileOperation, e.Err}
}
