// Package fsys provides the filesystem capability surface for easyfile.
//
// The main types are:
//   - [FS]: interface for the filesystem operations the library needs
//   - [FileHandle]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation using [os] package
//   - [Flaky]: testing implementation that injects errors on demand
//   - [AtomicWriter]: temp-file-then-rename writes on top of any FS
//
// Example usage:
//
//	fs := fsys.NewReal()
//	f, err := fs.Open("config.json")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	// Works with all stdlib io functions:
//	data, _ := io.ReadAll(f)
package fsys

import (
	"io"
	"os"
	"time"
)

// FileHandle represents an open file descriptor.
//
// This interface is satisfied by [os.File] and can be used with all
// standard library functions that accept [io.Reader], [io.Writer],
// [io.Seeker], or [io.Closer].
type FileHandle interface {
	// Embedded interfaces from [io] package.
	// These provide Read, Write, Close, and Seek methods.
	io.ReadWriteCloser
	io.Seeker

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to disk. See [os.File.Sync].
	Sync() error
}

// FS defines filesystem operations for reading, writing, and managing files.
//
// Two implementations are provided:
//   - [Real]: production use, wraps [os] package
//   - [Flaky]: testing use, injects errors on selected operations
//
// All methods mirror their [os] package equivalents, so error semantics
// (in particular [os.ErrNotExist] on missing paths) carry through
// unchanged.
type FS interface {
	// --- File Operations ---

	// Open opens a file for reading. See [os.Open].
	Open(path string) (FileHandle, error)

	// Create creates or truncates a file for writing. See [os.Create].
	Create(path string) (FileHandle, error)

	// OpenFile opens a file with specified flags and permissions. See [os.OpenFile].
	// Use this for fine-grained control (append, exclusive create, etc).
	OpenFile(path string, flag int, perm os.FileMode) (FileHandle, error)

	// --- Convenience Methods ---

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating or truncating it. See [os.WriteFile].
	WriteFile(path string, data []byte, perm os.FileMode) error

	// WriteFileAtomic writes data to a file atomically.
	// Uses a temp file + rename to prevent partial writes on crash.
	// This is safer than [os.WriteFile] for critical data.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// --- Directory Operations ---

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	// No error if the directory already exists.
	MkdirAll(path string, perm os.FileMode) error

	// --- Metadata ---

	// Stat returns file info. See [os.Stat].
	// Returns [os.ErrNotExist] if file doesn't exist.
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Chmod changes the mode of the named file. See [os.Chmod].
	Chmod(path string, mode os.FileMode) error

	// Chtimes changes the access and modification times of the named
	// file. See [os.Chtimes].
	Chtimes(path string, atime, mtime time.Time) error

	// --- Mutations ---

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error

	// Rename moves/renames a file or directory. See [os.Rename].
	// Atomic on the same filesystem.
	Rename(oldpath, newpath string) error
}

// Compile-time interface checks.
var _ FileHandle = (*os.File)(nil)
