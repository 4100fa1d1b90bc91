// Package easyfile provides a convenience file handle with UTF-8 text
// and binary I/O, JSON/YAML (de)serialization, atomic writes, and
// asynchronous variants of every operation.
//
// A [File] is a path plus a filesystem capability; it does not require
// the underlying file to exist. Every write-class operation creates the
// parent directory chain first, so callers never need a manual mkdir:
//
//	f := easyfile.New("config/app/settings.json")
//	if err := f.DumpJSON(map[string]any{"debug": true}); err != nil {
//	    return err
//	}
//
// Formatted dumps and [File.AtomicWrite] stage content into a sibling
// temp file and promote it with a single rename, so readers always see
// either the complete old file or the complete new one.
package easyfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/calvinalkan/easyfile/internal/fsys"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// defaultFS is the process-wide production filesystem shared by every
// File constructed with [New]. It is stateless and never mutated.
var defaultFS fsys.FS = fsys.NewReal()

// File is a handle to a path. The underlying filesystem resource may or
// may not exist; any operation may create, overwrite, or remove it.
//
// All text is UTF-8: Go strings are UTF-8 byte sequences and are
// written verbatim, which is this library's rendition of the "UTF-8 by
// default" promise.
type File struct {
	path string
	fs   fsys.FS
}

// New returns a File for path backed by the real filesystem.
func New(path string) *File {
	return &File{path: path, fs: defaultFS}
}

// NewFS returns a File for path backed by the given filesystem.
// Panics if fs is nil.
func NewFS(path string, fs fsys.FS) *File {
	if fs == nil {
		panic("fs is nil")
	}

	return &File{path: path, fs: fs}
}

// Path returns the path this handle addresses.
func (f *File) Path() string {
	return f.path
}

func (f *File) String() string {
	return f.path
}

// mkParents creates the parent directory chain. Idempotent.
func (f *File) mkParents() error {
	dir := filepath.Dir(f.path)
	if dir == "" || dir == "." {
		return nil
	}

	if err := f.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create parent dirs %q: %w", dir, err)
	}

	return nil
}

// ReadText reads the whole file as a UTF-8 string.
// A missing file surfaces os.ErrNotExist.
func (f *File) ReadText() (string, error) {
	data, err := f.fs.ReadFile(f.path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// ReadBytes reads the whole file.
// A missing file surfaces os.ErrNotExist.
func (f *File) ReadBytes() ([]byte, error) {
	return f.fs.ReadFile(f.path)
}

// WriteText writes s to the file, creating parent directories first and
// truncating any existing content. Not atomic; use [File.AtomicWrite]
// when readers may observe the file mid-write.
func (f *File) WriteText(s string) error {
	return f.WriteBytes([]byte(s))
}

// WriteBytes writes data to the file, creating parent directories first
// and truncating any existing content.
func (f *File) WriteBytes(data []byte) error {
	if err := f.mkParents(); err != nil {
		return err
	}

	return f.fs.WriteFile(f.path, data, filePerm)
}

// AppendText appends s to the file, creating parent directories (and
// the file) first.
//
// Append is not atomic: writes from another appender may interleave.
func (f *File) AppendText(s string) error {
	if err := f.mkParents(); err != nil {
		return err
	}

	file, err := f.fs.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, filePerm)
	if err != nil {
		return err
	}

	_, writeErr := file.Write([]byte(s))
	closeErr := file.Close()

	return errors.Join(writeErr, closeErr)
}

// Copy copies the file's content to target, creating target's parent
// directories first, and returns a handle to target.
//
// Content is streamed with io.Copy, so memory use is bounded regardless
// of file size. With preserveMetadata, the source's permission bits and
// modification time are applied to the target as well.
func (f *File) Copy(target string, preserveMetadata bool) (*File, error) {
	dst := &File{path: target, fs: f.fs}
	if err := dst.mkParents(); err != nil {
		return nil, err
	}

	src, err := f.fs.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return nil, err
	}

	out, err := f.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return nil, err
	}

	_, copyErr := io.Copy(out, src)
	closeErr := out.Close()

	if err := errors.Join(copyErr, closeErr); err != nil {
		return nil, fmt.Errorf("copy %q to %q: %w", f.path, target, err)
	}

	if preserveMetadata {
		if err := f.fs.Chmod(target, info.Mode().Perm()); err != nil {
			return nil, err
		}

		if err := f.fs.Chtimes(target, info.ModTime(), info.ModTime()); err != nil {
			return nil, err
		}
	}

	return dst, nil
}

// Move moves the file to target, creating target's parent directories
// first, and returns a handle to target.
//
// A same-filesystem rename is used when possible; across filesystem
// boundaries it falls back to copy+delete. Whether an existing target
// is replaced follows the platform's rename semantics.
func (f *File) Move(target string) (*File, error) {
	dst := &File{path: target, fs: f.fs}
	if err := dst.mkParents(); err != nil {
		return nil, err
	}

	err := f.fs.Rename(f.path, target)
	if err == nil {
		return dst, nil
	}

	if !errors.Is(err, unix.EXDEV) {
		return nil, err
	}

	// Cross-device: copy then remove the source.
	if _, err := f.Copy(target, true); err != nil {
		return nil, err
	}

	if err := f.fs.Remove(f.path); err != nil {
		return nil, err
	}

	return dst, nil
}

// TouchParents creates the file (empty, if absent) and all parent
// directories. Idempotent; existing content is left alone.
func (f *File) TouchParents() error {
	if err := f.mkParents(); err != nil {
		return err
	}

	file, err := f.fs.OpenFile(f.path, os.O_WRONLY|os.O_CREATE, filePerm)
	if err != nil {
		return err
	}

	return file.Close()
}

// Size returns the file's current byte length from a fresh stat; no
// caching. A missing file surfaces os.ErrNotExist.
func (f *File) Size() (int64, error) {
	info, err := f.fs.Stat(f.path)
	if err != nil {
		return 0, err
	}

	return info.Size(), nil
}

// Exists reports whether the path exists.
func (f *File) Exists() (bool, error) {
	return f.fs.Exists(f.path)
}

// Open opens the file for reading.
func (f *File) Open() (fsys.FileHandle, error) {
	return f.fs.Open(f.path)
}

// OpenFile opens the file with explicit flags and permissions,
// forwarded verbatim to the underlying filesystem.
func (f *File) OpenFile(flag int, perm os.FileMode) (fsys.FileHandle, error) {
	return f.fs.OpenFile(f.path, flag, perm)
}

// AtomicWrite opens a scoped atomic write session for this file.
//
// Parent directories are created first. Content written to the session
// goes to a sibling temp file; [fsys.AtomicFile.Close] promotes it onto
// this path with a single rename, [fsys.AtomicFile.Abort] discards it
// and leaves this path untouched. Two sessions racing on the same path
// are not ordered: the last rename wins.
func (f *File) AtomicWrite() (*fsys.AtomicFile, error) {
	return fsys.NewAtomicWriter(f.fs).Begin(f.path, filePerm)
}
