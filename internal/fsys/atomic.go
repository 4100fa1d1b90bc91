package fsys

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
)

// ErrDirSync indicates the parent directory could not be synced after rename.
//
// When returned, the new file is in place but durability is not guaranteed.
// Callers can detect this with errors.Is(err, ErrDirSync).
var ErrDirSync = errors.New("dir sync")

// ErrFinalized is returned when writing to or committing an [AtomicFile]
// that has already been committed or aborted.
var ErrFinalized = errors.New("atomic file already finalized")

// AtomicWriter stages writes into a sibling temp file and promotes them
// onto the target with a single rename.
//
// Two atomic writes racing on the same target are not ordered: the last
// rename wins. No lock is taken.
type AtomicWriter struct {
	fs FS
}

// NewAtomicWriter creates an AtomicWriter that uses the given filesystem.
// Panics if fs is nil.
func NewAtomicWriter(fs FS) *AtomicWriter {
	if fs == nil {
		panic("fs is nil")
	}

	return &AtomicWriter{fs: fs}
}

// Begin opens an atomic write session for path.
//
// It creates the target's parent directories, then opens a temp file in
// the same directory named after the target (so the final rename never
// crosses a filesystem). The caller writes into the returned
// [AtomicFile] and finishes with either [AtomicFile.Close] (commit) or
// [AtomicFile.Abort] (discard).
func (w *AtomicWriter) Begin(path string, perm os.FileMode) (*AtomicFile, error) {
	if path == "" {
		return nil, errors.New("path is empty")
	}

	if perm == 0 {
		return nil, errors.New("perm must be non-zero")
	}

	dir, base := filepath.Split(path)
	if base == "" || base == string(os.PathSeparator) || base == "." {
		return nil, fmt.Errorf("path is invalid: %q", path)
	}

	if dir == "" {
		dir = "."
	}

	dir = filepath.Clean(dir)

	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create parent dirs %q: %w", dir, err)
	}

	tmp, tmpPath, err := createTempFile(w.fs, dir, base, perm)
	if err != nil {
		return nil, err
	}

	return &AtomicFile{
		fs:      w.fs,
		target:  path,
		dir:     dir,
		tmpPath: tmpPath,
		tmp:     tmp,
	}, nil
}

// WriteFile writes data to path in one atomic session.
func (w *AtomicWriter) WriteFile(path string, data []byte, perm os.FileMode) error {
	f, err := w.Begin(path, perm)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		return errors.Join(err, f.Abort())
	}

	return f.Close()
}

// AtomicFile is one in-flight atomic write session.
//
// Writes go to the temp file. Close syncs the temp file, renames it over
// the target, and syncs the parent directory; until then the target is
// untouched. Abort removes the temp file and leaves the target exactly
// as it was. Abort after a successful Close is a no-op; Close after
// Abort returns [ErrFinalized].
type AtomicFile struct {
	fs      FS
	target  string
	dir     string
	tmpPath string
	tmp     FileHandle
	done    bool
}

var _ io.WriteCloser = (*AtomicFile)(nil)

// Write appends p to the staged temp file.
func (a *AtomicFile) Write(p []byte) (int, error) {
	if a.done {
		return 0, ErrFinalized
	}

	return a.tmp.Write(p)
}

// WriteString appends s to the staged temp file.
func (a *AtomicFile) WriteString(s string) (int, error) {
	return a.Write([]byte(s))
}

// Name returns the target path this session will promote onto.
func (a *AtomicFile) Name() string {
	return a.target
}

// Close commits the session: the temp file is flushed to stable storage
// and renamed onto the target as a single filesystem operation.
//
// On any failure the temp file is removed, the target is left as it
// was, and the triggering error is returned (joined with any cleanup
// errors). If the rename succeeded but the parent directory could not
// be synced, the returned error satisfies errors.Is(err, ErrDirSync).
func (a *AtomicFile) Close() error {
	if a.done {
		return ErrFinalized
	}

	a.done = true

	if err := a.tmp.Sync(); err != nil {
		return errors.Join(
			fmt.Errorf("sync temp file %q: %w", a.tmpPath, err),
			a.discard(),
		)
	}

	if err := a.tmp.Close(); err != nil {
		return errors.Join(
			fmt.Errorf("close temp file %q: %w", a.tmpPath, err),
			removeTempFile(a.fs, a.tmpPath),
		)
	}

	if err := a.fs.Rename(a.tmpPath, a.target); err != nil {
		return errors.Join(
			fmt.Errorf("rename: %w", err),
			removeTempFile(a.fs, a.tmpPath),
		)
	}

	return fsyncDir(a.fs, a.dir)
}

// Abort discards the session: the temp file is removed and the target is
// untouched. Calling Abort after Close (or a second time) returns nil.
func (a *AtomicFile) Abort() error {
	if a.done {
		return nil
	}

	a.done = true

	return a.discard()
}

func (a *AtomicFile) discard() error {
	closeErr := a.tmp.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("close temp file %q: %w", a.tmpPath, closeErr)
	}

	return errors.Join(closeErr, removeTempFile(a.fs, a.tmpPath))
}

const tempFileMaxAttempts = 10000

var tempFileCounter atomic.Uint64

func createTempFile(fs FS, dir, base string, perm os.FileMode) (FileHandle, string, error) {
	for attempt := 0; attempt < tempFileMaxAttempts; attempt++ {
		seq := tempFileCounter.Add(1)
		path := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, seq))

		file, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err == nil {
			return file, path, nil
		}

		if os.IsExist(err) {
			continue
		}

		return nil, "", fmt.Errorf("create temp file: %w", err)
	}

	return nil, "", fmt.Errorf("exhausted temp file attempts in %q", dir)
}

func fsyncDir(fs FS, dirPath string) error {
	dirFd, err := fs.Open(dirPath)
	if err != nil {
		return errors.Join(ErrDirSync, fmt.Errorf("open dir %q: %w", dirPath, err))
	}

	syncErr := dirFd.Sync()
	if syncErr == nil {
		return closeDir(dirPath, dirFd)
	}

	return errors.Join(
		ErrDirSync,
		fmt.Errorf("%q: %w", dirPath, syncErr),
		closeDir(dirPath, dirFd),
	)
}

func closeDir(dir string, file FileHandle) error {
	err := file.Close()
	if err == nil {
		return nil
	}

	return fmt.Errorf("close dir %q: %w", dir, err)
}

func removeTempFile(fs FS, path string) error {
	err := fs.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file %q: %w", path, err)
	}

	return nil
}
