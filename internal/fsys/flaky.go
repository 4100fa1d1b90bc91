package fsys

import (
	"errors"
	"os"
	"sync"
	"time"
)

// InjectedError marks an error as intentionally injected by [Flaky].
//
// It wraps the underlying error so errors.Is/As continue to work.
type InjectedError struct {
	Err error
}

// Error returns the underlying error's message.
func (e *InjectedError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by
// [Flaky]. Returns false if err is nil.
func IsInjected(err error) bool {
	if err == nil {
		return false
	}

	var injected *InjectedError

	return errors.As(err, &injected)
}

// Flaky wraps another [FS] and fails selected operations on demand.
//
// Faults are armed per operation name ("Rename", "WriteFileAtomic", ...)
// with [Flaky.FailNext] and consumed by the next call to that operation;
// all other calls pass through to the inner filesystem. Safe for
// concurrent use.
type Flaky struct {
	inner FS

	mu     sync.Mutex
	faults map[string]error
	delays map[string]time.Duration
}

// NewFlaky wraps inner with fault injection. Panics if inner is nil.
func NewFlaky(inner FS) *Flaky {
	if inner == nil {
		panic("inner is nil")
	}

	return &Flaky{
		inner:  inner,
		faults: make(map[string]error),
		delays: make(map[string]time.Duration),
	}
}

// FailNext arms op to fail on its next call with err (wrapped in
// [InjectedError]).
func (f *Flaky) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.faults[op] = err
}

// DelayEach makes every call to op sleep for d before passing through.
// Used to force out-of-order completion in concurrency tests.
func (f *Flaky) DelayEach(op string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.delays[op] = d
}

// take consumes an armed fault for op, applying any configured delay.
func (f *Flaky) take(op string) error {
	f.mu.Lock()
	err, ok := f.faults[op]
	if ok {
		delete(f.faults, op)
	}
	delay := f.delays[op]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if !ok {
		return nil
	}

	return &InjectedError{Err: err}
}

func (f *Flaky) Open(path string) (FileHandle, error) {
	if err := f.take("Open"); err != nil {
		return nil, err
	}

	return f.inner.Open(path)
}

func (f *Flaky) Create(path string) (FileHandle, error) {
	if err := f.take("Create"); err != nil {
		return nil, err
	}

	return f.inner.Create(path)
}

func (f *Flaky) OpenFile(path string, flag int, perm os.FileMode) (FileHandle, error) {
	if err := f.take("OpenFile"); err != nil {
		return nil, err
	}

	return f.inner.OpenFile(path, flag, perm)
}

func (f *Flaky) ReadFile(path string) ([]byte, error) {
	if err := f.take("ReadFile"); err != nil {
		return nil, err
	}

	return f.inner.ReadFile(path)
}

func (f *Flaky) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := f.take("WriteFile"); err != nil {
		return err
	}

	return f.inner.WriteFile(path, data, perm)
}

func (f *Flaky) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := f.take("WriteFileAtomic"); err != nil {
		return err
	}

	return f.inner.WriteFileAtomic(path, data, perm)
}

func (f *Flaky) MkdirAll(path string, perm os.FileMode) error {
	if err := f.take("MkdirAll"); err != nil {
		return err
	}

	return f.inner.MkdirAll(path, perm)
}

func (f *Flaky) Stat(path string) (os.FileInfo, error) {
	if err := f.take("Stat"); err != nil {
		return nil, err
	}

	return f.inner.Stat(path)
}

func (f *Flaky) Exists(path string) (bool, error) {
	if err := f.take("Exists"); err != nil {
		return false, err
	}

	return f.inner.Exists(path)
}

func (f *Flaky) Chmod(path string, mode os.FileMode) error {
	if err := f.take("Chmod"); err != nil {
		return err
	}

	return f.inner.Chmod(path, mode)
}

func (f *Flaky) Chtimes(path string, atime, mtime time.Time) error {
	if err := f.take("Chtimes"); err != nil {
		return err
	}

	return f.inner.Chtimes(path, atime, mtime)
}

func (f *Flaky) Remove(path string) error {
	if err := f.take("Remove"); err != nil {
		return err
	}

	return f.inner.Remove(path)
}

func (f *Flaky) Rename(oldpath, newpath string) error {
	if err := f.take("Rename"); err != nil {
		return err
	}

	return f.inner.Rename(oldpath, newpath)
}

// Compile-time interface check.
var _ FS = (*Flaky)(nil)
