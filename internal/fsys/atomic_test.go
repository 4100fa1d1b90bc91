package fsys

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// AtomicWriter Tests
//
// These verify the scoped write session contract:
//   - Close promotes the temp file onto the target in one rename
//   - Abort (or any failure) leaves the target exactly as it was
//   - no temp files survive a finished session
// =============================================================================

func TestAtomicFile_Close_PromotesContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "out.txt")
	w := NewAtomicWriter(NewReal())

	f, err := w.Begin(target, 0o644)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := f.WriteString("hello"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "hello" {
		t.Fatalf("content=%q, want %q", got, "hello")
	}
}

func TestAtomicFile_Abort_LeavesExistingTargetUntouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "out.txt")

	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	f, err := NewAtomicWriter(NewReal()).Begin(target, 0o644)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := f.WriteString("partial new content"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}

	if err := f.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "old" {
		t.Fatalf("content=%q, want %q", got, "old")
	}

	assertNoTempFiles(t, dir)
}

func TestAtomicFile_Abort_MissingTargetStaysMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "never.txt")

	f, err := NewAtomicWriter(NewReal()).Begin(target, 0o644)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := f.WriteString("doomed"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}

	if err := f.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	if _, err := os.Stat(target); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Stat err=%v, want os.ErrNotExist", err)
	}

	assertNoTempFiles(t, dir)
}

func TestAtomicFile_Begin_CreatesParentDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "c", "out.txt")

	f, err := NewAtomicWriter(NewReal()).Begin(target, 0o644)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := f.WriteString("deep"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "deep" {
		t.Fatalf("content=%q, want %q", got, "deep")
	}
}

// TestAtomicFile_TempFileIsSiblingOfTarget verifies the temp file lives
// in the target's directory and is named after the target, so the final
// rename never crosses a filesystem.
func TestAtomicFile_TempFileIsSiblingOfTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "data.json")

	f, err := NewAtomicWriter(NewReal()).Begin(target, 0o644)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer f.Abort()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("entries=%d, want 1", len(entries))
	}

	name := entries[0].Name()
	if !strings.HasPrefix(name, ".data.json.tmp-") {
		t.Fatalf("temp name=%q, want .data.json.tmp-* prefix", name)
	}
}

func TestAtomicFile_RenameFailure_CleansUpAndSurfacesError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "out.txt")

	if err := os.WriteFile(target, []byte("old"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	flaky := NewFlaky(NewReal())
	injected := errors.New("disk on fire")
	flaky.FailNext("Rename", injected)

	f, err := NewAtomicWriter(flaky).Begin(target, 0o644)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := f.WriteString("new"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}

	closeErr := f.Close()
	if !errors.Is(closeErr, injected) {
		t.Fatalf("Close err=%v, want wrapped %v", closeErr, injected)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "old" {
		t.Fatalf("content=%q, want %q", got, "old")
	}

	assertNoTempFiles(t, dir)
}

func TestAtomicFile_CloseAfterAbort_ReturnsErrFinalized(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "out.txt")

	f, err := NewAtomicWriter(NewReal()).Begin(target, 0o644)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := f.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	if err := f.Close(); !errors.Is(err, ErrFinalized) {
		t.Fatalf("Close err=%v, want ErrFinalized", err)
	}
}

func TestAtomicFile_AbortAfterClose_IsNoOp(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "out.txt")

	f, err := NewAtomicWriter(NewReal()).Begin(target, 0o644)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := f.WriteString("kept"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := f.Abort(); err != nil {
		t.Fatalf("Abort after Close: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "kept" {
		t.Fatalf("content=%q, want %q", got, "kept")
	}
}

func TestAtomicFile_WriteAfterClose_ReturnsErrFinalized(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "out.txt")

	f, err := NewAtomicWriter(NewReal()).Begin(target, 0o644)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := f.Write([]byte("late")); !errors.Is(err, ErrFinalized) {
		t.Fatalf("Write err=%v, want ErrFinalized", err)
	}
}

func TestAtomicWriter_WriteFile_OneShot(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "nested", "one-shot.txt")

	err := NewAtomicWriter(NewReal()).WriteFile(target, []byte("payload"), 0o644)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "payload" {
		t.Fatalf("content=%q, want %q", got, "payload")
	}
}

func TestAtomicWriter_Begin_RejectsEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := NewAtomicWriter(NewReal()).Begin("", 0o644)
	if err == nil {
		t.Fatal("Begin with empty path succeeded, want error")
	}
}

// assertNoTempFiles fails the test if dir contains any staged temp file.
func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}
}
