package easyfile

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/calvinalkan/easyfile/internal/fsys"
)

// Future is the result of an operation submitted to the worker pool.
//
// A Future resolves exactly once with the wrapped operation's return
// value or error, unchanged. Wait may be called from multiple
// goroutines.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Wait blocks until the operation completes or ctx is cancelled.
//
// Cancellation only stops the wait: the in-flight filesystem call is
// not interrupted and its side effect may still complete.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

// The bounded pool that executes offloaded blocking calls. Built once,
// on first use; the limit in effect at that point is frozen and applies
// to all offloaded operations and batch reads from then on.
var (
	workerLimit atomic.Int64
	workerOnce  sync.Once
	workerSem   *semaphore.Weighted
	poolSize    int64
)

func init() {
	workerLimit.Store(int64(4 * runtime.GOMAXPROCS(0)))
}

// SetWorkerLimit caps how many offloaded operations run concurrently.
// Defaults to 4×GOMAXPROCS. Has no effect once the first asynchronous
// operation (including [ReadMany]) has been submitted.
func SetWorkerLimit(n int64) {
	if n > 0 {
		workerLimit.Store(n)
	}
}

func initPool() {
	poolSize = workerLimit.Load()
	workerSem = semaphore.NewWeighted(poolSize)
}

func pool() *semaphore.Weighted {
	workerOnce.Do(initPool)

	return workerSem
}

// poolLimit reports the frozen pool size, building the pool if needed.
func poolLimit() int {
	workerOnce.Do(initPool)

	return int(poolSize)
}

// submit runs fn on the bounded pool and returns a Future for its
// result. Every asynchronous method is exactly this around its
// synchronous counterpart; none reimplements any logic.
func submit[T any](fn func() (T, error)) *Future[T] {
	fut := &Future[T]{done: make(chan struct{})}

	go func() {
		defer close(fut.done)

		if err := pool().Acquire(context.Background(), 1); err != nil {
			fut.err = err

			return
		}
		defer pool().Release(1)

		fut.val, fut.err = fn()
	}()

	return fut
}

// submitErr wraps a void operation; the Future resolves to the receiver
// so calls can be chained after Wait.
func (f *File) submitErr(fn func() error) *Future[*File] {
	return submit(func() (*File, error) {
		if err := fn(); err != nil {
			return nil, err
		}

		return f, nil
	})
}

// ReadTextAsync is [File.ReadText] offloaded to the worker pool.
func (f *File) ReadTextAsync() *Future[string] {
	return submit(f.ReadText)
}

// ReadBytesAsync is [File.ReadBytes] offloaded to the worker pool.
func (f *File) ReadBytesAsync() *Future[[]byte] {
	return submit(f.ReadBytes)
}

// WriteTextAsync is [File.WriteText] offloaded to the worker pool.
func (f *File) WriteTextAsync(s string) *Future[*File] {
	return f.submitErr(func() error { return f.WriteText(s) })
}

// WriteBytesAsync is [File.WriteBytes] offloaded to the worker pool.
func (f *File) WriteBytesAsync(data []byte) *Future[*File] {
	return f.submitErr(func() error { return f.WriteBytes(data) })
}

// AppendTextAsync is [File.AppendText] offloaded to the worker pool.
func (f *File) AppendTextAsync(s string) *Future[*File] {
	return f.submitErr(func() error { return f.AppendText(s) })
}

// CopyAsync is [File.Copy] offloaded to the worker pool.
func (f *File) CopyAsync(target string, preserveMetadata bool) *Future[*File] {
	return submit(func() (*File, error) { return f.Copy(target, preserveMetadata) })
}

// MoveAsync is [File.Move] offloaded to the worker pool.
func (f *File) MoveAsync(target string) *Future[*File] {
	return submit(func() (*File, error) { return f.Move(target) })
}

// LoadJSONAsync is [File.LoadJSON] offloaded to the worker pool.
func (f *File) LoadJSONAsync() *Future[any] {
	return submit(f.LoadJSON)
}

// DumpJSONAsync is [File.DumpJSON] offloaded to the worker pool.
func (f *File) DumpJSONAsync(v any) *Future[*File] {
	return f.submitErr(func() error { return f.DumpJSON(v) })
}

// DumpJSONIndentAsync is [File.DumpJSONIndent] offloaded to the worker
// pool.
func (f *File) DumpJSONIndentAsync(v any, indent int) *Future[*File] {
	return f.submitErr(func() error { return f.DumpJSONIndent(v, indent) })
}

// LoadYAMLAsync is [File.LoadYAML] offloaded to the worker pool.
func (f *File) LoadYAMLAsync() *Future[any] {
	return submit(f.LoadYAML)
}

// DumpYAMLAsync is [File.DumpYAML] offloaded to the worker pool.
func (f *File) DumpYAMLAsync(v any) *Future[*File] {
	return f.submitErr(func() error { return f.DumpYAML(v) })
}

// LoadJSONAsAsync is [LoadJSONAs] offloaded to the worker pool.
func LoadJSONAsAsync[T any](f *File) *Future[T] {
	return submit(func() (T, error) { return LoadJSONAs[T](f) })
}

// LoadYAMLAsAsync is [LoadYAMLAs] offloaded to the worker pool.
func LoadYAMLAsAsync[T any](f *File) *Future[T] {
	return submit(func() (T, error) { return LoadYAMLAs[T](f) })
}

// SizeAsync is [File.Size] offloaded to the worker pool.
func (f *File) SizeAsync() *Future[int64] {
	return submit(f.Size)
}

// TouchParentsAsync is [File.TouchParents] offloaded to the worker pool.
func (f *File) TouchParentsAsync() *Future[*File] {
	return f.submitErr(f.TouchParents)
}

// ReadMany reads every path concurrently and returns the contents in
// input order, regardless of completion order.
//
// Failure policy is fail-fast: the first read error cancels the
// remaining reads and is returned; no partial results are delivered.
func ReadMany(ctx context.Context, paths []string) ([]string, error) {
	return ReadManyFS(ctx, defaultFS, paths)
}

// ReadManyFS is [ReadMany] against an explicit filesystem.
func ReadManyFS(ctx context.Context, fs fsys.FS, paths []string) ([]string, error) {
	out := make([]string, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(poolLimit())

	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			content, err := NewFS(p, fs).ReadText()
			if err != nil {
				return err
			}

			out[i] = content

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
