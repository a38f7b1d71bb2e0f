// File: facade/async.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"context"
	"errors"
	"fmt"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/internal/concurrency"
)

// runAsync dispatches fn on the bridge executor. A context that ends before
// a worker starts fn, including while the task waits in the queue, prevents
// the call. Once started, fn always runs to completion; the caller may get
// ctx.Err() earlier, but resources held by fn (such as a shared buffer
// borrow) are released only when fn returns.
func runAsync[T any](ctx context.Context, b *Bridge, fn func() (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	if err := b.checkOpen(); err != nil {
		return zero, err
	}

	resultCh := make(chan api.Result[T], 1)
	err := b.exec.Submit(ctx, func() {
		var out api.Result[T]
		defer func() {
			if v := recover(); v != nil {
				out = api.Result[T]{Err: api.Errorf(api.ErrCodeInternal, "extraction panicked: %v", v)}
				b.log.Error("async task panicked", "panic", fmt.Sprint(v))
			}
			resultCh <- out
		}()
		if err := ctx.Err(); err != nil {
			out.Err = err
			return
		}
		out.Value, out.Err = fn()
	})
	if err != nil {
		if errors.Is(err, concurrency.ErrExecutorClosed) {
			return zero, api.NewError(api.ErrCodeReleased, "bridge is closed")
		}
		return zero, err
	}

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case out := <-resultCh:
		return out.Value, out.Err
	}
}
