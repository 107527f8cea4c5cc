package draw

import (
	"context"
	"time"
)

type timeoutSolver struct {
	inner   Solver
	timeout time.Duration
}

// WithTimeout 为任意求解器加上时限
// 超时或取消时立即返回 ClassTimeout，不返回部分解
func WithTimeout(inner Solver, timeout time.Duration) Solver {
	return &timeoutSolver{inner: inner, timeout: timeout}
}

type solveResult struct {
	snap *Snapshot
	err  error
}

func (t *timeoutSolver) Solve(ctx context.Context, pool *Pool, opts Options) (*Snapshot, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	done := make(chan solveResult, 1)
	go func() {
		snap, err := t.inner.Solve(ctx, pool, opts)
		done <- solveResult{snap: snap, err: err}
	}()

	select {
	case res := <-done:
		return res.snap, res.err
	case <-ctx.Done():
		return nil, &InfeasibleError{Class: ClassTimeout, Err: ctx.Err()}
	}
}
