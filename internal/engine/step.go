package engine

import (
	"context"
	"time"
)

// pollStepper advances a run executing on a worker goroutine. Each Step
// waits at most one poll interval for completion before handing control
// back to the caller, which is what keeps a long native inference call from
// stalling the driving loop.
type pollStepper struct {
	done     <-chan error
	interval time.Duration
	finished bool
	err      error
}

func newPollStepper(done <-chan error, interval time.Duration) *pollStepper {
	if interval <= 0 {
		interval = 5 * time.Millisecond
	}
	return &pollStepper{done: done, interval: interval}
}

func (p *pollStepper) Step(ctx context.Context) (bool, error) {
	if p.finished {
		return true, p.err
	}
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	select {
	case err := <-p.done:
		p.finished = true
		p.err = err
		return true, p.err
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
		return false, nil
	}
}
