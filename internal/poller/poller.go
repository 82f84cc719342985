// Package poller repeatedly checks an eventually-ready resource, such as an
// uploaded CV that the backend is still processing.
package poller

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 2 * time.Minute
)

// CheckFunc reports whether the resource is ready. The context is cancelled
// once the poll resolves.
type CheckFunc func(ctx context.Context) (bool, error)

type Result struct {
	Ready    bool
	TimedOut bool
	Attempts int
}

// Poll is a running poll. Its ticker and deadline are released as soon as
// it resolves, whichever way that happens.
type Poll struct {
	stop   context.CancelFunc
	done   chan struct{}
	result Result
	err    error
}

// Start begins polling in the background. check is first called one interval
// after Start.
func Start(ctx context.Context, check CheckFunc, interval, timeout time.Duration) *Poll {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	stopCtx, stop := context.WithCancel(ctx)
	p := &Poll{stop: stop, done: make(chan struct{})}
	go p.run(stopCtx, check, interval, timeout)
	return p
}

// Until polls and blocks until check reports ready, check fails, the timeout
// elapses or ctx is done. A timeout is not an error: the result has TimedOut
// set and the caller decides how to present "still processing".
func Until(ctx context.Context, check CheckFunc, interval, timeout time.Duration) (Result, error) {
	return Start(ctx, check, interval, timeout).Wait()
}

func (p *Poll) run(stopCtx context.Context, check CheckFunc, interval, timeout time.Duration) {
	defer close(p.done)
	defer p.stop()

	pollCtx, cancel := context.WithTimeout(stopCtx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			p.finish(stopCtx)
			return
		case <-ticker.C:
			// Both channels can be ready at once; never start a check after
			// the deadline.
			if pollCtx.Err() != nil {
				p.finish(stopCtx)
				return
			}

			ready, err := check(pollCtx)
			p.result.Attempts++
			if err != nil {
				if pollCtx.Err() != nil && errors.Is(err, pollCtx.Err()) {
					p.finish(stopCtx)
					return
				}
				p.err = err
				return
			}
			if ready {
				p.result.Ready = true
				return
			}
		}
	}
}

// finish records why pollCtx ended: a stop or parent cancellation is an
// error, the poll's own deadline is a timeout.
func (p *Poll) finish(stopCtx context.Context) {
	if err := stopCtx.Err(); err != nil {
		p.err = err
		return
	}
	p.result.TimedOut = true
}

// Stop cancels the poll. It is safe to call more than once and after the
// poll has resolved.
func (p *Poll) Stop() {
	p.stop()
}

func (p *Poll) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the poll resolves.
func (p *Poll) Wait() (Result, error) {
	<-p.done
	return p.result, p.err
}
