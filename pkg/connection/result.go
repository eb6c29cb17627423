package connection

import (
	"context"
	"sync"

	"github.com/kvwire/kvwire-go/pkg/resp"
)

// Result is the settlement handle for one submitted command.
//
// A Result settles exactly once, with either a reply or an error, when the
// dispatcher finishes the command. Waiting with a context does not cancel
// the command itself; once submitted, a command always runs to settlement.
type Result struct {
	done  chan struct{}
	once  sync.Once
	reply *resp.Reply
	err   error
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

// resolve settles the result with a reply. Later settlements are ignored.
func (r *Result) resolve(reply *resp.Reply) {
	r.once.Do(func() {
		r.reply = reply
		close(r.done)
	})
}

// reject settles the result with an error. Later settlements are ignored.
func (r *Result) reject(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Done returns a channel that is closed when the result has settled.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the result settles or ctx is done.
func (r *Result) Wait(ctx context.Context) (*resp.Reply, error) {
	select {
	case <-r.done:
		return r.reply, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
