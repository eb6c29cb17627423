package connection

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/kvwire/kvwire-go/pkg/log"
	"github.com/kvwire/kvwire-go/pkg/resp"
)

// submit appends a command to the queue and starts the dispatcher when it
// is not already running. Submission never blocks; the returned Result
// settles when the dispatcher reaches the command.
func (c *Conn) submit(cmd resp.Command) *Result {
	res := newResult()

	// SELECT with a missing or zero index is a local validation error;
	// the server is never contacted.
	if strings.EqualFold(cmd.Name, "SELECT") && !validDBIndex(cmd.Args) {
		res.reject(ErrDBIndexRequired)
		return res
	}

	c.mu.Lock()
	if c.closed && !c.connected {
		c.mu.Unlock()
		res.reject(ErrClosed)
		return res
	}
	c.queue = append(c.queue, &pendingCommand{cmd: cmd, res: res})
	start := !c.draining
	if start {
		c.draining = true
	}
	c.mu.Unlock()

	if start {
		go c.drain()
	}
	return res
}

// validDBIndex reports whether args holds a usable database index.
func validDBIndex(args []any) bool {
	if len(args) == 0 {
		return false
	}
	var n int
	switch v := args[0].(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return false
		}
		n = parsed
	default:
		return false
	}
	return n > 0
}

// drain processes queue entries one at a time until the queue is empty.
// Exactly one drain loop runs at any moment; this is the serialization
// boundary that makes the single transport safe to share.
func (c *Conn) drain() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.draining = false
			c.mu.Unlock()
			return
		}
		head := c.queue[0]
		c.mu.Unlock()

		c.dispatch(head)

		c.mu.Lock()
		c.queue = c.queue[1:]
		c.mu.Unlock()
	}
}

// dispatch runs one command to settlement, including failure recovery.
func (c *Conn) dispatch(p *pendingCommand) {
	start := time.Now()
	reply, err := c.roundTrip(p.cmd)

	e := c.event(log.CategoryCommand).WithError(err)
	e.Command = p.cmd.Name
	e.Elapsed = time.Since(start)
	c.logger.Log(e)

	if err == nil {
		p.res.resolve(reply)
		return
	}
	if !recoverable(err) || c.manuallyClosed() {
		p.res.reject(err)
		return
	}

	c.recover(p, err)
}

// recover is the bounded reconnect-and-resend loop. The command is
// rejected with the original error once the budget is exhausted;
// intermediate failures are logged but not surfaced.
func (c *Conn) recover(p *pendingCommand, cause error) {
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if c.manuallyClosed() {
			break
		}

		e := c.event(log.CategoryRetry)
		e.Command = p.cmd.Name
		e.Attempt = attempt + 1
		c.logger.Log(e)

		c.teardown()
		err := c.connectOnce(context.Background(), false)
		if err == nil {
			var reply *resp.Reply
			reply, err = c.roundTrip(p.cmd)
			if err == nil {
				p.res.resolve(reply)
				return
			}
		}
		if errors.Is(err, ErrClosed) {
			// Manually closed while reconnecting.
			break
		}

		// Authentication failures and server error replies end the
		// recovery immediately; repeating them cannot succeed.
		if IsAuthError(err) || resp.IsServerError(err) {
			p.res.reject(err)
			return
		}

		time.Sleep(c.cfg.Backoff(attempt))
	}

	p.res.reject(cause)
}

// roundTrip performs one command round trip on the current adapter.
func (c *Conn) roundTrip(cmd resp.Command) (*resp.Reply, error) {
	c.mu.Lock()
	adapter := c.adapter
	c.mu.Unlock()

	if adapter == nil {
		return nil, ErrNotConnected
	}

	c.wireMu.Lock()
	defer c.wireMu.Unlock()
	return adapter.SendCommand(cmd)
}

// recoverable reports whether the recovery loop may handle err.
// ErrNotConnected counts: a command submitted while the transport is down
// should drive a reconnect rather than fail outright.
func recoverable(err error) bool {
	return resp.IsRetriable(err) || errors.Is(err, ErrNotConnected)
}
