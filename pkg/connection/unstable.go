package connection

import (
	"github.com/kvwire/kvwire-go/pkg/resp"
)

// Unstable exposes the low-level half-duplex operations of the protocol
// adapter: raw reply reads, fire-and-forget writes, and pipelined batches.
//
// These operations bypass the pending-command queue entirely, so they are
// NOT serialized against Do/DoRaw and carry no retry or recovery. They are
// outside the compatibility contract and may change between releases.
type Unstable interface {
	// ReadReply reads a single reply from the transport.
	ReadReply(raw bool) (*resp.Reply, error)

	// WriteCommand writes a command without waiting for its reply.
	WriteCommand(cmd resp.Command) error

	// Pipeline writes all commands, then reads one reply per command.
	// Per-command server errors appear as TypeError replies.
	Pipeline(cmds []resp.Command) ([]*resp.Reply, error)
}

// Unstable returns the unstable extension interface for this connection.
func (c *Conn) Unstable() Unstable {
	return unstableConn{c}
}

type unstableConn struct {
	c *Conn
}

func (u unstableConn) ReadReply(raw bool) (*resp.Reply, error) {
	adapter, err := u.adapter()
	if err != nil {
		return nil, err
	}
	return adapter.ReadReply(raw)
}

func (u unstableConn) WriteCommand(cmd resp.Command) error {
	adapter, err := u.adapter()
	if err != nil {
		return err
	}
	return adapter.WriteCommand(cmd)
}

func (u unstableConn) Pipeline(cmds []resp.Command) ([]*resp.Reply, error) {
	adapter, err := u.adapter()
	if err != nil {
		return nil, err
	}
	return adapter.Pipeline(cmds)
}

func (u unstableConn) adapter() (resp.Adapter, error) {
	u.c.mu.Lock()
	defer u.c.mu.Unlock()
	if u.c.adapter == nil {
		return nil, ErrNotConnected
	}
	return u.c.adapter, nil
}
