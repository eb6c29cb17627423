package resp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Adapter is the protocol-side view of an open connection.
//
// SendCommand is the stable entry point: one full round trip where server
// error replies surface as *ServerError. ReadReply, WriteCommand and
// Pipeline are the low-level half-duplex operations consumed by the
// unstable connection API.
type Adapter interface {
	// SendCommand performs one command round trip. A server error reply
	// is returned as a *ServerError, not as a Reply.
	SendCommand(cmd Command) (*Reply, error)

	// ReadReply reads a single reply without writing anything. Error
	// replies are returned as TypeError replies, not as errors.
	ReadReply(raw bool) (*Reply, error)

	// WriteCommand writes a command without waiting for its reply.
	WriteCommand(cmd Command) error

	// Pipeline writes all commands, then reads one reply per command.
	// Per-command server errors appear as TypeError replies in the
	// result slice; only transport failures abort the batch.
	Pipeline(cmds []Command) ([]*Reply, error)
}

// Codec is the default Adapter: a RESP2 encoder/decoder bound to an open
// transport. It performs no locking; the connection layer guarantees a
// single round trip is in flight at a time.
type Codec struct {
	br *bufio.Reader
	bw *bufio.Writer
}

// NewCodec creates a Codec reading and writing rw.
func NewCodec(rw io.ReadWriter) *Codec {
	return &Codec{
		br: bufio.NewReader(rw),
		bw: bufio.NewWriter(rw),
	}
}

// SendCommand writes cmd, flushes, and reads its reply.
func (c *Codec) SendCommand(cmd Command) (*Reply, error) {
	if err := c.WriteCommand(cmd); err != nil {
		return nil, err
	}
	reply, err := c.ReadReply(cmd.Raw)
	if err != nil {
		return nil, err
	}
	if reply.Type == TypeError {
		return nil, &ServerError{Message: reply.Text()}
	}
	return reply, nil
}

// WriteCommand encodes cmd as a multibulk array and flushes it.
func (c *Codec) WriteCommand(cmd Command) error {
	if err := c.encodeCommand(cmd); err != nil {
		return err
	}
	return c.bw.Flush()
}

// Pipeline writes every command, flushes once, then reads one reply per
// command in order.
func (c *Codec) Pipeline(cmds []Command) ([]*Reply, error) {
	for _, cmd := range cmds {
		if err := c.encodeCommand(cmd); err != nil {
			return nil, err
		}
	}
	if err := c.bw.Flush(); err != nil {
		return nil, err
	}

	replies := make([]*Reply, 0, len(cmds))
	for _, cmd := range cmds {
		reply, err := c.ReadReply(cmd.Raw)
		if err != nil {
			return nil, err
		}
		replies = append(replies, reply)
	}
	return replies, nil
}

// encodeCommand writes cmd to the buffered writer without flushing.
func (c *Codec) encodeCommand(cmd Command) error {
	c.bw.WriteByte('*')
	c.bw.WriteString(strconv.Itoa(1 + len(cmd.Args)))
	c.bw.WriteString("\r\n")

	if err := c.encodeBulk([]byte(cmd.Name)); err != nil {
		return err
	}
	for _, arg := range cmd.Args {
		if err := c.encodeBulk(argBytes(arg)); err != nil {
			return err
		}
	}
	return nil
}

// encodeBulk writes one $-prefixed bulk payload.
func (c *Codec) encodeBulk(payload []byte) error {
	c.bw.WriteByte('$')
	c.bw.WriteString(strconv.Itoa(len(payload)))
	c.bw.WriteString("\r\n")
	c.bw.Write(payload)
	_, err := c.bw.WriteString("\r\n")
	return err
}

// ReadReply decodes a single reply. In raw mode, bulk and status payloads
// are kept as byte slices instead of strings.
func (c *Codec) ReadReply(raw bool) (*Reply, error) {
	line, err := c.readLine()
	if err != nil {
		return nil, err
	}
	if len(line) == 0 {
		return nil, fmt.Errorf("%w: empty reply line", ErrProtocol)
	}

	prefix, rest := line[0], line[1:]
	switch prefix {
	case '+':
		if raw {
			return &Reply{Type: TypeStatus, Bytes: []byte(rest)}, nil
		}
		return &Reply{Type: TypeStatus, Str: rest}, nil

	case '-':
		return &Reply{Type: TypeError, Str: rest}, nil

	case ':':
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad integer reply %q", ErrProtocol, rest)
		}
		return &Reply{Type: TypeInteger, Int: n}, nil

	case '$':
		return c.readBulk(rest, raw)

	case '*':
		return c.readArray(rest, raw)

	default:
		return nil, fmt.Errorf("%w: unknown reply prefix %q", ErrProtocol, prefix)
	}
}

// readBulk reads the payload of a $-prefixed reply whose header line
// carried the given length text.
func (c *Codec) readBulk(lenText string, raw bool) (*Reply, error) {
	n, err := strconv.Atoi(lenText)
	if err != nil {
		return nil, fmt.Errorf("%w: bad bulk length %q", ErrProtocol, lenText)
	}
	if n < 0 {
		return &Reply{Type: TypeNil}, nil
	}

	// Payload plus trailing CRLF.
	buf := make([]byte, n+2)
	if _, err := io.ReadFull(c.br, buf); err != nil {
		return nil, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, fmt.Errorf("%w: bulk reply missing CRLF terminator", ErrProtocol)
	}

	if raw {
		return &Reply{Type: TypeBulk, Bytes: buf[:n]}, nil
	}
	return &Reply{Type: TypeBulk, Str: string(buf[:n])}, nil
}

// readArray reads the elements of a *-prefixed reply.
func (c *Codec) readArray(lenText string, raw bool) (*Reply, error) {
	n, err := strconv.Atoi(lenText)
	if err != nil {
		return nil, fmt.Errorf("%w: bad array length %q", ErrProtocol, lenText)
	}
	if n < 0 {
		return &Reply{Type: TypeNil}, nil
	}

	elems := make([]*Reply, 0, n)
	for i := 0; i < n; i++ {
		elem, err := c.ReadReply(raw)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
	}
	return &Reply{Type: TypeArray, Elems: elems}, nil
}

// readLine reads one CRLF-terminated line and strips the terminator.
func (c *Codec) readLine() (string, error) {
	line, err := c.br.ReadString('\n')
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return "", fmt.Errorf("%w: reply line not CRLF-terminated", ErrProtocol)
	}
	return line[:len(line)-2], nil
}

// Compile-time interface satisfaction check.
var _ Adapter = (*Codec)(nil)
