package resp

import (
	"fmt"
	"strconv"
)

// ReplyType identifies the kind of a decoded RESP reply.
type ReplyType uint8

const (
	// TypeStatus is a simple status reply ("+OK").
	TypeStatus ReplyType = iota

	// TypeError is a server error reply ("-ERR ...").
	TypeError

	// TypeInteger is an integer reply (":1").
	TypeInteger

	// TypeBulk is a bulk value reply ("$3\r\nfoo").
	TypeBulk

	// TypeArray is an array of replies ("*2...").
	TypeArray

	// TypeNil is a null bulk or null array reply ("$-1" / "*-1").
	TypeNil
)

// String returns a human-readable type name.
func (t ReplyType) String() string {
	switch t {
	case TypeStatus:
		return "STATUS"
	case TypeError:
		return "ERROR"
	case TypeInteger:
		return "INTEGER"
	case TypeBulk:
		return "BULK"
	case TypeArray:
		return "ARRAY"
	case TypeNil:
		return "NIL"
	default:
		return "UNKNOWN"
	}
}

// Reply is one decoded server reply.
//
// For TypeStatus, TypeError and TypeBulk, the payload is in Str, or in
// Bytes instead when the reply was read in raw mode. For TypeInteger the
// payload is in Int. For TypeArray the elements are in Elems.
type Reply struct {
	Type  ReplyType
	Str   string
	Bytes []byte
	Int   int64
	Elems []*Reply
}

// IsNil returns true for null replies.
func (r *Reply) IsNil() bool {
	return r.Type == TypeNil
}

// Text returns the payload as a string regardless of decode mode.
// Integer replies are formatted in base 10; nil replies return "".
func (r *Reply) Text() string {
	switch r.Type {
	case TypeInteger:
		return strconv.FormatInt(r.Int, 10)
	case TypeNil:
		return ""
	default:
		if r.Bytes != nil {
			return string(r.Bytes)
		}
		return r.Str
	}
}

// Payload returns the payload as bytes regardless of decode mode.
func (r *Reply) Payload() []byte {
	if r.Bytes != nil {
		return r.Bytes
	}
	if r.Str != "" {
		return []byte(r.Str)
	}
	return nil
}

// Err returns the corresponding *ServerError for error replies and nil
// for every other reply type. Used to pick failed entries out of a
// pipeline result.
func (r *Reply) Err() error {
	if r.Type != TypeError {
		return nil
	}
	return &ServerError{Message: r.Text()}
}

// Command is one request to the server: a command name, its arguments,
// and the decode mode for the reply.
type Command struct {
	// Name is the command name ("GET", "AUTH", ...).
	Name string

	// Args are the command arguments in order. Supported types are
	// string, []byte, integer and float kinds, and bool; anything else
	// is formatted with fmt.
	Args []any

	// Raw requests that bulk and status payloads in the reply are kept
	// as byte slices instead of being converted to strings.
	Raw bool
}

// NewCommand builds a Command with the default decode mode.
func NewCommand(name string, args ...any) Command {
	return Command{Name: name, Args: args}
}

// argBytes converts a single command argument to its wire payload.
func argBytes(arg any) []byte {
	switch v := arg.(type) {
	case string:
		return []byte(v)
	case []byte:
		return v
	case int:
		return strconv.AppendInt(nil, int64(v), 10)
	case int64:
		return strconv.AppendInt(nil, v, 10)
	case int32:
		return strconv.AppendInt(nil, int64(v), 10)
	case uint64:
		return strconv.AppendUint(nil, v, 10)
	case float64:
		return strconv.AppendFloat(nil, v, 'g', -1, 64)
	case bool:
		if v {
			return []byte("1")
		}
		return []byte("0")
	default:
		return fmt.Append(nil, v)
	}
}
