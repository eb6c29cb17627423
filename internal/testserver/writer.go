package testserver

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/kvwire/kvwire-go/pkg/resp"
)

// writeReply encodes one reply and writes it in a single call, so a
// dropped connection never leaves a partial frame behind.
func writeReply(w io.Writer, r *resp.Reply) error {
	var buf bytes.Buffer
	if err := encodeReply(&buf, r); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func encodeReply(buf *bytes.Buffer, r *resp.Reply) error {
	switch r.Type {
	case resp.TypeStatus:
		buf.WriteByte('+')
		buf.Write(r.Payload())
		buf.WriteString("\r\n")

	case resp.TypeError:
		buf.WriteByte('-')
		buf.Write(r.Payload())
		buf.WriteString("\r\n")

	case resp.TypeInteger:
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(r.Int, 10))
		buf.WriteString("\r\n")

	case resp.TypeBulk:
		payload := r.Payload()
		buf.WriteByte('$')
		buf.WriteString(strconv.Itoa(len(payload)))
		buf.WriteString("\r\n")
		buf.Write(payload)
		buf.WriteString("\r\n")

	case resp.TypeNil:
		buf.WriteString("$-1\r\n")

	case resp.TypeArray:
		buf.WriteByte('*')
		buf.WriteString(strconv.Itoa(len(r.Elems)))
		buf.WriteString("\r\n")
		for _, elem := range r.Elems {
			if err := encodeReply(buf, elem); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("unencodable reply type %d", r.Type)
	}
	return nil
}
