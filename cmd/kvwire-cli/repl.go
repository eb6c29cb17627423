package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/kvwire/kvwire-go/pkg/connection"
	"github.com/kvwire/kvwire-go/pkg/resp"
	"github.com/kvwire/kvwire-go/pkg/version"
)

// repl is the interactive command loop. Server commands are sent
// verbatim through the managed connection; a handful of local commands
// control the connection itself.
type repl struct {
	conn *connection.Conn
	rl   *readline.Instance
}

func newREPL(conn *connection.Conn) (*repl, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          conn.Addr() + "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &repl{conn: conn, rl: rl}, nil
}

// Run reads and executes commands until EOF or an exit command.
func (r *repl) Run(ctx context.Context) {
	defer r.rl.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(r.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := splitArgs(input)
		switch strings.ToLower(parts[0]) {
		case "help", "?":
			r.printHelp()

		case "status":
			r.cmdStatus()

		case "reconnect":
			r.cmdReconnect(ctx)

		case "server-version":
			r.cmdServerVersion()

		case "quit", "exit", "q":
			fmt.Fprintln(r.rl.Stdout(), "Exiting...")
			return

		default:
			r.cmdSend(parts[0], parts[1:])
		}
	}
}

// cmdSend sends one server command and prints its reply.
func (r *repl) cmdSend(name string, args []string) {
	cmdArgs := make([]any, len(args))
	for i, a := range args {
		cmdArgs[i] = a
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reply, err := r.conn.Do(strings.ToUpper(name), cmdArgs...).Wait(ctx)
	if err != nil {
		fmt.Fprintf(r.rl.Stdout(), "(error) %v\n", err)
		return
	}
	fmt.Fprint(r.rl.Stdout(), formatReply(reply, ""))
}

func (r *repl) cmdStatus() {
	state := "disconnected"
	if r.conn.IsConnected() {
		state = "connected"
	} else if r.conn.IsClosed() {
		state = "closed"
	}
	fmt.Fprintf(r.rl.Stdout(), "%s  id=%s  state=%s\n", r.conn.Addr(), r.conn.ID(), state)
}

func (r *repl) cmdReconnect(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := r.conn.Reconnect(ctx); err != nil {
		fmt.Fprintf(r.rl.Stdout(), "(error) reconnect: %v\n", err)
		return
	}
	fmt.Fprintln(r.rl.Stdout(), "OK")
}

func (r *repl) cmdServerVersion() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reply, err := r.conn.Do("INFO").Wait(ctx)
	if err != nil {
		fmt.Fprintf(r.rl.Stdout(), "(error) %v\n", err)
		return
	}
	v, err := version.FromInfo(reply.Text())
	if err != nil {
		fmt.Fprintf(r.rl.Stdout(), "(error) %v\n", err)
		return
	}
	fmt.Fprintln(r.rl.Stdout(), v)
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.rl.Stdout(), `
Any server command can be typed directly, e.g.:
  SET key value
  GET key
  DEL key

Local commands:
  status          - Show connection state
  reconnect       - Probe the connection, cycling it if unhealthy
  server-version  - Show the server version from INFO
  help            - Show this help
  quit            - Exit`)
}

// formatReply renders a reply the way interactive clients conventionally
// do: statuses bare, bulks quoted, arrays numbered and indented.
func formatReply(reply *resp.Reply, indent string) string {
	switch reply.Type {
	case resp.TypeStatus:
		return indent + reply.Text() + "\n"
	case resp.TypeError:
		return indent + "(error) " + reply.Text() + "\n"
	case resp.TypeInteger:
		return indent + "(integer) " + strconv.FormatInt(reply.Int, 10) + "\n"
	case resp.TypeBulk:
		return indent + strconv.Quote(reply.Text()) + "\n"
	case resp.TypeNil:
		return indent + "(nil)\n"
	case resp.TypeArray:
		if len(reply.Elems) == 0 {
			return indent + "(empty array)\n"
		}
		var b strings.Builder
		for i, elem := range reply.Elems {
			b.WriteString(fmt.Sprintf("%s%d) ", indent, i+1))
			b.WriteString(strings.TrimPrefix(formatReply(elem, indent+"   "), indent+"   "))
		}
		return b.String()
	default:
		return indent + "(unknown reply)\n"
	}
}

// splitArgs splits a command line into fields, honoring double quotes so
// values may contain spaces.
func splitArgs(input string) []string {
	var args []string
	var cur strings.Builder
	inQuote := false
	escaped := false

	for _, ch := range input {
		switch {
		case escaped:
			cur.WriteRune(ch)
			escaped = false
		case ch == '\\' && inQuote:
			escaped = true
		case ch == '"':
			inQuote = !inQuote
		case ch == ' ' && !inQuote:
			if cur.Len() > 0 {
				args = append(args, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(ch)
		}
	}
	if cur.Len() > 0 {
		args = append(args, cur.String())
	}
	return args
}
