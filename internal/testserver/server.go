// Package testserver provides an in-process key-value server speaking the
// wire protocol, for exercising the client end to end. It keeps data in
// memory and supports scripted fault injection: dropping live connections,
// rejecting authentication, and overriding individual commands.
package testserver

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/kvwire/kvwire-go/pkg/resp"
)

// Handler overrides the built-in behaviour for one command. Returning nil
// makes the server drop the connection instead of replying.
type Handler func(st *ConnState, cmd resp.Command) *resp.Reply

// ConnState is the per-connection session state visible to handlers.
type ConnState struct {
	// Authed is true once AUTH has succeeded, or always when the server
	// has no password configured.
	Authed bool

	// DB is the database index selected with SELECT.
	DB int
}

// Server is an in-memory test server. Configure it before Start; the
// fault-injection methods are safe to call while it is serving.
type Server struct {
	// Username and Password, when Password is non-empty, are required
	// before any other command is accepted.
	Username string
	Password string

	mu       sync.Mutex
	ln       net.Listener
	conns    map[net.Conn]struct{}
	store    map[int]map[string]string
	commands []resp.Command
	handlers map[string]Handler

	// dropAfter closes each connection once it has served this many
	// commands. Zero disables.
	dropAfter int
	closed    bool

	wg sync.WaitGroup
}

// New creates a stopped server.
func New() *Server {
	return &Server{
		conns:    make(map[net.Conn]struct{}),
		store:    make(map[int]map[string]string),
		handlers: make(map[string]Handler),
	}
}

// Start listens on an ephemeral loopback port and begins serving.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ln = ln
	s.closed = false
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the listen address, valid after Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Close stops the listener and drops every live connection.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	ln := s.ln
	s.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	s.DropConnections()
	s.wg.Wait()
}

// DropConnections closes every live connection without stopping the
// listener. Clients reconnecting afterwards are served normally.
func (s *Server) DropConnections() {
	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
}

// DropAfter makes every connection close after serving n commands.
// Zero restores normal behaviour.
func (s *Server) DropAfter(n int) {
	s.mu.Lock()
	s.dropAfter = n
	s.mu.Unlock()
}

// Handle overrides the behaviour of one command name.
func (s *Server) Handle(name string, h Handler) {
	s.mu.Lock()
	s.handlers[strings.ToUpper(name)] = h
	s.mu.Unlock()
}

// Commands returns the names of every command served so far, in order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.commands))
	for i, cmd := range s.commands {
		names[i] = cmd.Name
	}
	return names
}

// CommandCount returns how many times the named command has been served.
func (s *Server) CommandCount(name string) int {
	name = strings.ToUpper(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, cmd := range s.commands {
		if cmd.Name == name {
			n++
		}
	}
	return n
}

// Get reads a stored value directly, for assertions.
func (s *Server) Get(db int, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.store[db][key]
	return v, ok
}

// Set stores a value directly, for seeding test data.
func (s *Server) Set(db int, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store[db] == nil {
		s.store[db] = make(map[string]string)
	}
	s.store[db][key] = value
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	codec := resp.NewCodec(conn)
	st := &ConnState{Authed: s.Password == ""}
	served := 0

	for {
		cmd, err := readCommand(codec)
		if err != nil {
			return
		}

		s.mu.Lock()
		s.commands = append(s.commands, cmd)
		handler := s.handlers[cmd.Name]
		dropAfter := s.dropAfter
		s.mu.Unlock()

		var reply *resp.Reply
		if handler != nil {
			reply = handler(st, cmd)
		} else {
			reply = s.handle(st, cmd)
		}
		if reply == nil {
			return
		}
		if err := writeReply(conn, reply); err != nil {
			return
		}

		served++
		if dropAfter > 0 && served >= dropAfter {
			return
		}
	}
}

// readCommand reads one inbound multibulk command and normalizes its name
// to upper case.
func readCommand(codec *resp.Codec) (resp.Command, error) {
	r, err := codec.ReadReply(false)
	if err != nil {
		return resp.Command{}, err
	}
	if r.Type != resp.TypeArray || len(r.Elems) == 0 {
		return resp.Command{}, fmt.Errorf("malformed command frame")
	}

	cmd := resp.Command{Name: strings.ToUpper(r.Elems[0].Text())}
	for _, elem := range r.Elems[1:] {
		cmd.Args = append(cmd.Args, elem.Text())
	}
	return cmd, nil
}

// handle implements the built-in command set.
func (s *Server) handle(st *ConnState, cmd resp.Command) *resp.Reply {
	if !st.Authed && cmd.Name != "AUTH" {
		return errorReply("NOAUTH Authentication required.")
	}

	switch cmd.Name {
	case "PING":
		if len(cmd.Args) == 1 {
			return bulkReply(argText(cmd.Args[0]))
		}
		return statusReply("PONG")

	case "ECHO":
		if len(cmd.Args) != 1 {
			return wrongArity(cmd.Name)
		}
		return bulkReply(argText(cmd.Args[0]))

	case "AUTH":
		return s.auth(st, cmd)

	case "SELECT":
		if len(cmd.Args) != 1 {
			return wrongArity(cmd.Name)
		}
		idx, err := strconv.Atoi(argText(cmd.Args[0]))
		if err != nil || idx < 0 || idx > 15 {
			return errorReply("ERR DB index is out of range")
		}
		st.DB = idx
		return statusReply("OK")

	case "GET":
		if len(cmd.Args) != 1 {
			return wrongArity(cmd.Name)
		}
		v, ok := s.Get(st.DB, argText(cmd.Args[0]))
		if !ok {
			return &resp.Reply{Type: resp.TypeNil}
		}
		return bulkReply(v)

	case "SET":
		if len(cmd.Args) != 2 {
			return wrongArity(cmd.Name)
		}
		s.Set(st.DB, argText(cmd.Args[0]), argText(cmd.Args[1]))
		return statusReply("OK")

	case "DEL":
		if len(cmd.Args) == 0 {
			return wrongArity(cmd.Name)
		}
		s.mu.Lock()
		removed := int64(0)
		for _, arg := range cmd.Args {
			key := argText(arg)
			if _, ok := s.store[st.DB][key]; ok {
				delete(s.store[st.DB], key)
				removed++
			}
		}
		s.mu.Unlock()
		return &resp.Reply{Type: resp.TypeInteger, Int: removed}

	case "EXISTS":
		if len(cmd.Args) != 1 {
			return wrongArity(cmd.Name)
		}
		_, ok := s.Get(st.DB, argText(cmd.Args[0]))
		n := int64(0)
		if ok {
			n = 1
		}
		return &resp.Reply{Type: resp.TypeInteger, Int: n}

	case "KEYS":
		s.mu.Lock()
		keys := make([]*resp.Reply, 0, len(s.store[st.DB]))
		for k := range s.store[st.DB] {
			keys = append(keys, bulkReply(k))
		}
		s.mu.Unlock()
		return &resp.Reply{Type: resp.TypeArray, Elems: keys}

	case "INFO":
		return bulkReply("# Server\r\nredis_version:7.2.4\r\nredis_mode:standalone\r\n")

	case "CLIENT":
		return statusReply("OK")

	case "FLUSHDB":
		s.mu.Lock()
		delete(s.store, st.DB)
		s.mu.Unlock()
		return statusReply("OK")

	default:
		return errorReply("ERR unknown command '" + cmd.Name + "'")
	}
}

func (s *Server) auth(st *ConnState, cmd resp.Command) *resp.Reply {
	if s.Password == "" {
		return errorReply("ERR Client sent AUTH, but no password is set.")
	}

	var user, pass string
	switch len(cmd.Args) {
	case 1:
		pass = argText(cmd.Args[0])
	case 2:
		user = argText(cmd.Args[0])
		pass = argText(cmd.Args[1])
	default:
		return wrongArity(cmd.Name)
	}

	if pass != s.Password || (s.Username != "" && user != s.Username) {
		return errorReply("WRONGPASS invalid username-password pair or user is disabled.")
	}
	st.Authed = true
	return statusReply("OK")
}

func argText(arg any) string {
	switch v := arg.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func statusReply(s string) *resp.Reply {
	return &resp.Reply{Type: resp.TypeStatus, Str: s}
}

func errorReply(msg string) *resp.Reply {
	return &resp.Reply{Type: resp.TypeError, Str: msg}
}

func bulkReply(s string) *resp.Reply {
	return &resp.Reply{Type: resp.TypeBulk, Str: s}
}

func wrongArity(name string) *resp.Reply {
	return errorReply("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
}
