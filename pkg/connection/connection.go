package connection

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kvwire/kvwire-go/pkg/log"
	"github.com/kvwire/kvwire-go/pkg/resp"
	"github.com/kvwire/kvwire-go/pkg/transport"
)

// Connection defaults.
const (
	// DefaultHost is used when Config.Host is empty.
	DefaultHost = "127.0.0.1"

	// DefaultPort is used when Config.Port is zero.
	DefaultPort = 6379

	// DefaultMaxRetries is the default reconnect-and-resend budget.
	DefaultMaxRetries = 10

	// NoRetries disables retries entirely: any transient failure
	// propagates immediately.
	NoRetries = -1
)

// Config holds the immutable configuration of a Conn.
// The zero value connects to 127.0.0.1:6379 without TLS or credentials.
type Config struct {
	// Host is the server hostname (default: DefaultHost).
	Host string

	// Port is the server port (default: DefaultPort).
	Port int

	// UseTLS upgrades the transport to TLS with a default client config.
	UseTLS bool

	// TLSConfig overrides the TLS client configuration; implies UseTLS.
	TLSConfig *tls.Config

	// DB is the database index selected after connecting. Zero means no
	// selection is performed.
	DB int

	// Username and Password configure authentication. A password alone
	// sends AUTH <password>; with a username, AUTH <username> <password>.
	Username string
	Password string

	// Name is a display name for the connection, used in String().
	Name string

	// MaxRetries bounds reconnect-and-resend attempts after a transient
	// failure (default: DefaultMaxRetries). Use NoRetries to disable.
	MaxRetries int

	// Backoff maps a retry attempt index to a delay (default:
	// DefaultPolicy).
	Backoff Policy

	// HealthCheckInterval enables the periodic liveness probe when
	// positive. Zero disables health checking.
	HealthCheckInterval time.Duration

	// Dialer produces the byte-stream transport (default:
	// transport.NetDialer honoring UseTLS/TLSConfig).
	Dialer transport.Dialer

	// NewAdapter builds the protocol adapter for an open transport
	// (default: resp.NewCodec).
	NewAdapter func(rw io.ReadWriter) resp.Adapter

	// Logger receives connection events (default: log.NoopLogger).
	Logger log.Logger
}

// Conn is one logical connection to a key-value server.
//
// A Conn is created disconnected; call Connect before submitting commands.
// All methods are safe for concurrent use, but the transport only ever
// carries one round trip at a time.
type Conn struct {
	cfg        Config
	id         string
	addr       string
	maxRetries int
	dialer     transport.Dialer
	newAdapter func(rw io.ReadWriter) resp.Adapter
	logger     log.Logger

	mu        sync.Mutex
	closed    bool
	connected bool
	transport net.Conn
	adapter   resp.Adapter

	// wireMu serializes round trips on the shared codec. The dispatcher
	// and Reconnect's probe both take it; mu is never held across I/O.
	wireMu sync.Mutex

	// Pending-command queue; draining guards the single-dispatcher
	// invariant.
	queue    []*pendingCommand
	draining bool

	healthRunning bool
	healthStop    chan struct{}
}

// pendingCommand is one not-yet-completed request.
type pendingCommand struct {
	cmd resp.Command
	res *Result
}

// New creates a Conn with the given configuration. No I/O happens until
// Connect.
func New(cfg Config) *Conn {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Backoff == nil {
		cfg.Backoff = DefaultPolicy
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NoopLogger{}
	}
	if cfg.Name == "" {
		cfg.Name = "kvwire"
	}

	maxRetries := cfg.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = DefaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}

	dialer := cfg.Dialer
	if dialer == nil {
		var tlsConf *tls.Config
		if cfg.TLSConfig != nil {
			tlsConf = cfg.TLSConfig
		} else if cfg.UseTLS {
			tlsConf = transport.NewClientTLSConfig(transport.TLSOptions{
				ServerName: cfg.Host,
			})
		}
		dialer = &transport.NetDialer{TLSConfig: tlsConf}
	}

	newAdapter := cfg.NewAdapter
	if newAdapter == nil {
		newAdapter = func(rw io.ReadWriter) resp.Adapter { return resp.NewCodec(rw) }
	}

	return &Conn{
		cfg:        cfg,
		id:         uuid.New().String(),
		addr:       net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		maxRetries: maxRetries,
		dialer:     dialer,
		newAdapter: newAdapter,
		logger:     cfg.Logger,
	}
}

// ID returns the unique connection ID stamped on log events.
func (c *Conn) ID() string {
	return c.id
}

// Addr returns the server address as "host:port".
func (c *Conn) Addr() string {
	return c.addr
}

// String returns the display name and address.
func (c *Conn) String() string {
	return c.cfg.Name + "(" + c.addr + ")"
}

// IsConnected reports whether the connection is currently considered live.
func (c *Conn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// IsClosed reports whether the connection was manually closed.
func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// manuallyClosed reports the closed-by-the-caller state that suppresses
// automatic recovery.
func (c *Conn) manuallyClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed && !c.connected
}

// event builds a log event stamped with this connection's identity.
func (c *Conn) event(category log.Category) log.Event {
	e := log.NewEvent(c.id, category)
	e.RemoteAddr = c.addr
	return e
}

// Connect establishes the connection: dial (with optional TLS),
// authenticate, select the configured database, and arm the health-check
// loop. Dial and selection failures are retried with backoff up to the
// configured budget; authentication failures and invalid configuration
// abort immediately and are never retried.
func (c *Conn) Connect(ctx context.Context) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		err := c.connectOnce(ctx, true)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrAlreadyConnected) {
			return err
		}
		// Credential rejections and local validation errors are
		// deterministic; redialing cannot change the outcome.
		if IsAuthError(err) || errors.Is(err, ErrDBIndexRequired) {
			return err
		}

		lastErr = err
		if attempt >= c.maxRetries {
			return lastErr
		}

		delay := c.cfg.Backoff(attempt)
		e := c.event(log.CategoryRetry).WithError(err)
		e.Attempt = attempt + 1
		e.Detail = "connect retry in " + delay.String()
		c.logger.Log(e)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// connectOnce performs a single connect attempt with no retry.
//
// revive is set on the caller-facing Connect path: it allows reopening a
// manually closed connection. The recovery path passes false, so a Close
// issued mid-recovery sticks instead of being overridden by the next
// reconnect attempt.
func (c *Conn) connectOnce(ctx context.Context, revive bool) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	if c.closed && !revive {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	start := time.Now()
	conn, err := c.dialer.Dial(ctx, c.addr)
	if err != nil {
		c.logger.Log(c.event(log.CategoryConnect).WithError(err))
		return err
	}
	adapter := c.newAdapter(conn)

	c.mu.Lock()
	if c.closed && !revive {
		// Manually closed while the dial was in flight.
		c.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	c.transport = conn
	c.adapter = adapter
	c.connected = true
	c.closed = false
	c.mu.Unlock()

	e := c.event(log.CategoryConnect)
	e.Elapsed = time.Since(start)
	c.logger.Log(e)

	if err := c.authenticate(adapter); err != nil {
		return err
	}
	if err := c.selectDB(adapter); err != nil {
		return err
	}

	c.armHealthCheck()
	return nil
}

// authenticate sends AUTH when a password is configured. A server error
// reply is wrapped into an AuthError and tears the connection down.
func (c *Conn) authenticate(adapter resp.Adapter) error {
	if c.cfg.Password == "" {
		return nil
	}

	cmd := resp.NewCommand("AUTH", c.cfg.Password)
	if c.cfg.Username != "" {
		cmd = resp.NewCommand("AUTH", c.cfg.Username, c.cfg.Password)
	}

	_, err := adapter.SendCommand(cmd)
	if err != nil {
		if resp.IsServerError(err) {
			err = &AuthError{Err: err}
		}
		c.logger.Log(c.event(log.CategoryAuth).WithError(err))
		c.teardown()
		return err
	}

	c.logger.Log(c.event(log.CategoryAuth))
	return nil
}

// selectDB sends SELECT when a database index is configured.
func (c *Conn) selectDB(adapter resp.Adapter) error {
	if c.cfg.DB == 0 {
		return nil
	}
	if c.cfg.DB < 0 {
		c.teardown()
		return ErrDBIndexRequired
	}

	_, err := adapter.SendCommand(resp.NewCommand("SELECT", c.cfg.DB))
	if err != nil {
		c.logger.Log(c.event(log.CategorySelect).WithError(err))
		c.teardown()
		return err
	}

	e := c.event(log.CategorySelect)
	e.Detail = "db " + strconv.Itoa(c.cfg.DB)
	c.logger.Log(e)
	return nil
}

// teardown releases the transport without entering the manually-closed
// state. Used by the recovery path between reconnect attempts.
func (c *Conn) teardown() {
	c.mu.Lock()
	c.teardownLocked()
	c.mu.Unlock()
}

func (c *Conn) teardownLocked() {
	if c.transport != nil {
		// A broken transport may error on close; nothing to do about it.
		_ = c.transport.Close()
	}
	c.transport = nil
	c.adapter = nil
	c.connected = false
}

// Close tears the connection down and marks it manually closed.
// Close is idempotent: closing twice, or closing a connection whose
// transport is already broken, is a no-op.
func (c *Conn) Close() {
	c.mu.Lock()
	alreadyClosed := c.closed && !c.connected && c.transport == nil
	c.closed = true
	stop := c.healthStop
	c.healthStop = nil
	c.healthRunning = false
	c.teardownLocked()
	c.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if !alreadyClosed {
		c.logger.Log(c.event(log.CategoryClose))
	}
}

// Reconnect force-verifies connectivity. It probes the existing transport
// first; only if the probe fails does it perform a full close, connect,
// and re-probe cycle.
func (c *Conn) Reconnect(ctx context.Context) error {
	if err := c.probe(); err == nil {
		return nil
	}

	c.Close()
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.probe()
}

// probe sends a liveness probe over the current transport, skipping the
// queue and the retry engine. It still takes the round-trip lock: the
// dispatcher may be mid-command on the same codec.
func (c *Conn) probe() error {
	c.mu.Lock()
	adapter := c.adapter
	c.mu.Unlock()

	if adapter == nil {
		return ErrNotConnected
	}

	start := time.Now()
	c.wireMu.Lock()
	_, err := adapter.SendCommand(resp.NewCommand("PING"))
	c.wireMu.Unlock()

	e := c.event(log.CategoryHealth).WithError(err)
	e.Elapsed = time.Since(start)
	e.Detail = "reconnect probe"
	c.logger.Log(e)
	return err
}

// Do submits a command and returns its settlement handle immediately.
// Replies decode bulk and status payloads as strings.
func (c *Conn) Do(name string, args ...any) *Result {
	return c.submit(resp.Command{Name: name, Args: args})
}

// DoRaw is Do with raw-bytes reply decoding: bulk and status payloads are
// kept as byte slices.
func (c *Conn) DoRaw(name string, args ...any) *Result {
	return c.submit(resp.Command{Name: name, Args: args, Raw: true})
}
