package connection

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/kvwire/kvwire-go/pkg/resp"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestHealthCheck(t *testing.T) {
	t.Run("ProbesAutomatically", func(t *testing.T) {
		adapter := &fakeAdapter{}
		c := newTestConn(Config{HealthCheckInterval: 15 * time.Millisecond}, &fakeDialer{}, adapter)
		if err := c.Connect(context.Background()); err != nil {
			t.Fatalf("Connect: %v", err)
		}
		defer c.Close()

		// Probes arrive without any caller action.
		waitFor(t, 2*time.Second, func() bool {
			return adapter.countCommand("PING") >= 2
		})
		if !c.IsConnected() {
			t.Error("IsConnected = false while probes succeed")
		}
	})

	t.Run("FailureFlipsConnectedSilently", func(t *testing.T) {
		adapter := &fakeAdapter{
			handler: func(cmd resp.Command) (*resp.Reply, error) {
				if cmd.Name == "PING" {
					return nil, io.EOF
				}
				return defaultReply(cmd), nil
			},
		}
		c := newTestConn(Config{
			HealthCheckInterval: 15 * time.Millisecond,
			MaxRetries:          NoRetries,
		}, &fakeDialer{}, adapter)
		if err := c.Connect(context.Background()); err != nil {
			t.Fatalf("Connect: %v", err)
		}
		defer c.Close()

		waitFor(t, 2*time.Second, func() bool {
			return !c.IsConnected()
		})
		// The failure flipped the flag but did not close the connection.
		if c.IsClosed() {
			t.Error("health failure marked the connection manually closed")
		}
	})

	t.Run("StopsAfterClose", func(t *testing.T) {
		adapter := &fakeAdapter{}
		c := newTestConn(Config{HealthCheckInterval: 10 * time.Millisecond}, &fakeDialer{}, adapter)
		if err := c.Connect(context.Background()); err != nil {
			t.Fatalf("Connect: %v", err)
		}

		waitFor(t, 2*time.Second, func() bool {
			return adapter.countCommand("PING") >= 1
		})
		c.Close()

		// Allow any in-flight probe to settle, then verify no new probes.
		time.Sleep(30 * time.Millisecond)
		before := adapter.countCommand("PING")
		time.Sleep(60 * time.Millisecond)
		if after := adapter.countCommand("PING"); after != before {
			t.Errorf("probes continued after Close: %d -> %d", before, after)
		}
	})

	t.Run("DisabledByDefault", func(t *testing.T) {
		adapter := &fakeAdapter{}
		c := newTestConn(Config{}, &fakeDialer{}, adapter)
		if err := c.Connect(context.Background()); err != nil {
			t.Fatalf("Connect: %v", err)
		}
		defer c.Close()

		time.Sleep(50 * time.Millisecond)
		if n := adapter.countCommand("PING"); n != 0 {
			t.Errorf("probes sent with health checking disabled: %d", n)
		}
	})

	t.Run("RearmedByConnect", func(t *testing.T) {
		adapter := &fakeAdapter{}
		c := newTestConn(Config{HealthCheckInterval: 10 * time.Millisecond}, &fakeDialer{}, adapter)
		if err := c.Connect(context.Background()); err != nil {
			t.Fatalf("Connect: %v", err)
		}

		c.Close()
		time.Sleep(30 * time.Millisecond)
		base := adapter.countCommand("PING")

		if err := c.Connect(context.Background()); err != nil {
			t.Fatalf("reconnect: %v", err)
		}
		defer c.Close()

		waitFor(t, 2*time.Second, func() bool {
			return adapter.countCommand("PING") > base
		})
	})
}
