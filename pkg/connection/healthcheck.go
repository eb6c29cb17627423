package connection

import (
	"context"
	"time"

	"github.com/kvwire/kvwire-go/pkg/log"
)

// armHealthCheck starts the health-check loop if an interval is configured
// and the loop is not already running.
func (c *Conn) armHealthCheck() {
	interval := c.cfg.HealthCheckInterval
	if interval <= 0 {
		return
	}

	c.mu.Lock()
	if c.healthRunning {
		c.mu.Unlock()
		return
	}
	c.healthRunning = true
	stop := make(chan struct{})
	c.healthStop = stop
	c.mu.Unlock()

	go c.healthLoop(stop, interval)
}

// healthLoop periodically probes liveness through the ordinary dispatcher
// path, so probes queue behind in-flight commands like any other request.
// Probe failures are swallowed; they only flip the connected flag. The
// loop ends when the connection is manually closed.
func (c *Conn) healthLoop(stop chan struct{}, interval time.Duration) {
	defer func() {
		c.mu.Lock()
		if c.healthStop == stop {
			c.healthRunning = false
			c.healthStop = nil
		}
		c.mu.Unlock()
	}()

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}

		if c.manuallyClosed() {
			return
		}

		start := time.Now()
		_, err := c.Do("PING").Wait(context.Background())

		c.mu.Lock()
		if !c.closed {
			c.connected = err == nil && c.adapter != nil
		}
		c.mu.Unlock()

		e := c.event(log.CategoryHealth).WithError(err)
		e.Command = "PING"
		e.Elapsed = time.Since(start)
		c.logger.Log(e)

		timer.Reset(interval)
	}
}
