// Package session orchestrates link sessions: it owns the telemetry state
// lifecycle and is the single authority for connect/disconnect decisions.
package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"groundstation/internal/link"
	"groundstation/internal/telemetry"
)

// Phase is the controller's connection state. Connecting is transient and
// only falls back to Disconnected on an open error.
type Phase int

const (
	Disconnected Phase = iota
	Connecting
	Connected
)

func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// OpenFunc opens the byte stream for a session. The default opens a raw
// serial device; tests substitute in-memory streams.
type OpenFunc func(port string, baud int) (io.ReadWriteCloser, error)

// activeSession bundles everything owned by one connect/disconnect cycle.
// done is closed only once the read-loop goroutine has fully stopped, so
// waiting on it is the synchronization point for resetting shared state.
type activeSession struct {
	sess   *link.Session
	stream io.ReadWriteCloser
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller owns the telemetry state and at most one live link session.
// All methods are safe to call from any goroutine.
type Controller struct {
	open  OpenFunc
	state *telemetry.State

	mu       sync.Mutex
	phase    Phase
	cur      *activeSession
	draining bool
}

func New(state *telemetry.State, open OpenFunc) *Controller {
	if open == nil {
		open = func(port string, baud int) (io.ReadWriteCloser, error) {
			return link.Open(port, baud)
		}
	}
	return &Controller{open: open, state: state}
}

// State exposes the shared container to read-side consumers.
func (c *Controller) State() *telemetry.State {
	return c.state
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Connect opens the port, resets telemetry to defaults, records the
// session start and launches the read loop. Rejected while a session is
// active, including one that is still draining after a Disconnect. On an
// open error nothing is mutated.
func (c *Controller) Connect(port string, baud int) error {
	c.mu.Lock()
	if c.phase != Disconnected {
		c.mu.Unlock()
		return fmt.Errorf("session: connect while %s", c.phase)
	}
	c.phase = Connecting
	c.mu.Unlock()

	stream, err := c.open(port, baud)
	if err != nil {
		c.mu.Lock()
		c.phase = Disconnected
		c.mu.Unlock()
		return fmt.Errorf("session: open %s: %w", port, err)
	}

	now := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	cur := &activeSession{
		sess:   link.NewSession(stream, c.state, now),
		stream: stream,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	c.cur = cur
	c.phase = Connected
	c.state.Reset()
	c.state.StartSession(now)
	c.mu.Unlock()

	go func() {
		defer close(cur.done)
		err := cur.sess.Run(ctx)
		c.sessionEnded(cur, err)
	}()

	log.Printf("session: connected port=%s baud=%d", port, baud)
	return nil
}

// Disconnect stops the read loop, closes the stream and resets the
// telemetry state to defaults. The Disconnected transition happens only
// after the read-loop goroutine has fully stopped, so a racing Connect is
// rejected until no writer is live and the reset can never race a write.
// Safe to call when already disconnected.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	cur := c.cur
	if cur == nil {
		c.mu.Unlock()
		return
	}
	if !c.draining {
		c.draining = true
		cur.cancel()
		_ = cur.stream.Close() // unblocks a read in progress
	}
	c.mu.Unlock()

	// No reset, and no Disconnected transition, until the writer has
	// fully stopped.
	<-cur.done

	c.mu.Lock()
	if c.cur != cur {
		// A concurrent Disconnect finished the teardown first.
		c.mu.Unlock()
		return
	}
	c.cur = nil
	c.draining = false
	c.phase = Disconnected
	c.mu.Unlock()

	c.state.Reset()
	log.Printf("session: disconnected")
}

// Send writes one free-text command to the live link.
func (c *Controller) Send(cmd string) error {
	c.mu.Lock()
	cur := c.cur
	ok := c.phase == Connected && !c.draining
	c.mu.Unlock()
	if !ok || cur == nil {
		return fmt.Errorf("session: not connected")
	}
	return cur.sess.Send(cmd)
}

// sessionEnded runs on the session goroutine when Run returns. An end the
// controller did not ask for (device unplugged, stream closed) forces a
// disconnect-and-reset so stale data is never displayed as live. The
// writer is this goroutine, already stopped, so the reset cannot race it.
func (c *Controller) sessionEnded(cur *activeSession, err error) {
	c.mu.Lock()
	if c.cur != cur || c.draining {
		// A Disconnect is tearing this session down and owns the reset.
		c.mu.Unlock()
		return
	}
	cur.cancel()
	c.cur = nil
	c.phase = Disconnected
	c.mu.Unlock()

	_ = cur.stream.Close()
	c.state.Reset()
	if err != nil {
		log.Printf("session: link ended: %v", err)
	} else {
		log.Printf("session: link ended")
	}
}
