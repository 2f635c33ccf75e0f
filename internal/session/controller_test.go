package session

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"groundstation/internal/telemetry"
)

// pipeStream is a duplex test stream: reads come from an io.Pipe fed by
// the test, writes are captured.
type pipeStream struct {
	r *io.PipeReader

	mu    sync.Mutex
	wrote []byte
}

func (p *pipeStream) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *pipeStream) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.wrote = append(p.wrote, b...)
	return len(b), nil
}

func (p *pipeStream) Close() error { return p.r.Close() }

func (p *pipeStream) written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.wrote)
}

func newTestController(t *testing.T) (*Controller, *pipeStream, *io.PipeWriter) {
	t.Helper()
	r, w := io.Pipe()
	stream := &pipeStream{r: r}
	ctrl := New(telemetry.NewState(10, 10), func(port string, baud int) (io.ReadWriteCloser, error) {
		return stream, nil
	})
	return ctrl, stream, w
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestController_ConnectStreamDisconnect(t *testing.T) {
	ctrl, _, w := newTestController(t)

	if err := ctrl.Connect("/dev/ttyUSB0", 57600); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if ctrl.Phase() != Connected {
		t.Fatalf("phase = %v, want connected", ctrl.Phase())
	}
	if ctrl.State().Snapshot().SessionStart.IsZero() {
		t.Fatalf("session start not set on connect")
	}

	if _, err := w.Write([]byte("DATA:0.7071,0,0,0.7071,1,2,3\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "frame applied", func() bool {
		return len(ctrl.State().Snapshot().Trail) == 1
	})

	ctrl.Disconnect()
	if ctrl.Phase() != Disconnected {
		t.Fatalf("phase = %v, want disconnected", ctrl.Phase())
	}

	snap := ctrl.State().Snapshot()
	if snap.Attitude != telemetry.Identity() {
		t.Fatalf("attitude = %+v, want identity after disconnect", snap.Attitude)
	}
	if len(snap.Trail) != 0 || len(snap.RawLines) != 0 {
		t.Fatalf("buffers not cleared: %d/%d", len(snap.Trail), len(snap.RawLines))
	}
	if snap.Engines != [telemetry.EngineCount]bool{} {
		t.Fatalf("engines = %v, want all false", snap.Engines)
	}
	if !snap.SessionStart.IsZero() {
		t.Fatalf("session start not cleared")
	}

	// Disconnect is idempotent.
	ctrl.Disconnect()
}

func TestController_ConnectWhileConnectedRejected(t *testing.T) {
	ctrl, _, w := newTestController(t)
	defer w.Close()

	if err := ctrl.Connect("/dev/ttyUSB0", 57600); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer ctrl.Disconnect()

	if err := ctrl.Connect("/dev/ttyUSB0", 57600); err == nil {
		t.Fatalf("second connect should be rejected")
	}
}

func TestController_OpenFailureStaysDisconnected(t *testing.T) {
	st := telemetry.NewState(10, 10)
	st.RecordRawLine("leftover")
	ctrl := New(st, func(port string, baud int) (io.ReadWriteCloser, error) {
		return nil, errors.New("no such device")
	})

	if err := ctrl.Connect("/dev/ttyUSB9", 57600); err == nil {
		t.Fatalf("expected open error")
	}
	if ctrl.Phase() != Disconnected {
		t.Fatalf("phase = %v, want disconnected", ctrl.Phase())
	}
	// A failed connect mutates nothing.
	if len(st.Snapshot().RawLines) != 1 {
		t.Fatalf("state was mutated by failed connect")
	}
}

func TestController_FatalStreamEndForcesDisconnect(t *testing.T) {
	ctrl, _, w := newTestController(t)

	if err := ctrl.Connect("/dev/ttyUSB0", 57600); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := w.Write([]byte("DATA:1,0,0,0,9,9,9\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "frame applied", func() bool {
		return len(ctrl.State().Snapshot().Trail) == 1
	})

	// Device goes away: the read loop sees EOF and the controller must
	// reset rather than leave stale data displayed as live.
	_ = w.Close()
	waitFor(t, "forced disconnect", func() bool {
		return ctrl.Phase() == Disconnected
	})
	waitFor(t, "state reset", func() bool {
		snap := ctrl.State().Snapshot()
		return len(snap.Trail) == 0 && snap.SessionStart.IsZero()
	})

	// A fresh connect still works after the forced disconnect.
	r2, w2 := io.Pipe()
	defer w2.Close()
	stream2 := &pipeStream{r: r2}
	ctrl.open = func(port string, baud int) (io.ReadWriteCloser, error) { return stream2, nil }
	if err := ctrl.Connect("/dev/ttyUSB0", 57600); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	ctrl.Disconnect()
}

// gatedStream blocks its first read until the gate opens, then returns one
// frame even though Close was already called, modeling bytes the kernel
// buffered before the device went away.
type gatedStream struct {
	gate      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	served bool
}

func newGatedStream() *gatedStream {
	return &gatedStream{gate: make(chan struct{}), closed: make(chan struct{})}
}

func (g *gatedStream) Read(b []byte) (int, error) {
	g.mu.Lock()
	if g.served {
		g.mu.Unlock()
		return 0, io.EOF
	}
	g.served = true
	g.mu.Unlock()
	<-g.gate
	return copy(b, "DATA:1,0,0,0,777,777,777\n"), nil
}

func (g *gatedStream) Write(b []byte) (int, error) { return len(b), nil }

func (g *gatedStream) Close() error {
	g.closeOnce.Do(func() { close(g.closed) })
	return nil
}

func TestController_ConnectDuringDisconnectRejected(t *testing.T) {
	old := newGatedStream()
	r2, w2 := io.Pipe()
	defer w2.Close()
	fresh := &pipeStream{r: r2}

	opens := 0
	ctrl := New(telemetry.NewState(10, 10), func(port string, baud int) (io.ReadWriteCloser, error) {
		opens++
		if opens == 1 {
			return old, nil
		}
		return fresh, nil
	})

	if err := ctrl.Connect("/dev/ttyUSB0", 57600); err != nil {
		t.Fatalf("connect: %v", err)
	}

	disconnected := make(chan struct{})
	go func() {
		ctrl.Disconnect()
		close(disconnected)
	}()
	// Teardown has started but the old read loop is still live, parked in
	// its blocked read.
	<-old.closed

	if err := ctrl.Connect("/dev/ttyUSB0", 57600); err == nil {
		t.Fatalf("connect accepted while the old session was still draining")
	}

	// The stream finally delivers its buffered frame and the loop exits.
	close(old.gate)

	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatalf("Disconnect did not return")
	}
	if ctrl.Phase() != Disconnected {
		t.Fatalf("phase = %v, want disconnected", ctrl.Phase())
	}

	if err := ctrl.Connect("/dev/ttyUSB0", 57600); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	defer ctrl.Disconnect()

	// The pre-teardown frame must never show up in the new session.
	snap := ctrl.State().Snapshot()
	if len(snap.Trail) != 0 {
		t.Fatalf("stale frame leaked into the new session: %+v", snap.Trail)
	}
}

func TestController_Send(t *testing.T) {
	ctrl, stream, w := newTestController(t)
	defer w.Close()

	if err := ctrl.Send("ARM"); err == nil {
		t.Fatalf("send while disconnected should fail")
	}

	if err := ctrl.Connect("/dev/ttyUSB0", 57600); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := ctrl.Send("ARM"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := stream.written(); got != "ARM\n" {
		t.Fatalf("wrote %q, want %q", got, "ARM\n")
	}
	ctrl.Disconnect()
}
