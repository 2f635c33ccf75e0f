package link

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"syscall"
	"time"

	"groundstation/internal/telemetry"
)

const maxLineBytes = 16 * 1024

// engineToggleWindow matches the sample engine rule: engine 0 toggles when
// whole-second flight time hits a multiple of five, at most once per
// window. Engines 1 and 2 are reserved for wire-sourced state.
const engineToggleWindow = 5 * time.Second

// Session runs the read loop for one open stream. It is the sole writer of
// the telemetry state while live. It never resets the state; that stays
// with the session controller.
type Session struct {
	stream io.ReadWriteCloser
	state  *telemetry.State

	start      time.Time
	lastToggle time.Time
}

// NewSession wraps an open stream. start is the session start timestamp
// recorded by the controller; the engine-flag rule is clocked from it.
func NewSession(stream io.ReadWriteCloser, state *telemetry.State, start time.Time) *Session {
	return &Session{stream: stream, state: state, start: start}
}

// Run reads newline-delimited lines until the context is canceled or the
// stream ends. A timed-out read with no data is a retry. Returns nil on
// cancellation, the stream error otherwise.
func (s *Session) Run(ctx context.Context) error {
	buf := make([]byte, 4096)
	var pending []byte

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := s.stream.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			for {
				i := bytes.IndexByte(pending, '\n')
				if i < 0 {
					break
				}
				s.handleLine(pending[:i])
				pending = pending[i+1:]
			}
			if len(pending) > maxLineBytes {
				// Overlong line with no newline yet: keep a truncated
				// head so it still shows up in the raw feed, drop the
				// rest rather than grow without bound.
				s.handleLine(pending[:maxLineBytes])
				pending = pending[:0]
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				// Stream closed; the controller decides what happens next.
				return err
			}
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return fmt.Errorf("link read: %w", err)
		}
	}
}

// Send writes one free-text command to the stream, newline terminated.
// Send errors do not affect ingestion.
func (s *Session) Send(cmd string) error {
	if _, err := io.WriteString(s.stream, cmd+"\n"); err != nil {
		return fmt.Errorf("link send: %w", err)
	}
	return nil
}

func (s *Session) handleLine(raw []byte) {
	line := telemetry.SanitizeLine(raw)
	s.state.RecordRawLine(line)

	frame, err := telemetry.DecodeLine(line)
	if err != nil {
		if errors.Is(err, telemetry.ErrMalformed) {
			log.Printf("link: dropped frame: %v", err)
		}
		return
	}

	s.state.ApplyFrame(frame)
	s.updateEngineFlags(time.Now())
}

func (s *Session) updateEngineFlags(now time.Time) {
	secs := int(now.Sub(s.start).Seconds())
	if secs == 0 || secs%5 != 0 {
		return
	}
	if now.Sub(s.lastToggle) <= engineToggleWindow {
		return
	}
	s.state.ToggleEngineFlag(0)
	s.lastToggle = now
}
