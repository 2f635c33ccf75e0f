// Package mirror sends periodic JSON snapshots of the telemetry state to a
// UDP destination, so a second display can consume state without touching
// the serial link. Datagrams are fire-and-forget; there is no delivery
// guarantee, mirroring the link itself.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"time"

	"groundstation/internal/telemetry"
)

type Broadcaster struct {
	dest     string
	interval time.Duration
	conn     *net.UDPConn
	state    *telemetry.State
}

func NewBroadcaster(dest string, interval time.Duration, state *telemetry.State) (*Broadcaster, error) {
	if interval <= 0 {
		interval = time.Second
	}

	addr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	// DialUDP selects a suitable local address automatically.
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}

	return &Broadcaster{
		dest:     dest,
		interval: interval,
		conn:     conn,
		state:    state,
	}, nil
}

// Run sends one snapshot per interval until the context is canceled. Send
// failures are logged and retried on the next tick; they never stop the
// mirror.
func (b *Broadcaster) Run(ctx context.Context) {
	tick := time.NewTicker(b.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := b.SendSnapshot(); err != nil {
				log.Printf("mirror: %v", err)
			}
		}
	}
}

// SendSnapshot encodes the current state and sends one datagram.
func (b *Broadcaster) SendSnapshot() error {
	payload, err := json.Marshal(b.state.Snapshot())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := b.conn.Write(payload); err != nil {
		return fmt.Errorf("send snapshot: %w", err)
	}
	return nil
}

func (b *Broadcaster) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
