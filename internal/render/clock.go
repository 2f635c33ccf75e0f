package render

import (
	"context"
	"time"

	"groundstation/internal/telemetry"
)

// DefaultPeriod is the nominal render cadence.
const DefaultPeriod = 50 * time.Millisecond

// Renderer consumes views. Implementations must be safe to call from the
// clock goroutine and should hand off quickly.
type Renderer interface {
	Render(View)
}

// Clock renders at a fixed period, independent of data arrival and of
// connection state: it keeps rendering defaults while disconnected.
type Clock struct {
	period time.Duration
	state  *telemetry.State
	out    Renderer
}

func NewClock(state *telemetry.State, out Renderer, period time.Duration) *Clock {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Clock{period: period, state: state, out: out}
}

// Run ticks until the context is canceled.
func (c *Clock) Run(ctx context.Context) {
	tick := time.NewTicker(c.period)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			c.out.Render(BuildView(c.state.Snapshot(), time.Now()))
		}
	}
}
