// Package render drives the fixed-cadence consumer side: every tick it
// snapshots the telemetry state and derives a View for whatever
// presentation layer is attached. It knows nothing about drawing.
package render

import (
	"fmt"
	"time"

	"groundstation/internal/telemetry"
)

// Axis bounds policy for the trail display: min/max of the current trail
// plus a fixed margin, or a fixed default range when the trail is empty.
const (
	boundsMargin = 1.0
	defaultBound = 10.0
)

// View is everything the presentation layer needs for one refresh. It is
// always well formed, even before any connection.
type View struct {
	Connected  bool
	FlightTime string // H:M:S, "00:00:00" when no session is running

	// Unit X/Y/Z basis vectors rotated by the latest attitude.
	BasisX, BasisY, BasisZ telemetry.Vector3

	Trail    []telemetry.Vector3
	Min, Max telemetry.Vector3

	Engines  [telemetry.EngineCount]bool
	RawLines []string

	Frames uint64
	Lines  uint64
}

// BuildView derives a render view from one snapshot.
func BuildView(snap telemetry.Snapshot, now time.Time) View {
	v := View{
		Connected:  !snap.SessionStart.IsZero(),
		FlightTime: "00:00:00",
		Trail:      snap.Trail,
		Engines:    snap.Engines,
		RawLines:   snap.RawLines,
		Frames:     snap.Frames,
		Lines:      snap.Lines,
	}
	if v.Connected {
		v.FlightTime = formatElapsed(now.Sub(snap.SessionStart))
	}

	q := snap.Attitude
	v.BasisX = q.Rotate(telemetry.Vector3{X: 1})
	v.BasisY = q.Rotate(telemetry.Vector3{Y: 1})
	v.BasisZ = q.Rotate(telemetry.Vector3{Z: 1})

	v.Min, v.Max = trailBounds(snap.Trail)
	return v
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

func trailBounds(trail []telemetry.Vector3) (min, max telemetry.Vector3) {
	if len(trail) == 0 {
		min = telemetry.Vector3{X: -defaultBound, Y: -defaultBound, Z: -defaultBound}
		max = telemetry.Vector3{X: defaultBound, Y: defaultBound, Z: defaultBound}
		return min, max
	}

	min, max = trail[0], trail[0]
	for _, p := range trail[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.Z < min.Z {
			min.Z = p.Z
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
		if p.Z > max.Z {
			max.Z = p.Z
		}
	}
	min.X -= boundsMargin
	min.Y -= boundsMargin
	min.Z -= boundsMargin
	max.X += boundsMargin
	max.Y += boundsMargin
	max.Z += boundsMargin
	return min, max
}
