package telemetry

import (
	"sync"
	"time"
)

// Default ring capacities. At the nominal 50 ms render cadence the trail
// covers roughly 25 seconds of history.
const (
	DefaultTrailCapacity = 500
	DefaultRawCapacity   = 200
)

// EngineCount is fixed by the vehicle's three-engine layout.
const EngineCount = 3

// State is the shared telemetry container for one connect/disconnect
// cycle. All access goes through the mutex, so a Snapshot can never
// observe a half-applied frame, and a snapshot copy is the only time a
// reader holds the writer up.
type State struct {
	mu sync.Mutex

	trailCap int
	rawCap   int

	attitude     Quaternion
	trail        []Vector3
	engines      [EngineCount]bool
	rawLines     []string
	sessionStart time.Time
	frames       uint64
	lines        uint64
}

// Snapshot is an internally consistent copy of the whole state at one
// instant. Slices are owned by the snapshot and safe to retain.
// SessionStart stays out of the JSON payload (omitempty never fires for a
// time.Time); SessionStartUTC carries it as RFC3339 and is omitted while
// no session is running.
type Snapshot struct {
	Attitude        Quaternion        `json:"attitude"`
	Trail           []Vector3         `json:"trail"`
	Engines         [EngineCount]bool `json:"engines"`
	RawLines        []string          `json:"raw_lines"`
	SessionStart    time.Time         `json:"-"`
	SessionStartUTC string            `json:"session_start_utc,omitempty"`
	Frames          uint64            `json:"frames"`
	Lines           uint64            `json:"lines"`
}

func NewState(trailCap, rawCap int) *State {
	if trailCap <= 0 {
		trailCap = DefaultTrailCapacity
	}
	if rawCap <= 0 {
		rawCap = DefaultRawCapacity
	}
	return &State{
		trailCap: trailCap,
		rawCap:   rawCap,
		attitude: Identity(),
		trail:    make([]Vector3, 0, trailCap),
		rawLines: make([]string, 0, rawCap),
	}
}

// ApplyFrame overwrites the latest attitude and appends the position to
// the trail, evicting the oldest point at capacity.
func (s *State) ApplyFrame(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attitude = f.Attitude
	if len(s.trail) < s.trailCap {
		s.trail = append(s.trail, f.Position)
	} else {
		copy(s.trail, s.trail[1:])
		s.trail[len(s.trail)-1] = f.Position
	}
	s.frames++
}

// RecordRawLine appends one read line, decodable or not, for the
// diagnostics display.
func (s *State) RecordRawLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rawLines) < s.rawCap {
		s.rawLines = append(s.rawLines, line)
	} else {
		copy(s.rawLines, s.rawLines[1:])
		s.rawLines[len(s.rawLines)-1] = line
	}
	s.lines++
}

// SetEngineFlag sets engine i. Out-of-range indices are ignored.
func (s *State) SetEngineFlag(i int, on bool) {
	if i < 0 || i >= EngineCount {
		return
	}
	s.mu.Lock()
	s.engines[i] = on
	s.mu.Unlock()
}

// ToggleEngineFlag flips engine i and returns the new value.
func (s *State) ToggleEngineFlag(i int) bool {
	if i < 0 || i >= EngineCount {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engines[i] = !s.engines[i]
	return s.engines[i]
}

// StartSession records the connect time used to derive flight-elapsed
// time.
func (s *State) StartSession(at time.Time) {
	s.mu.Lock()
	s.sessionStart = at
	s.mu.Unlock()
}

// Reset restores defaults: identity attitude, empty trail and raw tail,
// all engines off, no session start. Called by the session controller on
// connect and disconnect.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attitude = Identity()
	s.trail = s.trail[:0]
	s.rawLines = s.rawLines[:0]
	s.engines = [EngineCount]bool{}
	s.sessionStart = time.Time{}
	s.frames = 0
	s.lines = 0
}

// Snapshot copies all fields out under the lock.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Snapshot{
		Attitude:     s.attitude,
		Trail:        make([]Vector3, len(s.trail)),
		Engines:      s.engines,
		RawLines:     make([]string, len(s.rawLines)),
		SessionStart: s.sessionStart,
		Frames:       s.frames,
		Lines:        s.lines,
	}
	copy(out.Trail, s.trail)
	copy(out.RawLines, s.rawLines)
	if !s.sessionStart.IsZero() {
		out.SessionStartUTC = s.sessionStart.UTC().Format(time.RFC3339Nano)
	}
	return out
}
