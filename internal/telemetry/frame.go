package telemetry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FramePrefix marks a telemetry line on the wire. Anything else is chatter
// kept only for the raw display.
const FramePrefix = "DATA:"

const frameFieldCount = 7

// ErrNotTelemetry reports a line without the DATA: prefix. Not a fault.
var ErrNotTelemetry = errors.New("not a telemetry line")

// ErrMalformed reports a DATA: line that does not carry exactly seven
// finite numeric fields. Routine on truncated or garbled reads.
var ErrMalformed = errors.New("malformed frame")

// Frame is one decoded telemetry unit: attitude plus position.
type Frame struct {
	Attitude Quaternion
	Position Vector3
}

// DecodeLine parses one wire line into a Frame.
//
// Wire field order is qw,qx,qy,qz,x,y,z. The quaternion is reordered here
// into the internal vector-first convention; no normalization is applied.
func DecodeLine(line string) (Frame, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, FramePrefix) {
		return Frame{}, ErrNotTelemetry
	}

	fields := strings.Split(line[len(FramePrefix):], ",")
	if len(fields) != frameFieldCount {
		return Frame{}, fmt.Errorf("%w: got %d fields, want %d", ErrMalformed, len(fields), frameFieldCount)
	}

	var vals [frameFieldCount]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Frame{}, fmt.Errorf("%w: field %d %q", ErrMalformed, i, f)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Frame{}, fmt.Errorf("%w: field %d not finite", ErrMalformed, i)
		}
		vals[i] = v
	}

	return Frame{
		Attitude: Quaternion{X: vals[1], Y: vals[2], Z: vals[3], W: vals[0]},
		Position: Vector3{X: vals[4], Y: vals[5], Z: vals[6]},
	}, nil
}

// SanitizeLine converts a raw wire line to displayable text: invalid UTF-8
// bytes are dropped, surrounding whitespace (including CR) is trimmed.
func SanitizeLine(raw []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(raw), ""))
}
