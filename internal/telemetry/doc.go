// Package telemetry decodes wire frames from the vehicle link and holds the
// shared, bounded telemetry state:
//   - latest attitude quaternion (latest-value slot, identity by default)
//   - position trail (FIFO ring, capacity 500 by default)
//   - derived engine flags
//   - raw line tail for the diagnostics display (FIFO ring, capacity 200)
//
// The link session is the sole writer while connected; consumers read via
// Snapshot, which is always internally consistent.
package telemetry
