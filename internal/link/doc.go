// Package link owns one open serial connection to the vehicle and runs the
// blocking read loop that feeds decoded frames into the telemetry state.
//
// A Session is bound to a single connect/disconnect cycle. The serial port
// is opened in raw mode with a short read timeout so the loop can observe a
// stop request between reads; an exhausted timeout is a retry, never an
// error.
package link
