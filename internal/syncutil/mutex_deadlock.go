//go:build deadlock

// Package syncutil provides the mutex used by sessions, transports and the
// wire simulator. This file is compiled when building with -tags=deadlock.
package syncutil

import deadlock "github.com/sasha-s/go-deadlock"

// Mutex wraps deadlock.Mutex so lock-order bugs between a session and its
// transport are reported instead of hanging.
type Mutex struct {
	deadlock.Mutex
}
