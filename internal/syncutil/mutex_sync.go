//go:build !deadlock

// Package syncutil provides the mutex used by sessions, transports and the
// wire simulator. Build with -tags=deadlock to swap in
// github.com/sasha-s/go-deadlock.
package syncutil

import "sync"

// Mutex wraps sync.Mutex.
//
//nolint:gocritic // embedding exposes Lock and Unlock
type Mutex struct {
	sync.Mutex
}
