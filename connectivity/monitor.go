// Package connectivity abstracts the host's network reachability so the
// content loader can degrade to cache-only reads while offline. The library
// never probes the network itself; an application wires in whatever signal it
// has (a platform connectivity callback, a health checker, a manual toggle).
package connectivity

import "sync/atomic"

// Monitor reports whether an active network connection is believed to exist.
// A nil Monitor is treated as "assume active" everywhere in the library.
type Monitor interface {
	IsNetworkActive() bool
}

// Flag is a Monitor backed by an atomic boolean, flipped by the application
// as connectivity events arrive. A zero Flag reports inactive; use NewFlag
// for the customary assume-active initial state.
type Flag struct {
	active atomic.Bool
}

// NewFlag returns a Flag that starts in the active state, so requests made
// before the first connectivity event behave normally.
func NewFlag() *Flag {
	f := &Flag{}
	f.active.Store(true)
	return f
}

// IsNetworkActive implements Monitor.
func (f *Flag) IsNetworkActive() bool {
	return f.active.Load()
}

// SetActive records that a connection became available.
func (f *Flag) SetActive() {
	f.active.CompareAndSwap(false, true)
}

// SetInactive records that the connection was lost.
func (f *Flag) SetInactive() {
	f.active.CompareAndSwap(true, false)
}
