package abort

// #region flag

import "sync/atomic"

// Flag is a process-wide cooperative stop flag. The hotkey/signal owner writes
// it; the agent loop and every Waiter poll read it. Zero value is "running".
type Flag struct {
	stopped atomic.Bool
}

// Request asks the running loop to stop at its next checkpoint.
func (f *Flag) Request() {
	f.stopped.Store(true)
}

// Clear resets the flag before a new run.
func (f *Flag) Clear() {
	f.stopped.Store(false)
}

// Requested reports whether a stop has been requested.
func (f *Flag) Requested() bool {
	return f.stopped.Load()
}

// #endregion flag

// #region global

// Shared is the singleton flag used when no explicit flag is injected.
var Shared Flag

// #endregion global
