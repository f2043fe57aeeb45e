// Package daemon supervises the feature service: it owns the store, the
// HTTP listener, and the optional progress loop, moving through an explicit
// Stopped -> Starting -> Running -> Stopping lifecycle. Start blocks until
// the listener verifiably accepts connections or a bounded readiness window
// elapses; Stop drains within a bounded window and is safe to call at any
// time. A file lock keeps a project directory to a single daemon instance.
package daemon
