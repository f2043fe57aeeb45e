// Package apiclient ships the HTTP client used by CLI commands and progress
// tracking to reach a running daemon.
//
// The client speaks the daemon's JSON API, translates error envelopes back
// into classified api errors, and exposes IsUnavailable so callers can tell a
// stopped daemon apart from a failing request.
package apiclient
