// Package logging centralizes slog construction and conventions for Tally.
//
// It provides a human-readable console handler, a JSON handler for log files,
// and a tee that lets the daemon emit both at once. Shared field names
// (component, request_id, feature_id) live here so every package labels its
// output the same way, and WithContext threads request-scoped identifiers
// from context into log records.
package logging
