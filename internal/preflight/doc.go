// Package preflight provides readiness checks for the filesystem paths,
// listener address, and webhook endpoint that Tally depends on.
//
// These checks run in two contexts:
//   - The daemon verifies the project directory before opening the store,
//     so a bad path fails fast instead of surfacing as an opaque SQLite error.
//   - The CLI "tally doctor" command runs RunAll and renders each result,
//     adding the daemon reachability probe from CheckAPIFromConfig.
//
// Checks never mutate state: the database check opens read-only diagnostics
// and the webhook check validates the URL without sending a request.
package preflight
