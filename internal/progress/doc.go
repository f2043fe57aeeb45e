// Package progress detects newly passing features and publishes webhook
// events for them exactly once.
//
// The Tracker compares current stats against a small JSON cache file holding
// the last seen passing count and id set. When the count grows it publishes
// one event naming only the features that were not passing before, then
// persists the new state regardless of delivery outcome, so a flaky sink can
// never cause duplicate announcements. A missing cache is seeded silently on
// the first check; a corrupt cache is treated as empty rather than fatal.
package progress
