// Package config loads, normalizes, and validates Tally configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// TALLY_WEBHOOK_URL. The Config type centralizes every knob the daemon and CLI
// need, and derives the per-project file locations (database, seed file,
// progress cache, pid/lock files) from the one configured project directory.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
