// Package feature persists the feature backlog in SQLite and exposes the
// operations the API serves: ordered listing, next-pending selection,
// pass/fail updates, and progress stats.
//
// The Store owns schema initialization and migrations. Identifiers come from
// an AUTOINCREMENT primary key so they are never reused after deletes, and
// priorities are assigned at insert time so (priority, id) forms a stable
// total order over the backlog.
//
// Treat this package as the single source of truth for feature semantics;
// schema changes bump the version in schema.go and ship a migration under
// migrations/.
package feature
