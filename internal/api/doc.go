// Package api defines the feature service and its wire-format types. It
// validates inputs, translates store models into transport-friendly DTOs, and
// tags failures with a kind so transports can map them to status codes
// without coupling to internal types.
//
// # Key Types
//
// Service: validation and orchestration over a FeatureStore. Every operation
// the HTTP surface exposes goes through here.
//
// Feature/FeatureList/Stats/Health: JSON payloads served to clients.
//
// ValidationError/NotFoundError: classified errors implementing
// ErrorClassifier; see KindOf.
//
// # Design Notes
//
// Validation runs before any store mutation, so a rejected request never
// leaves partial state behind. Bulk creation validates the whole batch first
// and then commits through a single store transaction.
package api
