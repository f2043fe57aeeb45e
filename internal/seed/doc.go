// Package seed performs the one-time import of a legacy feature_list.json
// into the feature store. The import only runs against an empty store and
// consumes the source file by renaming it, so invoking it on every daemon
// start is safe.
package seed
