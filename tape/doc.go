// Package tape owns cassette files at runtime: a registry mapping each file
// path to either an immutable replay Session or an append-only record
// Writer, with safe concurrent access when several middleware instances
// share one file.
//
// A path is loaded at most once per registry; all mutation is scoped behind
// per-path synchronization so unrelated cassettes never contend.
package tape
