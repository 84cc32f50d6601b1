// Package server hosts the daemon: it wires the archive, verification
// engine, draft board, delegation service, and page stage machine together,
// serves the JSON API the site consumes, runs the background archive syncer,
// and enforces single-instance execution with a file lock. Every response
// carries the `{success, message?, ...}` envelope; backend failures degrade
// to tagged local fallbacks rather than opaque errors.
package server
