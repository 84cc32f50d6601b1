// Package store provides the keyed blob persistence used by the verification
// engine, the draft board, and the delegation service. The ContentStore
// interface decouples those components from the SQLite implementation so tests
// and credential-less deployments can run against the no-op variant.
package store
