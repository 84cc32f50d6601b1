// Package archive manages the band's uploaded media records: a locally
// persisted asset list with best-effort synchronization to the decentralized
// storage bridge. The archive never blocks on backend availability — when the
// bridge is down uploads produce locally fabricated mock records, and every
// result is tagged so callers and tests can tell genuine storage from the
// degraded fallback. A background syncer keeps pin-status verdicts current.
package archive
