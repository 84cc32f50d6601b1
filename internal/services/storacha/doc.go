// Package storacha is the HTTP client for the decentralized storage bridge
// backing the digital archive: email/space session establishment, multipart
// uploads returning content identifiers, paginated upload listings, and pin
// status checks. An unconfigured client fails every call with
// ErrNotConfigured so the archive can degrade to local-only operation.
package storacha
