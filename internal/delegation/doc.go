// Package delegation manages the site's storage agent identity and
// UCAN-style capability grants. The agent holds a persistent ed25519 key
// exposed as a did:key identifier; grants are EdDSA-signed JWTs naming an
// audience DID, an ability set, and a bounded lifetime, with durable
// revocation by grant id.
package delegation
