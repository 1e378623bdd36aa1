// Package repositories implements SQLite persistence for markx's local state.
//
// Key Implementations:
//   - [AnalysisRepository] : history of website analysis runs with soft deletes
//   - [CredentialRepository] : the persistent tier of the credential store, one token per profile
//
// Sequence numbers provide stable, human-readable ordering (e.g., analysis #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
