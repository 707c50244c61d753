// Package repositories implements SQLite persistence for the client.
//
// Key Implementations:
//   - [CredentialRepository] : the session's credential pair, written and cleared in one transaction
//   - [TrackRepository] : local copy of the track catalog for offline listing and filtering
//
// The server stays the source of truth. Nothing here is consulted for playlist state.
package repositories
