// Package mutations keeps the client's copy of the user's playlists and applies changes to it.
//
// # Strategies
//
// Each mutation kind has its own apply/confirm ordering:
//   - Create and Rename are pessimistic: the server is called first and its record replaces local state.
//   - Add is server confirmed: the local track list is left alone and success is reported with an [Ack].
//   - Remove and Delete are optimistic: the change is applied locally, the prior state is saved as a
//     [Pending] snapshot, and a failed call restores that snapshot exactly.
//
// # Concurrency
//
// Mutations are independent. Nothing is queued or deduplicated, and every pending mutation carries its own
// snapshot keyed by a uuid. When two optimistic mutations on the same playlist both fail, the rollback that
// runs last decides the final state.
//
// Once a [Collection] is disposed, late results are dropped and rollbacks report a [shared.RollbackFailure].
package mutations
