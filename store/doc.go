// Package store provides the local persistence layer for the solstice core.
// It encapsulates all interactions with the session's own SQLite database,
// which holds data the account database collaborator does not: the activity
// log of resolution and signing events, and the token price cache.
//
// This package is responsible for:
//   - Establishing and managing the database connection (`store.go`).
//   - Implementing the repository interfaces defined in the `domain` package
//     (`ActivityRepository`, `PriceRepository`).
//   - Managing database migrations (`migrations/`).
//
// The sys account database is NOT handled here — it is owned by an external
// collaborator and consumed by the root package through the DatabaseOpener
// contract.
package store
