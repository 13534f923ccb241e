// Package sqlite provides the SQLite-backed tracker store.
//
// Actors and log lines are scoped by session id. Bulk writes and session
// clears run inside a single transaction.
package sqlite
