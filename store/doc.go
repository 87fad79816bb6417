// Package store defines the record-store collaborator used by the handler
// adapters: customer CRUD plus support-ticket creation and history.
//
// The Store interface has three implementations: MemoryStore in this
// package, and SQLite/Postgres backends in the sqlite and postgres
// subpackages. All of them report missing records with ErrNotFound so
// adapters can degrade gracefully instead of failing the run.
package store
