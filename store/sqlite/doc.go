// Package sqlite provides a SQLite-backed record store using mattn/go-sqlite3.
package sqlite
