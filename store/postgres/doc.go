// Package postgres provides a PostgreSQL-backed record store using jackc/pgx.
package postgres
