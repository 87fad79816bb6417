package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stackmesh/concierge/store"
)

// DBPool defines the interface for the database connection pool.
// pgxpool.Pool satisfies it, as do pgxmock pools in tests.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements store.Store on PostgreSQL.
type PostgresStore struct {
	pool DBPool
}

var _ store.Store = (*PostgresStore)(nil)

// PostgresOptions configuration for the Postgres connection.
type PostgresOptions struct {
	ConnString string
}

// NewPostgresStore creates a Postgres record store with its own pool.
func NewPostgresStore(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreWithPool creates a Postgres record store with an existing
// pool. Useful for testing with mocks.
func NewPostgresStoreWithPool(pool DBPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// InitSchema creates the customers and tickets tables if they don't exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS tickets (
			id SERIAL PRIMARY KEY,
			customer_id INTEGER NOT NULL REFERENCES customers(id),
			issue TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			priority TEXT NOT NULL DEFAULT 'medium',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// GetCustomer retrieves a customer by ID.
func (s *PostgresStore) GetCustomer(ctx context.Context, id int) (*store.Customer, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, status, created_at, updated_at
		FROM customers WHERE id = $1`, id)

	var c store.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}
	return &c, nil
}

// ListCustomers returns customers matching the filter, ordered by ID.
func (s *PostgresStore) ListCustomers(ctx context.Context, filter store.ListFilter) ([]store.Customer, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var rows pgx.Rows
	var err error
	if filter.Status != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT id, name, email, phone, status, created_at, updated_at
			FROM customers WHERE status = $1 ORDER BY id LIMIT $2`,
			filter.Status, limit)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT id, name, email, phone, status, created_at, updated_at
			FROM customers ORDER BY id LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var out []store.Customer
	for rows.Next() {
		var c store.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCustomer applies the updatable subset of fields to a customer.
func (s *PostgresStore) UpdateCustomer(ctx context.Context, id int, fields map[string]string) ([]string, error) {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return nil, err
	}

	valid := store.FilterUpdatableFields(fields)
	if len(valid) == 0 {
		return nil, store.ErrNoValidFields
	}

	names := make([]string, 0, len(valid))
	for name := range valid {
		names = append(names, name)
	}
	sort.Strings(names)

	setClauses := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", name, i+1))
		args = append(args, valid[name])
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE customers SET %s, updated_at = NOW() WHERE id = $%d",
		strings.Join(setClauses, ", "), len(args))
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return names, nil
}

// CreateTicket opens a ticket for an existing customer.
func (s *PostgresStore) CreateTicket(ctx context.Context, customerID int, issue, priority string) (*store.Ticket, error) {
	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	priority = store.NormalizePriority(priority)
	row := s.pool.QueryRow(ctx, `
		INSERT INTO tickets (customer_id, issue, status, priority)
		VALUES ($1, $2, 'open', $3)
		RETURNING id, customer_id, issue, status, priority, created_at`,
		customerID, issue, priority)

	var t store.Ticket
	if err := row.Scan(&t.ID, &t.CustomerID, &t.Issue, &t.Status, &t.Priority, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return &t, nil
}

// CustomerHistory returns a customer's tickets, newest first.
func (s *PostgresStore) CustomerHistory(ctx context.Context, customerID int) ([]store.Ticket, error) {
	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, issue, status, priority, created_at
		FROM tickets WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []store.Ticket
	for rows.Next() {
		var t store.Ticket
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Issue, &t.Status, &t.Priority, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
