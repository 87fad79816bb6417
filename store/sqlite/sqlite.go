package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stackmesh/concierge/store"
)

// SqliteStore implements store.Store on a SQLite database.
type SqliteStore struct {
	db *sql.DB
}

var _ store.Store = (*SqliteStore)(nil)

// SqliteOptions configuration for the SQLite connection.
type SqliteOptions struct {
	// Path to the database file; ":memory:" works for tests.
	Path string
}

// NewSqliteStore opens the database and creates the schema if needed.
func NewSqliteStore(opts SqliteOptions) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	s := &SqliteStore{db: db}
	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the customers and tickets tables if they don't exist.
func (s *SqliteStore) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS tickets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_id INTEGER NOT NULL REFERENCES customers(id),
			issue TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			priority TEXT NOT NULL DEFAULT 'medium',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_tickets_customer_id ON tickets (customer_id);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// SeedDemoData inserts the demo customer set used by tests and examples.
func (s *SqliteStore) SeedDemoData(ctx context.Context) error {
	customers := []struct {
		id                        int
		name, email, phone, state string
	}{
		{1, "Alice Johnson", "alice@email.com", "555-0101", "active"},
		{2, "Bob Smith", "bob@email.com", "555-0102", "active"},
		{3, "Carol White", "carol@email.com", "555-0103", "disabled"},
		{4, "David Lee", "david@email.com", "555-0104", "active"},
		{5, "Eve Martinez", "eve@email.com", "555-0105", "active"},
	}
	for _, c := range customers {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO customers (id, name, email, phone, status)
			VALUES (?, ?, ?, ?, ?)`,
			c.id, c.name, c.email, c.phone, c.state)
		if err != nil {
			return fmt.Errorf("failed to seed customers: %w", err)
		}
	}
	return nil
}

// GetCustomer retrieves a customer by ID.
func (s *SqliteStore) GetCustomer(ctx context.Context, id int) (*store.Customer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, status, created_at, updated_at
		FROM customers WHERE id = ?`, id)

	var c store.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}
	return &c, nil
}

// ListCustomers returns customers matching the filter, ordered by ID.
func (s *SqliteStore) ListCustomers(ctx context.Context, filter store.ListFilter) ([]store.Customer, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var rows *sql.Rows
	var err error
	if filter.Status != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, name, email, phone, status, created_at, updated_at
			FROM customers WHERE status = ? ORDER BY id LIMIT ?`,
			filter.Status, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, name, email, phone, status, created_at, updated_at
			FROM customers ORDER BY id LIMIT ?`, limit)
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
func (s *SqliteStore) UpdateCustomer(ctx context.Context, id int, fields map[string]string) ([]string, error) {
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
	for _, name := range names {
		setClauses = append(setClauses, name+" = ?")
		args = append(args, valid[name])
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE customers SET %s, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		strings.Join(setClauses, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return names, nil
}

// CreateTicket opens a ticket for an existing customer.
func (s *SqliteStore) CreateTicket(ctx context.Context, customerID int, issue, priority string) (*store.Ticket, error) {
	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	priority = store.NormalizePriority(priority)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (customer_id, issue, status, priority)
		VALUES (?, ?, 'open', ?)`,
		customerID, issue, priority)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	ticketID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read ticket id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, issue, status, priority, created_at
		FROM tickets WHERE id = ?`, ticketID)

	var t store.Ticket
	if err := row.Scan(&t.ID, &t.CustomerID, &t.Issue, &t.Status, &t.Priority, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to read created ticket: %w", err)
	}
	return &t, nil
}

// CustomerHistory returns a customer's tickets, newest first.
func (s *SqliteStore) CustomerHistory(ctx context.Context, customerID int) ([]store.Ticket, error) {
	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, issue, status, priority, created_at
		FROM tickets WHERE customer_id = ?
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
