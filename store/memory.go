package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store. It is safe for concurrent use and is
// the default backend for tests and the runnable example.
type MemoryStore struct {
	mu           sync.RWMutex
	customers    map[int]Customer
	tickets      map[int]Ticket
	nextTicketID int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers:    make(map[int]Customer),
		tickets:      make(map[int]Ticket),
		nextTicketID: 1,
	}
}

// NewSeededMemoryStore creates an in-memory store pre-populated with a small
// demo customer set.
func NewSeededMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	now := time.Now()
	seed := []Customer{
		{ID: 1, Name: "Alice Johnson", Email: "alice@email.com", Phone: "555-0101", Status: "active"},
		{ID: 2, Name: "Bob Smith", Email: "bob@email.com", Phone: "555-0102", Status: "active"},
		{ID: 3, Name: "Carol White", Email: "carol@email.com", Phone: "555-0103", Status: "disabled"},
		{ID: 4, Name: "David Lee", Email: "david@email.com", Phone: "555-0104", Status: "active"},
		{ID: 5, Name: "Eve Martinez", Email: "eve@email.com", Phone: "555-0105", Status: "active"},
	}
	for _, c := range seed {
		c.CreatedAt = now
		c.UpdatedAt = now
		s.customers[c.ID] = c
	}
	return s
}

// AddCustomer inserts or replaces a customer record.
func (s *MemoryStore) AddCustomer(c Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

// GetCustomer retrieves a customer by ID.
func (s *MemoryStore) GetCustomer(ctx context.Context, id int) (*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}
	out := c
	return &out, nil
}

// ListCustomers returns customers matching the filter, ordered by ID.
func (s *MemoryStore) ListCustomers(ctx context.Context, filter ListFilter) ([]Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Customer
	for _, c := range s.customers {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// UpdateCustomer applies the updatable subset of fields to a customer.
func (s *MemoryStore) UpdateCustomer(ctx context.Context, id int, fields map[string]string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, ErrNotFound)
	}

	valid := FilterUpdatableFields(fields)
	if len(valid) == 0 {
		return nil, ErrNoValidFields
	}

	updated := make([]string, 0, len(valid))
	for field, value := range valid {
		switch field {
		case "name":
			c.Name = value
		case "email":
			c.Email = value
		case "phone":
			c.Phone = value
		case "status":
			c.Status = value
		}
		updated = append(updated, field)
	}
	sort.Strings(updated)

	c.UpdatedAt = time.Now()
	s.customers[id] = c
	return updated, nil
}

// CreateTicket opens a ticket for an existing customer.
func (s *MemoryStore) CreateTicket(ctx context.Context, customerID int, issue, priority string) (*Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[customerID]; !ok {
		return nil, fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
	}

	t := Ticket{
		ID:         s.nextTicketID,
		CustomerID: customerID,
		Issue:      issue,
		Status:     "open",
		Priority:   NormalizePriority(priority),
		CreatedAt:  time.Now(),
	}
	s.nextTicketID++
	s.tickets[t.ID] = t

	out := t
	return &out, nil
}

// CustomerHistory returns a customer's tickets, newest first.
func (s *MemoryStore) CustomerHistory(ctx context.Context, customerID int) ([]Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.customers[customerID]; !ok {
		return nil, fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
	}

	var out []Ticket
	for _, t := range s.tickets {
		if t.CustomerID == customerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
