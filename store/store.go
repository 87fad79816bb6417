package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a customer or ticket does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNoValidFields is returned by UpdateCustomer when none of the
	// requested fields are updatable.
	ErrNoValidFields = errors.New("no valid fields to update")
)

// Valid ticket priorities. CreateTicket falls back to PriorityMedium for
// anything else.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Customer is a customer record.
type Customer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ticket is a support ticket attached to a customer.
type Ticket struct {
	ID         int       `json:"id"`
	CustomerID int       `json:"customer_id"`
	Issue      string    `json:"issue"`
	Status     string    `json:"status"`
	Priority   string    `json:"priority"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListFilter narrows ListCustomers results. A zero Limit means no limit
// beyond the backend default.
type ListFilter struct {
	Status string
	Limit  int
}

// Store is the record-store collaborator behind the data and support
// adapters. Implementations report failures as ordinary errors; callers
// distinguish missing records with errors.Is(err, ErrNotFound).
type Store interface {
	// GetCustomer retrieves a customer by ID.
	GetCustomer(ctx context.Context, id int) (*Customer, error)

	// ListCustomers returns customers matching the filter.
	ListCustomers(ctx context.Context, filter ListFilter) ([]Customer, error)

	// UpdateCustomer applies the given fields to a customer and returns
	// the names of the fields actually updated. Only name, email, phone
	// and status are updatable.
	UpdateCustomer(ctx context.Context, id int, fields map[string]string) ([]string, error)

	// CreateTicket opens a support ticket for a customer.
	CreateTicket(ctx context.Context, customerID int, issue, priority string) (*Ticket, error)

	// CustomerHistory returns a customer's tickets, newest first.
	CustomerHistory(ctx context.Context, customerID int) ([]Ticket, error)
}

// updatableFields is the closed set of customer fields UpdateCustomer
// accepts.
var updatableFields = map[string]bool{
	"name":   true,
	"email":  true,
	"phone":  true,
	"status": true,
}

// FilterUpdatableFields drops unknown field names from an update request.
// Shared by all Store implementations.
func FilterUpdatableFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if updatableFields[k] {
			out[k] = v
		}
	}
	return out
}

// NormalizePriority maps unknown priorities to PriorityMedium.
func NormalizePriority(priority string) string {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return priority
	default:
		return PriorityMedium
	}
}
