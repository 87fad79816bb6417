package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackmesh/concierge/store"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()

	s, err := NewSqliteStore(SqliteOptions{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.SeedDemoData(context.Background()))
	return s
}

func TestSqliteStore_GetCustomer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.GetCustomer(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Eve Martinez", c.Name)
	assert.Equal(t, "eve@email.com", c.Email)

	_, err = s.GetCustomer(ctx, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSqliteStore_ListCustomers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	all, err := s.ListCustomers(ctx, store.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	active, err := s.ListCustomers(ctx, store.ListFilter{Status: "active", Limit: 2})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Alice Johnson", active[0].Name)
}

func TestSqliteStore_UpdateCustomer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	updated, err := s.UpdateCustomer(ctx, 5, map[string]string{
		"email": "eve.new@email.com",
		"hobby": "dropped",
		"phone": "555-9999",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "phone"}, updated)

	c, err := s.GetCustomer(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "eve.new@email.com", c.Email)
	assert.Equal(t, "555-9999", c.Phone)

	_, err = s.UpdateCustomer(ctx, 5, map[string]string{"hobby": "x"})
	assert.ErrorIs(t, err, store.ErrNoValidFields)
}

func TestSqliteStore_TicketsAndHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ticket, err := s.CreateTicket(ctx, 1, "Cannot login", store.PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, "open", ticket.Status)
	assert.Equal(t, store.PriorityHigh, ticket.Priority)

	_, err = s.CreateTicket(ctx, 1, "Account not working", "bogus")
	require.NoError(t, err)

	_, err = s.CreateTicket(ctx, 999, "x", store.PriorityLow)
	assert.ErrorIs(t, err, store.ErrNotFound)

	history, err := s.CustomerHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Account not working", history[0].Issue)
	assert.Equal(t, store.PriorityMedium, history[0].Priority)
}
