package bus

import "time"

// Interaction is one handled request in a worker's private history.
// Response is empty when the worker suppressed its reply.
type Interaction struct {
	Timestamp time.Time
	From      string
	Request   string
	Response  string
}

// Memory is a worker's private key/value store plus the history of
// interactions it has handled. Each worker owns exactly one Memory and is
// its only accessor while running, so no locking is needed; workers share
// nothing except the bus itself.
type Memory struct {
	values  map[string]any
	history []Interaction
}

// NewMemory creates an empty scratchpad.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]any)}
}

// Set stores a value under key, replacing any previous value.
func (m *Memory) Set(key string, value any) {
	m.values[key] = value
}

// Get returns the value under key and whether it was present.
func (m *Memory) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key. Deleting an absent key is a no-op.
func (m *Memory) Delete(key string) {
	delete(m.values, key)
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	return len(m.values)
}

// AddInteraction appends one handled request to the history.
func (m *Memory) AddInteraction(in Interaction) {
	m.history = append(m.history, in)
}

// History returns a copy of the handled interactions, oldest first.
func (m *Memory) History() []Interaction {
	return append([]Interaction(nil), m.history...)
}
