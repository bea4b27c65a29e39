package types

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// Map is a mapping from String keys to Value, backed by a SwissTable hash
// map. Like Vec, it is always handled through a *Map handle so SetMapVal
// mutations are visible through every alias.
type Map struct {
	m *swiss.Map[string, Value]
}

var _ Value = (*Map)(nil)

// NewMap returns a map with initial capacity for at least size entries.
func NewMap(size int) *Map {
	return &Map{m: swiss.NewMap[string, Value](uint32(size))}
}

func (m *Map) String() string { return fmt.Sprintf("map@%p", m) }
func (m *Map) Type() string   { return "map" }

// Get returns the value stored under key and true, or (nil, false) if the
// key is absent.
func (m *Map) Get(key string) (Value, bool) {
	return m.m.Get(key)
}

// Set inserts or overwrites the value stored under key.
func (m *Map) Set(key string, val Value) {
	m.m.Put(key, val)
}

// Len returns the number of entries currently stored.
func (m *Map) Len() int {
	return m.m.Count()
}
