package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces catalog row ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator produces time-sortable UUIDv7 ids.
type UUIDv7Generator struct{}

// Generate returns a fresh UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator produces predictable ids for tests: prefix-1, prefix-2, ...
type FixedGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter int
}

// NewFixedGenerator creates a FixedGenerator with the given prefix.
func NewFixedGenerator(prefix string) *FixedGenerator {
	return &FixedGenerator{prefix: prefix}
}

// Generate returns the next id in sequence.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}
