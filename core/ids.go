package core

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces unique identifiers for runs, tasks, messages and
// artifacts. The generator is injected wherever ids are minted so the core
// carries no process-wide mutable state and tests can substitute a
// deterministic source.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator is the production IDGenerator backed by random UUIDs.
type UUIDGenerator struct{}

// NewID returns a new UUID string.
func (UUIDGenerator) NewID() string { return uuid.NewString() }

// SequenceIDGenerator issues prefix-1, prefix-2, ... for deterministic tests.
// Safe for concurrent use.
type SequenceIDGenerator struct {
	prefix string
	n      atomic.Int64
}

// NewSequenceIDGenerator creates a deterministic generator with the given
// prefix.
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	return &SequenceIDGenerator{prefix: prefix}
}

// NewID returns the next identifier in the sequence.
func (g *SequenceIDGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}

// Clock supplies timestamps to components that record time. Production wiring
// passes time.Now; tests pass a fixed or stepped function.
type Clock func() time.Time

var (
	_ IDGenerator = UUIDGenerator{}
	_ IDGenerator = (*SequenceIDGenerator)(nil)
)
