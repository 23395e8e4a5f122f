package state

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Tokens hands out monotonically increasing request tokens per load kind.
// Only the most recently issued token of a kind is current.
type Tokens struct {
	latest [loadKinds]atomic.Uint64
}

func (t *Tokens) Next(kind LoadKind) uint64 {
	return t.latest[kind].Add(1)
}

func (t *Tokens) Current(kind LoadKind, token uint64) bool {
	return t.latest[kind].Load() == token
}

// NewSessionID names a stroke session in log output.
func NewSessionID() string {
	return uuid.NewString()
}
