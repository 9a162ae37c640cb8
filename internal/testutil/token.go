package testutil

import (
	"fmt"
	"sync"
)

// SequentialTokens generates "<prefix>-1", "<prefix>-2", ... action
// tokens. Unlike engine.FixedGenerator it never runs out, which suits
// scenarios whose action count is data-driven.
//
// Implements engine.TokenGenerator.
type SequentialTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialTokens creates a generator. An empty prefix becomes "action".
func NewSequentialTokens(prefix string) *SequentialTokens {
	if prefix == "" {
		prefix = "action"
	}
	return &SequentialTokens{prefix: prefix}
}

// Generate returns the next token.
func (g *SequentialTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
