package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dtroode/agentconsole/internal/model"
)

var _ model.SessionSink = (*Holder)(nil)

// Holder keeps the current token pair in memory and mirrors every update to a
// durable sink. It is the SessionSink handed to the refresh coordinator.
type Holder struct {
	mu      sync.RWMutex
	pair    model.TokenPair
	durable model.SessionSink
}

// NewHolder creates a Holder seeded with pair. durable may be nil.
func NewHolder(pair model.TokenPair, durable model.SessionSink) *Holder {
	return &Holder{pair: pair, durable: durable}
}

// Pair returns the current pair.
func (h *Holder) Pair() model.TokenPair {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pair
}

// UpdateTokens stores pair durably first, then in memory. A durable failure
// leaves the in-memory pair unchanged.
func (h *Holder) UpdateTokens(ctx context.Context, pair model.TokenPair) error {
	if err := pair.Validate(); err != nil {
		return err
	}
	if h.durable != nil {
		if err := h.durable.UpdateTokens(ctx, pair); err != nil {
			return fmt.Errorf("failed to persist tokens: %w", err)
		}
	}

	h.mu.Lock()
	h.pair = pair
	h.mu.Unlock()
	return nil
}
