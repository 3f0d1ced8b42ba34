// Package events publishes mint pipeline lifecycle events for downstream
// consumers (audit trail, indexing).
package events

import (
	"context"

	"github.com/quoteforge/quote-mint/internal/model"
)

// Publisher emits mint stage events. Publishing is best-effort: the
// pipeline never fails because an event could not be delivered.
type Publisher interface {
	MintStage(ctx context.Context, ev model.MintEvent) error
	Connected() bool
	Close()
}

// Noop is used when no event broker is configured.
type Noop struct{}

func (Noop) MintStage(context.Context, model.MintEvent) error { return nil }
func (Noop) Connected() bool                                  { return true }
func (Noop) Close()                                           {}
