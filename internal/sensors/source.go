// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// ErrAuthorizationDenied is reported when the platform refuses access to a
// measurement kind. A denied kind never produces readings.
var ErrAuthorizationDenied = errors.New("authorization denied")

// Handler receives a possibly empty batch of new readings for one kind.
type Handler func(batch []vitals.Reading)

// Source is a sensor platform delivering readings asynchronously.
// Mock, MQTT, serial and I2C sources all implement it.
type Source interface {
	// Authorize requests read access to kinds. The returned error joins one
	// ErrAuthorizationDenied per refused kind; it is informational only.
	Authorize(ctx context.Context, kinds []vitals.Kind) error
	// Subscribe registers h for kind. Subscribing to a denied kind succeeds
	// but h is never called.
	Subscribe(ctx context.Context, kind vitals.Kind, h Handler) error
	Close() error
}

// grants tracks which kinds the platform allowed and which handler each
// kind delivers to.
type grants struct {
	mu       sync.RWMutex
	allowed  map[vitals.Kind]bool
	handlers map[vitals.Kind]Handler
}

func newGrants() *grants {
	return &grants{
		allowed:  make(map[vitals.Kind]bool),
		handlers: make(map[vitals.Kind]Handler),
	}
}

func (g *grants) set(kind vitals.Kind, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.allowed[kind] = ok
}

// register stores h for kind and reports whether kind may deliver now. A
// kind granted later, e.g. after an MQTT reconnect, starts delivering to h.
func (g *grants) register(kind vitals.Kind, h Handler) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[kind] = h
	return g.allowed[kind]
}

func (g *grants) handler(kind vitals.Kind) Handler {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.allowed[kind] {
		return nil
	}
	return g.handlers[kind]
}

func denied(kind vitals.Kind) error {
	return fmt.Errorf("%s: %w", kind, ErrAuthorizationDenied)
}
