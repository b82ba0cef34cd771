// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package relay

import (
	"sync"
	"time"

	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// Latest holds the most recent reading per kind. Only the relay loop
// writes to it; any goroutine may read.
type Latest struct {
	mu       sync.RWMutex
	readings map[vitals.Kind]vitals.Reading
	updated  time.Time
	elapsed  time.Duration
}

func NewLatest(start time.Time) *Latest {
	return &Latest{
		readings: make(map[vitals.Kind]vitals.Reading),
		updated:  start,
	}
}

// Apply overwrites the stored value of each reading's kind, in batch order,
// and returns the time since the previous update for every reading applied.
// An empty batch changes nothing.
func (l *Latest) Apply(batch []vitals.Reading, now time.Time) []time.Duration {
	if len(batch) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := make([]time.Duration, 0, len(batch))
	for _, r := range batch {
		l.readings[r.Kind] = r
		l.elapsed = now.Sub(l.updated)
		l.updated = now
		elapsed = append(elapsed, l.elapsed)
	}
	return elapsed
}

// Value returns the latest value of kind, or 0 if none arrived yet.
func (l *Latest) Value(kind vitals.Kind) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.readings[kind].Value
}

// Reading returns the latest reading of kind and whether one exists.
func (l *Latest) Reading(kind vitals.Kind) (vitals.Reading, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.readings[kind]
	return r, ok
}

// Snapshot returns a copy of all latest readings.
func (l *Latest) Snapshot() map[vitals.Kind]vitals.Reading {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[vitals.Kind]vitals.Reading, len(l.readings))
	for k, r := range l.readings {
		out[k] = r
	}
	return out
}

// Elapsed is the gap between the last two updates.
func (l *Latest) Elapsed() time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.elapsed
}
