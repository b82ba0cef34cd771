// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// MockSource generates smooth changing vitals, one batch per interval.
type MockSource struct {
	start     time.Time
	interval  time.Duration
	batchSize int
	deny      map[vitals.Kind]bool
	logger    *log.Logger

	g      *grants
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMockSource creates a mock source. Kinds listed in deny are refused at
// Authorize, which simulates a user declining the permission prompt.
func NewMockSource(interval time.Duration, batchSize int, deny []vitals.Kind, logger *log.Logger) *MockSource {
	ctx, cancel := context.WithCancel(context.Background())
	m := &MockSource{
		start:     time.Now(),
		interval:  interval,
		batchSize: batchSize,
		deny:      make(map[vitals.Kind]bool),
		logger:    logger,
		g:         newGrants(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, k := range deny {
		m.deny[k] = true
	}
	return m
}

func (m *MockSource) Authorize(_ context.Context, kinds []vitals.Kind) error {
	var errs []error
	for _, k := range kinds {
		ok := !m.deny[k]
		m.g.set(k, ok)
		if !ok {
			errs = append(errs, denied(k))
		}
	}
	return errors.Join(errs...)
}

func (m *MockSource) Subscribe(ctx context.Context, kind vitals.Kind, h Handler) error {
	if !m.g.register(kind, h) {
		m.logger.Printf("sensors: mock %s not authorized, no readings will be delivered", kind)
		return nil
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.ctx.Done():
				return
			case t := <-ticker.C:
				h(m.batch(kind, t))
			}
		}
	}()
	return nil
}

// batch returns batchSize readings spread over the last interval, oldest first.
func (m *MockSource) batch(kind vitals.Kind, now time.Time) []vitals.Reading {
	out := make([]vitals.Reading, 0, m.batchSize)
	for i := m.batchSize - 1; i >= 0; i-- {
		at := now.Add(-time.Duration(i) * m.interval / time.Duration(m.batchSize))
		out = append(out, vitals.Reading{Kind: kind, Value: m.valueAt(kind, at), ObservedAt: at})
	}
	return out
}

func (m *MockSource) valueAt(kind vitals.Kind, at time.Time) float64 {
	elapsed := at.Sub(m.start).Seconds()
	switch kind {
	case vitals.Pulse:
		return math.Round(72 + 8*math.Sin(elapsed/10))
	case vitals.OxygenSaturation:
		return math.Round(97 + math.Sin(elapsed/30))
	case vitals.RespirationRate:
		return math.Round(15 + 2*math.Cos(elapsed/20))
	}
	return 0
}

func (m *MockSource) Close() error {
	m.cancel()
	m.wg.Wait()
	return nil
}
