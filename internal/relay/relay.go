// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package relay

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

const DefaultInterval = 3 * time.Second

// Submitter delivers one record to the remote store. A nil error means the
// store accepted it.
type Submitter interface {
	Submit(ctx context.Context, rec vitals.Record) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, rec vitals.Record) error

func (f SubmitterFunc) Submit(ctx context.Context, rec vitals.Record) error { return f(ctx, rec) }

type Options struct {
	Interval time.Duration // DefaultInterval when zero
	Kind     vitals.Kind   // vitals.Pulse when empty or unknown
	Clock    Clock
	Logger   *log.Logger
}

// Stats is a point in time view of the relay loop.
type Stats struct {
	Ticks       uint64         `json:"ticks"`
	Successes   uint64         `json:"successes"`
	Failures    uint64         `json:"failures"`
	LastError   string         `json:"last_error,omitempty"`
	LastRecord  *vitals.Record `json:"last_record,omitempty"`
	LastElapsed time.Duration  `json:"last_elapsed_ns"`
}

// Relay owns the latest value state and the periodic submission loop.
// Sample batches and ticks are both handled on the loop goroutine.
type Relay struct {
	sub      Submitter
	interval time.Duration
	kind     vitals.Kind
	clock    Clock
	logger   *log.Logger

	latest  *Latest
	batches chan []vitals.Reading
	done    chan struct{}

	statsMu sync.Mutex
	stats   Stats

	startOnce sync.Once
	cancel    context.CancelFunc
	inflight  sync.WaitGroup
}

func New(sub Submitter, opts Options) *Relay {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if !opts.Kind.Valid() {
		opts.Kind = vitals.Pulse
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Relay{
		sub:      sub,
		interval: opts.Interval,
		kind:     opts.Kind,
		clock:    opts.Clock,
		logger:   opts.Logger,
		latest:   NewLatest(opts.Clock.Now()),
		batches:  make(chan []vitals.Reading, 64),
		done:     make(chan struct{}),
	}
}

// Kind is the measurement kind relayed on every tick.
func (r *Relay) Kind() vitals.Kind { return r.kind }

// Latest exposes the latest value state for read-only use.
func (r *Relay) Latest() *Latest { return r.latest }

// Deliver hands a batch to the loop. It has the signature of a source
// handler and is safe to call from any goroutine. Batches delivered after
// the loop stopped are dropped.
func (r *Relay) Deliver(batch []vitals.Reading) {
	select {
	case r.batches <- batch:
	case <-r.done:
	}
}

// Start runs the loop until ctx is cancelled or Stop is called. The first
// submission happens one interval after Start.
func (r *Relay) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		ctx, r.cancel = context.WithCancel(ctx)
		go r.run(ctx)
	})
}

// Stop ends the loop and waits for in-flight submissions.
func (r *Relay) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.inflight.Wait()
}

func (r *Relay) run(ctx context.Context) {
	defer close(r.done)
	next := r.clock.After(r.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-r.batches:
			r.ingest(batch)
		case <-next:
			r.tick(ctx)
			next = r.clock.After(r.interval)
		}
	}
}

func (r *Relay) ingest(batch []vitals.Reading) {
	elapsed := r.latest.Apply(batch, r.clock.Now())
	for i, d := range elapsed {
		rd := batch[i]
		r.logger.Printf("relay: %s %.0f after %.1f seconds", rd.Kind, rd.Value, d.Seconds())
	}
}

// tick builds a record from the latest value and submits it without
// waiting for the result.
func (r *Relay) tick(ctx context.Context) {
	rec := vitals.NewRecord(r.kind, r.latest.Value(r.kind), r.clock.Now())

	r.statsMu.Lock()
	r.stats.Ticks++
	r.stats.LastRecord = &rec
	r.statsMu.Unlock()

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		err := r.sub.Submit(ctx, rec)

		r.statsMu.Lock()
		defer r.statsMu.Unlock()
		if err != nil {
			r.stats.Failures++
			r.stats.LastError = err.Error()
			r.logger.Printf("relay: submit %s=%.0f failed: %v", r.kind.FieldName(), rec.Value, err)
			return
		}
		r.stats.Successes++
		r.logger.Printf("relay: submitted %s=%.0f at %d", r.kind.FieldName(), rec.Value, rec.Timestamp)
	}()
}

// Stats returns a copy of the loop counters. LastElapsed is the gap between
// the two most recent readings.
func (r *Relay) Stats() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	s := r.stats
	s.LastElapsed = r.latest.Elapsed()
	if s.LastRecord != nil {
		rec := *s.LastRecord
		s.LastRecord = &rec
	}
	return s
}
