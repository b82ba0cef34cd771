// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package vitals

import (
	"fmt"
	"time"
)

// Reading is one timestamped value for a measurement kind, already
// converted into the kind's canonical unit.
type Reading struct {
	Kind       Kind      `json:"kind"`
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"observed_at"`
}

// Sample is the wire form a sensor producer publishes: a quantity in any
// compatible unit.
type Sample struct {
	Quantity
	ObservedAt time.Time `json:"observed_at"`
}

// NewReading converts q into the canonical unit of kind.
func NewReading(kind Kind, q Quantity, at time.Time) (Reading, error) {
	v, err := q.ValueIn(kind.Unit())
	if err != nil {
		return Reading{}, fmt.Errorf("%s sample: %w", kind, err)
	}
	return Reading{Kind: kind, Value: v, ObservedAt: at}, nil
}
