// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package vitals

import "time"

// Record is the payload submitted to the remote document store on each
// relay tick.
type Record struct {
	Kind      Kind    `json:"kind"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"` // epoch seconds at construction
}

// NewRecord stamps the record with the epoch seconds of now.
func NewRecord(kind Kind, value float64, now time.Time) Record {
	return Record{Kind: kind, Value: value, Timestamp: now.Unix()}
}

// Fields renders the record as the JSON object the remote node stores,
// e.g. {"heartRate": 72, "timestamp": 1767225600}.
func (r Record) Fields() map[string]any {
	return map[string]any{
		r.Kind.FieldName(): r.Value,
		"timestamp":        r.Timestamp,
	}
}
