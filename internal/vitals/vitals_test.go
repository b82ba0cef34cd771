// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package vitals

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"pulse":            Pulse,
		"HeartRate":        Pulse,
		" spo2 ":           OxygenSaturation,
		"oxygenSaturation": OxygenSaturation,
		"respiratoryRate":  RespirationRate,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseKind(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseKind("glucose"); err == nil {
		t.Errorf("expected error for unknown kind")
	}
}

func TestParseKinds(t *testing.T) {
	kinds, err := ParseKinds("pulse, ,spo2")
	if err != nil {
		t.Fatalf("ParseKinds: %v", err)
	}
	if len(kinds) != 2 || kinds[0] != Pulse || kinds[1] != OxygenSaturation {
		t.Fatalf("unexpected kinds: %v", kinds)
	}
}

func TestQuantityValueIn(t *testing.T) {
	v, err := Quantity{Value: 1.2, Unit: CountPerSecond}.ValueIn(CountPerMinute)
	if err != nil {
		t.Fatalf("ValueIn: %v", err)
	}
	if math.Abs(v-72) > 1e-9 {
		t.Errorf("expected 72 count/min, got %f", v)
	}

	v, err = Quantity{Value: 0.97, Unit: Ratio}.ValueIn(Percent)
	if err != nil {
		t.Fatalf("ValueIn: %v", err)
	}
	if math.Abs(v-97) > 1e-9 {
		t.Errorf("expected 97%%, got %f", v)
	}

	if _, err := (Quantity{Value: 1, Unit: Percent}).ValueIn(CountPerMinute); err == nil {
		t.Errorf("expected dimension mismatch error")
	}
	if _, err := (Quantity{Value: 1, Unit: "mmHg"}).ValueIn(CountPerMinute); err == nil {
		t.Errorf("expected unknown unit error")
	}
}

func TestNewReadingCanonicalUnit(t *testing.T) {
	at := time.Unix(1700000000, 0)
	r, err := NewReading(Pulse, Quantity{Value: 1.5, Unit: Hertz}, at)
	if err != nil {
		t.Fatalf("NewReading: %v", err)
	}
	if r.Value != 90 || r.Kind != Pulse || !r.ObservedAt.Equal(at) {
		t.Errorf("unexpected reading: %+v", r)
	}
}

func TestRecordFields(t *testing.T) {
	rec := NewRecord(Pulse, 72, time.Unix(1767225600, 999_000_000))
	if rec.Timestamp != 1767225600 {
		t.Fatalf("expected truncated epoch seconds, got %d", rec.Timestamp)
	}

	raw, err := json.Marshal(rec.Fields())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(raw), `{"heartRate":72,"timestamp":1767225600}`; got != want {
		t.Errorf("payload = %s, want %s", got, want)
	}
}
