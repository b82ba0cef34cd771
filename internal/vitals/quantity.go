// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package vitals

import "fmt"

// Unit is a physical unit as reported by the sensor platform.
type Unit string

const (
	CountPerMinute Unit = "count/min"
	CountPerSecond Unit = "count/s"
	Hertz          Unit = "Hz"
	Percent        Unit = "%"
	Ratio          Unit = "ratio"
)

// Quantity is a raw sample value together with the unit it was delivered in.
type Quantity struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// scale maps a unit onto its dimension and the factor that converts it
// into that dimension's base unit.
var scale = map[Unit]struct {
	dim    string
	factor float64
}{
	CountPerMinute: {"frequency", 1},
	CountPerSecond: {"frequency", 60},
	Hertz:          {"frequency", 60},
	Percent:        {"fraction", 1},
	Ratio:          {"fraction", 100},
}

// ValueIn returns the quantity expressed in unit u.
func (q Quantity) ValueIn(u Unit) (float64, error) {
	if q.Unit == u {
		return q.Value, nil
	}
	from, ok := scale[q.Unit]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", q.Unit)
	}
	to, ok := scale[u]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", u)
	}
	if from.dim != to.dim {
		return 0, fmt.Errorf("cannot convert %s to %s", q.Unit, u)
	}
	return q.Value * from.factor / to.factor, nil
}
