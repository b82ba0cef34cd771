// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package vitals

import (
	"fmt"
	"strings"
)

// Kind identifies a measurement type delivered by the sensor platform.
type Kind string

const (
	Pulse            Kind = "pulse"
	OxygenSaturation Kind = "oxygenSaturation"
	RespirationRate  Kind = "respirationRate"
)

// AllKinds lists every supported kind in a stable order.
var AllKinds = []Kind{Pulse, OxygenSaturation, RespirationRate}

// Unit is the canonical unit readings of this kind are stored in.
func (k Kind) Unit() Unit {
	switch k {
	case OxygenSaturation:
		return Percent
	default:
		return CountPerMinute
	}
}

// FieldName is the JSON key the remote document store expects for this kind.
func (k Kind) FieldName() string {
	switch k {
	case Pulse:
		return "heartRate"
	case OxygenSaturation:
		return "oxygenSaturation"
	case RespirationRate:
		return "respiratoryRate"
	default:
		return string(k)
	}
}

// Label is the short suffix shown next to the value on the display.
func (k Kind) Label() string {
	switch k {
	case Pulse:
		return "BPM"
	case OxygenSaturation:
		return "SpO2 %"
	case RespirationRate:
		return "br/min"
	default:
		return string(k)
	}
}

func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind accepts the canonical name case-insensitively, plus a few aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pulse", "heartrate", "hr":
		return Pulse, nil
	case "oxygensaturation", "spo2":
		return OxygenSaturation, nil
	case "respirationrate", "respiratoryrate", "rr":
		return RespirationRate, nil
	}
	return "", fmt.Errorf("unknown measurement kind %q", s)
}

// ParseKinds parses a comma-separated list. Empty entries are skipped.
func ParseKinds(s string) ([]Kind, error) {
	var kinds []Kind
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseKind(part)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
