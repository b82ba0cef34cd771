// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// TypeVIT is the sentence type the wrist board emits for one vital sample:
//
//	$WBVIT,pulse,72,count/min*2E
const TypeVIT = "VIT"

// VIT is one framed vital sample read off the serial line.
type VIT struct {
	nmea.BaseSentence
	Kind  vitals.Kind
	Value float64
	Unit  vitals.Unit
}

func parseVIT(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	p.AssertType(TypeVIT)
	rawKind := p.String(0, "kind")
	value := p.Float64(1, "value")
	unit := p.String(2, "unit")
	if err := p.Err(); err != nil {
		return nil, err
	}

	kind, err := vitals.ParseKind(rawKind)
	if err != nil {
		return nil, fmt.Errorf("nmea: %s: %w", s.Prefix(), err)
	}
	return VIT{BaseSentence: s, Kind: kind, Value: value, Unit: vitals.Unit(unit)}, nil
}

var vitParser = nmea.SentenceParser{
	CustomParsers: map[string]nmea.ParserFunc{
		TypeVIT: parseVIT,
	},
}

// parseSentence parses one line into a reading. Sentences other than VIT
// are rejected.
func parseSentence(line string) (VIT, error) {
	s, err := vitParser.Parse(line)
	if err != nil {
		return VIT{}, err
	}
	vit, ok := s.(VIT)
	if !ok {
		return VIT{}, fmt.Errorf("nmea: unexpected sentence type %s", s.DataType())
	}
	if vit.Unit == "" {
		vit.Unit = vit.Kind.Unit()
	}
	return vit, nil
}
