// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"sync"
	"testing"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// recordingBus accepts every transaction and remembers its address.
type recordingBus struct {
	mu    sync.Mutex
	addrs []uint16
}

func (b *recordingBus) String() string                 { return "recording" }
func (b *recordingBus) SetSpeed(physic.Frequency) error { return nil }
func (b *recordingBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addrs = append(b.addrs, addr)
	return nil
}

func (b *recordingBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.addrs)
}

func TestPanelFrame(t *testing.T) {
	img := panelFrame(VitalsView{Kind: vitals.Pulse, Value: 72, HaveReading: true})
	if b := img.Bounds(); b.Dx() != BadgeWidth || b.Dy() != BadgeHeight {
		t.Fatalf("unexpected frame size %v", b)
	}

	badge := RenderBadge(vitals.Pulse, 72, true)
	lit := 0
	for y := 0; y < BadgeHeight; y++ {
		for x := 0; x < BadgeWidth; x++ {
			on := img.At(x, y) == image1bit.On
			if on {
				lit++
			}
			if want := badge.GrayAt(x, y).Y >= 0x80; on != want {
				t.Fatalf("pixel %d,%d: panel %v, badge %v", x, y, on, want)
			}
		}
	}
	if lit == 0 {
		t.Fatal("panel frame is blank")
	}
}

func TestPanelUsesConfiguredAddress(t *testing.T) {
	rec := &recordingBus{}
	p, err := newPanel(addrBus{Bus: rec, addr: 0x3D})
	if err != nil {
		t.Fatalf("newPanel: %v", err)
	}

	before := rec.count()
	if err := p.Show(VitalsView{Kind: vitals.Pulse, Value: 64, HaveReading: true}); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if rec.count() == before {
		t.Error("Show sent nothing to the panel")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i, a := range rec.addrs {
		if a != 0x3D {
			t.Fatalf("transaction %d went to 0x%X", i, a)
		}
	}
}
