// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

// addrBus sends every transaction to addr. ssd1306.NewI2C always talks to
// 0x3C; panels strapped to 0x3D are reached through this.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// Panel is a 128x64 SSD1306 OLED showing the same badge as /display.png.
type Panel struct {
	dev *ssd1306.Dev
	bus i2c.BusCloser
}

// OpenPanel initializes the periph host and the panel at addr on busName.
func OpenPanel(busName string, addr uint16) (*Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}
	p, err := newPanel(addrBus{Bus: bus, addr: addr})
	if err != nil {
		bus.Close()
		return nil, err
	}
	p.bus = bus
	log.Printf("display: panel initialized at 0x%02X", addr)
	return p, nil
}

func newPanel(bus i2c.Bus) (*Panel, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	return &Panel{dev: dev}, nil
}

// panelFrame converts the badge for v to the panel's 1 bit layout.
func panelFrame(v VitalsView) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, BadgeWidth, BadgeHeight))
	draw.Draw(img, img.Bounds(), RenderBadge(v.Kind, v.Value, v.HaveReading), image.Point{}, draw.Src)
	return img
}

// Show draws v on the panel.
func (p *Panel) Show(v VitalsView) error {
	return p.dev.Draw(p.dev.Bounds(), panelFrame(v), image.Point{})
}

// RunPanel refreshes the panel from m every interval until ctx is done.
func RunPanel(ctx context.Context, p *Panel, m Monitor, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	log.Println("display: starting update loop")
	for {
		if err := p.Show(viewOf(m)); err != nil {
			log.Printf("display: error updating panel: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Panel) Close() error {
	err := p.dev.Halt()
	if p.bus != nil {
		if cerr := p.bus.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
