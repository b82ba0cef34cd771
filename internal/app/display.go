// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/vitals_relay/internal/vitals"
)

// Badge dimensions match the small OLED panels the page imitates.
const (
	BadgeWidth  = 128
	BadgeHeight = 64
)

// RenderBadge draws the single value screen: the measured value in the
// middle and its label underneath, or a waiting notice before the first
// reading.
func RenderBadge(kind vitals.Kind, value float64, haveData bool) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, BadgeWidth, BadgeHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.Black}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{color.White},
		Face: basicfont.Face7x13,
	}

	if !haveData {
		centerLine(drawer, kind.Label(), 26)
		centerLine(drawer, "Waiting...", 39)
		return img
	}

	centerLine(drawer, fmt.Sprintf("%.0f", value), 30)
	centerLine(drawer, kind.Label(), 52)
	return img
}

// centerLine draws s horizontally centred with its baseline at y.
func centerLine(d *font.Drawer, s string, y int) {
	w := d.MeasureString(s)
	x := (fixed.I(BadgeWidth) - w) / 2
	if x < 0 {
		x = 0
	}
	d.Dot = fixed.Point26_6{X: x, Y: fixed.I(y)}
	d.DrawString(s)
}
