// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gfx

import (
	"fmt"

	"github.com/GermanBionicSystems/oled/ssd1306"
)

// Orientation is the rotation applied to virtual coordinates.
type Orientation uint8

// Possible orientations.
const (
	Landscape     Orientation = 0
	LandscapeWide Orientation = 1
	Portrait      Orientation = 2
	PortraitTall  Orientation = 3
)

func (o Orientation) String() string {
	switch o {
	case Landscape:
		return "Landscape"
	case LandscapeWide:
		return "LandscapeWide"
	case Portrait:
		return "Portrait"
	case PortraitTall:
		return "PortraitTall"
	default:
		return fmt.Sprintf("Orientation(%d)", uint8(o))
	}
}

func (o Orientation) portrait() bool {
	return o == Portrait || o == PortraitTall
}

// SetOrientation selects the orientation; only the two low bits of o are
// used. Virtual width and height are the physical ones swapped for portrait
// orientations.
func (c *Context) SetOrientation(o Orientation) {
	c.orientation = o & 3
	w, h := c.physicalSize()
	if c.orientation.portrait() {
		c.vw, c.vh = h, w
	} else {
		c.vw, c.vh = w, h
	}
}

// Orientation returns the current orientation.
func (c *Context) Orientation() Orientation {
	return c.orientation
}

// VirtualSize returns the display extents as seen in the current orientation.
func (c *Context) VirtualSize() (w, h int) {
	return c.vw, c.vh
}

// Transform maps virtual coordinates to physical ones.
//
// Landscape derives y from x first, then copies it into x. PortraitTall is
// the identity.
func (c *Context) Transform(x, y int) (int, int) {
	switch c.orientation {
	case Portrait:
		x = y
		y = c.vw - y - 1
	case LandscapeWide:
		x = c.vw - x - 1
		y = c.vh - y - 1
	case Landscape:
		y = c.vh - x - 1
		x = y
	}
	return x, y
}

// validateAndTransform checks both ends of a segment against the virtual
// extents, transforms them and orders axis-aligned segments top to bottom or
// left to right.
func (c *Context) validateAndTransform(x0, y0, x1, y1 int) (int, int, int, int, error) {
	w, h := c.physicalSize()
	// Virtual axes are swapped in portrait: x runs along the physical height.
	maxX, maxY := w, h
	if c.orientation.portrait() {
		maxX, maxY = h, w
	}
	if x0 < 0 || x0 >= maxX || x1 < 0 || x1 >= maxX || y0 < 0 || y0 >= maxY || y1 < 0 || y1 >= maxY {
		return 0, 0, 0, 0, fmt.Errorf("gfx: (%d, %d)-(%d, %d) outside %dx%d in %s: %w", x0, y0, x1, y1, maxX, maxY, c.orientation, ssd1306.ErrInvalidArgument)
	}
	x0, y0 = c.Transform(x0, y0)
	x1, y1 = c.Transform(x1, y1)
	if (x0 == x1 && y1 < y0) || (y0 == y1 && x1 < x0) {
		x0, x1 = x1, x0
		y0, y1 = y1, y0
	}
	return x0, y0, x1, y1, nil
}

func (c *Context) physicalSize() (int, int) {
	if c.d == nil {
		return 0, 0
	}
	r := c.d.Bounds()
	return r.Dx(), r.Dy()
}
