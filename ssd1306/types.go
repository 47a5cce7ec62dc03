// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"fmt"

	"github.com/samber/lo"
)

// Dimension selects one of the supported panel geometries.
type Dimension int

// Supported panels.
const (
	W128xH32 Dimension = 1
	W128xH64 Dimension = 2
	W96xH16  Dimension = 3
)

func (d Dimension) String() string {
	switch d {
	case W128xH32:
		return "128x32"
	case W128xH64:
		return "128x64"
	case W96xH16:
		return "96x16"
	default:
		return fmt.Sprintf("Dimension(%d)", int(d))
	}
}

// Size returns the panel width and height in pixels and the number of GDDRAM
// pages it uses.
func (d Dimension) Size() (w, h, pages int, err error) {
	switch d {
	case W128xH32:
		return 128, 32, 4, nil
	case W128xH64:
		return 128, 64, 8, nil
	case W96xH16:
		return 96, 16, 2, nil
	default:
		return 0, 0, 0, fmt.Errorf("ssd1306: unknown dimension %d: %w", int(d), ErrInvalidArgument)
	}
}

// contrast is the power-on contrast recommended for the panel.
func (d Dimension) contrast(p PowerMode) byte {
	switch d {
	case W128xH64:
		return lo.Ternary(p == ExternalVCC, byte(0x9F), byte(0xCF))
	case W96xH16:
		return lo.Ternary(p == ExternalVCC, byte(0x10), byte(0xAF))
	default:
		return 0x8F
	}
}

// DefaultAddr returns the usual I²C address of a panel of height h: 0x3C for
// 32 rows tall panels, 0x3D for all others.
func DefaultAddr(h int) uint16 {
	if h == 32 {
		return 0x3C
	}
	return 0x3D
}

// PowerMode is the source of the panel driving voltage.
type PowerMode byte

// Possible power modes. Any value other than ExternalVCC is treated as
// SwitchCapVCC.
const (
	ExternalVCC  PowerMode = 0x01 // External display voltage source.
	SwitchCapVCC PowerMode = 0x02 // Display voltage generated from 3.3V.
)

func (p PowerMode) chargePump() byte {
	return lo.Ternary(p == ExternalVCC, byte(0x10), byte(0x14))
}

func (p PowerMode) precharge() byte {
	return lo.Ternary(p == ExternalVCC, byte(0x22), byte(0xF1))
}

// Color is how a drawing operation affects the pixels it covers.
type Color byte

// Drawing colors.
const (
	White   Color = 1 // Turn pixels on.
	Black   Color = 2 // Turn pixels off.
	Inverse Color = 3 // Toggle pixels.
)

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	case Inverse:
		return "Inverse"
	default:
		return fmt.Sprintf("Color(%d)", byte(c))
	}
}

// Valid returns an error wrapping ErrInvalidArgument for unknown colors.
func (c Color) Valid() error {
	if c < White || c > Inverse {
		return fmt.Errorf("ssd1306: unknown color %d: %w", byte(c), ErrInvalidArgument)
	}
	return nil
}

// apply returns b with the bits in mask set, cleared or toggled.
func (c Color) apply(b, mask byte) byte {
	switch c {
	case White:
		return b | mask
	case Black:
		return b &^ mask
	case Inverse:
		return b ^ mask
	}
	return b
}

// ScrollDirection is used for scrolling.
type ScrollDirection byte

// Possible scrolling directions.
const (
	ScrollRight   ScrollDirection = 0x26
	ScrollLeft    ScrollDirection = 0x27
	ScrollUpRight ScrollDirection = 0x29
	ScrollUpLeft  ScrollDirection = 0x2A
)

// ScrollSpeed determines the number of frames between each scroll step.
type ScrollSpeed byte

// Possible scroll speeds, slowest first.
const (
	ScrollSpeed0 ScrollSpeed = 0x03 // 256 frames
	ScrollSpeed1 ScrollSpeed = 0x02 // 128 frames
	ScrollSpeed2 ScrollSpeed = 0x01 // 64 frames
	ScrollSpeed3 ScrollSpeed = 0x06 // 25 frames
	ScrollSpeed4 ScrollSpeed = 0x00 // 5 frames
	ScrollSpeed5 ScrollSpeed = 0x05 // 4 frames
	ScrollSpeed6 ScrollSpeed = 0x04 // 3 frames
	ScrollSpeed7 ScrollSpeed = 0x07 // 2 frames
)
