// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Framebuffer mirrors the controller GDDRAM.
//
// See page 25 of the datasheet for the GDDRAM pages structure. Each page is an
// horizontal band of rows stored as one byte per column, LSB on top. The
// buffer holds one extra reserve byte after the last page which is never sent
// to the controller.
type Framebuffer struct {
	w, h  int
	pages int
	// Rows stored in one byte; 8 for all supported panels.
	rowsPerPage int
	buf         []byte
}

// NewFramebuffer returns a cleared framebuffer for a w×h panel split in pages.
func NewFramebuffer(w, h, pages int) (*Framebuffer, error) {
	if w <= 0 || h <= 0 || pages <= 0 || pages > h {
		return nil, fmt.Errorf("ssd1306: invalid framebuffer %dx%d with %d pages: %w", w, h, pages, ErrInvalidArgument)
	}
	rpp := (h + pages - 1) / pages
	if rpp > 8 {
		return nil, fmt.Errorf("ssd1306: %d rows per page do not fit a byte: %w", rpp, ErrInvalidArgument)
	}
	return &Framebuffer{
		w:           w,
		h:           h,
		pages:       pages,
		rowsPerPage: rpp,
		buf:         make([]byte, pages*w+1),
	}, nil
}

func (f *Framebuffer) String() string {
	return fmt.Sprintf("ssd1306.Framebuffer{%dx%d, %d pages}", f.w, f.h, f.pages)
}

// Pages returns the number of GDDRAM pages.
func (f *Framebuffer) Pages() int {
	return f.pages
}

// Len returns the buffer length in bytes, reserve byte included.
func (f *Framebuffer) Len() int {
	return len(f.buf)
}

// Bytes returns a copy of the visible part of the buffer, in the controller
// memory layout.
func (f *Framebuffer) Bytes() []byte {
	return append([]byte(nil), f.visible()...)
}

// Reset turns every pixel off.
func (f *Framebuffer) Reset() {
	clear(f.buf)
}

// SetPixel turns the pixel at (x, y) on.
func (f *Framebuffer) SetPixel(x, y int) error {
	return f.Apply(x, y, White)
}

// ClearPixel turns the pixel at (x, y) off.
func (f *Framebuffer) ClearPixel(x, y int) error {
	return f.Apply(x, y, Black)
}

// TogglePixel inverts the pixel at (x, y).
func (f *Framebuffer) TogglePixel(x, y int) error {
	return f.Apply(x, y, Inverse)
}

// Apply changes the pixel at (x, y) according to c.
func (f *Framebuffer) Apply(x, y int, c Color) error {
	if err := c.Valid(); err != nil {
		return err
	}
	i, mask, err := f.addr(x, y)
	if err != nil {
		return err
	}
	f.buf[i] = c.apply(f.buf[i], mask)
	return nil
}

// Pixel reports whether the pixel at (x, y) is on.
func (f *Framebuffer) Pixel(x, y int) (bool, error) {
	i, mask, err := f.addr(x, y)
	if err != nil {
		return false, err
	}
	return f.buf[i]&mask != 0, nil
}

// ColorModel implements image.Image.
func (f *Framebuffer) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements image.Image. Min is guaranteed to be {0, 0}.
func (f *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.w, f.h)
}

// At implements image.Image.
func (f *Framebuffer) At(x, y int) color.Color {
	on, _ := f.Pixel(x, y)
	return image1bit.Bit(on)
}

// Set implements draw.Image. Pixels outside the bounds are ignored.
func (f *Framebuffer) Set(x, y int, c color.Color) {
	i, mask, err := f.addr(x, y)
	if err != nil {
		return
	}
	if image1bit.BitModel.Convert(c).(image1bit.Bit) {
		f.buf[i] |= mask
	} else {
		f.buf[i] &^= mask
	}
}

// addr returns the index of the byte holding (x, y) and the bit of the pixel
// in that byte.
func (f *Framebuffer) addr(x, y int) (int, byte, error) {
	if x < 0 || x >= f.w || y < 0 || y >= f.h {
		return 0, 0, fmt.Errorf("ssd1306: pixel (%d, %d) outside %dx%d: %w", x, y, f.w, f.h, ErrInvalidArgument)
	}
	return (y/f.rowsPerPage)*f.w + x, 1 << uint(y%f.rowsPerPage), nil
}

// visible returns the part of the buffer mapped to GDDRAM.
func (f *Framebuffer) visible() []byte {
	return f.buf[:f.pages*f.w]
}

// fullMask covers every row of a page.
func (f *Framebuffer) fullMask() byte {
	return byte(1<<uint(f.rowsPerPage) - 1)
}

var _ draw.Image = &Framebuffer{}
