// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termview implements a monochrome display.Drawer that outputs to
// the terminal using ANSI color codes.
//
// Useful to preview what an OLED panel would show without the hardware.
package termview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Opts represents the options available for this display.
type Opts struct {
	// W is where the frames are written. Defaults to stdout.
	W       io.Writer
	Palette *ansi256.Palette
	// On and Off are the colors of lit and dark pixels. The zero values
	// select white and black.
	On, Off color.NRGBA

	_ struct{}
}

// Dev is a monochrome panel emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette
	on, off string

	img    *image1bit.VerticalLSB
	buf    bytes.Buffer
	frames int
}

// New returns a Dev of size w x h that displays at the console.
func New(w, h int, opts *Opts) (*Dev, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("termview: invalid size %dx%d", w, h)
	}
	var o Opts
	if opts != nil {
		o = *opts
	}
	p := o.Palette
	if p == nil {
		p = ansi256.Default
	}
	if o.W == nil {
		o.W = colorable.NewColorableStdout()
	}
	if o.On == (color.NRGBA{}) {
		o.On = color.NRGBA{255, 255, 255, 255}
	}
	if o.Off == (color.NRGBA{}) {
		o.Off = color.NRGBA{0, 0, 0, 255}
	}
	d := &Dev{
		w:       o.W,
		palette: *p,
		img:     image1bit.NewVerticalLSB(image.Rect(0, 0, w, h)),
	}
	d.on = d.palette.Block(o.On)
	d.off = d.palette.Block(o.Off)
	return d, nil
}

func (d *Dev) String() string {
	r := d.img.Rect
	return fmt.Sprintf("termview.Dev{%dx%d}", r.Dx(), r.Dy())
}

// Frames returns the number of frames written so far.
func (d *Dev) Frames() int {
	return d.frames
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes so the console is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.img.Rect
}

// Draw implements display.Drawer.
//
// Pixels are converted to image1bit.Bit then the whole frame is printed.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Src.Draw(d.img, r.Intersect(d.img.Rect), src, sp)
	return d.refresh()
}

func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	r := d.img.Rect
	for y := r.Min.Y; y < r.Max.Y; y++ {
		_, _ = d.buf.WriteString("\033[0m")
		for x := r.Min.X; x < r.Max.X; x++ {
			if d.img.BitAt(x, y) {
				_, _ = d.buf.WriteString(d.on)
			} else {
				_, _ = d.buf.WriteString(d.off)
			}
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	if _, err := d.buf.WriteTo(d.w); err != nil {
		return err
	}
	d.frames++
	return nil
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
