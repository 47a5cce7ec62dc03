// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package webview mirrors a monochrome panel over HTTP.
//
// Clients get the current frame then a new one on every Draw, as a
// "multipart/x-mixed-replace" stream (MJPEG). Browsers and most video players
// display it natively. Pixels are magnified so a 128x32 panel is readable on
// a desktop screen.
//
// PNG is used by default since it suits one bit pictures. JPEG can be selected
// via Opts.Format or the "format" URL parameter.
package webview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Opts for webview devices.
type Opts struct {
	// Width and height of the mirrored panel.
	Width, Height int
	// Scale is the magnification of every pixel, 1 when 0.
	Scale int
	// Format of the images sent to clients.
	Format Format
	// On and Off are the colors of lit and dark pixels. The zero values
	// select white and black.
	On, Off color.NRGBA
	Logger  *zap.Logger
}

// Dev is a display.Drawer serving its content to HTTP clients.
type Dev struct {
	format  Format
	scale   int
	palette color.Palette
	log     *zap.Logger

	mu      sync.Mutex
	buffer  *image1bit.VerticalLSB
	clients map[*client]struct{}
	// encoded caches the current frame per format.
	encoded map[Format][]byte
	frames  int
}

// New returns a Dev showing a blank panel.
func New(opts *Opts) (*Dev, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("webview: invalid size %dx%d", opts.Width, opts.Height)
	}
	if opts.Scale < 0 {
		return nil, fmt.Errorf("webview: invalid scale %d", opts.Scale)
	}
	if _, err := opts.Format.mimeType(); err != nil {
		return nil, err
	}
	on, off := opts.On, opts.Off
	if on == (color.NRGBA{}) {
		on = color.NRGBA{255, 255, 255, 255}
	}
	if off == (color.NRGBA{}) {
		off = color.NRGBA{0, 0, 0, 255}
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Dev{
		format:  opts.Format,
		scale:   scale,
		palette: color.Palette{off, on},
		log:     log,
		buffer:  image1bit.NewVerticalLSB(image.Rect(0, 0, opts.Width, opts.Height)),
		clients: map[*client]struct{}{},
		encoded: map[Format][]byte{},
	}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("webview.Dev{%dx%d, x%d}", d.buffer.Rect.Dx(), d.buffer.Rect.Dy(), d.scale)
}

// Halt implements conn.Resource and terminates all running client requests
// asynchronously.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := range d.clients {
		select {
		case c.terminate <- struct{}{}:
		default:
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (d *Dev) Clients() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients)
}

// Frames returns the number of frames drawn so far.
func (d *Dev) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.buffer.Rect
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	draw.Src.Draw(d.buffer, r.Intersect(d.buffer.Rect), src, sp)
	d.frames++
	for f, b := range d.encoded {
		releaseBuffer(b)
		delete(d.encoded, f)
	}
	for c := range d.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
	return nil
}

var _ display.Drawer = &Dev{}
var _ http.Handler = &Dev{}
