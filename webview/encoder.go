// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webview

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"sync"

	"github.com/disintegration/imaging"
)

// pngBuffers lets every PNG encoding share its scratch buffers.
type pngBuffers struct {
	pool sync.Pool
}

func (p *pngBuffers) Get() *png.EncoderBuffer {
	b, _ := p.pool.Get().(*png.EncoderBuffer)
	return b
}

func (p *pngBuffers) Put(b *png.EncoderBuffer) {
	p.pool.Put(b)
}

var pngEncoder = png.Encoder{
	CompressionLevel: png.BestSpeed,
	BufferPool:       &pngBuffers{},
}

var jpegOptions = jpeg.Options{Quality: 90}

// frames stores reusable encoded frame buffers.
var frames = sync.Pool{
	New: func() interface{} {
		return []byte(nil)
	},
}

func getBuffer() []byte {
	return frames.Get().([]byte)[:0]
}

func releaseBuffer(b []byte) {
	if b != nil {
		//lint:ignore SA6002 b is a slice and thus pointer-like
		frames.Put(b)
	}
}

// renderLocked converts the panel content to a two color picture magnified
// d.scale times.
func (d *Dev) renderLocked() image.Image {
	r := d.buffer.Rect
	p := image.NewPaletted(r, d.palette)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if d.buffer.BitAt(x, y) {
				p.SetColorIndex(x, y, 1)
			}
		}
	}
	if d.scale == 1 {
		return p
	}
	return imaging.Resize(p, r.Dx()*d.scale, r.Dy()*d.scale, imaging.NearestNeighbor)
}

func (d *Dev) encodeLocked(f Format) ([]byte, error) {
	buf := bytes.NewBuffer(getBuffer())
	img := d.renderLocked()
	var err error
	if f == JPEG {
		err = jpeg.Encode(buf, img, &jpegOptions)
	} else {
		err = pngEncoder.Encode(buf, img)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// snapshot returns a copy of the current frame in format f, owned by the
// caller.
func (d *Dev) snapshot(f Format) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.encoded[f]
	if !ok {
		var err error
		if b, err = d.encodeLocked(f); err != nil {
			return nil, err
		}
		d.encoded[f] = b
	}
	return append(getBuffer(), b...), nil
}
