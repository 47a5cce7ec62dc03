// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package snapshot saves display frames as PNG files and loads arbitrary
// pictures as one bit frames fitted to a panel.
//
// Files go through an afero.Fs so tests and tools can use an in-memory
// filesystem.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Save writes img to path as a PNG, each pixel magnified scale times.
//
// Missing parent directories are created.
func Save(fs afero.Fs, path string, img image.Image, scale int) error {
	if scale < 1 {
		return fmt.Errorf("snapshot: invalid scale %d", scale)
	}
	r := img.Bounds()
	if r.Empty() {
		return errors.New("snapshot: empty image")
	}
	var out image.Image = img
	if scale > 1 {
		out = imaging.Resize(img, r.Dx()*scale, r.Dy()*scale, imaging.NearestNeighbor)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if exists, err := afero.DirExists(fs, dir); err != nil {
			return err
		} else if !exists {
			if err := fs.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
	}
	return afero.WriteFile(fs, path, buf.Bytes(), 0644)
}

// Load decodes the picture at path and returns it cropped and scaled to fill
// r, converted to one bit per pixel.
//
// Any format known to imaging is accepted.
func Load(fs afero.Fs, path string, r image.Rectangle) (*image1bit.VerticalLSB, error) {
	if r.Empty() {
		return nil, fmt.Errorf("snapshot: empty target %v", r)
	}
	bs, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	src, err := imaging.Decode(bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", path, err)
	}
	filled := imaging.Fill(src, r.Dx(), r.Dy(), imaging.Center, imaging.Lanczos)
	dst := image1bit.NewVerticalLSB(r)
	draw.Src.Draw(dst, r, filled, image.Point{})
	return dst, nil
}
