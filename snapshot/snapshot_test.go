// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package snapshot

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/spf13/afero"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func TestSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 2, 2))
	img.SetBit(1, 0, image1bit.On)
	if err := Save(fs, "out/frames/0.png", img, 3); err != nil {
		t.Fatal(err)
	}
	bs, err := afero.ReadFile(fs, "out/frames/0.png")
	if err != nil {
		t.Fatal(err)
	}
	got, err := png.Decode(bytes.NewReader(bs))
	if err != nil {
		t.Fatal(err)
	}
	if r := got.Bounds(); r != image.Rect(0, 0, 6, 6) {
		t.Fatalf("Bounds() = %v", r)
	}
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			want := x >= 3 && y < 3
			if on := bool(image1bit.BitModel.Convert(got.At(x, y)).(image1bit.Bit)); on != want {
				t.Errorf("pixel (%d, %d) = %t, want %t", x, y, on, want)
			}
		}
	}
}

func TestSaveUnscaled(t *testing.T) {
	fs := afero.NewMemMapFs()
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 16, 8))
	if err := Save(fs, "frame.png", img, 1); err != nil {
		t.Fatal(err)
	}
	f, err := fs.Open("frame.png")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 16 || cfg.Height != 8 {
		t.Errorf("size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestSaveInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 2, 2))
	if err := Save(fs, "a.png", img, 0); err == nil {
		t.Error("Save() with scale 0 succeeded")
	}
	if err := Save(fs, "b.png", image.NewGray(image.Rectangle{}), 1); err == nil {
		t.Error("Save() of an empty image succeeded")
	}
	if err := Save(afero.NewReadOnlyFs(fs), "c.png", img, 1); err == nil {
		t.Error("Save() on a read-only filesystem succeeded")
	}
}

func writePNG(t *testing.T, fs afero.Fs, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := image.NewGray(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			src.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	writePNG(t, fs, "half.png", src)

	r := image.Rect(0, 0, 128, 64)
	img, err := Load(fs, "half.png", r)
	if err != nil {
		t.Fatal(err)
	}
	if img.Rect != r {
		t.Fatalf("Rect = %v, want %v", img.Rect, r)
	}
	for _, p := range []image.Point{{0, 0}, {10, 40}, {50, 63}} {
		if !img.BitAt(p.X, p.Y) {
			t.Errorf("pixel %v is off", p)
		}
	}
	for _, p := range []image.Point{{127, 0}, {100, 40}, {80, 63}} {
		if img.BitAt(p.X, p.Y) {
			t.Errorf("pixel %v is on", p)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := Load(fs, "missing.png", image.Rect(0, 0, 8, 8)); !os.IsNotExist(err) {
		t.Errorf("Load() = %v, want not exist", err)
	}
	if err := afero.WriteFile(fs, "junk.png", []byte("not a picture"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(fs, "junk.png", image.Rect(0, 0, 8, 8)); err == nil {
		t.Error("Load() of junk succeeded")
	}
	if _, err := Load(fs, "junk.png", image.Rectangle{}); err == nil {
		t.Error("Load() into an empty rectangle succeeded")
	}
}
