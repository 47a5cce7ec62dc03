// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"image"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"
	"tinygo.org/x/tinyfont"

	"github.com/GermanBionicSystems/oled/snapshot"
	"github.com/GermanBionicSystems/oled/ssd1306"
	"github.com/GermanBionicSystems/oled/ssd1306/gfx"
	"github.com/GermanBionicSystems/oled/termview"
	"github.com/GermanBionicSystems/oled/webview"
)

// run is invoked once the display is up.
func run(cfg config, dev *ssd1306.Dev, c *gfx.Context, m *webview.Dev, log *zap.Logger) error {
	if err := show(cfg, dev, c, afero.NewOsFs(), nil, log); err != nil {
		return err
	}
	if m != nil {
		return m.Draw(dev.Bounds(), dev.Framebuffer(), image.Point{})
	}
	return nil
}

// show draws the frame then applies the post-processing steps selected by
// cfg. A nil out previews on stdout.
func show(cfg config, dev *ssd1306.Dev, c *gfx.Context, fs afero.Fs, out io.Writer, log *zap.Logger) error {
	if cfg.image != "" {
		img, err := snapshot.Load(fs, cfg.image, dev.Bounds())
		if err != nil {
			return errors.Wrap(err, "loading image")
		}
		if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
			return errors.Wrap(err, "drawing image")
		}
	} else {
		scene, err := vectorScene(dev.Bounds(), cfg.text)
		if err != nil {
			return err
		}
		if err := dev.Draw(dev.Bounds(), scene, image.Point{}); err != nil {
			return errors.Wrap(err, "drawing scene")
		}
		if err := decorate(c); err != nil {
			return err
		}
	}
	log.Info("frame drawn", zap.Stringer("display", dev), zap.Stringer("orientation", c.Orientation()))

	if cfg.brightness >= 0 {
		if err := dev.SetBrightness(cfg.brightness); err != nil {
			return errors.Wrap(err, "setting brightness")
		}
	}
	if cfg.preview {
		r := dev.Bounds()
		v, err := termview.New(r.Dx(), r.Dy(), &termview.Opts{W: out})
		if err != nil {
			return err
		}
		if err := v.Draw(r, dev.Framebuffer(), image.Point{}); err != nil {
			return errors.Wrap(err, "previewing")
		}
	}
	if cfg.snapshot != "" {
		if err := snapshot.Save(fs, cfg.snapshot, dev.Framebuffer(), cfg.scale); err != nil {
			return errors.Wrap(err, "saving snapshot")
		}
		log.Info("snapshot saved", zap.String("path", cfg.snapshot))
	}
	if cfg.scroll != 0 {
		if err := dev.Scroll(0, dev.Framebuffer().Pages()-1, cfg.scroll, ssd1306.ScrollSpeed2); err != nil {
			return errors.Wrap(err, "scrolling")
		}
	}
	return nil
}

// vectorScene renders text in a rounded frame with anti-aliased TrueType
// glyphs. The display thresholds it to one bit.
func vectorScene(r image.Rectangle, text string) (image.Image, error) {
	w, h := r.Dx(), r.Dy()
	dc := gg.NewContext(w, h)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)

	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "parsing font")
	}
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: float64(h) / 2}))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(0.5, 0.5, float64(w)-1, float64(h)-1, float64(h)/8)
	dc.Stroke()
	dc.DrawStringAnchored(text, float64(w)/2, float64(h)/2, 0.5, 0.35)
	for i := 0; i < 4; i++ {
		dc.DrawCircle(float64(4+4*i), float64(h)-4, 1.5)
	}
	dc.Fill()
	return dc.Image(), nil
}

// decorate adds orientation-relative marks through the graphics context:
// a tick along the top virtual edge and a caption.
func decorate(c *gfx.Context) error {
	w, h := c.VirtualSize()
	if err := c.DrawPixel(0, 0, ssd1306.Inverse); err != nil {
		return errors.Wrap(err, "marking origin")
	}
	// Some orientations map virtual lines to diagonals; the tick is then
	// left out.
	if err := c.DrawLine(1, 0, w/4, 0, ssd1306.Inverse); err != nil && !errors.Is(err, ssd1306.ErrInvalidArgument) {
		return errors.Wrap(err, "drawing tick")
	}
	c.SetCursor(2, h-2)
	c.SetTextWrap(false)
	if err := c.Print(&tinyfont.Picopixel, c.Orientation().String()); err != nil {
		return errors.Wrap(err, "printing caption")
	}
	return c.Display()
}
