// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gfx draws on a ssd1306 display in orientation-relative (virtual)
// coordinates.
//
// A Context wraps an initialized *ssd1306.Dev without owning it. Coordinates
// are validated against the virtual extents of the current orientation, then
// transformed to physical coordinates before the framebuffer is touched.
//
// The Context also keeps the text state (cursor, colors, size, wrap) and
// implements tinygo.org/x/drivers.Displayer, so tinygo.org/x/tinyfont can
// render text on it.
package gfx
