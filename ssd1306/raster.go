// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

// VLine draws the vertical segment from (x, y0) to (x, y1) inclusive.
//
// The walk goes one page at a time. The first and last bytes only get the
// bits covered by the segment, bytes in between are entirely overwritten (or
// complemented for Inverse).
func (f *Framebuffer) VLine(x, y0, y1 int, c Color) error {
	if err := c.Valid(); err != nil {
		return err
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	start, _, err := f.addr(x, y0)
	if err != nil {
		return err
	}
	end, _, err := f.addr(x, y1)
	if err != nil {
		return err
	}
	for i := start; i <= end; i += f.w {
		var mask byte
		switch i {
		case start:
			// The segment can be short enough to fit this byte entirely.
			lbit := y0 % f.rowsPerPage
			ubit := lbit + y1 - y0
			if ubit >= f.rowsPerPage {
				ubit = f.rowsPerPage - 1
			}
			mask = byte((1<<uint(ubit-lbit+1) - 1) << uint(lbit))
		case end:
			// Top is always bit 0.
			mask = byte(1<<uint(y1%f.rowsPerPage+1) - 1)
		default:
			mask = f.fullMask()
		}
		f.buf[i] = c.apply(f.buf[i], mask)
	}
	return nil
}

// HLine draws the horizontal segment from (x0, y) to (x1, y) inclusive.
//
// Consecutive bytes of a page are consecutive columns, so the same bit is
// changed in every byte of the run.
func (f *Framebuffer) HLine(x0, x1, y int, c Color) error {
	if err := c.Valid(); err != nil {
		return err
	}
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	start, mask, err := f.addr(x0, y)
	if err != nil {
		return err
	}
	if _, _, err := f.addr(x1, y); err != nil {
		return err
	}
	for i := start; i <= start+x1-x0; i++ {
		f.buf[i] = c.apply(f.buf[i], mask)
	}
	return nil
}
