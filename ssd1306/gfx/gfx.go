// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gfx

import (
	"fmt"
	"image"
	"image/color"

	"periph.io/x/devices/v3/ssd1306/image1bit"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"

	"github.com/GermanBionicSystems/oled/ssd1306"
)

// Context draws on a display in virtual coordinates.
//
// It performs no locking. Two Contexts must not draw on the same Dev
// concurrently.
type Context struct {
	d *ssd1306.Dev

	orientation Orientation
	vw, vh      int

	// Cursor may be out of bounds until used.
	cursorX, cursorY int
	textColor        uint16
	textBackground   uint16
	textSize         uint8
	wrap             bool
}

// New returns a Context drawing on d in Landscape orientation.
func New(d *ssd1306.Dev) *Context {
	c := &Context{
		d:              d,
		textColor:      0xFFFF,
		textBackground: 0xFFFF,
		textSize:       1,
		wrap:           true,
	}
	c.SetOrientation(Landscape)
	return c
}

// Release detaches the Context from its display and resets every field. The
// display itself is left open.
func (c *Context) Release() {
	*c = Context{}
}

func (c *Context) String() string {
	return fmt.Sprintf("gfx.Context{%v, %s, %dx%d}", c.d, c.orientation, c.vw, c.vh)
}

// Bounds returns the virtual extents. Min is guaranteed to be {0, 0}.
func (c *Context) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.vw, c.vh)
}

// DrawPixel changes the pixel at virtual coordinates (x, y).
func (c *Context) DrawPixel(x, y int, col ssd1306.Color) error {
	if err := col.Valid(); err != nil {
		return err
	}
	fb, err := c.framebuffer()
	if err != nil {
		return err
	}
	x, y, _, _, err = c.validateAndTransform(x, y, x, y)
	if err != nil {
		return err
	}
	return fb.Apply(x, y, col)
}

// DrawLine draws the segment between two virtual points, ends included.
//
// Once transformed, the segment must be vertical or horizontal on the
// physical display; decompose other segments with DrawPixel.
func (c *Context) DrawLine(x0, y0, x1, y1 int, col ssd1306.Color) error {
	if err := col.Valid(); err != nil {
		return err
	}
	fb, err := c.framebuffer()
	if err != nil {
		return err
	}
	px0, py0, px1, py1, err := c.validateAndTransform(x0, y0, x1, y1)
	if err != nil {
		return err
	}
	switch {
	case px0 == px1:
		return fb.VLine(px0, py0, py1, col)
	case py0 == py1:
		return fb.HLine(px0, px1, py0, col)
	default:
		return fmt.Errorf("gfx: (%d, %d)-(%d, %d) is not axis-aligned in %s: %w", x0, y0, x1, y1, c.orientation, ssd1306.ErrInvalidArgument)
	}
}

// Flush sends the changes to the display.
func (c *Context) Flush() error {
	if c.d == nil {
		return errReleased
	}
	return c.d.Flush()
}

// SetCursor sets the text cursor in virtual coordinates. It is not validated.
func (c *Context) SetCursor(x, y int) {
	c.cursorX = x
	c.cursorY = y
}

// Cursor returns the text cursor.
func (c *Context) Cursor() (x, y int) {
	return c.cursorX, c.cursorY
}

// SetTextSize sets the text magnification; 0 is raised to 1.
func (c *Context) SetTextSize(size uint8) {
	if size == 0 {
		size = 1
	}
	c.textSize = size
}

// TextSize returns the text magnification.
func (c *Context) TextSize() uint8 {
	return c.textSize
}

// SetTextColor sets both the text color and its background, which makes the
// background transparent.
func (c *Context) SetTextColor(col uint16) {
	c.textColor = col
	c.textBackground = col
}

// SetTextBackground sets the text background color.
func (c *Context) SetTextBackground(col uint16) {
	c.textBackground = col
}

// TextColor returns the text and background colors.
func (c *Context) TextColor() (fg, bg uint16) {
	return c.textColor, c.textBackground
}

// TextRGBA returns the text color as seen by a monochrome panel.
func (c *Context) TextRGBA() color.RGBA {
	if c.textColor == 0 {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
}

// SetTextWrap enables wrapping text at the right edge.
func (c *Context) SetTextWrap(wrap bool) {
	c.wrap = wrap
}

// TextWrap reports whether text wraps at the right edge.
func (c *Context) TextWrap() bool {
	return c.wrap
}

// Print writes s with font at the cursor, in the text color, and advances the
// cursor. The cursor is on the baseline. Glyphs are magnified by the text
// size. A newline, or a glyph crossing the right edge when wrapping is
// enabled, moves the cursor to the start of the next line. The background is
// left untouched.
func (c *Context) Print(font tinyfont.Fonter, s string) error {
	if _, err := c.framebuffer(); err != nil {
		return err
	}
	n := int(c.textSize)
	if n == 0 {
		n = 1
	}
	lineHeight := int(font.GetYAdvance()) * n
	col := c.TextRGBA()
	for _, r := range s {
		switch r {
		case '\n':
			c.cursorX = 0
			c.cursorY += lineHeight
			continue
		case '\r':
			continue
		}
		_, outbox := tinyfont.LineWidth(font, string(r))
		adv := int(outbox) * n
		if c.wrap && c.cursorX > 0 && c.cursorX+adv > c.vw {
			c.cursorX = 0
			c.cursorY += lineHeight
		}
		m := &magnifier{c: c, ox: int16(c.cursorX), oy: int16(c.cursorY), n: int16(n)}
		tinyfont.DrawChar(m, font, m.ox, m.oy, r, col)
		c.cursorX += adv
	}
	return nil
}

// magnifier scales what is drawn around an origin.
type magnifier struct {
	c      *Context
	ox, oy int16
	n      int16
}

func (m *magnifier) Size() (x, y int16) {
	return m.c.Size()
}

func (m *magnifier) SetPixel(x, y int16, col color.RGBA) {
	x = m.ox + (x-m.ox)*m.n
	y = m.oy + (y-m.oy)*m.n
	for dy := int16(0); dy < m.n; dy++ {
		for dx := int16(0); dx < m.n; dx++ {
			m.c.SetPixel(x+dx, y+dy, col)
		}
	}
}

func (m *magnifier) Display() error {
	return m.c.Display()
}

// Size implements drivers.Displayer. It returns the virtual extents.
func (c *Context) Size() (x, y int16) {
	return int16(c.vw), int16(c.vh)
}

// SetPixel implements drivers.Displayer. Pixels that cannot be drawn are
// dropped.
func (c *Context) SetPixel(x, y int16, col color.RGBA) {
	v := ssd1306.Black
	if image1bit.BitModel.Convert(col).(image1bit.Bit) {
		v = ssd1306.White
	}
	_ = c.DrawPixel(int(x), int(y), v)
}

// Display implements drivers.Displayer.
func (c *Context) Display() error {
	return c.Flush()
}

var errReleased = fmt.Errorf("gfx: context released: %w", ssd1306.ErrInvalidArgument)

func (c *Context) framebuffer() (*ssd1306.Framebuffer, error) {
	if c.d == nil {
		return nil, errReleased
	}
	fb := c.d.Framebuffer()
	if fb == nil {
		return nil, fmt.Errorf("gfx: display closed: %w", ssd1306.ErrInvalidArgument)
	}
	return fb, nil
}

var _ drivers.Displayer = &Context{}
