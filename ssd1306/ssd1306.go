// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
//
// https://learn.adafruit.com/ssd1306-oled-displays-with-raspberry-pi-and-beaglebone-black?view=all

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/GermanBionicSystems/oled/i2cdev"
)

const (
	_ACTIVATE_SCROLL     = 0x2F
	_CHARGEPUMP          = 0x8D
	_COLUMNADDR          = 0x21
	_COMSCANDEC          = 0xC8
	_DEACTIVATE_SCROLL   = 0x2E
	_DISPLAYALLON_RESUME = 0xA4
	_DISPLAYOFF          = 0xAE
	_DISPLAYON           = 0xAF
	_INVERTDISPLAY       = 0xA7
	_MEMORYMODE          = 0x20
	_NORMALDISPLAY       = 0xA6
	_PAGEADDR            = 0x22
	_SEGREMAP            = 0xA0
	_SETCONTRAST         = 0x81
	_SETDISPLAYCLOCKDIV  = 0xD5
	_SETDISPLAYOFFSET    = 0xD3
	_SETMULTIPLEX        = 0xA8
	_SETPRECHARGE        = 0xD9
	_SETSTARTLINE        = 0x40
	_SETVCOMDETECT       = 0xDB
)

var (
	// ErrInvalidArgument is returned for out of range coordinates, unknown
	// colors or dimensions, malformed scroll ranges and operations on a closed
	// display.
	ErrInvalidArgument = errors.New("ssd1306: invalid argument")
	// ErrInitialization is returned when the initialization sequence fails.
	// The error also wraps the underlying cause.
	ErrInitialization = errors.New("ssd1306: initialization failed")
)

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Dimension: W128xH64,
	Invert:    false,
	Power:     SwitchCapVCC,
}

// Opts defines the options for the device.
type Opts struct {
	Dimension Dimension
	// Invert lights the pixels that are off in GDDRAM.
	Invert bool
	Power  PowerMode
	// The I²C address of the display. When 0, DefaultAddr is used.
	Addr uint16
	// Logger receives initialization progress. Defaults to zap.NewNop().
	Logger *zap.Logger
}

type state int

const (
	stateUninitialized state = iota
	stateInitSequenceSent
	stateReady
	stateFailed
)

// NewI2C returns a Dev object that communicates over I²C to a SSD1306 display
// controller.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	_, h, _, err := o.Dimension.Size()
	if err != nil {
		return nil, err
	}
	if o.Addr == 0 {
		o.Addr = DefaultAddr(h)
	}
	return New(i2cdev.New(b, o.Addr), &o)
}

// New initializes the display controller behind b.
//
// On failure, every resource acquired so far is released, b included, before
// the error is returned.
func New(b Bus, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	w, h, pages, err := o.Dimension.Size()
	if err != nil {
		return nil, err
	}
	fb, err := NewFramebuffer(w, h, pages)
	if err != nil {
		return nil, err
	}
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dev{
		bus:    b,
		c:      codec{bus: b},
		dim:    o.Dimension,
		power:  o.Power,
		invert: o.Invert,
		fb:     fb,
		sent:   make([]byte, pages*w),
		log:    log.With(zap.Stringer("dimension", o.Dimension)),
	}
	d.log.Info("initializing display", zap.String("bus", fmt.Sprint(b)), zap.Bool("invert", o.Invert))
	if err := d.init(); err != nil {
		d.state = stateFailed
		d.log.Error("initialization failed", zap.Error(err))
		if cerr := d.Close(); cerr != nil {
			d.log.Warn("releasing resources", zap.Error(cerr))
		}
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	return d, nil
}

// Dev is an open handle to the display controller.
type Dev struct {
	bus Bus
	c   codec

	dim    Dimension
	power  PowerMode
	invert bool
	state  state

	fb *Framebuffer
	// sent is the content of GDDRAM as of the last successful flush.
	sent []byte
	// scrolled is set when GDDRAM content moved since the last redraw.
	// scrolling is set while the controller scroll is active.
	scrolled, scrolling bool

	// Start of the controller addressing window, in pages and columns.
	row, column int

	log *zap.Logger
}

func (d *Dev) String() string {
	return fmt.Sprintf("ssd1306.Dev{%v, %s}", d.bus, d.dim)
}

// ColorModel implements display.Drawer.
//
// It is a one bit color model, as implemented by image1bit.Bit.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	w, h, _, _ := d.dim.Size()
	return image.Rect(0, 0, w, h)
}

// Framebuffer returns the in-memory copy of the display, nil once closed.
//
// Changes are sent to the controller by Flush.
func (d *Dev) Framebuffer() *Framebuffer {
	return d.fb
}

// Cursor returns the page and column where the controller RAM pointer was
// last placed by SetCursor, Clear or Flush. WriteData advances the pointer
// without updating it.
func (d *Dev) Cursor() (row, column int) {
	return d.row, d.column
}

// Draw implements display.Drawer.
//
// It draws synchronously, once this function returns, the display is updated.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if err := d.ready(); err != nil {
		return err
	}
	if img, ok := src.(*image1bit.VerticalLSB); ok && r == d.fb.Bounds() && img.Rect == r && sp.X == 0 && sp.Y == 0 && img.Stride == d.fb.w && d.fb.rowsPerPage == 8 {
		// Exact size, full frame, image1bit encoding: fast path!
		copy(d.fb.visible(), img.Pix)
	} else {
		draw.Src.Draw(d.fb, r, src, sp)
	}
	return d.Flush()
}

// Write writes a buffer of pixels to the display.
//
// The format is unusual as each byte represent 8 vertical pixels at a time. The
// format is horizontal bands of 8 pixels high.
//
// This function accepts the content of image1bit.VerticalLSB.Pix.
func (d *Dev) Write(pixels []byte) (int, error) {
	if err := d.ready(); err != nil {
		return 0, err
	}
	if n := len(d.fb.visible()); len(pixels) != n {
		return 0, fmt.Errorf("ssd1306: invalid pixel stream length; expected %d bytes, got %d bytes: %w", n, len(pixels), ErrInvalidArgument)
	}
	copy(d.fb.visible(), pixels)
	if err := d.Flush(); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// SetPixel changes one pixel of the framebuffer. Call Flush to update the
// display.
func (d *Dev) SetPixel(x, y int, c Color) error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.fb.Apply(x, y, c)
}

// Flush sends the framebuffer content that changed since the last successful
// flush.
//
// Only the smallest rectangle of pages and columns covering the changes is
// sent. If the transfer fails, the display may be out of sync with the
// framebuffer until the next successful Flush.
func (d *Dev) Flush() error {
	if err := d.ready(); err != nil {
		return err
	}
	next := d.fb.visible()
	startPage, endPage, startCol, endCol, skip := d.calculateSubset(next)
	if skip {
		return nil
	}
	w := d.fb.w
	data := make([]byte, 0, (endPage-startPage)*(endCol-startCol))
	for page := startPage; page < endPage; page++ {
		data = append(data, next[page*w+startCol:page*w+endCol]...)
	}
	s := sequence{c: d.c}
	d.stopScrolling(&s)
	s.commands(
		_COLUMNADDR, byte(startCol), byte(endCol-1),
		_PAGEADDR, byte(startPage), byte(endPage-1),
	)
	s.dataBuffer(data)
	if s.err != nil {
		return s.err
	}
	copy(d.sent, next)
	d.scrolled = false
	// The pointer wraps back to the window start once the window is filled.
	d.row, d.column = startPage, startCol
	return nil
}

// Clear turns off every pixel, in the framebuffer and on the display.
//
// The addressing window is reset to the whole display before and after the
// data transfer so the controller cursor ends up back at the origin.
func (d *Dev) Clear() error {
	if err := d.ready(); err != nil {
		return err
	}
	d.fb.Reset()
	w, pages := d.fb.w, d.fb.pages
	s := sequence{c: d.c}
	d.stopScrolling(&s)
	s.commands(_COLUMNADDR, 0, byte(w-1))
	s.commands(_PAGEADDR, 0, byte(pages-1))
	s.dataBuffer(d.fb.visible())
	s.commands(_COLUMNADDR, 0, byte(w-1))
	s.commands(_PAGEADDR, 0, byte(pages-1))
	if s.err != nil {
		return s.err
	}
	clear(d.sent)
	d.scrolled = false
	d.row, d.column = 0, 0
	return nil
}

// SetCursor moves the controller RAM pointer to the page and column. The
// window extends to the bottom right corner of the display.
func (d *Dev) SetCursor(page, column int) error {
	if err := d.ready(); err != nil {
		return err
	}
	w, pages := d.fb.w, d.fb.pages
	if page < 0 || page >= pages || column < 0 || column >= w {
		return fmt.Errorf("ssd1306: cursor (%d, %d) outside %d pages x %d columns: %w", page, column, pages, w, ErrInvalidArgument)
	}
	if err := d.c.writeCommands(_COLUMNADDR, byte(column), byte(w-1), _PAGEADDR, byte(page), byte(pages-1)); err != nil {
		return err
	}
	d.row = page
	d.column = column
	return nil
}

// WriteData writes raw GDDRAM bytes at the controller cursor, bypassing the
// framebuffer.
func (d *Dev) WriteData(b ...byte) error {
	if err := d.ready(); err != nil {
		return err
	}
	switch len(b) {
	case 0:
		return nil
	case 1:
		return d.c.writeData(b[0])
	default:
		return d.c.writeDataBuffer(b)
	}
}

// Scroll scrolls the band of pages from start to end inclusive.
//
// start is raised to 0 and end is lowered to the last page, then start must
// not be greater than end.
//
// Only one scrolling operation can happen at a time. The next Flush or Clear
// stops it and redraws the whole display.
func (d *Dev) Scroll(start, end int, dir ScrollDirection, speed ScrollSpeed) error {
	if err := d.ready(); err != nil {
		return err
	}
	if start < 0 {
		start = 0
	}
	if end >= d.fb.pages {
		end = d.fb.pages - 1
	}
	if start > end {
		return fmt.Errorf("ssd1306: scroll start page %d after end page %d: %w", start, end, ErrInvalidArgument)
	}
	if speed > 7 {
		return fmt.Errorf("ssd1306: invalid scroll speed %d: %w", speed, ErrInvalidArgument)
	}
	var cmd []byte
	switch dir {
	case ScrollRight, ScrollLeft:
		// page 28
		// <op>, dummy, <start page>, <rate>,  <end page>, <dummy>, <dummy>, <ENABLE>
		cmd = []byte{byte(dir), 0x00, byte(start), byte(speed), byte(end), 0x00, 0xFF, _ACTIVATE_SCROLL}
	case ScrollUpRight, ScrollUpLeft:
		// page 29
		// <op>, dummy, <start page>, <rate>,  <end page>, <offset>, <ENABLE>
		cmd = []byte{byte(dir), 0x00, byte(start), byte(speed), byte(end), 0x01, _ACTIVATE_SCROLL}
	default:
		return fmt.Errorf("ssd1306: invalid scroll direction 0x%02x: %w", byte(dir), ErrInvalidArgument)
	}
	if err := d.c.writeCommands(cmd...); err != nil {
		return err
	}
	d.scrolled = true
	d.scrolling = true
	return nil
}

// StopScroll stops any scrolling previously set.
//
// The GDDRAM content is left as scrolled; Flush redraws it.
func (d *Dev) StopScroll() error {
	if err := d.ready(); err != nil {
		return err
	}
	if err := d.c.writeCommand(_DEACTIVATE_SCROLL); err != nil {
		return err
	}
	d.scrolling = false
	return nil
}

// stopScrolling deactivates a running scroll as the first step of s. GDDRAM
// must not be written while the controller scrolls.
func (d *Dev) stopScrolling(s *sequence) {
	if !d.scrolling {
		return
	}
	s.run(single(_DEACTIVATE_SCROLL))
	if s.err == nil {
		d.scrolling = false
	}
}

// SetContrast changes the screen contrast register.
func (d *Dev) SetContrast(level byte) error {
	if err := d.ready(); err != nil {
		return err
	}
	if err := d.c.writeCommand(_SETCONTRAST); err != nil {
		return err
	}
	return d.c.writeCommand(level)
}

// SetBrightness maps percent, between 0 and 100, linearly to the contrast
// register.
func (d *Dev) SetBrightness(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("ssd1306: brightness %d%% out of range: %w", percent, ErrInvalidArgument)
	}
	return d.SetContrast(byte(percent * 255 / 100))
}

// SetStartLine causes the display to start from line, effectively scrolling
// the screen to that position.
//
// line must be between 0 and 63.
func (d *Dev) SetStartLine(line int) error {
	if err := d.ready(); err != nil {
		return err
	}
	if line < 0 || line > 63 {
		return fmt.Errorf("ssd1306: invalid start line %d: %w", line, ErrInvalidArgument)
	}
	return d.c.writeCommand(_SETSTARTLINE | byte(line))
}

// ScreenOn turns the display on.
func (d *Dev) ScreenOn() error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.c.writeCommand(_DISPLAYON)
}

// ScreenOff turns the display off. GDDRAM content is preserved.
func (d *Dev) ScreenOff() error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.c.writeCommand(_DISPLAYOFF)
}

// Halt implements conn.Resource. It turns off the display.
func (d *Dev) Halt() error {
	return d.ScreenOff()
}

// SetInverse inverts the display (black on white vs white on black).
func (d *Dev) SetInverse(invert bool) error {
	if err := d.ready(); err != nil {
		return err
	}
	b := byte(_NORMALDISPLAY)
	if invert {
		b = _INVERTDISPLAY
	}
	if err := d.c.writeCommand(b); err != nil {
		return err
	}
	d.invert = invert
	return nil
}

// Close frees the framebuffer and releases the bus device.
//
// Closing twice is a no-op.
func (d *Dev) Close() error {
	if d.fb == nil {
		return nil
	}
	d.fb = nil
	d.sent = nil
	d.state = stateUninitialized
	return multierr.Combine(d.bus.DeleteMutex(), d.bus.Close())
}

func (d *Dev) ready() error {
	switch d.state {
	case stateInitSequenceSent, stateReady:
		return nil
	}
	return fmt.Errorf("ssd1306: display not initialized: %w", ErrInvalidArgument)
}

// init brings the controller from reset to displaying a cleared screen.
func (d *Dev) init() error {
	if err := d.bus.Probe(); err != nil {
		return err
	}
	if err := d.bus.CreateMutex(); err != nil {
		return err
	}
	_, h, _, _ := d.dim.Size()
	s := sequence{c: d.c}
	s.run(getInitCmd(d.dim, h, d.power, d.invert)...)
	if s.err != nil {
		return s.err
	}
	d.state = stateInitSequenceSent
	d.log.Debug("init sequence sent")
	if err := d.Clear(); err != nil {
		return err
	}
	d.state = stateReady
	d.log.Debug("display ready")
	return nil
}

// getInitCmd returns the initialization flow. The order follows the
// controller state machine; page 64 of the datasheet has the recommended
// flow, page 28 lists all the commands.
func getInitCmd(dim Dimension, h int, power PowerMode, invert bool) []command {
	displayMode := byte(_NORMALDISPLAY)
	if invert {
		displayMode = _INVERTDISPLAY
	}
	return []command{
		stream(
			_DISPLAYOFF,
			_SETDISPLAYCLOCKDIV, 0x80, // Suggested ratio.
			_SETMULTIPLEX, byte(h-1), // Number of lines to display.
		),
		stream(
			_SETDISPLAYOFFSET, 0x00,
			_SETSTARTLINE|0x00,
			_CHARGEPUMP,
		),
		single(power.chargePump()),
		stream(
			_MEMORYMODE, 0x00, // Horizontal addressing.
			_SEGREMAP|0x01, // Column 127 is SEG0.
			_COMSCANDEC,
		),
		stream(
			_SETCONTRAST, dim.contrast(power),
			_SETPRECHARGE, power.precharge(),
		),
		stream(
			_SETVCOMDETECT, 0x40,
			_DISPLAYALLON_RESUME, // Use GDDRAM content.
			displayMode,
			_DEACTIVATE_SCROLL,
			_DISPLAYON,
		),
	}
}

func (d *Dev) calculateSubset(next []byte) (int, int, int, int, bool) {
	pageSize := d.fb.w
	startPage := 0
	endPage := d.fb.pages
	startCol := 0
	endCol := pageSize
	if d.scrolled {
		// Scrolling moved GDDRAM content, this requires a full screen redraw.
		return startPage, endPage, startCol, endCol, false
	}
	// Calculate the smallest square that need to be sent.

	// Top.
	for ; startPage < endPage; startPage++ {
		x := pageSize * startPage
		y := pageSize * (startPage + 1)
		if !bytes.Equal(d.sent[x:y], next[x:y]) {
			break
		}
	}
	// Bottom.
	for ; endPage > startPage; endPage-- {
		x := pageSize * (endPage - 1)
		y := pageSize * endPage
		if !bytes.Equal(d.sent[x:y], next[x:y]) {
			break
		}
	}
	if startPage == endPage {
		// Early exit, the image is exactly the same.
		return 0, 0, 0, 0, true
	}

	// Left.
	for ; startCol < endCol; startCol++ {
		for i := startPage; i < endPage; i++ {
			x := i*pageSize + startCol
			if d.sent[x] != next[x] {
				goto breakLeft
			}
		}
	}
breakLeft:

	// Right.
	for ; endCol > startCol; endCol-- {
		for i := startPage; i < endPage; i++ {
			x := i*pageSize + endCol - 1
			if d.sent[x] != next[x] {
				goto breakRight
			}
		}
	}
breakRight:
	return startPage, endPage, startCol, endCol, false
}

var _ display.Drawer = &Dev{}
