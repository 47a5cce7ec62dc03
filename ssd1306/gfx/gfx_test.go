// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gfx

import (
	"errors"
	"image/color"
	"math/bits"
	"testing"

	"github.com/google/go-cmp/cmp"
	"tinygo.org/x/tinyfont"

	"github.com/GermanBionicSystems/oled/ssd1306"
)

// nopBus accepts every transaction.
type nopBus struct {
	writes int
}

func (n *nopBus) Probe() error { return nil }
func (n *nopBus) WriteRegister(reg byte, data []byte) error {
	n.writes++
	return nil
}

func (n *nopBus) CreateMutex() error { return nil }
func (n *nopBus) DeleteMutex() error { return nil }
func (n *nopBus) Close() error { return nil }
func (n *nopBus) String() string { return "nop" }

func newTestContext(t *testing.T, o Orientation) (*Context, *ssd1306.Dev) {
	t.Helper()
	d, err := ssd1306.New(&nopBus{}, &ssd1306.Opts{Dimension: ssd1306.W128xH32, Power: ssd1306.SwitchCapVCC})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = d.Close() })
	c := New(d)
	c.SetOrientation(o)
	return c, d
}

func touched(b []byte) map[int]byte {
	m := map[int]byte{}
	for i, v := range b {
		if v != 0 {
			m[i] = v
		}
	}
	return m
}

func TestNewDefaults(t *testing.T) {
	c, d := newTestContext(t, Landscape)
	c = New(d)
	if o := c.Orientation(); o != Landscape {
		t.Errorf("Orientation() = %s, want Landscape", o)
	}
	if w, h := c.VirtualSize(); w != 128 || h != 32 {
		t.Errorf("VirtualSize() = %dx%d, want 128x32", w, h)
	}
	if x, y := c.Cursor(); x != 0 || y != 0 {
		t.Errorf("Cursor() = (%d, %d)", x, y)
	}
	if s := c.TextSize(); s != 1 {
		t.Errorf("TextSize() = %d, want 1", s)
	}
	if fg, bg := c.TextColor(); fg != 0xFFFF || bg != 0xFFFF {
		t.Errorf("TextColor() = %#x, %#x", fg, bg)
	}
	if !c.TextWrap() {
		t.Error("TextWrap() = false")
	}
	if s := c.String(); s != "gfx.Context{ssd1306.Dev{nop, 128x32}, Landscape, 128x32}" {
		t.Errorf("String() = %q", s)
	}
}

func TestSetOrientation(t *testing.T) {
	c, _ := newTestContext(t, Landscape)
	for _, tc := range []struct {
		o    Orientation
		want Orientation
		w, h int
	}{
		{Portrait, Portrait, 32, 128},
		{LandscapeWide, LandscapeWide, 128, 32},
		{PortraitTall, PortraitTall, 32, 128},
		{Landscape, Landscape, 128, 32},
		{6, Portrait, 32, 128},
		{7, PortraitTall, 32, 128},
	} {
		c.SetOrientation(tc.o)
		if o := c.Orientation(); o != tc.want {
			t.Errorf("SetOrientation(%d): Orientation() = %s, want %s", tc.o, o, tc.want)
		}
		if w, h := c.VirtualSize(); w != tc.w || h != tc.h {
			t.Errorf("SetOrientation(%d): VirtualSize() = %dx%d, want %dx%d", tc.o, w, h, tc.w, tc.h)
		}
		if w, h := c.Size(); int(w) != tc.w || int(h) != tc.h {
			t.Errorf("SetOrientation(%d): Size() = %dx%d, want %dx%d", tc.o, w, h, tc.w, tc.h)
		}
	}
}

func TestTransform(t *testing.T) {
	for _, tc := range []struct {
		o            Orientation
		x, y         int
		wantX, wantY int
	}{
		{Landscape, 5, 7, 26, 26},
		{Landscape, 0, 0, 31, 31},
		{LandscapeWide, 5, 7, 122, 24},
		{LandscapeWide, 0, 0, 127, 31},
		{Portrait, 5, 7, 7, 24},
		{Portrait, 0, 0, 0, 31},
		{PortraitTall, 5, 7, 5, 7},
	} {
		c, _ := newTestContext(t, tc.o)
		if x, y := c.Transform(tc.x, tc.y); x != tc.wantX || y != tc.wantY {
			t.Errorf("%s Transform(%d, %d) = (%d, %d), want (%d, %d)", tc.o, tc.x, tc.y, x, y, tc.wantX, tc.wantY)
		}
	}
}

func TestTransformLandscapeWideInvolution(t *testing.T) {
	c, _ := newTestContext(t, LandscapeWide)
	for x := 0; x < 128; x++ {
		for y := 0; y < 32; y++ {
			px, py := c.Transform(x, y)
			if gx, gy := c.Transform(px, py); gx != x || gy != y {
				t.Fatalf("Transform(Transform(%d, %d)) = (%d, %d)", x, y, gx, gy)
			}
		}
	}
}

func TestDrawLine(t *testing.T) {
	for _, tc := range []struct {
		name           string
		o              Orientation
		x0, y0, x1, y1 int
		want           map[int]byte
	}{
		{
			name: "portrait tall vertical",
			o:    PortraitTall,
			x0:   5, y0: 0, x1: 5, y1: 15,
			want: map[int]byte{5: 0xff, 133: 0xff},
		},
		{
			name: "portrait tall horizontal",
			o:    PortraitTall,
			x0:   0, y0: 0, x1: 9, y1: 0,
			want: map[int]byte{0: 1, 1: 1, 2: 1, 3: 1, 4: 1, 5: 1, 6: 1, 7: 1, 8: 1, 9: 1},
		},
		{
			name: "landscape wide horizontal",
			o:    LandscapeWide,
			x0:   0, y0: 0, x1: 9, y1: 0,
			want: map[int]byte{
				502: 0x80, 503: 0x80, 504: 0x80, 505: 0x80, 506: 0x80,
				507: 0x80, 508: 0x80, 509: 0x80, 510: 0x80, 511: 0x80,
			},
		},
		{
			name: "landscape wide vertical",
			o:    LandscapeWide,
			x0:   0, y0: 0, x1: 0, y1: 7,
			want: map[int]byte{511: 0xff},
		},
		{
			name: "landscape vertical collapses",
			o:    Landscape,
			x0:   3, y0: 0, x1: 3, y1: 10,
			want: map[int]byte{412: 0x10},
		},
		{
			name: "portrait horizontal collapses",
			o:    Portrait,
			x0:   0, y0: 5, x1: 3, y1: 5,
			want: map[int]byte{389: 0x04},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, d := newTestContext(t, tc.o)
			if err := c.DrawLine(tc.x0, tc.y0, tc.x1, tc.y1, ssd1306.White); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(touched(d.Framebuffer().Bytes()), tc.want); diff != "" {
				t.Errorf("DrawLine() difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestDrawLineInvalid(t *testing.T) {
	for _, tc := range []struct {
		name           string
		o              Orientation
		x0, y0, x1, y1 int
		c              ssd1306.Color
	}{
		{"landscape horizontal is diagonal", Landscape, 0, 0, 9, 0, ssd1306.White},
		{"portrait vertical is diagonal", Portrait, 2, 0, 2, 3, ssd1306.White},
		{"diagonal", PortraitTall, 0, 0, 5, 5, ssd1306.White},
		{"x outside", Landscape, 0, 0, 128, 0, ssd1306.White},
		{"y outside", LandscapeWide, 0, 0, 0, 32, ssd1306.White},
		{"portrait x outside", Portrait, 32, 0, 32, 3, ssd1306.White},
		{"portrait y outside", PortraitTall, 0, 0, 0, 128, ssd1306.White},
		{"negative", PortraitTall, -1, 0, -1, 3, ssd1306.Black},
		{"color", PortraitTall, 0, 0, 0, 3, 0},
		{"color out of range", PortraitTall, 0, 0, 0, 3, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, d := newTestContext(t, tc.o)
			if err := c.DrawLine(tc.x0, tc.y0, tc.x1, tc.y1, tc.c); !errors.Is(err, ssd1306.ErrInvalidArgument) {
				t.Fatalf("DrawLine() = %v, want ErrInvalidArgument", err)
			}
			if n := len(touched(d.Framebuffer().Bytes())); n != 0 {
				t.Errorf("%d bytes modified", n)
			}
		})
	}
}

func TestDrawPixel(t *testing.T) {
	c, d := newTestContext(t, LandscapeWide)
	if err := c.DrawPixel(0, 0, ssd1306.White); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(touched(d.Framebuffer().Bytes()), map[int]byte{511: 0x80}); diff != "" {
		t.Errorf("DrawPixel() difference (-got +want):\n%s", diff)
	}
	if err := c.DrawPixel(0, 0, ssd1306.Inverse); err != nil {
		t.Fatal(err)
	}
	if n := len(touched(d.Framebuffer().Bytes())); n != 0 {
		t.Errorf("%d bytes set after inverse", n)
	}

	// Landscape maps x past the physical height out of the panel.
	c.SetOrientation(Landscape)
	if err := c.DrawPixel(40, 0, ssd1306.White); !errors.Is(err, ssd1306.ErrInvalidArgument) {
		t.Errorf("DrawPixel(40, 0) = %v, want ErrInvalidArgument", err)
	}
}

func TestSetPixel(t *testing.T) {
	c, d := newTestContext(t, PortraitTall)
	c.SetPixel(1, 9, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	c.SetPixel(2, 9, color.RGBA{A: 0xff})
	c.SetPixel(-1, 200, color.RGBA{R: 0xff, A: 0xff})
	if diff := cmp.Diff(touched(d.Framebuffer().Bytes()), map[int]byte{129: 0x02}); diff != "" {
		t.Errorf("SetPixel() difference (-got +want):\n%s", diff)
	}
	c.SetPixel(1, 9, color.RGBA{A: 0xff})
	if n := len(touched(d.Framebuffer().Bytes())); n != 0 {
		t.Errorf("%d bytes set after clearing", n)
	}
}

func TestDisplay(t *testing.T) {
	bus := &nopBus{}
	d, err := ssd1306.New(bus, &ssd1306.Opts{Dimension: ssd1306.W96xH16, Power: ssd1306.SwitchCapVCC})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	c := New(d)
	c.SetOrientation(PortraitTall)
	if err := c.DrawLine(0, 0, 0, 15, ssd1306.White); err != nil {
		t.Fatal(err)
	}
	before := bus.writes
	if err := c.Display(); err != nil {
		t.Fatal(err)
	}
	if bus.writes == before {
		t.Error("Display() sent nothing")
	}
	before = bus.writes
	if err := c.Flush(); err != nil {
		t.Fatal(err)
	}
	if bus.writes != before {
		t.Errorf("Flush() without changes sent %d transactions", bus.writes-before)
	}
}

func TestTextState(t *testing.T) {
	c, _ := newTestContext(t, Landscape)
	c.SetCursor(-4, 300)
	if x, y := c.Cursor(); x != -4 || y != 300 {
		t.Errorf("Cursor() = (%d, %d)", x, y)
	}
	c.SetTextSize(0)
	if s := c.TextSize(); s != 1 {
		t.Errorf("SetTextSize(0): TextSize() = %d, want 1", s)
	}
	c.SetTextSize(3)
	if s := c.TextSize(); s != 3 {
		t.Errorf("TextSize() = %d, want 3", s)
	}
	c.SetTextColor(0)
	if fg, bg := c.TextColor(); fg != 0 || bg != 0 {
		t.Errorf("SetTextColor(0): TextColor() = %#x, %#x", fg, bg)
	}
	if got := c.TextRGBA(); got != (color.RGBA{A: 0xff}) {
		t.Errorf("TextRGBA() = %v", got)
	}
	c.SetTextColor(1)
	c.SetTextBackground(0)
	if fg, bg := c.TextColor(); fg != 1 || bg != 0 {
		t.Errorf("TextColor() = %#x, %#x", fg, bg)
	}
	if got := c.TextRGBA(); got != (color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Errorf("TextRGBA() = %v", got)
	}
	c.SetTextWrap(false)
	if c.TextWrap() {
		t.Error("TextWrap() = true")
	}
}

func TestRelease(t *testing.T) {
	c, d := newTestContext(t, Portrait)
	c.SetCursor(3, 4)
	c.Release()
	if w, h := c.VirtualSize(); w != 0 || h != 0 {
		t.Errorf("VirtualSize() = %dx%d after Release", w, h)
	}
	if x, y := c.Cursor(); x != 0 || y != 0 {
		t.Errorf("Cursor() = (%d, %d) after Release", x, y)
	}
	if err := c.DrawLine(0, 0, 0, 0, ssd1306.White); !errors.Is(err, ssd1306.ErrInvalidArgument) {
		t.Errorf("DrawLine() = %v after Release", err)
	}
	if err := c.Flush(); !errors.Is(err, ssd1306.ErrInvalidArgument) {
		t.Errorf("Flush() = %v after Release", err)
	}
	// The display stays usable.
	if err := d.Framebuffer().SetPixel(0, 0); err != nil {
		t.Error(err)
	}
	if err := d.Flush(); err != nil {
		t.Error(err)
	}
}

func TestClosedDisplay(t *testing.T) {
	c, d := newTestContext(t, PortraitTall)
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.DrawPixel(0, 0, ssd1306.White); !errors.Is(err, ssd1306.ErrInvalidArgument) {
		t.Errorf("DrawPixel() = %v on closed display", err)
	}
}

func TestPrint(t *testing.T) {
	c, d := newTestContext(t, PortraitTall)
	font := &tinyfont.Picopixel
	_, outbox := tinyfont.LineWidth(font, "H")
	lineHeight := int(font.GetYAdvance())

	c.SetCursor(0, lineHeight)
	if err := c.Print(font, "H"); err != nil {
		t.Fatal(err)
	}
	if x, y := c.Cursor(); x != int(outbox) || y != lineHeight {
		t.Errorf("Cursor() = (%d, %d), want (%d, %d)", x, y, outbox, lineHeight)
	}
	lit := touched(d.Framebuffer().Bytes())
	if len(lit) == 0 {
		t.Fatal("Print() drew nothing")
	}

	if err := c.Print(font, "\n"); err != nil {
		t.Fatal(err)
	}
	if x, y := c.Cursor(); x != 0 || y != 2*lineHeight {
		t.Errorf("Cursor() = (%d, %d) after newline", x, y)
	}

	// A glyph crossing the right edge starts a new line.
	c.SetCursor(31, lineHeight)
	if err := c.Print(font, "H"); err != nil {
		t.Fatal(err)
	}
	if x, y := c.Cursor(); x != int(outbox) || y != 2*lineHeight {
		t.Errorf("Cursor() = (%d, %d) after wrap", x, y)
	}

	c.SetTextWrap(false)
	c.SetCursor(31, lineHeight)
	if err := c.Print(font, "H"); err != nil {
		t.Fatal(err)
	}
	if x, y := c.Cursor(); x != 31+int(outbox) || y != lineHeight {
		t.Errorf("Cursor() = (%d, %d) without wrap", x, y)
	}
}

func TestPrintMagnified(t *testing.T) {
	font := &tinyfont.Picopixel
	_, outbox := tinyfont.LineWidth(font, "I")

	c1, d1 := newTestContext(t, PortraitTall)
	c1.SetCursor(0, 10)
	if err := c1.Print(font, "I"); err != nil {
		t.Fatal(err)
	}
	c2, d2 := newTestContext(t, PortraitTall)
	c2.SetTextSize(2)
	c2.SetCursor(0, 10)
	if err := c2.Print(font, "I"); err != nil {
		t.Fatal(err)
	}
	if x, _ := c2.Cursor(); x != 2*int(outbox) {
		t.Errorf("Cursor() x = %d, want %d", x, 2*outbox)
	}
	n1 := countPixels(d1.Framebuffer().Bytes())
	n2 := countPixels(d2.Framebuffer().Bytes())
	if n1 == 0 || n2 != 4*n1 {
		t.Errorf("pixels = %d at size 2, want 4 times %d", n2, n1)
	}
}

func TestPrintReleased(t *testing.T) {
	c, _ := newTestContext(t, Landscape)
	c.Release()
	if err := c.Print(&tinyfont.Picopixel, "x"); !errors.Is(err, ssd1306.ErrInvalidArgument) {
		t.Errorf("Print() = %v after Release", err)
	}
}

func countPixels(b []byte) int {
	n := 0
	for _, v := range b {
		n += bits.OnesCount8(v)
	}
	return n
}
