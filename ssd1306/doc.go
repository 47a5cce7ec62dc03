// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1306 controls a monochrome OLED display driven by a SSD1306
// controller over I²C: 128x64, 128x32 and 96x16 panels.
//
// The driver keeps a Framebuffer mirroring the controller GDDRAM. Pixels and
// axis-aligned lines are drawn into it, then Flush sends the smallest
// rectangle that changed since the previous flush. This is especially
// important when using I²C as the bus default speed (often 100kHz) is slow
// enough to saturate the bus at less than 10 frames per second.
//
// Every bus transaction starts with a control byte selecting command or data,
// single byte or stream. The bus device must serialize transactions; see
// package i2cdev.
//
// Orientation-aware drawing lives in package gfx.
//
// # Datasheets
//
// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
//
// http://www.solomon-systech.com/en/product/display-ic/oled-driver-controller/ssd1306/
package ssd1306
