// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oled is a container for the SSD1306 OLED driver and its tooling.
//
// The driver lives in ssd1306, orientation-aware drawing in ssd1306/gfx.
// termview, webview and snapshot preview frames without the panel.
package oled
