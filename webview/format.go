// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webview

import "fmt"

// Format is the encoding of the images sent to clients.
type Format int

// Supported formats.
const (
	PNG Format = iota
	JPEG
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case JPEG:
		return "jpeg"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

func (f Format) mimeType() (string, error) {
	switch f {
	case PNG:
		return "image/png", nil
	case JPEG:
		return "image/jpeg", nil
	}
	return "", fmt.Errorf("webview: unknown format %s", f)
}

// ParseFormat returns the Format for an abbreviation as used in the "format"
// URL parameter.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	}
	return PNG, fmt.Errorf("webview: unrecognized image format %q", s)
}
