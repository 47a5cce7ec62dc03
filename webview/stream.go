// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webview

import (
	"bytes"
	"fmt"
	"io"
	"net/textproto"
	"strconv"

	"github.com/rs/xid"
)

// newBoundary returns a MIME multipart boundary (RFC 2046 section 5.1.1)
// unique to one stream.
func newBoundary() string {
	return "oled-frame-" + xid.New().String()
}

// partWriter writes a never ending MIME multipart entity, one part per frame.
//
// "mime/multipart".Writer only closes a part when the next one starts, so a
// client would always be one frame late.
type partWriter struct {
	w        io.Writer
	boundary string
	started  bool
	buf      bytes.Buffer
}

func newPartWriter(w io.Writer) *partWriter {
	return &partWriter{w: w, boundary: newBoundary()}
}

// writeFrame sends body as a complete part, closing boundary included.
//
// The caller-owned header gets a Content-Length entry.
func (p *partWriter) writeFrame(header textproto.MIMEHeader, body []byte) error {
	header.Set("Content-Length", strconv.Itoa(len(body)))
	p.buf.Reset()
	if !p.started {
		fmt.Fprintf(&p.buf, "--%s\r\n", p.boundary)
		p.started = true
	}
	for name, values := range header {
		for _, v := range values {
			fmt.Fprintf(&p.buf, "%s: %s\r\n", name, v)
		}
	}
	p.buf.WriteString("\r\n")
	p.buf.Write(body)
	fmt.Fprintf(&p.buf, "\r\n--%s\r\n", p.boundary)
	_, err := p.buf.WriteTo(p.w)
	return err
}
