// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package webview

import (
	"mime"
	"net/http"
	"net/textproto"

	"go.uber.org/zap"
)

type client struct {
	refresh   chan struct{}
	terminate chan struct{}
}

// ServeHTTP streams the panel content to a GET request, one image per Draw.
// "?format=png" and "?format=jpeg" override the default format.
func (d *Dev) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	f := d.format
	if v := r.URL.Query().Get("format"); v != "" {
		var err error
		if f, err = ParseFormat(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	mt, _ := f.mimeType()

	pw := newPartWriter(w)
	w.Header().Set("Content-Type", mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{
		"boundary": pw.boundary,
	}))

	c := &client{
		refresh:   make(chan struct{}, 1),
		terminate: make(chan struct{}, 1),
	}
	d.mu.Lock()
	d.clients[c] = struct{}{}
	d.mu.Unlock()
	log := d.log.With(zap.String("remote", r.RemoteAddr), zap.Stringer("format", f))
	log.Debug("client connected")
	defer func() {
		d.mu.Lock()
		delete(d.clients, c)
		d.mu.Unlock()
		log.Debug("client gone")
	}()

	header := textproto.MIMEHeader{}
	header.Set("Content-Type", mt)
	header.Set("Content-Transfer-Encoding", "binary")
	for {
		payload, err := d.snapshot(f)
		if err != nil {
			// There is no way to report an error within an image stream.
			log.Error("encoding frame", zap.Error(err))
			return
		}
		err = pw.writeFrame(header, payload)
		releaseBuffer(payload)
		if err != nil {
			log.Debug("writing frame", zap.Error(err))
			return
		}
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
		select {
		case <-c.refresh:
		case <-c.terminate:
			return
		case <-r.Context().Done():
			return
		}
	}
}
