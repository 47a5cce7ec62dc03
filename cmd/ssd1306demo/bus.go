// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"go.uber.org/zap"
)

// dryRunBus logs every transaction and always succeeds.
type dryRunBus struct {
	log    *zap.Logger
	writes int
	bytes  int
}

func (d *dryRunBus) String() string {
	return "dry-run"
}

func (d *dryRunBus) Probe() error {
	d.log.Debug("probe")
	return nil
}

func (d *dryRunBus) WriteRegister(reg byte, data []byte) error {
	d.writes++
	d.bytes += 1 + len(data)
	d.log.Debug("write", zap.Uint8("control", reg), zap.Int("len", len(data)), zap.Binary("data", head(data, 16)))
	return nil
}

func (d *dryRunBus) CreateMutex() error {
	return nil
}

func (d *dryRunBus) DeleteMutex() error {
	return nil
}

func (d *dryRunBus) Close() error {
	d.log.Info("closed", zap.Int("writes", d.writes), zap.Int("bytes", d.bytes))
	return nil
}

func head(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
