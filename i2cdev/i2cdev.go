// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cdev

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
)

var (
	// ErrTransport wraps every failure reported by the underlying bus.
	ErrTransport = errors.New("i2cdev: transport failure")
	// ErrClosed is returned by operations on a closed Dev.
	ErrClosed = errors.New("i2cdev: device closed")
)

// Dev is a device at a fixed address on an I²C bus.
//
// It does not own the bus; Close releases the Dev only.
type Dev struct {
	bus  i2c.Bus
	addr uint16

	mu     sync.Mutex // protects the fields below
	lock   *devLock
	closed bool
}

// New returns a Dev for the device at addr on b.
func New(b i2c.Bus, addr uint16) *Dev {
	return &Dev{bus: b, addr: addr}
}

func (d *Dev) String() string {
	return fmt.Sprintf("i2cdev.Dev{%s, 0x%02x}", d.bus, d.addr)
}

// Addr returns the device address on the bus.
func (d *Dev) Addr() uint16 {
	return d.addr
}

// Probe checks that the device acknowledges its address by reading one byte.
func (d *Dev) Probe() error {
	var r [1]byte
	return d.tx(nil, r[:], "probe")
}

// WriteRegister writes reg followed by data in a single bus transaction.
func (d *Dev) WriteRegister(reg byte, data []byte) error {
	w := make([]byte, 0, 1+len(data))
	w = append(w, reg)
	w = append(w, data...)
	return d.tx(w, nil, fmt.Sprintf("write register 0x%02x", reg))
}

// ReadRegister writes reg then reads len(r) bytes in a single bus transaction.
func (d *Dev) ReadRegister(reg byte, r []byte) error {
	return d.tx([]byte{reg}, r, fmt.Sprintf("read register 0x%02x", reg))
}

// CreateMutex attaches d to the mutex guarding its bus address, allocating
// the mutex if no other Dev holds it yet.
//
// Calling it twice is a no-op.
func (d *Dev) CreateMutex() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if d.lock == nil {
		d.lock = acquireLock(d.key())
	}
	return nil
}

// DeleteMutex detaches d from its address mutex. The mutex is freed once no
// Dev references it anymore.
func (d *Dev) DeleteMutex() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lock != nil {
		d.lock.release(d.key())
		d.lock = nil
	}
	return nil
}

// Close releases the mutex if still held and marks d as closed. The bus
// itself is left open.
func (d *Dev) Close() error {
	if err := d.DeleteMutex(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	return nil
}

func (d *Dev) tx(w, r []byte, op string) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	l := d.lock
	if l != nil {
		// The transaction holds its own reference so a concurrent DeleteMutex
		// cannot free the mutex while it is in use.
		l.retain()
	}
	d.mu.Unlock()
	if l != nil {
		defer l.release(d.key())
		l.Lock()
		defer l.Unlock()
	}
	if err := d.bus.Tx(d.addr, w, r); err != nil {
		return fmt.Errorf("%w: %s at 0x%02x: %w", ErrTransport, op, d.addr, err)
	}
	return nil
}

func (d *Dev) key() string {
	return fmt.Sprintf("%s@0x%02x", d.bus, d.addr)
}

// devLock is a mutex shared by every Dev addressing the same device.
type devLock struct {
	sync.Mutex
	refs int
}

var (
	locksMu sync.Mutex
	locks   = map[string]*devLock{}
)

func acquireLock(key string) *devLock {
	locksMu.Lock()
	defer locksMu.Unlock()
	l := locks[key]
	if l == nil {
		l = &devLock{}
		locks[key] = l
	}
	l.refs++
	return l
}

func (l *devLock) retain() {
	locksMu.Lock()
	defer locksMu.Unlock()
	l.refs++
}

// release drops one reference to l, removing it from the registry under key
// when it was the last one.
func (l *devLock) release(key string) {
	locksMu.Lock()
	defer locksMu.Unlock()
	if l.refs--; l.refs == 0 && locks[key] == l {
		delete(locks, key)
	}
}
