// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

// Bus is the register-style bus device the controller is attached to.
//
// WriteRegister must deliver reg and data as one transaction that no other
// transaction to the same device can interleave with, once CreateMutex has
// been called. i2cdev.Dev is the usual implementation.
type Bus interface {
	Probe() error
	WriteRegister(reg byte, data []byte) error
	CreateMutex() error
	DeleteMutex() error
	Close() error
}

// Control bytes, sent as the register of every transaction.
const (
	controlCmdSingle  = 0x80
	controlCmdStream  = 0x00
	controlDataSingle = 0xC0
	controlDataStream = 0x40
)

// codec encodes commands and data into control byte + payload transactions.
// Bus errors are returned as is.
type codec struct {
	bus Bus
}

func (c codec) writeCommand(cmd byte) error {
	return c.bus.WriteRegister(controlCmdSingle, []byte{cmd})
}

func (c codec) writeCommands(cmds ...byte) error {
	return c.bus.WriteRegister(controlCmdStream, cmds)
}

func (c codec) writeData(b byte) error {
	return c.bus.WriteRegister(controlDataSingle, []byte{b})
}

func (c codec) writeDataBuffer(b []byte) error {
	return c.bus.WriteRegister(controlDataStream, b)
}

// command is one codec call: a single command, or a command stream.
type command struct {
	stream bool
	b      []byte
}

func single(b byte) command {
	return command{b: []byte{b}}
}

func stream(b ...byte) command {
	return command{stream: true, b: b}
}

// sequence is a wrapper for error management: once a write fails, the
// following ones are skipped and err keeps the first failure.
type sequence struct {
	c   codec
	err error
}

func (s *sequence) run(cmds ...command) {
	for _, cmd := range cmds {
		if s.err != nil {
			return
		}
		if cmd.stream {
			s.err = s.c.writeCommands(cmd.b...)
		} else {
			s.err = s.c.writeCommand(cmd.b[0])
		}
	}
}

func (s *sequence) commands(cmds ...byte) {
	s.run(stream(cmds...))
}

func (s *sequence) dataBuffer(b []byte) {
	if s.err != nil {
		return
	}
	s.err = s.c.writeDataBuffer(b)
}
