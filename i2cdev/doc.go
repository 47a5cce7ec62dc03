// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2cdev wraps a device sitting at a fixed address on an I²C bus and
// exposes it as a register-style device.
//
// Every register transaction holds a mutex shared by all Dev instances
// addressing the same device on the same bus, so a control byte and its
// payload always reach the device without another transaction in between.
//
// The mutex is created with CreateMutex and released with DeleteMutex. Until
// CreateMutex is called, transactions are not serialized.
package i2cdev
