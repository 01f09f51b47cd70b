// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ina2xx controls Texas Instruments INA219 and INA226 current, voltage
// and power monitors over an I²C bus.
//
// Both chips measure the voltage across an external shunt resistor and the
// bus voltage. Current and power are computed by the chip once the
// calibration register has been written, see Dev.Calibrate.
//
// # Configuration
//
// The configuration register is cached in the Dev. Setters such as
// SetShuntADCEnabled only change the cache; call LoadConfig first to pick up
// the device state and CommitConfig afterwards to write it:
//
//	cfg, err := dev.LoadConfig()
//	err = dev.SetContinuous(true)
//	err = dev.CommitConfig()
//
// A Dev serializes its own calls, but a load/modify/commit sequence spanning
// several calls needs external locking if the Dev is shared.
//
// # Calibration
//
// Current and power readings are scaled with the LSB weights computed by the
// last successful Calibrate. Reading them before calibrating, or after
// changing the shunt resistance without recalibrating, silently yields wrong
// values.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/ina219.pdf
//
// https://www.ti.com/lit/ds/symlink/ina226.pdf
package ina2xx
