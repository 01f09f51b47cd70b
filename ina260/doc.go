// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ina260 controls a Texas Instruments INA260 current, voltage and
// power monitor over an I²C bus.
//
// The INA260 integrates a 2mΩ shunt and needs no calibration: current,
// voltage and power have fixed weights of 1.25mA, 1.25mV and 10mW. Its
// averaging, conversion time and mode codes are the INA226 ones and reuse
// the ina2xx types.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/ina260.pdf
package ina260
