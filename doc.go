// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package powermon is a container for drivers of Texas Instruments current,
// voltage and power monitors on I²C.
//
// See ina2xx for the INA219 and INA226, ina260 for the INA260 and bitfield
// for the register field helper they share.
package powermon
