// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ina2xx

import "errors"

var (
	// ErrInvalidAddress is returned by New when the I²C address is outside
	// 0x40-0x4F.
	ErrInvalidAddress = errors.New("ina2xx: invalid address")
	// ErrCalibrationRange is returned when the maximum current and shunt
	// resistance cannot be represented by the chip.
	ErrCalibrationRange = errors.New("ina2xx: calibration out of range")
	// ErrInvalidMode is returned when continuous mode is requested with both
	// ADC channels disabled.
	ErrInvalidMode = errors.New("ina2xx: continuous mode requires an enabled ADC")
	// ErrUnsupported is returned when the variant lacks the feature.
	ErrUnsupported = errors.New("ina2xx: not supported by this variant")
)
