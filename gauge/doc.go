// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gauge draws a one line bar gauge on a terminal using ANSI 256
// colours.
//
// It shows a reading against its full scale, for example the current through
// a shunt against the calibrated maximum current.
package gauge
