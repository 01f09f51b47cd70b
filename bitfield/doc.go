// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bitfield describes named bit ranges of a 16-bit device register and
// gives get/set access to them against a cached raw register value.
//
// A Register never talks to the device. Use it in three phases:
//
//	raw, err := read()    // 1. read the register from the device
//	r.Load(raw)
//	err = r.Set("MODE", 7) // 2. mutate fields in memory
//	err = write(r.Dump())  // 3. write the register back
//
// Reading fields before Load returns values decoded from whatever the cache
// last held.
package bitfield
