// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ina2xx

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"
)

// CalibrationResult is the outcome of a calibration computation.
type CalibrationResult struct {
	// Register is the calibration register value. Its LSB is ignored by the
	// INA219.
	Register uint16
	// CurrentLSB is the weight of one count of the current register, in A.
	CurrentLSB float64
	// PowerLSB is the weight of one count of the power register, in W.
	PowerLSB float64
	// ShuntRange is the narrowest INA219 PGA setting fitting the maximum
	// shunt voltage. HasShuntRange is false on the INA226.
	ShuntRange    ShuntVoltageRange
	HasShuntRange bool
}

// ComputeCalibration returns the calibration for the variant so that
// maxCurrent uses the full positive range of the current register. No I/O is
// done.
//
// It fails with ErrCalibrationRange if either input is not positive, if
// maxCurrent across senseResistor exceeds the shunt ADC full scale, or if the
// resulting register value does not fit.
func ComputeCalibration(v Variant, maxCurrent physic.ElectricCurrent, senseResistor physic.ElectricResistance) (CalibrationResult, error) {
	c, ok := variants[v]
	if !ok {
		return CalibrationResult{}, fmt.Errorf("ina2xx: unknown variant %q", v)
	}
	if maxCurrent <= 0 || senseResistor <= 0 {
		return CalibrationResult{}, fmt.Errorf("ina2xx: max current %s and sense resistor %s must be positive: %w", maxCurrent, senseResistor, ErrCalibrationRange)
	}
	return computeCalibration(c, float64(maxCurrent)/float64(physic.Ampere), float64(senseResistor)/float64(physic.Ohm))
}

// computeCalibration takes amperes and ohms.
func computeCalibration(c chip, maxCurrent, senseResistor float64) (CalibrationResult, error) {
	p := c.params()
	if maxCurrent <= 0 || senseResistor <= 0 {
		return CalibrationResult{}, fmt.Errorf("ina2xx: max current %gA and sense resistor %gΩ must be positive: %w", maxCurrent, senseResistor, ErrCalibrationRange)
	}
	vShunt := maxCurrent * senseResistor
	if vShunt > p.shuntFullScale {
		return CalibrationResult{}, fmt.Errorf("ina2xx: %gV across the shunt exceeds the %s full scale of %gV: %w", vShunt, p.name, p.shuntFullScale, ErrCalibrationRange)
	}
	currentLSB := maxCurrent / (1 << 15)
	cal := math.Trunc(p.calibrationK / (currentLSB * senseResistor))
	if cal > p.maxCalibration {
		return CalibrationResult{}, fmt.Errorf("ina2xx: calibration value %g does not fit, %gV across the shunt is too small: %w", cal, vShunt, ErrCalibrationRange)
	}
	r := CalibrationResult{
		Register:   uint16(cal),
		CurrentLSB: currentLSB,
		PowerLSB:   currentLSB * p.powerMultiplier,
	}
	r.ShuntRange, r.HasShuntRange = c.shuntRange(vShunt)
	return r, nil
}

// Calibrate computes the calibration for maxCurrent through senseResistor,
// writes the calibration register and keeps the LSB weights used by Current
// and Power. Nothing is written if the computation fails.
//
// With Opts.AutoRange on an INA219, the selected shunt voltage range is also
// stored in the cached configuration; CommitConfig writes it.
func (d *Dev) Calibrate(maxCurrent physic.ElectricCurrent, senseResistor physic.ElectricResistance) (CalibrationResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calibrate(maxCurrent, senseResistor)
}

func (d *Dev) calibrate(maxCurrent physic.ElectricCurrent, senseResistor physic.ElectricResistance) (CalibrationResult, error) {
	r, err := ComputeCalibration(d.chip.params().name, maxCurrent, senseResistor)
	if err != nil {
		return r, err
	}
	if err := d.c.WriteUint16(uint8(RegisterCalibration), r.Register); err != nil {
		return r, err
	}
	d.cal = r
	d.maxCurrent = maxCurrent
	d.senseResistor = senseResistor
	if d.autoRange && r.HasShuntRange {
		if err := d.cfg.Set(fieldShuntRange, uint16(r.ShuntRange)); err != nil {
			return r, err
		}
	}
	return r, nil
}

// Calibration returns the result of the last successful Calibrate.
func (d *Dev) Calibration() CalibrationResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cal
}

// SenseResistor returns the shunt resistance used by StartMeasurement.
func (d *Dev) SenseResistor() physic.ElectricResistance {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.senseResistor
}

// SetSenseResistor changes the shunt resistance used by the next
// StartMeasurement. It does not recalibrate: Current and Power keep using the
// previous calibration until then.
func (d *Dev) SetSenseResistor(r physic.ElectricResistance) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senseResistor = r
}

// MaxCurrent returns the maximum expected current used by StartMeasurement.
func (d *Dev) MaxCurrent() physic.ElectricCurrent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxCurrent
}

// SetMaxCurrent changes the maximum expected current used by the next
// StartMeasurement. Like SetSenseResistor, it does not recalibrate.
func (d *Dev) SetMaxCurrent(i physic.ElectricCurrent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.maxCurrent = i
}
