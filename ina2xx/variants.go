// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ina2xx

import (
	"time"

	"github.com/GermanBionicSystems/powermon/bitfield"
	"periph.io/x/conn/v3/physic"
)

// Variant is the type denoting a specific member of the family.
type Variant string

const (
	INA219 Variant = "INA219" // INA219 26V 12-bit monitor. Datasheet: https://www.ti.com/lit/gpn/ina219
	INA226 Variant = "INA226" // INA226 36V 16-bit monitor. Datasheet: https://www.ti.com/lit/gpn/ina226
)

// Names of the configuration register fields.
const (
	fieldReset         = "RST"
	fieldBusRange      = "BRNG"
	fieldShuntRange    = "PGA"
	fieldBusADC        = "BADC"
	fieldShuntADC      = "SADC"
	fieldAveraging     = "AVG"
	fieldBusConvTime   = "VBUSCT"
	fieldShuntConvTime = "VSHCT"
	fieldContinuous    = "CNTNS"
	fieldBusEnable     = "BADC_EN"
	fieldShuntEnable   = "SADC_EN"
)

// ina219ADC lists the valid BADC/SADC codes. 4-7 alias 0-3 on the chip and are
// not written.
var ina219ADC = bitfield.Set{0, 1, 2, 3, 8, 9, 10, 11, 12, 13, 14, 15}

// Bus voltage register bits 2-0 on the INA219, mask/enable register bits on
// the INA226.
const (
	ina219Ready    = 1 << 1
	ina219Overflow = 1 << 0
	ina226Ready    = 1 << 3
	ina226Overflow = 1 << 2
)

// variant is the constant table of one chip.
type variant struct {
	name   Variant
	layout []bitfield.Field

	// Written by SoftReset. This is the power-on configuration.
	reset uint16

	shuntLSB physic.ElectricPotential
	busLSB   physic.ElectricPotential

	// Calibration inputs, in volts and SI units.
	shuntFullScale  float64
	calibrationK    float64
	powerMultiplier float64
	maxCalibration  float64
}

// chip is what differs between variants beyond constants.
type chip interface {
	params() *variant
	// shuntRange returns the narrowest PGA setting that fits vShunt volts.
	shuntRange(vShunt float64) (ShuntVoltageRange, bool)
	// busVoltage decodes the bus voltage register. ok is false when the status
	// flags live elsewhere.
	busVoltage(raw uint16) (v physic.ElectricPotential, s Status, ok bool)
	statusRegister() (Register, uint16, uint16)
	// channelTime returns the conversion time of one ADC channel.
	channelTime(r *bitfield.Register, shunt bool) time.Duration
	decode(r *bitfield.Register) Config
}

type ina219 struct {
	variant
}

type ina226 struct {
	variant
}

var variants = map[Variant]chip{
	INA219: &ina219{variant{
		name: INA219,
		layout: []bitfield.Field{
			{Name: fieldReset, Start: 15, End: 16},
			{Name: fieldBusRange, Start: 13, End: 14},
			{Name: fieldShuntRange, Start: 11, End: 13, Valid: bitfield.Range{Min: 0, Max: 3}},
			{Name: fieldBusADC, Start: 7, End: 11, Valid: ina219ADC},
			{Name: fieldShuntADC, Start: 3, End: 7, Valid: ina219ADC},
			{Name: fieldContinuous, Start: 2, End: 3},
			{Name: fieldBusEnable, Start: 1, End: 2},
			{Name: fieldShuntEnable, Start: 0, End: 1},
		},
		reset:           0x399F,
		shuntLSB:        10 * physic.MicroVolt,
		busLSB:          4 * physic.MilliVolt,
		shuntFullScale:  0.32768,
		calibrationK:    0.04096,
		powerMultiplier: 20,
		maxCalibration:  0xFFFF,
	}},
	INA226: &ina226{variant{
		name: INA226,
		// Bits 14-12 are reserved and read back as 100b.
		layout: []bitfield.Field{
			{Name: fieldReset, Start: 15, End: 16},
			{Name: fieldAveraging, Start: 9, End: 12, Valid: bitfield.Range{Min: 0, Max: 7}},
			{Name: fieldBusConvTime, Start: 6, End: 9, Valid: bitfield.Range{Min: 0, Max: 7}},
			{Name: fieldShuntConvTime, Start: 3, End: 6, Valid: bitfield.Range{Min: 0, Max: 7}},
			{Name: fieldContinuous, Start: 2, End: 3},
			{Name: fieldBusEnable, Start: 1, End: 2},
			{Name: fieldShuntEnable, Start: 0, End: 1},
		},
		reset:           0x4127,
		shuntLSB:        2500 * physic.NanoVolt,
		busLSB:          1250 * physic.MicroVolt,
		shuntFullScale:  0.08192,
		calibrationK:    0.00512,
		powerMultiplier: 25,
		maxCalibration:  0x7FFF, // Bit 15 is reserved.
	}},
}

func (v *variant) params() *variant {
	return v
}

// ina219

var ina219ShuntRanges = [...]float64{0.04, 0.08, 0.16, 0.32}

func (c *ina219) shuntRange(vShunt float64) (ShuntVoltageRange, bool) {
	for i, fs := range ina219ShuntRanges {
		if fs >= vShunt {
			return ShuntVoltageRange(i), true
		}
	}
	// Only reachable between 320 mV and the 327.68 mV ADC full scale.
	return Shunt320mV, true
}

func (c *ina219) busVoltage(raw uint16) (physic.ElectricPotential, Status, bool) {
	s := Status{Ready: raw&ina219Ready != 0, Overflow: raw&ina219Overflow != 0}
	return physic.ElectricPotential(raw>>3) * c.busLSB, s, true
}

func (c *ina219) statusRegister() (Register, uint16, uint16) {
	return RegisterBusVoltage, ina219Ready, ina219Overflow
}

func (c *ina219) channelTime(r *bitfield.Register, shunt bool) time.Duration {
	f := fieldBusADC
	if shunt {
		f = fieldShuntADC
	}
	v, _ := r.Get(f)
	return ADCSetting(v).ConversionTime()
}

func (c *ina219) decode(r *bitfield.Register) Config {
	cfg := decodeCommon(r)
	v, _ := r.Get(fieldBusRange)
	cfg.BusVoltageRange = BusVoltageRange(v)
	v, _ = r.Get(fieldShuntRange)
	cfg.ShuntVoltageRange = ShuntVoltageRange(v)
	v, _ = r.Get(fieldBusADC)
	cfg.BusADC = ADCSetting(v)
	v, _ = r.Get(fieldShuntADC)
	cfg.ShuntADC = ADCSetting(v)
	return cfg
}

// ina226

func (c *ina226) shuntRange(float64) (ShuntVoltageRange, bool) {
	return 0, false
}

func (c *ina226) busVoltage(raw uint16) (physic.ElectricPotential, Status, bool) {
	return physic.ElectricPotential(raw) * c.busLSB, Status{}, false
}

func (c *ina226) statusRegister() (Register, uint16, uint16) {
	return RegisterMaskEnable, ina226Ready, ina226Overflow
}

func (c *ina226) channelTime(r *bitfield.Register, shunt bool) time.Duration {
	f := fieldBusConvTime
	if shunt {
		f = fieldShuntConvTime
	}
	ct, _ := r.Get(f)
	avg, _ := r.Get(fieldAveraging)
	return ConversionTime(ct).Duration() * time.Duration(Averaging(avg).Samples())
}

func (c *ina226) decode(r *bitfield.Register) Config {
	cfg := decodeCommon(r)
	v, _ := r.Get(fieldAveraging)
	cfg.Averaging = Averaging(v)
	v, _ = r.Get(fieldBusConvTime)
	cfg.BusConversionTime = ConversionTime(v)
	v, _ = r.Get(fieldShuntConvTime)
	cfg.ShuntConversionTime = ConversionTime(v)
	return cfg
}

func decodeCommon(r *bitfield.Register) Config {
	cfg := Config{Raw: r.Dump()}
	cfg.Continuous, _ = r.Bool(fieldContinuous)
	cfg.BusADCEnabled, _ = r.Bool(fieldBusEnable)
	cfg.ShuntADCEnabled, _ = r.Bool(fieldShuntEnable)
	return cfg
}
