// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ina2xx

import (
	"math"

	"periph.io/x/conn/v3/physic"
)

// Status holds the conversion flags.
type Status struct {
	// Ready is set once all conversions, averaging and multiplications are
	// done. Reading the power register (INA219) or the mask/enable register
	// (INA226) clears it.
	Ready bool
	// Overflow is set when the current or power computation overflowed; those
	// readings are meaningless.
	Overflow bool
}

// PowerMonitor is a set of readings.
type PowerMonitor struct {
	Shunt   physic.ElectricPotential
	Voltage physic.ElectricPotential
	Current physic.ElectricCurrent
	Power   physic.Power
	// Status is read along with the bus voltage. Reading it clears the ready
	// flag on the INA226.
	Status Status
}

// ReadingKind tells which channels a Reading holds.
type ReadingKind uint8

const (
	ReadingNone ReadingKind = iota
	ReadingShunt
	ReadingBus
	ReadingBoth
)

func (k ReadingKind) String() string {
	switch k {
	case ReadingShunt:
		return "Shunt"
	case ReadingBus:
		return "Bus"
	case ReadingBoth:
		return "Both"
	default:
		return "None"
	}
}

// Reading is returned by Next.
type Reading struct {
	Kind ReadingKind
	// Shunt is set for ReadingShunt and ReadingBoth.
	Shunt physic.ElectricPotential
	// Bus and Status are set for ReadingBus and ReadingBoth.
	Bus    physic.ElectricPotential
	Status Status
}

// ShuntVoltage returns the voltage across the shunt.
func (d *Dev) ShuntVoltage() (physic.ElectricPotential, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shuntVoltage()
}

func (d *Dev) shuntVoltage() (physic.ElectricPotential, error) {
	raw, err := d.c.ReadUint16(uint8(RegisterShuntVoltage))
	if err != nil {
		return 0, err
	}
	return physic.ElectricPotential(int16(raw)) * d.chip.params().shuntLSB, nil
}

// BusVoltage returns the bus voltage and the conversion flags.
//
// On the INA226 the flags come from the mask/enable register, which is read
// as well.
func (d *Dev) BusVoltage() (physic.ElectricPotential, Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busVoltage()
}

func (d *Dev) busVoltage() (physic.ElectricPotential, Status, error) {
	raw, err := d.c.ReadUint16(uint8(RegisterBusVoltage))
	if err != nil {
		return 0, Status{}, err
	}
	v, s, ok := d.chip.busVoltage(raw)
	if !ok {
		if s, err = d.status(); err != nil {
			return 0, Status{}, err
		}
	}
	return v, s, nil
}

// Status returns the conversion flags.
func (d *Dev) Status() (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status()
}

func (d *Dev) status() (Status, error) {
	reg, ready, overflow := d.chip.statusRegister()
	raw, err := d.c.ReadUint16(uint8(reg))
	if err != nil {
		return Status{}, err
	}
	return Status{Ready: raw&ready != 0, Overflow: raw&overflow != 0}, nil
}

// Current returns the current through the shunt, scaled with the last
// calibration.
func (d *Dev) Current() (physic.ElectricCurrent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current()
}

func (d *Dev) current() (physic.ElectricCurrent, error) {
	raw, err := d.c.ReadUint16(uint8(RegisterCurrent))
	if err != nil {
		return 0, err
	}
	a := float64(int16(raw)) * d.cal.CurrentLSB
	return physic.ElectricCurrent(math.Round(a * float64(physic.Ampere))), nil
}

// Power returns the power delivered to the load, scaled with the last
// calibration.
func (d *Dev) Power() (physic.Power, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.power()
}

func (d *Dev) power() (physic.Power, error) {
	raw, err := d.c.ReadUint16(uint8(RegisterPower))
	if err != nil {
		return 0, err
	}
	w := float64(raw) * d.cal.PowerLSB
	return physic.Power(math.Round(w * float64(physic.Watt))), nil
}

// Sense reads the shunt voltage, bus voltage, current and power.
func (d *Dev) Sense(p *PowerMonitor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var err error
	if p.Shunt, err = d.shuntVoltage(); err != nil {
		return err
	}
	if p.Voltage, p.Status, err = d.busVoltage(); err != nil {
		return err
	}
	if p.Current, err = d.current(); err != nil {
		return err
	}
	p.Power, err = d.power()
	return err
}

// Next reads the channels enabled in the cached configuration.
//
// It returns immediately; the caller owns the polling loop and the delay
// between calls, see ConversionCycleTime.
func (d *Dev) Next() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var r Reading
	var err error
	m := d.mode()
	if m.Shunt() {
		if r.Shunt, err = d.shuntVoltage(); err != nil {
			return Reading{}, err
		}
		r.Kind = ReadingShunt
	}
	if m.Bus() {
		if r.Bus, r.Status, err = d.busVoltage(); err != nil {
			return Reading{}, err
		}
		if r.Kind == ReadingShunt {
			r.Kind = ReadingBoth
		} else {
			r.Kind = ReadingBus
		}
	}
	return r, nil
}

// ManufacturerID returns 0x5449 ("TI") on an INA226.
func (d *Dev) ManufacturerID() (uint16, error) {
	return d.readID(RegisterManufacturerID)
}

// DieID returns 0x2260 on an INA226.
func (d *Dev) DieID() (uint16, error) {
	return d.readID(RegisterDieID)
}

func (d *Dev) readID(r Register) (uint16, error) {
	if d.Variant() != INA226 {
		return 0, ErrUnsupported
	}
	return d.ReadRegister(r)
}
