// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ina2xx

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/powermon/bitfield"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/mmr"
	"periph.io/x/conn/v3/physic"
)

// Register is a register address.
type Register uint8

const (
	RegisterConfig         Register = 0x00 // Configuration (R/W)
	RegisterShuntVoltage   Register = 0x01 // Shunt voltage, signed (R)
	RegisterBusVoltage     Register = 0x02 // Bus voltage (R)
	RegisterPower          Register = 0x03 // Power (R)
	RegisterCurrent        Register = 0x04 // Current, signed (R)
	RegisterCalibration    Register = 0x05 // Calibration (R/W)
	RegisterMaskEnable     Register = 0x06 // Mask/Enable, INA226 only (R/W)
	RegisterManufacturerID Register = 0xFE // Manufacturer ID, INA226 only (R)
	RegisterDieID          Register = 0xFF // Die ID, INA226 only (R)
)

const (
	// Address range reserved for the family; set by the A0/A1 pins.
	MinAddress uint16 = 0x40
	MaxAddress uint16 = 0x4F
)

// Opts holds the configuration options.
type Opts struct {
	// Address is the I²C address, 0x40 to 0x4F.
	Address uint16
	// SenseResistor and MaxCurrent are used by StartMeasurement when it
	// calibrates.
	SenseResistor physic.ElectricResistance
	MaxCurrent    physic.ElectricCurrent
	// AutoRange makes Calibrate store the narrowest shunt voltage range that
	// fits into the cached configuration. INA219 only.
	AutoRange bool
}

// DefaultOpts works with both variants: 800mA across 100mΩ is 80mV.
var DefaultOpts = Opts{
	Address:       0x40,
	SenseResistor: 100 * physic.MilliOhm,
	MaxCurrent:    800 * physic.MilliAmpere,
}

// Dev is a handle to an INA219 or INA226.
type Dev struct {
	d    *i2c.Dev
	c    mmr.Dev8
	chip chip
	cfg  *bitfield.Register

	mu            sync.Mutex
	autoRange     bool
	senseResistor physic.ElectricResistance
	maxCurrent    physic.ElectricCurrent
	cal           CalibrationResult
}

// New returns a handle to a device of the given variant on the bus.
//
// No I/O is done. The cached configuration starts at the power-on default;
// call LoadConfig to read the device's.
func New(bus i2c.Bus, v Variant, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	c, ok := variants[v]
	if !ok {
		return nil, fmt.Errorf("ina2xx: unknown variant %q", v)
	}
	if opts.Address < MinAddress || opts.Address > MaxAddress {
		return nil, fmt.Errorf("ina2xx: address 0x%02X: %w", opts.Address, ErrInvalidAddress)
	}
	p := c.params()
	cfg, err := bitfield.New(p.layout)
	if err != nil {
		return nil, err
	}
	cfg.Load(p.reset)
	d := &i2c.Dev{Bus: bus, Addr: opts.Address}
	return &Dev{
		d:             d,
		c:             mmr.Dev8{Conn: d, Order: binary.BigEndian},
		chip:          c,
		cfg:           cfg,
		autoRange:     opts.AutoRange,
		senseResistor: opts.SenseResistor,
		maxCurrent:    opts.MaxCurrent,
	}, nil
}

// Variant returns the chip variant.
func (d *Dev) Variant() Variant {
	return d.chip.params().name
}

// ReadRegister reads an unsigned 16-bit register.
func (d *Dev) ReadRegister(r Register) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.c.ReadUint16(uint8(r))
}

// ReadSignedRegister reads a two's complement 16-bit register, like the shunt
// voltage and current registers.
func (d *Dev) ReadSignedRegister(r Register) (int16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.c.ReadUint16(uint8(r))
	return int16(v), err
}

// WriteRegister writes a 16-bit register.
func (d *Dev) WriteRegister(r Register, v uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.c.WriteUint16(uint8(r), v)
}

// ReadConfigRaw returns the configuration register as read from the device. It
// does not update the cached configuration.
func (d *Dev) ReadConfigRaw() (uint16, error) {
	return d.ReadRegister(RegisterConfig)
}

// WriteConfigRaw writes the configuration register as is. The cached
// configuration is replaced by raw on success.
//
// Like CommitConfig, it fails with ErrInvalidMode without writing when raw
// selects continuous mode with both ADCs disabled.
func (d *Dev) WriteConfigRaw(raw uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.cfg.Dump()
	d.cfg.Load(raw)
	if err := d.commit(); err != nil {
		d.cfg.Load(prev)
		return err
	}
	return nil
}

// SoftReset writes the power-on configuration.
func (d *Dev) SoftReset() error {
	return d.WriteConfigRaw(d.chip.params().reset)
}

// Halt puts the device in power-down mode. Implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.setMode(PowerDown); err != nil {
		return err
	}
	return d.commit()
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s{%s}", d.chip.params().name, d.d)
}

var _ conn.Resource = &Dev{}
