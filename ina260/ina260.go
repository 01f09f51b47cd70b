// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ina260

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/powermon/bitfield"
	"github.com/GermanBionicSystems/powermon/ina2xx"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/mmr"
	"periph.io/x/conn/v3/physic"
)

// Register is a register address.
type Register uint8

const (
	RegisterConfig         Register = 0x00 // Configuration (R/W)
	RegisterCurrent        Register = 0x01 // Current, signed (R)
	RegisterBusVoltage     Register = 0x02 // Bus voltage (R)
	RegisterPower          Register = 0x03 // Power (R)
	RegisterMaskEnable     Register = 0x06 // Mask/Enable (R/W)
	RegisterAlertLimit     Register = 0x07 // Alert limit (R/W)
	RegisterManufacturerID Register = 0xFE // Manufacturer ID (R)
	RegisterDieID          Register = 0xFF // Die ID (R)
)

const (
	currentLSB = 1250 * physic.MicroAmpere
	voltageLSB = 1250 * physic.MicroVolt
	powerLSB   = 10 * physic.MilliWatt

	// Power-on configuration: 1 sample, 1.1ms conversions, continuous.
	resetConfig = 0x6127
	resetBit    = 0x8000

	readyBit    = 1 << 3
	overflowBit = 1 << 2
)

const (
	fieldReset       = "RST"
	fieldAveraging   = "AVG"
	fieldBusConvTime = "VBUSCT"
	fieldCurConvTime = "ISHCT"
	fieldMode        = "MODE"
)

var layout = []bitfield.Field{
	{Name: fieldReset, Start: 15, End: 16},
	{Name: fieldAveraging, Start: 9, End: 12, Valid: bitfield.Range{Min: 0, Max: 7}},
	{Name: fieldBusConvTime, Start: 6, End: 9, Valid: bitfield.Range{Min: 0, Max: 7}},
	{Name: fieldCurConvTime, Start: 3, End: 6, Valid: bitfield.Range{Min: 0, Max: 7}},
	{Name: fieldMode, Start: 0, End: 3, Valid: bitfield.Range{Min: 0, Max: 7}},
}

// Opts holds the configuration options.
type Opts struct {
	// Address is the I²C address, 0x40 to 0x4F.
	Address uint16
}

// DefaultOpts is the address with A0 and A1 tied to GND.
var DefaultOpts = Opts{Address: 0x40}

// PowerMonitor is a set of readings.
type PowerMonitor struct {
	Current physic.ElectricCurrent
	Voltage physic.ElectricPotential
	Power   physic.Power
}

// Dev is a handle to an INA260.
type Dev struct {
	d *i2c.Dev
	c mmr.Dev8

	mu  sync.Mutex
	cfg *bitfield.Register
}

// New returns a handle to an INA260. No I/O is done; the cached
// configuration starts at the power-on default.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Address < ina2xx.MinAddress || opts.Address > ina2xx.MaxAddress {
		return nil, fmt.Errorf("ina260: address 0x%02X: %w", opts.Address, ina2xx.ErrInvalidAddress)
	}
	cfg, err := bitfield.New(layout)
	if err != nil {
		return nil, err
	}
	cfg.Load(resetConfig)
	d := &i2c.Dev{Bus: bus, Addr: opts.Address}
	return &Dev{d: d, c: mmr.Dev8{Conn: d, Order: binary.BigEndian}, cfg: cfg}, nil
}

// Read returns current, voltage and power.
func (i *Dev) Read() (PowerMonitor, error) {
	var p PowerMonitor
	err := i.Sense(&p)
	return p, err
}

// Sense reads current, voltage and power into p.
func (i *Dev) Sense(p *PowerMonitor) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	raw, err := i.c.ReadUint16(uint8(RegisterCurrent))
	if err != nil {
		return err
	}
	p.Current = physic.ElectricCurrent(int16(raw)) * currentLSB
	if raw, err = i.c.ReadUint16(uint8(RegisterBusVoltage)); err != nil {
		return err
	}
	p.Voltage = physic.ElectricPotential(raw) * voltageLSB
	if raw, err = i.c.ReadUint16(uint8(RegisterPower)); err != nil {
		return err
	}
	p.Power = physic.Power(raw) * powerLSB
	return nil
}

// Status reads the conversion ready and overflow flags. Reading clears the
// ready flag.
func (i *Dev) Status() (ina2xx.Status, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	raw, err := i.c.ReadUint16(uint8(RegisterMaskEnable))
	if err != nil {
		return ina2xx.Status{}, err
	}
	return ina2xx.Status{Ready: raw&readyBit != 0, Overflow: raw&overflowBit != 0}, nil
}

// Reset resets every register and the cached configuration to the power-on
// default.
func (i *Dev) Reset() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.c.WriteUint16(uint8(RegisterConfig), resetBit); err != nil {
		return err
	}
	i.cfg.Load(resetConfig)
	return nil
}

// LoadConfig reads the configuration register into the cache.
func (i *Dev) LoadConfig() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	raw, err := i.c.ReadUint16(uint8(RegisterConfig))
	if err != nil {
		return err
	}
	i.cfg.Load(raw)
	return nil
}

// CommitConfig writes the cached configuration.
func (i *Dev) CommitConfig() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.c.WriteUint16(uint8(RegisterConfig), i.cfg.Dump())
}

// Mode returns the cached operating mode.
func (i *Dev) Mode() ina2xx.Mode {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.mode()
}

func (i *Dev) mode() ina2xx.Mode {
	v, _ := i.cfg.Get(fieldMode)
	return ina2xx.Mode(v)
}

// SetMode sets the operating mode in the cache. ADCOff is rejected.
func (i *Dev) SetMode(m ina2xx.Mode) error {
	if m == ina2xx.ADCOff {
		return fmt.Errorf("ina260: mode %s: %w", m, ina2xx.ErrInvalidMode)
	}
	return i.set(fieldMode, uint16(m))
}

// SetAveraging sets the sample averaging in the cache.
func (i *Dev) SetAveraging(a ina2xx.Averaging) error {
	return i.set(fieldAveraging, uint16(a))
}

// SetBusConversionTime sets the bus voltage conversion time in the cache.
func (i *Dev) SetBusConversionTime(c ina2xx.ConversionTime) error {
	return i.set(fieldBusConvTime, uint16(c))
}

// SetCurrentConversionTime sets the current conversion time in the cache.
func (i *Dev) SetCurrentConversionTime(c ina2xx.ConversionTime) error {
	return i.set(fieldCurConvTime, uint16(c))
}

func (i *Dev) set(name string, v uint16) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cfg.Set(name, v)
}

// ConversionCycleTime returns the time needed for fresh data with the cached
// configuration, 0 if no channel is enabled.
func (i *Dev) ConversionCycleTime() time.Duration {
	i.mu.Lock()
	defer i.mu.Unlock()
	m := i.mode()
	avg, _ := i.cfg.Get(fieldAveraging)
	n := time.Duration(ina2xx.Averaging(avg).Samples())
	var t time.Duration
	if m.Shunt() {
		v, _ := i.cfg.Get(fieldCurConvTime)
		t = ina2xx.ConversionTime(v).Duration() * n
	}
	if m.Bus() {
		v, _ := i.cfg.Get(fieldBusConvTime)
		if b := ina2xx.ConversionTime(v).Duration() * n; b > t {
			t = b
		}
	}
	return t
}

// ManufacturerID returns 0x5449 ("TI").
func (i *Dev) ManufacturerID() (uint16, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.c.ReadUint16(uint8(RegisterManufacturerID))
}

// DieID returns 0x2270.
func (i *Dev) DieID() (uint16, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.c.ReadUint16(uint8(RegisterDieID))
}

// Halt puts the device in power-down mode.
func (i *Dev) Halt() error {
	if err := i.SetMode(ina2xx.PowerDown); err != nil {
		return err
	}
	return i.CommitConfig()
}

func (i *Dev) String() string {
	return fmt.Sprintf("ina260{%s}", i.d)
}

var _ conn.Resource = &Dev{}
