// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ina2xx

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Mode is the 3-bit operating mode field. Bit 2 selects continuous
// conversions, bit 1 enables the bus ADC and bit 0 the shunt ADC.
type Mode uint8

const (
	PowerDown          Mode = 0
	ShuntTriggered     Mode = 1
	BusTriggered       Mode = 2
	ShuntBusTriggered  Mode = 3
	ADCOff             Mode = 4 // Rejected: continuous with no channel.
	ShuntContinuous    Mode = 5
	BusContinuous      Mode = 6
	ShuntBusContinuous Mode = 7
)

// Continuous reports whether conversions restart automatically.
func (m Mode) Continuous() bool { return m&4 != 0 }

// Bus reports whether the bus voltage ADC is enabled.
func (m Mode) Bus() bool { return m&2 != 0 }

// Shunt reports whether the shunt voltage ADC is enabled.
func (m Mode) Shunt() bool { return m&1 != 0 }

func (m Mode) String() string {
	switch m & 7 {
	case PowerDown:
		return "PowerDown"
	case ShuntTriggered:
		return "ShuntTriggered"
	case BusTriggered:
		return "BusTriggered"
	case ShuntBusTriggered:
		return "ShuntBusTriggered"
	case ADCOff:
		return "ADCOff"
	case ShuntContinuous:
		return "ShuntContinuous"
	case BusContinuous:
		return "BusContinuous"
	default:
		return "ShuntBusContinuous"
	}
}

func makeMode(continuous, bus, shunt bool) Mode {
	var m Mode
	if continuous {
		m |= 4
	}
	if bus {
		m |= 2
	}
	if shunt {
		m |= 1
	}
	return m
}

// BusVoltageRange is the INA219 bus full scale.
type BusVoltageRange uint8

const (
	Bus16V BusVoltageRange = 0
	Bus32V BusVoltageRange = 1 // Default.
)

// ShuntVoltageRange is the INA219 PGA setting.
type ShuntVoltageRange uint8

const (
	Shunt40mV  ShuntVoltageRange = 0
	Shunt80mV  ShuntVoltageRange = 1
	Shunt160mV ShuntVoltageRange = 2
	Shunt320mV ShuntVoltageRange = 3 // Default.
)

// FullScale returns the largest shunt voltage measurable in this range.
func (r ShuntVoltageRange) FullScale() physic.ElectricPotential {
	return (40 * physic.MilliVolt) << (r & 3)
}

// ADCSetting is an INA219 BADC/SADC code. Codes 0-3 select the resolution of
// a single sample, 8-15 average 1 to 128 12-bit samples.
type ADCSetting uint8

const (
	ADC9Bit         ADCSetting = 0x0
	ADC10Bit        ADCSetting = 0x1
	ADC11Bit        ADCSetting = 0x2
	ADC12Bit        ADCSetting = 0x3 // Default.
	ADC12Bit1Sample ADCSetting = 0x8
	ADC2Samples     ADCSetting = 0x9
	ADC4Samples     ADCSetting = 0xA
	ADC8Samples     ADCSetting = 0xB
	ADC16Samples    ADCSetting = 0xC
	ADC32Samples    ADCSetting = 0xD
	ADC64Samples    ADCSetting = 0xE
	ADC128Samples   ADCSetting = 0xF
)

var ina219ConversionTimes = [...]time.Duration{
	84 * time.Microsecond,
	148 * time.Microsecond,
	276 * time.Microsecond,
	532 * time.Microsecond,
}

// ConversionTime returns how long one conversion takes with this setting.
func (a ADCSetting) ConversionTime() time.Duration {
	a &= 0xF
	if a < ADC12Bit1Sample {
		return ina219ConversionTimes[a&3]
	}
	return ina219ConversionTimes[3] << (a - ADC12Bit1Sample)
}

// ConversionTime is an INA226 VBUSCT/VSHCT code.
type ConversionTime uint8

const (
	CT140us  ConversionTime = 0
	CT204us  ConversionTime = 1
	CT332us  ConversionTime = 2
	CT588us  ConversionTime = 3
	CT1100us ConversionTime = 4 // Default.
	CT2116us ConversionTime = 5
	CT4156us ConversionTime = 6
	CT8244us ConversionTime = 7
)

var ina226ConversionTimes = [...]time.Duration{
	140 * time.Microsecond,
	204 * time.Microsecond,
	332 * time.Microsecond,
	588 * time.Microsecond,
	1100 * time.Microsecond,
	2116 * time.Microsecond,
	4156 * time.Microsecond,
	8244 * time.Microsecond,
}

// Duration returns the time taken by one sample.
func (c ConversionTime) Duration() time.Duration {
	return ina226ConversionTimes[c&7]
}

// Averaging is the INA226 AVG code.
type Averaging uint8

const (
	Avg1    Averaging = 0 // Default.
	Avg4    Averaging = 1
	Avg16   Averaging = 2
	Avg64   Averaging = 3
	Avg128  Averaging = 4
	Avg256  Averaging = 5
	Avg512  Averaging = 6
	Avg1024 Averaging = 7
)

var averagingSamples = [...]int{1, 4, 16, 64, 128, 256, 512, 1024}

// Samples returns the number of averaged samples.
func (a Averaging) Samples() int {
	return averagingSamples[a&7]
}

// Config is a decoded snapshot of the cached configuration register.
//
// Fields that do not exist on the variant are zero.
type Config struct {
	Raw uint16

	Continuous      bool
	BusADCEnabled   bool
	ShuntADCEnabled bool

	// INA219 only.
	BusVoltageRange   BusVoltageRange
	ShuntVoltageRange ShuntVoltageRange
	BusADC            ADCSetting
	ShuntADC          ADCSetting

	// INA226 only.
	Averaging           Averaging
	BusConversionTime   ConversionTime
	ShuntConversionTime ConversionTime
}

// Mode returns the operating mode encoded in the snapshot.
func (c *Config) Mode() Mode {
	return makeMode(c.Continuous, c.BusADCEnabled, c.ShuntADCEnabled)
}

// LoadConfig reads the configuration register into the cache and returns it
// decoded.
func (d *Dev) LoadConfig() (Config, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.c.ReadUint16(uint8(RegisterConfig))
	if err != nil {
		return Config{}, err
	}
	d.cfg.Load(raw)
	return d.chip.decode(d.cfg), nil
}

// Config returns the cached configuration. No I/O is done.
func (d *Dev) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chip.decode(d.cfg)
}

// CommitConfig writes the cached configuration to the device.
//
// It fails with ErrInvalidMode without writing when continuous mode is set
// with both ADCs disabled.
func (d *Dev) CommitConfig() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commit()
}

func (d *Dev) commit() error {
	if m := d.mode(); m == ADCOff {
		return fmt.Errorf("ina2xx: mode %s: %w", m, ErrInvalidMode)
	}
	return d.c.WriteUint16(uint8(RegisterConfig), d.cfg.Dump())
}

// Field returns a raw configuration field from the cache. Field names are the
// datasheet's: RST, BRNG, PGA, BADC, SADC for the INA219, RST, AVG, VBUSCT,
// VSHCT for the INA226, and CNTNS, BADC_EN, SADC_EN for both.
func (d *Dev) Field(name string) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.Get(name)
}

// SetField sets a raw configuration field in the cache. The CNTNS field is
// guarded like SetContinuous.
func (d *Dev) SetField(name string, v uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name == fieldContinuous {
		return d.setContinuous(v != 0)
	}
	return d.cfg.Set(name, v)
}

// Mode returns the cached operating mode.
func (d *Dev) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode()
}

func (d *Dev) mode() Mode {
	c, _ := d.cfg.Bool(fieldContinuous)
	b, _ := d.cfg.Bool(fieldBusEnable)
	s, _ := d.cfg.Bool(fieldShuntEnable)
	return makeMode(c, b, s)
}

// SetMode sets the continuous and ADC enable bits in the cache.
func (d *Dev) SetMode(m Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setMode(m)
}

func (d *Dev) setMode(m Mode) error {
	if m &= 7; m == ADCOff {
		return fmt.Errorf("ina2xx: mode %s: %w", m, ErrInvalidMode)
	}
	if err := d.cfg.SetBool(fieldBusEnable, m.Bus()); err != nil {
		return err
	}
	if err := d.cfg.SetBool(fieldShuntEnable, m.Shunt()); err != nil {
		return err
	}
	return d.cfg.SetBool(fieldContinuous, m.Continuous())
}

// SetContinuous selects continuous (true) or triggered (false) conversions in
// the cache. Enable at least one ADC first.
func (d *Dev) SetContinuous(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setContinuous(on)
}

func (d *Dev) setContinuous(on bool) error {
	if on {
		if m := d.mode(); !m.Bus() && !m.Shunt() {
			return ErrInvalidMode
		}
	}
	return d.cfg.SetBool(fieldContinuous, on)
}

// SetBusADCEnabled enables the bus voltage ADC in the cache.
func (d *Dev) SetBusADCEnabled(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.SetBool(fieldBusEnable, on)
}

// SetShuntADCEnabled enables the shunt voltage ADC in the cache.
func (d *Dev) SetShuntADCEnabled(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.SetBool(fieldShuntEnable, on)
}

// SetBusVoltageRange sets the INA219 bus full scale in the cache.
func (d *Dev) SetBusVoltageRange(r BusVoltageRange) error {
	return d.SetField(fieldBusRange, uint16(r))
}

// SetShuntVoltageRange sets the INA219 PGA in the cache.
func (d *Dev) SetShuntVoltageRange(r ShuntVoltageRange) error {
	return d.SetField(fieldShuntRange, uint16(r))
}

// SetBusADC sets the INA219 bus ADC resolution or averaging in the cache.
func (d *Dev) SetBusADC(a ADCSetting) error {
	return d.SetField(fieldBusADC, uint16(a))
}

// SetShuntADC sets the INA219 shunt ADC resolution or averaging in the cache.
func (d *Dev) SetShuntADC(a ADCSetting) error {
	return d.SetField(fieldShuntADC, uint16(a))
}

// SetAveraging sets the INA226 sample averaging in the cache.
func (d *Dev) SetAveraging(a Averaging) error {
	return d.SetField(fieldAveraging, uint16(a))
}

// SetBusConversionTime sets the INA226 bus conversion time in the cache.
func (d *Dev) SetBusConversionTime(c ConversionTime) error {
	return d.SetField(fieldBusConvTime, uint16(c))
}

// SetShuntConversionTime sets the INA226 shunt conversion time in the cache.
func (d *Dev) SetShuntConversionTime(c ConversionTime) error {
	return d.SetField(fieldShuntConvTime, uint16(c))
}

// ConversionCycleTime returns how long a full conversion cycle takes with the
// cached configuration. The channels convert in parallel so this is the
// slowest enabled channel, or 0 if none is.
//
// The driver never waits by itself. Sleep this long before reading fresh
// data, or poll Status.
func (d *Dev) ConversionCycleTime() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.mode()
	var t time.Duration
	if m.Shunt() {
		t = d.chip.channelTime(d.cfg, true)
	}
	if m.Bus() {
		if b := d.chip.channelTime(d.cfg, false); b > t {
			t = b
		}
	}
	return t
}

// StartMeasurement sets the operating mode, calibrates with the sense resistor
// and maximum current from Opts if asked to, then commits the configuration.
//
// An invalid mode fails before any I/O. On error the cached configuration is
// left as it was before the call.
func (d *Dev) StartMeasurement(m Mode, calibrate bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev := d.cfg.Dump()
	if err := d.startMeasurement(m, calibrate); err != nil {
		d.cfg.Load(prev)
		return err
	}
	return nil
}

func (d *Dev) startMeasurement(m Mode, calibrate bool) error {
	if err := d.setMode(m); err != nil {
		return err
	}
	if calibrate {
		if _, err := d.calibrate(d.maxCurrent, d.senseResistor); err != nil {
			return err
		}
	}
	return d.commit()
}
