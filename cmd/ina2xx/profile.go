// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/GermanBionicSystems/powermon/ina2xx"
	"gopkg.in/yaml.v3"
)

// profile is the YAML measurement profile. Empty fields keep the device's
// configuration.
type profile struct {
	Variant    string `yaml:"variant"`
	Address    uint16 `yaml:"address"`
	Shunt      string `yaml:"shunt"`
	MaxCurrent string `yaml:"max_current"`
	AutoRange  bool   `yaml:"auto_range"`
	Mode       string `yaml:"mode"`
	Interval   string `yaml:"interval"`

	// INA219.
	BusRange int    `yaml:"bus_range"`
	BusADC   *uint8 `yaml:"bus_adc"`
	ShuntADC *uint8 `yaml:"shunt_adc"`

	// INA226.
	Averaging       int    `yaml:"averaging"`
	BusConversion   string `yaml:"bus_conversion"`
	ShuntConversion string `yaml:"shunt_conversion"`
}

func defaultProfile() *profile {
	return &profile{
		Variant:    string(ina2xx.INA219),
		Address:    ina2xx.DefaultOpts.Address,
		Shunt:      ina2xx.DefaultOpts.SenseResistor.String(),
		MaxCurrent: ina2xx.DefaultOpts.MaxCurrent.String(),
		Mode:       ina2xx.ShuntBusContinuous.String(),
		Interval:   "1s",
	}
}

// loadProfile reads path over the defaults. Unknown keys are an error.
func loadProfile(path string) (*profile, error) {
	p := defaultProfile()
	if path == "" {
		return p, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// opts returns the device options of the profile.
func (p *profile) opts() (ina2xx.Variant, *ina2xx.Opts, error) {
	v := ina2xx.Variant(p.Variant)
	if v != ina2xx.INA219 && v != ina2xx.INA226 {
		return "", nil, fmt.Errorf("unknown variant %q", p.Variant)
	}
	o := &ina2xx.Opts{Address: p.Address, AutoRange: p.AutoRange}
	if err := o.SenseResistor.Set(p.Shunt); err != nil {
		return "", nil, fmt.Errorf("shunt: %w", err)
	}
	if err := o.MaxCurrent.Set(p.MaxCurrent); err != nil {
		return "", nil, fmt.Errorf("max_current: %w", err)
	}
	return v, o, nil
}

// setAddress overrides the profile address.
func (p *profile) setAddress(a int) error {
	if a < int(ina2xx.MinAddress) || a > int(ina2xx.MaxAddress) {
		return fmt.Errorf("address 0x%X: %w", a, ina2xx.ErrInvalidAddress)
	}
	p.Address = uint16(a)
	return nil
}

func (p *profile) mode() (ina2xx.Mode, error) {
	for m := ina2xx.PowerDown; m <= ina2xx.ShuntBusContinuous; m++ {
		if m.String() == p.Mode {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", p.Mode)
}

func (p *profile) interval() (time.Duration, error) {
	d, err := time.ParseDuration(p.Interval)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("interval must be positive")
	}
	return d, nil
}

// apply stores the ADC settings of the profile in the device cache.
func (p *profile) apply(d *ina2xx.Dev) error {
	switch p.BusRange {
	case 0:
	case 16:
		if err := d.SetBusVoltageRange(ina2xx.Bus16V); err != nil {
			return err
		}
	case 32:
		if err := d.SetBusVoltageRange(ina2xx.Bus32V); err != nil {
			return err
		}
	default:
		return fmt.Errorf("bus_range: %dV is not 16 or 32", p.BusRange)
	}
	if p.BusADC != nil {
		if err := d.SetBusADC(ina2xx.ADCSetting(*p.BusADC)); err != nil {
			return err
		}
	}
	if p.ShuntADC != nil {
		if err := d.SetShuntADC(ina2xx.ADCSetting(*p.ShuntADC)); err != nil {
			return err
		}
	}
	if p.Averaging != 0 {
		a, err := averaging(p.Averaging)
		if err != nil {
			return err
		}
		if err := d.SetAveraging(a); err != nil {
			return err
		}
	}
	if p.BusConversion != "" {
		c, err := conversionTime(p.BusConversion)
		if err != nil {
			return err
		}
		if err := d.SetBusConversionTime(c); err != nil {
			return err
		}
	}
	if p.ShuntConversion != "" {
		c, err := conversionTime(p.ShuntConversion)
		if err != nil {
			return err
		}
		if err := d.SetShuntConversionTime(c); err != nil {
			return err
		}
	}
	return nil
}

func averaging(n int) (ina2xx.Averaging, error) {
	for a := ina2xx.Avg1; a <= ina2xx.Avg1024; a++ {
		if a.Samples() == n {
			return a, nil
		}
	}
	return 0, fmt.Errorf("averaging: %d samples is not supported", n)
}

func conversionTime(s string) (ina2xx.ConversionTime, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	for c := ina2xx.CT140us; c <= ina2xx.CT8244us; c++ {
		if c.Duration() == d {
			return c, nil
		}
	}
	return 0, fmt.Errorf("conversion time %s is not supported", d)
}

