// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ina2xx reads an INA219 or INA226 current monitor.
//
// The measurement setup comes from an optional YAML profile:
//
//	variant: INA226
//	address: 0x41
//	shunt: 10mOhm
//	max_current: 2A
//	mode: ShuntBusContinuous
//	averaging: 16
//	interval: 250ms
//
// Flags override the profile.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/GermanBionicSystems/powermon/gauge"
	"github.com/GermanBionicSystems/powermon/ina2xx"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

func mainImpl() error {
	busName := flag.String("b", "", "I²C bus to use")
	profilePath := flag.String("p", "", "YAML measurement profile")
	variant := flag.String("v", "", "chip variant, INA219 or INA226")
	addr := flag.Int("a", 0, "I²C address, 0x40 to 0x4F")
	var shunt physic.ElectricResistance
	flag.Var(&shunt, "shunt", "sense resistor, e.g. 100mOhm")
	var maxCurrent physic.ElectricCurrent
	flag.Var(&maxCurrent, "max", "maximum expected current, e.g. 800mA")
	count := flag.Int("n", 0, "number of readings, 0 for unlimited")
	plain := flag.Bool("plain", false, "print one line per reading even on a terminal")
	verbose := flag.Bool("verbose", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}

	p, err := loadProfile(*profilePath)
	if err != nil {
		return err
	}
	if *variant != "" {
		p.Variant = *variant
	}
	if *addr != 0 {
		if err := p.setAddress(*addr); err != nil {
			return err
		}
	}
	if shunt != 0 {
		p.Shunt = shunt.String()
	}
	if maxCurrent != 0 {
		p.MaxCurrent = maxCurrent.String()
	}
	v, opts, err := p.opts()
	if err != nil {
		return err
	}
	mode, err := p.mode()
	if err != nil {
		return err
	}
	interval, err := p.interval()
	if err != nil {
		return err
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		return err
	}
	defer bus.Close()

	dev, err := ina2xx.New(bus, v, opts)
	if err != nil {
		return err
	}
	if _, err := dev.LoadConfig(); err != nil {
		return err
	}
	if err := p.apply(dev); err != nil {
		return err
	}
	if err := dev.StartMeasurement(mode, true); err != nil {
		return err
	}
	defer dev.Halt()
	log.Printf("%s config %+v", dev, dev.Config())
	log.Printf("%s calibration %+v", dev, dev.Calibration())

	var g *gauge.Dev
	if !*plain && isatty.IsTerminal(os.Stdout.Fd()) {
		if g, err = gauge.New(&gauge.Opts{X: 40}); err != nil {
			return err
		}
		defer g.Halt()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	t := time.NewTicker(interval)
	defer t.Stop()
	for i := 0; *count == 0 || i < *count; i++ {
		if !mode.Continuous() {
			// Each write of the configuration triggers one conversion.
			if err := dev.CommitConfig(); err != nil {
				return err
			}
		}
		time.Sleep(dev.ConversionCycleTime())
		line, cur, err := read(dev)
		if err != nil {
			return err
		}
		if g != nil && cur != nil {
			if err := g.Level(float64(*cur), float64(opts.MaxCurrent), line); err != nil {
				return err
			}
		} else {
			fmt.Println(line)
		}
		select {
		case <-c:
			return nil
		case <-t.C:
		}
	}
	return nil
}

// read formats the channels enabled on dev. cur is set when both are, as
// current and power are only meaningful then.
func read(dev *ina2xx.Dev) (string, *physic.ElectricCurrent, error) {
	r, err := dev.Next()
	if err != nil {
		return "", nil, err
	}
	var line string
	switch r.Kind {
	case ina2xx.ReadingShunt:
		line = fmt.Sprintf("shunt %8s", r.Shunt)
	case ina2xx.ReadingBus:
		line = fmt.Sprintf("bus %8s", r.Bus)
	case ina2xx.ReadingBoth:
		line = fmt.Sprintf("shunt %8s  bus %8s", r.Shunt, r.Bus)
	default:
		return "powered down", nil, nil
	}
	if r.Status.Overflow {
		line += "  OVERFLOW"
	}
	if r.Kind != ina2xx.ReadingBoth {
		return line, nil, nil
	}
	i, err := dev.Current()
	if err != nil {
		return "", nil, err
	}
	w, err := dev.Power()
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s  %8s  %8s", line, i, w), &i, nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "ina2xx: %s.\n", err)
		os.Exit(1)
	}
}
