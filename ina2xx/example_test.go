// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ina2xx_test

import (
	"fmt"
	"log"
	"time"

	"github.com/GermanBionicSystems/powermon/ina2xx"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	// Open default I²C bus.
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer bus.Close()

	dev, err := ina2xx.New(bus, ina2xx.INA219, &ina2xx.Opts{
		Address:       0x40,
		SenseResistor: 100 * physic.MilliOhm,
		MaxCurrent:    physic.Ampere,
		AutoRange:     true,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Halt()

	if err := dev.StartMeasurement(ina2xx.ShuntBusContinuous, true); err != nil {
		log.Fatal(err)
	}
	time.Sleep(dev.ConversionCycleTime())

	var p ina2xx.PowerMonitor
	if err := dev.Sense(&p); err != nil {
		log.Fatal(err)
	}
	fmt.Println(p)
}

func ExampleDev_Next() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	dev, err := ina2xx.New(bus, ina2xx.INA226, &ina2xx.Opts{Address: 0x45})
	if err != nil {
		log.Fatal(err)
	}
	if _, err := dev.LoadConfig(); err != nil {
		log.Fatal(err)
	}
	if err := dev.SetAveraging(ina2xx.Avg16); err != nil {
		log.Fatal(err)
	}
	if err := dev.StartMeasurement(ina2xx.BusContinuous, false); err != nil {
		log.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		time.Sleep(dev.ConversionCycleTime())
		r, err := dev.Next()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s %s ready=%t\n", r.Kind, r.Bus, r.Status.Ready)
	}
}
