// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ina2xx

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

// calibrated returns a Dev calibrated for 1A, through 100mΩ on an INA219 and
// 10mΩ on an INA226, followed by ops.
func calibrated(t *testing.T, v Variant, ops ...i2ctest.IO) (*Dev, *i2ctest.Playback) {
	t.Helper()
	r := 100 * physic.MilliOhm
	w := []byte{0x05, 0x34, 0x6D}
	if v == INA226 {
		r = 10 * physic.MilliOhm
		w = []byte{0x05, 0x41, 0x89}
	}
	d, pb := newDev(t, v, nil, append([]i2ctest.IO{{Addr: addr, W: w}}, ops...))
	if _, err := d.Calibrate(physic.Ampere, r); err != nil {
		t.Fatal(err)
	}
	return d, pb
}

func TestShuntVoltage(t *testing.T) {
	for _, test := range []struct {
		v    Variant
		raw  []byte
		want physic.ElectricPotential
	}{
		{INA219, []byte{0x00, 0x64}, physic.MilliVolt},
		{INA219, []byte{0xFF, 0x9C}, -physic.MilliVolt},
		{INA219, []byte{0x7D, 0x00}, 320 * physic.MilliVolt},
		{INA226, []byte{0x01, 0x90}, physic.MilliVolt},
		{INA226, []byte{0x80, 0x00}, -81920 * physic.MicroVolt},
	} {
		d, pb := newDev(t, test.v, nil, []i2ctest.IO{
			{Addr: addr, W: []byte{0x01}, R: test.raw},
		})
		got, err := d.ShuntVoltage()
		if err != nil {
			t.Fatal(err)
		}
		if got != test.want {
			t.Errorf("%s % X: got %s, want %s", test.v, test.raw, got, test.want)
		}
		checkDone(t, pb)
	}
}

func TestBusVoltage(t *testing.T) {
	t.Run("INA219", func(t *testing.T) {
		d, pb := newDev(t, INA219, nil, []i2ctest.IO{
			{Addr: addr, W: []byte{0x02}, R: []byte{0x0C, 0x03}},
			{Addr: addr, W: []byte{0x02}, R: []byte{0x0C, 0x00}},
		})
		v, s, err := d.BusVoltage()
		if err != nil {
			t.Fatal(err)
		}
		if v != 1536*physic.MilliVolt || !s.Ready || !s.Overflow {
			t.Fatalf("got %s %+v", v, s)
		}
		v, s, err = d.BusVoltage()
		if err != nil {
			t.Fatal(err)
		}
		if v != 1536*physic.MilliVolt || s.Ready || s.Overflow {
			t.Fatalf("got %s %+v", v, s)
		}
		checkDone(t, pb)
	})
	t.Run("INA226", func(t *testing.T) {
		d, pb := newDev(t, INA226, nil, []i2ctest.IO{
			{Addr: addr, W: []byte{0x02}, R: []byte{0x25, 0x80}},
			{Addr: addr, W: []byte{0x06}, R: []byte{0x00, 0x08}},
		})
		v, s, err := d.BusVoltage()
		if err != nil {
			t.Fatal(err)
		}
		if v != 12*physic.Volt || !s.Ready || s.Overflow {
			t.Fatalf("got %s %+v", v, s)
		}
		checkDone(t, pb)
	})
}

func TestStatus(t *testing.T) {
	d, pb := newDev(t, INA226, nil, []i2ctest.IO{
		{Addr: addr, W: []byte{0x06}, R: []byte{0x00, 0x04}},
	})
	s, err := d.Status()
	if err != nil {
		t.Fatal(err)
	}
	if s.Ready || !s.Overflow {
		t.Fatalf("got %+v", s)
	}
	checkDone(t, pb)

	d, pb = newDev(t, INA219, nil, []i2ctest.IO{
		{Addr: addr, W: []byte{0x02}, R: []byte{0x00, 0x02}},
	})
	if s, err = d.Status(); err != nil {
		t.Fatal(err)
	}
	if !s.Ready || s.Overflow {
		t.Fatalf("got %+v", s)
	}
	checkDone(t, pb)
}

func TestCurrentAndPower(t *testing.T) {
	for _, test := range []struct {
		name    string
		v       Variant
		current []byte
		power   []byte
		wantI   physic.ElectricCurrent
		wantP   physic.Power
	}{
		{"INA219 full scale", INA219, []byte{0x7F, 0xFF}, []byte{0x00, 0x64}, 999969482 * physic.NanoAmpere, 61035156 * physic.NanoWatt},
		{"INA219 negative", INA219, []byte{0xFF, 0x9C}, []byte{0x00, 0x00}, -3051758 * physic.NanoAmpere, 0},
		{"INA226 half scale", INA226, []byte{0x40, 0x00}, []byte{0x00, 0x0A}, 500 * physic.MilliAmpere, 7629395 * physic.NanoWatt},
	} {
		t.Run(test.name, func(t *testing.T) {
			d, pb := calibrated(t, test.v,
				i2ctest.IO{Addr: addr, W: []byte{0x04}, R: test.current},
				i2ctest.IO{Addr: addr, W: []byte{0x03}, R: test.power},
			)
			i, err := d.Current()
			if err != nil {
				t.Fatal(err)
			}
			if i != test.wantI {
				t.Errorf("current: got %s, want %s", i, test.wantI)
			}
			p, err := d.Power()
			if err != nil {
				t.Fatal(err)
			}
			if p != test.wantP {
				t.Errorf("power: got %s, want %s", p, test.wantP)
			}
			checkDone(t, pb)
		})
	}
}

func TestCurrentUncalibrated(t *testing.T) {
	d, pb := newDev(t, INA219, nil, []i2ctest.IO{
		{Addr: addr, W: []byte{0x04}, R: []byte{0x12, 0x34}},
	})
	i, err := d.Current()
	if err != nil {
		t.Fatal(err)
	}
	if i != 0 {
		t.Fatalf("got %s", i)
	}
	checkDone(t, pb)
}

func TestSense(t *testing.T) {
	d, pb := calibrated(t, INA226,
		i2ctest.IO{Addr: addr, W: []byte{0x01}, R: []byte{0x01, 0x90}},
		i2ctest.IO{Addr: addr, W: []byte{0x02}, R: []byte{0x25, 0x80}},
		i2ctest.IO{Addr: addr, W: []byte{0x06}, R: []byte{0x00, 0x0C}},
		i2ctest.IO{Addr: addr, W: []byte{0x04}, R: []byte{0x40, 0x00}},
		i2ctest.IO{Addr: addr, W: []byte{0x03}, R: []byte{0x00, 0x0A}},
	)
	var p PowerMonitor
	if err := d.Sense(&p); err != nil {
		t.Fatal(err)
	}
	want := PowerMonitor{
		Shunt:   physic.MilliVolt,
		Voltage: 12 * physic.Volt,
		Current: 500 * physic.MilliAmpere,
		Power:   7629395 * physic.NanoWatt,
		Status:  Status{Ready: true, Overflow: true},
	}
	if p != want {
		t.Fatalf("got %+v, want %+v", p, want)
	}
	checkDone(t, pb)
}

func TestSenseINA219Status(t *testing.T) {
	d, pb := calibrated(t, INA219,
		i2ctest.IO{Addr: addr, W: []byte{0x01}, R: []byte{0x00, 0x64}},
		i2ctest.IO{Addr: addr, W: []byte{0x02}, R: []byte{0x0C, 0x02}},
		i2ctest.IO{Addr: addr, W: []byte{0x04}, R: []byte{0x7F, 0xFF}},
		i2ctest.IO{Addr: addr, W: []byte{0x03}, R: []byte{0x00, 0x64}},
	)
	var p PowerMonitor
	if err := d.Sense(&p); err != nil {
		t.Fatal(err)
	}
	if p.Status != (Status{Ready: true}) || p.Voltage != 1536*physic.MilliVolt {
		t.Fatalf("got %+v", p)
	}
	checkDone(t, pb)
}

func TestNext(t *testing.T) {
	shunt := i2ctest.IO{Addr: addr, W: []byte{0x01}, R: []byte{0x00, 0x64}}
	bus := i2ctest.IO{Addr: addr, W: []byte{0x02}, R: []byte{0x0C, 0x02}}
	for _, test := range []struct {
		mode Mode
		ops  []i2ctest.IO
		want Reading
	}{
		{ShuntBusContinuous, []i2ctest.IO{shunt, bus}, Reading{Kind: ReadingBoth, Shunt: physic.MilliVolt, Bus: 1536 * physic.MilliVolt, Status: Status{Ready: true}}},
		{ShuntBusTriggered, []i2ctest.IO{shunt, bus}, Reading{Kind: ReadingBoth, Shunt: physic.MilliVolt, Bus: 1536 * physic.MilliVolt, Status: Status{Ready: true}}},
		{ShuntContinuous, []i2ctest.IO{shunt}, Reading{Kind: ReadingShunt, Shunt: physic.MilliVolt}},
		{ShuntTriggered, []i2ctest.IO{shunt}, Reading{Kind: ReadingShunt, Shunt: physic.MilliVolt}},
		{BusContinuous, []i2ctest.IO{bus}, Reading{Kind: ReadingBus, Bus: 1536 * physic.MilliVolt, Status: Status{Ready: true}}},
		{BusTriggered, []i2ctest.IO{bus}, Reading{Kind: ReadingBus, Bus: 1536 * physic.MilliVolt, Status: Status{Ready: true}}},
		{PowerDown, nil, Reading{Kind: ReadingNone}},
	} {
		t.Run(test.mode.String(), func(t *testing.T) {
			d, pb := newDev(t, INA219, nil, test.ops)
			if err := d.SetMode(test.mode); err != nil {
				t.Fatal(err)
			}
			got, err := d.Next()
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Fatalf("got %+v, want %+v", got, test.want)
			}
			checkDone(t, pb)
		})
	}
}

func TestNextReadError(t *testing.T) {
	d, pb := newDev(t, INA219, nil, nil)
	if _, err := d.Next(); err == nil {
		t.Fatal("expected error")
	}
	_ = pb.Close()
}

func TestADCSettingConversionTime(t *testing.T) {
	for _, test := range []struct {
		a    ADCSetting
		want time.Duration
	}{
		{ADC9Bit, 84 * time.Microsecond},
		{ADC10Bit, 148 * time.Microsecond},
		{ADC11Bit, 276 * time.Microsecond},
		{ADC12Bit, 532 * time.Microsecond},
		{0x4, 84 * time.Microsecond},
		{0x7, 532 * time.Microsecond},
		{ADC12Bit1Sample, 532 * time.Microsecond},
		{ADC2Samples, 1064 * time.Microsecond},
		{ADC16Samples, 8512 * time.Microsecond},
		{ADC128Samples, 68096 * time.Microsecond},
	} {
		if got := test.a.ConversionTime(); got != test.want {
			t.Errorf("0x%X: got %s, want %s", uint8(test.a), got, test.want)
		}
	}
}

func TestConversionCycleTime(t *testing.T) {
	d, _ := newDev(t, INA219, nil, nil)
	if got := d.ConversionCycleTime(); got != 532*time.Microsecond {
		t.Fatalf("default: got %s", got)
	}
	if err := d.SetBusADC(ADC4Samples); err != nil {
		t.Fatal(err)
	}
	if got := d.ConversionCycleTime(); got != 2128*time.Microsecond {
		t.Fatalf("bus averaging: got %s", got)
	}
	if err := d.SetMode(ShuntTriggered); err != nil {
		t.Fatal(err)
	}
	if got := d.ConversionCycleTime(); got != 532*time.Microsecond {
		t.Fatalf("shunt only: got %s", got)
	}
	if err := d.SetMode(PowerDown); err != nil {
		t.Fatal(err)
	}
	if got := d.ConversionCycleTime(); got != 0 {
		t.Fatalf("power down: got %s", got)
	}

	d, _ = newDev(t, INA226, nil, nil)
	if got := d.ConversionCycleTime(); got != 1100*time.Microsecond {
		t.Fatalf("default: got %s", got)
	}
	if err := d.SetAveraging(Avg4); err != nil {
		t.Fatal(err)
	}
	if got := d.ConversionCycleTime(); got != 4400*time.Microsecond {
		t.Fatalf("averaging: got %s", got)
	}
	if err := d.SetShuntConversionTime(CT8244us); err != nil {
		t.Fatal(err)
	}
	if got := d.ConversionCycleTime(); got != 32976*time.Microsecond {
		t.Fatalf("slow shunt: got %s", got)
	}
}

func TestModeString(t *testing.T) {
	for m, want := range map[Mode]string{
		PowerDown:          "PowerDown",
		ShuntTriggered:     "ShuntTriggered",
		BusTriggered:       "BusTriggered",
		ShuntBusTriggered:  "ShuntBusTriggered",
		ADCOff:             "ADCOff",
		ShuntContinuous:    "ShuntContinuous",
		BusContinuous:      "BusContinuous",
		ShuntBusContinuous: "ShuntBusContinuous",
	} {
		if got := m.String(); got != want {
			t.Errorf("%d: got %q, want %q", m, got, want)
		}
	}
	for k, want := range map[ReadingKind]string{
		ReadingNone:  "None",
		ReadingShunt: "Shunt",
		ReadingBus:   "Bus",
		ReadingBoth:  "Both",
	} {
		if got := k.String(); got != want {
			t.Errorf("%d: got %q, want %q", k, got, want)
		}
	}
}
