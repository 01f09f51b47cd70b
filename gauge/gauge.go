// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gauge

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for this gauge.
type Opts struct {
	// X is the width in cells.
	X       int
	Palette *ansi256.Palette
	// W defaults to a colour capable stdout.
	W io.Writer

	_ struct{}
}

var (
	// Empty cells.
	background = color.NRGBA{0x30, 0x30, 0x30, 0xFF}
	// Cells of a negative reading.
	reverse = color.NRGBA{0x00, 0x80, 0xFF, 0xFF}
)

// Dev is a bar gauge that outputs to a terminal.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette

	cells []color.NRGBA
	buf   bytes.Buffer
}

// New returns a gauge X cells wide.
func New(opts *Opts) (*Dev, error) {
	if opts.X <= 0 {
		return nil, fmt.Errorf("gauge: invalid width %d", opts.X)
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{w: w, palette: *p, cells: make([]color.NRGBA, opts.X)}, nil
}

func (d *Dev) String() string {
	return "Gauge"
}

// Halt resets the terminal attributes and ends the line.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Level redraws the gauge with v out of fullScale, followed by label.
//
// The filled part goes from green to red as it reaches full scale. A negative
// v is drawn in blue with its magnitude.
func (d *Dev) Level(v, fullScale float64, label string) error {
	if fullScale <= 0 || math.IsNaN(v) {
		return errors.New("gauge: invalid level")
	}
	n := Cells(v, fullScale, len(d.cells))
	for i := range d.cells {
		switch {
		case i >= n:
			d.cells[i] = background
		case v < 0:
			d.cells[i] = reverse
		default:
			d.cells[i] = ramp(i, len(d.cells))
		}
	}
	return d.refresh(label)
}

// Cells returns how many of width cells v out of fullScale fills, rounded to
// the nearest cell and clamped to width.
func Cells(v, fullScale float64, width int) int {
	n := int(math.Round(math.Abs(v) / fullScale * float64(width)))
	if n > width {
		return width
	}
	return n
}

// ramp returns the colour of cell i out of width: green, yellow at half, red
// at the end.
func ramp(i, width int) color.NRGBA {
	if width < 2 {
		return color.NRGBA{0x00, 0xFF, 0x00, 0xFF}
	}
	f := float64(i) / float64(width-1)
	if f <= 0.5 {
		return color.NRGBA{uint8(math.Round(f * 2 * 0xFF)), 0xFF, 0x00, 0xFF}
	}
	return color.NRGBA{0xFF, uint8(math.Round((1 - f) * 2 * 0xFF)), 0x00, 0xFF}
}

func (d *Dev) refresh(label string) error {
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for _, c := range d.cells {
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m ")
	_, _ = d.buf.WriteString(label)
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ fmt.Stringer = &Dev{}
