// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package readout renders sensor events to images, for use with any
// display.Drawer (OLED, e-paper, LED strip) or to save as a PNG.
package readout

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GermanBionicSystems/scd30/sensor"
)

// Opts represents the options available for rendering a panel.
type Opts struct {
	W, H int
	// Font size in points.
	FontSize   float64
	Background color.Color
	Foreground color.Color
	// Draw a level bar to the right of each value.
	Bars bool

	_ struct{}
}

// DefaultOpts fits a 128x64 monochrome OLED.
var DefaultOpts = Opts{
	W:          128,
	H:          64,
	FontSize:   12,
	Background: color.Black,
	Foreground: color.White,
	Bars:       true,
}

var (
	fontOnce sync.Once
	regular  *truetype.Font
	fontErr  error
)

func face(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		regular, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fontErr
	}
	return truetype.NewFace(regular, &truetype.Options{Size: size}), nil
}

// Level returns where the value of e sits in the range of d, from 0 to 1.
func Level(e sensor.Event, d sensor.Descriptor) float64 {
	span := float64(d.Max - d.Min)
	if span <= 0 {
		return 0
	}
	l := (float64(e.Value) - float64(d.Min)) / span
	return math.Max(0, math.Min(1, l))
}

// LevelColor returns green at level 0 through yellow to red at level 1.
func LevelColor(level float64) color.NRGBA {
	level = math.Max(0, math.Min(1, level))
	if level < 0.5 {
		return color.NRGBA{R: uint8(510 * level), G: 255, A: 255}
	}
	return color.NRGBA{R: 255, G: uint8(510 * (1 - level)), A: 255}
}

// Bar returns a width x 1 image with the first Level(e, d)*width pixels lit
// in the level's color and the rest black.
func Bar(e sensor.Event, d sensor.Descriptor, width int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, 1))
	level := Level(e, d)
	c := LevelColor(level)
	lit := int(math.Round(level * float64(width)))
	for x := 0; x < width; x++ {
		if x < lit {
			img.SetNRGBA(x, 0, c)
		} else {
			img.SetNRGBA(x, 0, color.NRGBA{A: 255})
		}
	}
	return img
}

// Format returns the value of e with its unit, rounded to the resolution of
// the quantity for display.
func Format(e sensor.Event) string {
	switch e.Kind {
	case sensor.KindCO2:
		return fmt.Sprintf("%.0f %s", e.Value, e.Kind.Unit())
	default:
		return fmt.Sprintf("%.1f %s", e.Value, e.Kind.Unit())
	}
}

// Panel draws one line per event. descs must be in the same order as events.
func Panel(events []sensor.Event, descs []sensor.Descriptor, opts *Opts) (image.Image, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if len(events) != len(descs) {
		return nil, fmt.Errorf("readout: %d events for %d descriptors", len(events), len(descs))
	}
	f, err := face(opts.FontSize)
	if err != nil {
		return nil, fmt.Errorf("readout: %w", err)
	}
	dc := gg.NewContext(opts.W, opts.H)
	dc.SetColor(opts.Background)
	dc.Clear()
	if len(events) == 0 {
		return dc.Image(), nil
	}
	dc.SetFontFace(f)
	lineH := float64(opts.H) / float64(len(events))
	barW := 0.0
	if opts.Bars {
		barW = float64(opts.W) / 4
	}
	for ix, e := range events {
		y := lineH*float64(ix) + lineH/2
		dc.SetColor(opts.Foreground)
		dc.DrawStringAnchored(Format(e), 2, y, 0, 0.5)
		if barW == 0 {
			continue
		}
		level := Level(e, descs[ix])
		x := float64(opts.W) - barW - 2
		dc.DrawRectangle(x, y-lineH/4, barW, lineH/2)
		dc.Stroke()
		dc.SetColor(LevelColor(level))
		dc.DrawRectangle(x, y-lineH/4, barW*level, lineH/2)
		dc.Fill()
	}
	return dc.Image(), nil
}

// SavePNG renders a panel and writes it to path.
func SavePNG(path string, events []sensor.Event, descs []sensor.Descriptor, opts *Opts) error {
	img, err := Panel(events, descs, opts)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}
