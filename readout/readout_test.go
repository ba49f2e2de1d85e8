// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package readout

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/fogleman/gg"

	"github.com/GermanBionicSystems/scd30/sensor"
)

var (
	co2 = sensor.Descriptor{Name: "C", Kind: sensor.KindCO2, Min: 0, Max: 2000}
	rh  = sensor.Descriptor{Name: "H", Kind: sensor.KindRelativeHumidity, Min: 0, Max: 100}
)

func TestLevel(t *testing.T) {
	tests := []struct {
		v    float32
		want float64
	}{
		{-10, 0},
		{0, 0},
		{500, 0.25},
		{2000, 1},
		{4000, 1},
	}
	for _, test := range tests {
		if l := Level(sensor.Event{Value: test.v}, co2); l != test.want {
			t.Errorf("Level(%g)=%g expected %g", test.v, l, test.want)
		}
	}
	if l := Level(sensor.Event{Value: 5}, sensor.Descriptor{}); l != 0 {
		t.Errorf("Level() with empty range=%g", l)
	}
}

func TestLevelColor(t *testing.T) {
	if c := LevelColor(0); c != (color.NRGBA{G: 255, A: 255}) {
		t.Errorf("LevelColor(0)=%#v", c)
	}
	if c := LevelColor(1); c != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("LevelColor(1)=%#v", c)
	}
	if c := LevelColor(0.5); c != (color.NRGBA{R: 255, G: 255, A: 255}) {
		t.Errorf("LevelColor(0.5)=%#v", c)
	}
}

func TestBar(t *testing.T) {
	img := Bar(sensor.Event{Value: 1000}, co2, 10)
	if img.Bounds() != image.Rect(0, 0, 10, 1) {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	lit := 0
	for x := 0; x < 10; x++ {
		if img.NRGBAAt(x, 0) != (color.NRGBA{A: 255}) {
			lit++
		}
	}
	if lit != 5 {
		t.Errorf("expected 5 lit pixels, got %d", lit)
	}
}

func TestFormat(t *testing.T) {
	if s := Format(sensor.Event{Kind: sensor.KindCO2, Value: 439.09}); s != "439 ppm" {
		t.Errorf("Format()=%q", s)
	}
	if s := Format(sensor.Event{Kind: sensor.KindAmbientTemperature, Value: 27.238}); s != "27.2 °C" {
		t.Errorf("Format()=%q", s)
	}
}

func TestPanel(t *testing.T) {
	events := []sensor.Event{
		{Kind: sensor.KindCO2, Value: 800},
		{Kind: sensor.KindRelativeHumidity, Value: 45},
	}
	img, err := Panel(events, []sensor.Descriptor{co2, rh}, nil)
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	if b.Dx() != DefaultOpts.W || b.Dy() != DefaultOpts.H {
		t.Fatalf("unexpected bounds %v", b)
	}
	drawn := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, g, bl, _ := img.At(x, y).RGBA(); r|g|bl != 0 {
				drawn++
			}
		}
	}
	if drawn == 0 {
		t.Error("nothing drawn on the panel")
	}

	if _, err := Panel(events, []sensor.Descriptor{co2}, nil); err == nil {
		t.Error("expected error for mismatched descriptors")
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.png")
	events := []sensor.Event{{Kind: sensor.KindCO2, Value: 420}}
	opts := DefaultOpts
	opts.Bars = false
	if err := SavePNG(path, events, []sensor.Descriptor{co2}, &opts); err != nil {
		t.Fatal(err)
	}
	img, err := gg.LoadPNG(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != opts.W {
		t.Errorf("unexpected width %d", img.Bounds().Dx())
	}
}
