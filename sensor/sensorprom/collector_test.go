// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensorprom

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/GermanBionicSystems/scd30/sensor"
)

type fakeMulti struct {
	values []float32
	err    error
	reads  int
}

func (f *fakeMulti) Descriptors() []sensor.Descriptor {
	return []sensor.Descriptor{
		{Name: "T", Kind: sensor.KindAmbientTemperature},
		{Name: "H", Kind: sensor.KindRelativeHumidity},
		{Name: "C", Kind: sensor.KindCO2},
	}
}

func (f *fakeMulti) Events(now sensor.Clock) ([]sensor.Event, error) {
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	ts := now()
	var events []sensor.Event
	for ix, d := range f.Descriptors() {
		events = append(events, sensor.Event{Kind: d.Kind, Timestamp: ts, Value: f.values[ix]})
	}
	return events, nil
}

func TestCollect(t *testing.T) {
	src := &fakeMulti{values: []float32{21.5, 40.25, 500}}
	c := New("scd30", src)
	expected := `
# HELP scd30_co2_ppm CO2 concentration in parts per million.
# TYPE scd30_co2_ppm gauge
scd30_co2_ppm{sensor="C"} 500
# HELP scd30_read_errors_total Number of failed sensor readings.
# TYPE scd30_read_errors_total counter
scd30_read_errors_total 0
# HELP scd30_relative_humidity_percent Relative humidity in percent.
# TYPE scd30_relative_humidity_percent gauge
scd30_relative_humidity_percent{sensor="H"} 40.25
# HELP scd30_temperature_celsius Ambient temperature in degrees Celsius.
# TYPE scd30_temperature_celsius gauge
scd30_temperature_celsius{sensor="T"} 21.5
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
	if src.reads != 1 {
		t.Errorf("expected 1 reading per scrape, got %d", src.reads)
	}
}

func TestCollectError(t *testing.T) {
	src := &fakeMulti{err: errors.New("bus error")}
	c := New("scd30", src)
	expected := `
# HELP scd30_read_errors_total Number of failed sensor readings.
# TYPE scd30_read_errors_total counter
scd30_read_errors_total 1
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "scd30_read_errors_total"); err != nil {
		t.Error(err)
	}
}

func TestRegister(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(New("scd30", &fakeMulti{values: []float32{1, 2, 3}})); err != nil {
		t.Fatal(err)
	}
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(mfs) != 4 {
		t.Errorf("expected 4 metric families, got %d", len(mfs))
	}
}
