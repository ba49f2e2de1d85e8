// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sensor defines a uniform way for unrelated sensor drivers to report
// a single physical quantity as a timestamped event, along with static
// metadata describing the quantity.
package sensor

import (
	"fmt"
	"time"
)

// Kind identifies the physical quantity carried by an Event.
type Kind int

const (
	KindUnknown Kind = iota
	// KindAmbientTemperature is in degrees Celsius.
	KindAmbientTemperature
	// KindRelativeHumidity is in percent.
	KindRelativeHumidity
	// KindCO2 is a concentration in parts per million.
	KindCO2
	// KindPressure is in hectopascal.
	KindPressure
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindAmbientTemperature: "temperature",
	KindRelativeHumidity:   "relative_humidity",
	KindCO2:                "co2",
	KindPressure:           "pressure",
}

var kindUnits = map[Kind]string{
	KindAmbientTemperature: "°C",
	KindRelativeHumidity:   "%rH",
	KindCO2:                "ppm",
	KindPressure:           "hPa",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Unit returns the unit symbol Event values of this kind are expressed in.
func (k Kind) Unit() string {
	return kindUnits[k]
}

// Clock returns the timestamp to stamp an event with. time.Now is the usual
// value.
type Clock func() time.Time

// Event is a snapshot of one quantity. Events are built on every request and
// never shared.
type Event struct {
	Kind      Kind
	SensorID  int32
	Timestamp time.Time
	Value     float32
}

func (e Event) String() string {
	return fmt.Sprintf("%s[%d]: %g%s", e.Kind, e.SensorID, e.Value, e.Kind.Unit())
}

// Descriptor is the static metadata of a quantity.
type Descriptor struct {
	// Human readable name.
	Name     string
	Kind     Kind
	SensorID int32
	// Valid range of values.
	Min, Max float32
	// Resolution in units per least significant bit.
	Resolution float32
	// Minimum time between two distinct readings. 0 if not applicable.
	MinDelay time.Duration
}

// Contains reports whether v is inside the valid range of the descriptor.
func (d *Descriptor) Contains(v float32) bool {
	return v >= d.Min && v <= d.Max
}

// Sensor reports a single quantity.
type Sensor interface {
	// Event performs a reading and returns it stamped with now().
	Event(now Clock) (Event, error)
	// Descriptor returns the static metadata of the quantity.
	Descriptor() Descriptor
}

// Multi reports several quantities from a single reading.
type Multi interface {
	// Events performs one reading and returns an event per quantity, all
	// stamped with the same timestamp.
	Events(now Clock) ([]Event, error)
	// Descriptors returns the metadata for the events returned by Events, in
	// the same order.
	Descriptors() []Descriptor
}
