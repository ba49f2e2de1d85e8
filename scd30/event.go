// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd30

import (
	"time"

	"github.com/GermanBionicSystems/scd30/sensor"
)

// quantity indexes the three values of a measurement.
type quantity int

const (
	qHumidity quantity = iota
	qTemperature
	qCO2
)

var (
	// 480 LSB = 1°C >> 1 LSB = 1/480°C >> 1 LSB = 0.00208 °C
	temperatureDescriptor = sensor.Descriptor{
		Name:       "SCD30_T",
		Kind:       sensor.KindAmbientTemperature,
		Min:        -40,
		Max:        70,
		Resolution: 0.00208,
		MinDelay:   minInterval,
	}
	// 4096 LSB = 1 %rH >> 1 LSB = 2.441e-4 %rH
	humidityDescriptor = sensor.Descriptor{
		Name:       "SCD30_H",
		Kind:       sensor.KindRelativeHumidity,
		Min:        0,
		Max:        100,
		Resolution: 2.441e-4,
		MinDelay:   minInterval,
	}
	co2Descriptor = sensor.Descriptor{
		Name:       "SCD30_C",
		Kind:       sensor.KindCO2,
		Min:        0,
		Max:        40000,
		Resolution: 1,
		MinDelay:   minInterval,
	}
)

func (q quantity) descriptor() sensor.Descriptor {
	switch q {
	case qTemperature:
		return temperatureDescriptor
	case qHumidity:
		return humidityDescriptor
	default:
		return co2Descriptor
	}
}

func (q quantity) value(m *measurement) float32 {
	switch q {
	case qTemperature:
		return m.Temperature
	case qHumidity:
		return m.Humidity
	default:
		return m.CO2
	}
}

// snapshot performs a read and returns a copy of the resulting measurement.
// Adapters only see this copy.
func (d *Dev) snapshot() (measurement, error) {
	if err := d.bound(); err != nil {
		return measurement{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.read(); err != nil {
		return measurement{}, err
	}
	return d.last, nil
}

// sensorID returns the event id of q. An unbound Dev uses base id 0.
func (d *Dev) sensorID(q quantity) int32 {
	if d == nil {
		return int32(q)
	}
	return d.opts.SensorID + int32(q)
}

func (d *Dev) descriptor(q quantity) sensor.Descriptor {
	desc := q.descriptor()
	desc.SensorID = d.sensorID(q)
	return desc
}

// event builds a new event for q from m.
func (d *Dev) event(q quantity, m *measurement, ts time.Time) sensor.Event {
	return sensor.Event{
		Kind:      q.descriptor().Kind,
		SensorID:  d.sensorID(q),
		Timestamp: ts,
		Value:     q.value(m),
	}
}

func clock(now sensor.Clock) sensor.Clock {
	if now == nil {
		return time.Now
	}
	return now
}

// GetEvent reads the device and returns the temperature and humidity as
// sensor events stamped with now(). If now is nil, time.Now is used.
func (d *Dev) GetEvent(now sensor.Clock) (temperature, humidity sensor.Event, err error) {
	m, err := d.snapshot()
	if err != nil {
		return sensor.Event{}, sensor.Event{}, err
	}
	ts := clock(now)()
	return d.event(qTemperature, &m, ts), d.event(qHumidity, &m, ts), nil
}

// Events reads the device and returns temperature, humidity and CO2 events,
// in that order. It implements sensor.Multi.
func (d *Dev) Events(now sensor.Clock) ([]sensor.Event, error) {
	m, err := d.snapshot()
	if err != nil {
		return nil, err
	}
	ts := clock(now)()
	return []sensor.Event{
		d.event(qTemperature, &m, ts),
		d.event(qHumidity, &m, ts),
		d.event(qCO2, &m, ts),
	}, nil
}

// Descriptors returns the metadata of the events returned by Events.
func (d *Dev) Descriptors() []sensor.Descriptor {
	return []sensor.Descriptor{
		d.descriptor(qTemperature),
		d.descriptor(qHumidity),
		d.descriptor(qCO2),
	}
}

// TemperatureSensor returns a sensor.Sensor reporting the temperature.
func (d *Dev) TemperatureSensor() sensor.Sensor {
	return &quantitySensor{d: d, q: qTemperature}
}

// HumiditySensor returns a sensor.Sensor reporting the relative humidity.
func (d *Dev) HumiditySensor() sensor.Sensor {
	return &quantitySensor{d: d, q: qHumidity}
}

// CO2Sensor returns a sensor.Sensor reporting the CO2 concentration.
func (d *Dev) CO2Sensor() sensor.Sensor {
	return &quantitySensor{d: d, q: qCO2}
}

// quantitySensor adapts one quantity of a Dev to sensor.Sensor.
type quantitySensor struct {
	d *Dev
	q quantity
}

func (s *quantitySensor) Event(now sensor.Clock) (sensor.Event, error) {
	m, err := s.d.snapshot()
	if err != nil {
		return sensor.Event{}, err
	}
	return s.d.event(s.q, &m, clock(now)()), nil
}

func (s *quantitySensor) Descriptor() sensor.Descriptor {
	return s.d.descriptor(s.q)
}

var _ sensor.Multi = &Dev{}
var _ sensor.Sensor = &quantitySensor{}
