// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sensorprom exports the events of a sensor.Multi as Prometheus
// gauges. Every scrape performs one reading.
package sensorprom

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GermanBionicSystems/scd30/sensor"
)

var kindMetrics = map[sensor.Kind]struct{ name, help string }{
	sensor.KindAmbientTemperature: {"temperature_celsius", "Ambient temperature in degrees Celsius."},
	sensor.KindRelativeHumidity:   {"relative_humidity_percent", "Relative humidity in percent."},
	sensor.KindCO2:                {"co2_ppm", "CO2 concentration in parts per million."},
	sensor.KindPressure:           {"pressure_hectopascal", "Pressure in hectopascal."},
}

// Collector implements prometheus.Collector for a sensor.Multi.
type Collector struct {
	src    sensor.Multi
	descs  map[sensor.Kind]*prometheus.Desc
	errors prometheus.Counter

	// Serializes scrapes; the source is not expected to be safe for
	// concurrent use.
	mu sync.Mutex
}

// New returns a Collector reading from src. namespace prefixes every metric
// name, for example "scd30".
func New(namespace string, src sensor.Multi) *Collector {
	c := &Collector{
		src:   src,
		descs: map[sensor.Kind]*prometheus.Desc{},
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_errors_total",
			Help:      "Number of failed sensor readings.",
		}),
	}
	for _, d := range src.Descriptors() {
		m, ok := kindMetrics[d.Kind]
		if !ok {
			continue
		}
		c.descs[d.Kind] = prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", m.name),
			m.help,
			nil,
			prometheus.Labels{"sensor": d.Name},
		)
	}
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
	c.errors.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	events, err := c.src.Events(time.Now)
	if err != nil {
		c.errors.Inc()
	}
	for _, e := range events {
		d, ok := c.descs[e.Kind]
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(e.Value))
	}
	ch <- c.errors
}

var _ prometheus.Collector = &Collector{}
