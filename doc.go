// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package devices is a container for the Sensirion SCD30 driver and the
// packages it reports through.
//
// The driver lives in scd30. Readings are exposed as sensor events (package
// sensor), exported to Prometheus (sensor/sensorprom), rendered to images
// (readout) or shown in a terminal (screen1d). cmd/scd30 ties them together.
package devices
