// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd30

import "fmt"

// Command is a 16-bit SCD30 command word. Command words are always sent most
// significant byte first.
type Command uint16

func (c Command) String() string {
	return fmt.Sprintf("0x%04x", uint16(c))
}

// CommandSet maps device operations to command words. Device variants with a
// different command map can supply their own set in Opts.
type CommandSet struct {
	// Argument is the ambient pressure in mbar, 0 to disable compensation.
	StartContinuous Command
	StopContinuous  Command
	// Argument is the interval in seconds. Read returns the current value.
	SetInterval Command
	DataReady   Command
	// Read returns 18 bytes.
	ReadMeasurement Command
	// Argument is 1 to enable, 0 to disable.
	SelfCalibration Command
	// Argument is the reference CO2 concentration in ppm.
	ForcedRecalibration Command
	// Argument is in units of 0.01 K.
	TemperatureOffset Command
	// Argument is in metres above sea level.
	AltitudeCompensation Command
	FirmwareVersion      Command
	SoftReset            Command
}

// DefaultCommands is the SCD30 command map.
var DefaultCommands = CommandSet{
	StartContinuous:      0x0010,
	StopContinuous:       0x0104,
	SetInterval:          0x4600,
	DataReady:            0x0202,
	ReadMeasurement:      0x0300,
	SelfCalibration:      0x5306,
	ForcedRecalibration:  0x5204,
	TemperatureOffset:    0x5403,
	AltitudeCompensation: 0x5102,
	FirmwareVersion:      0xd100,
	SoftReset:            0xd304,
}
