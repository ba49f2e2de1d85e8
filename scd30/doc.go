// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package scd30 provides a driver for the Sensirion SCD30 CO2, temperature
// and humidity sensor module over I²C.
//
// The SCD30 samples continuously at a configurable interval once started.
// Every reading is 18 bytes: six 16-bit words, each followed by a CRC-8
// byte. Pairs of words form the three quantities (CO2, temperature and
// humidity) as IEEE-754 single precision values.
//
// The device requires an I²C stop between the command and the read phase of
// a transaction, so reads are never performed as a combined write/read with
// repeated start.
//
// # Datasheet
//
// https://sensirion.com/media/documents/4EAF6AF8/61652C3C/Sensirion_CO2_Sensors_SCD30_Datasheet.pdf
//
// # Interface description
//
// https://sensirion.com/media/documents/D7CEEF4A/6165372F/Sensirion_CO2_Sensors_SCD30_Interface_Description.pdf
package scd30
