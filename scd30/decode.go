// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd30

import (
	"errors"
	"fmt"
	"math"

	"github.com/GermanBionicSystems/scd30/common"
)

// measurementSize is the length of a read measurement response: CO2,
// temperature and humidity, two framed words each.
const measurementSize = 6 * common.WordSize

// DecodeMode selects how the raw 32-bit quantities of a measurement are
// converted. Device firmware has shipped with both conventions; pick the one
// matching the device revision in Opts.
type DecodeMode interface {
	decode(co2, temperature, humidity uint32) measurement
	fmt.Stringer
}

// FloatMode reinterprets each raw quantity as an IEEE-754 single precision
// bit pattern. This is the SCD30 interface description format.
type FloatMode struct{}

func (FloatMode) decode(co2, temperature, humidity uint32) measurement {
	return measurement{
		CO2:         math.Float32frombits(co2),
		Temperature: math.Float32frombits(temperature),
		Humidity:    math.Float32frombits(humidity),
	}
}

func (FloatMode) String() string {
	return "float"
}

// FixedPointMode treats each raw quantity as a signed 32-bit integer and
// scales it:
//
//	CO2         = raw / CO2Scale
//	Temperature = raw / TemperatureScale + TemperatureOffset
//	Humidity    = raw / HumidityScale
//
// A zero scale is treated as 1.
type FixedPointMode struct {
	CO2Scale          float64
	TemperatureScale  float64
	TemperatureOffset float64
	HumidityScale     float64
}

// DefaultFixedPoint holds the scaling used by fixed point firmware.
var DefaultFixedPoint = FixedPointMode{
	CO2Scale:          1,
	TemperatureScale:  480,
	TemperatureOffset: 42.5,
	HumidityScale:     4096,
}

func (f FixedPointMode) decode(co2, temperature, humidity uint32) measurement {
	return measurement{
		CO2:         float32(float64(int32(co2)) / nonZero(f.CO2Scale)),
		Temperature: float32(float64(int32(temperature))/nonZero(f.TemperatureScale) + f.TemperatureOffset),
		Humidity:    float32(float64(int32(humidity)) / nonZero(f.HumidityScale)),
	}
}

func (f FixedPointMode) String() string {
	return fmt.Sprintf("fixed(co2/%g, t/%g%+g, rh/%g)", nonZero(f.CO2Scale), nonZero(f.TemperatureScale), f.TemperatureOffset, nonZero(f.HumidityScale))
}

func nonZero(scale float64) float64 {
	if scale == 0 {
		return 1
	}
	return scale
}

// measurement is the decoded content of one reading.
type measurement struct {
	CO2         float32
	Temperature float32
	Humidity    float32
}

// quantity32 builds a 32-bit quantity from two consecutive data words.
func quantity32(hi, lo uint16) uint32 {
	return uint32(hi)<<16 | uint32(lo)
}

// decodeMeasurement verifies every group of r and converts it. Any failing
// group rejects the whole buffer.
func decodeMeasurement(r []byte, mode DecodeMode) (measurement, error) {
	if len(r) != measurementSize {
		return measurement{}, fmt.Errorf("scd30: measurement is %d bytes, expected %d", len(r), measurementSize)
	}
	w, err := common.Words(r)
	if err != nil {
		var we *common.WordError
		if errors.As(err, &we) {
			return measurement{}, &ChecksumError{Group: we.Index, Want: we.Want, Got: we.Got}
		}
		return measurement{}, err
	}
	return mode.decode(quantity32(w[0], w[1]), quantity32(w[2], w[3]), quantity32(w[4], w[5])), nil
}
