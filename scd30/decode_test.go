// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd30

import (
	"errors"
	"math"
	"testing"

	"github.com/GermanBionicSystems/scd30/common"
)

// Sample read measurement response from the interface description.
var sampleMeasurement = []byte{
	0x43, 0xdb, 0xcb, 0x8c, 0x2e, 0x8f,
	0x41, 0xd9, 0x70, 0xe7, 0xff, 0xf5,
	0x42, 0x43, 0xbf, 0x3a, 0x1b, 0x74,
}

// 500 PPM, 21.5°C, 40.25 %rH.
var secondMeasurement = []byte{
	0x43, 0xfa, 0x7c, 0x00, 0x00, 0x81,
	0x41, 0xac, 0x7d, 0x00, 0x00, 0x81,
	0x42, 0x21, 0x66, 0x00, 0x00, 0x81,
}

func sample() []byte {
	return append([]byte(nil), sampleMeasurement...)
}

func near(a, b, tolerance float32) bool {
	return math.Abs(float64(a-b)) <= float64(tolerance)
}

func TestEncodeCommand(t *testing.T) {
	if w := encodeCommand(DefaultCommands.ReadMeasurement); len(w) != 2 || w[0] != 0x03 || w[1] != 0x00 {
		t.Errorf("encodeCommand(ReadMeasurement)=%#v", w)
	}
	if w := encodeCommand(DefaultCommands.SoftReset); len(w) != 2 || w[0] != 0xd3 || w[1] != 0x04 {
		t.Errorf("encodeCommand(SoftReset)=%#v", w)
	}
}

func TestEncodeCommandArg(t *testing.T) {
	tests := []struct {
		c    Command
		arg  uint16
		want []byte
	}{
		{DefaultCommands.SetInterval, 2, []byte{0x46, 0x00, 0x00, 0x02, 0xe3}},
		{DefaultCommands.StartContinuous, 0, []byte{0x00, 0x10, 0x00, 0x00, 0x81}},
		{DefaultCommands.SelfCalibration, 1, []byte{0x53, 0x06, 0x00, 0x01, 0xb0}},
		{DefaultCommands.ForcedRecalibration, 0xbeef, []byte{0x52, 0x04, 0xbe, 0xef, 0x92}},
	}
	for _, test := range tests {
		w := encodeCommandArg(test.c, test.arg)
		if string(w) != string(test.want) {
			t.Errorf("encodeCommandArg(%s, %d)=%#v expected %#v", test.c, test.arg, w, test.want)
		}
		// The trailing byte must always be the CRC of the argument bytes.
		if crc := common.CRC8(w[2:4]); crc != w[4] {
			t.Errorf("frame %#v crc 0x%02x recomputed 0x%02x", w, w[4], crc)
		}
	}
}

func TestDecodeSample(t *testing.T) {
	m, err := decodeMeasurement(sample(), FloatMode{})
	if err != nil {
		t.Fatal(err)
	}
	if !near(m.CO2, 439.09, 0.01) {
		t.Errorf("CO2=%f expected ~439.09", m.CO2)
	}
	if !near(m.Temperature, 27.24, 0.01) {
		t.Errorf("Temperature=%f expected ~27.24", m.Temperature)
	}
	if !near(m.Humidity, 48.81, 0.01) {
		t.Errorf("Humidity=%f expected ~48.81", m.Humidity)
	}
	// Bit pattern reinterpretation, not a numeric conversion.
	if math.Float32bits(m.CO2) != 0x43db8c2e {
		t.Errorf("CO2 bits=0x%08x", math.Float32bits(m.CO2))
	}
}

func TestDecodeFlippedDataByte(t *testing.T) {
	for ix := 0; ix < measurementSize; ix++ {
		if ix%3 == 2 {
			continue
		}
		r := sample()
		r[ix] ^= 0x01
		_, err := decodeMeasurement(r, FloatMode{})
		var ce *ChecksumError
		if !errors.As(err, &ce) {
			t.Errorf("byte %d: expected *ChecksumError got %v", ix, err)
			continue
		}
		if ce.Group != ix/3 {
			t.Errorf("byte %d: reported group %d expected %d", ix, ce.Group, ix/3)
		}
		if ce.Got != sampleMeasurement[ix/3*3+2] {
			t.Errorf("byte %d: reported crc 0x%02x", ix, ce.Got)
		}
	}
}

func TestDecodeSingleBadGroup(t *testing.T) {
	// Only the last group is corrupt; the whole reading is still rejected.
	r := sample()
	r[17] ^= 0xff
	if _, err := decodeMeasurement(r, FloatMode{}); err == nil {
		t.Error("expected error")
	}
}

func TestDecodeLength(t *testing.T) {
	if _, err := decodeMeasurement(sample()[:15], FloatMode{}); err == nil {
		t.Error("expected error for short buffer")
	}
}

func TestDecodeFixedPoint(t *testing.T) {
	r := make([]byte, measurementSize)
	raws := []uint32{450, uint32(0xffffdf30), 196608} // 450, -8400, 48*4096
	for ix, raw := range raws {
		common.PutWord(r[ix*6:], uint16(raw>>16))
		common.PutWord(r[ix*6+3:], uint16(raw))
	}
	m, err := decodeMeasurement(r, DefaultFixedPoint)
	if err != nil {
		t.Fatal(err)
	}
	if m.CO2 != 450 {
		t.Errorf("CO2=%f expected 450", m.CO2)
	}
	if !near(m.Temperature, 25, 0.0001) {
		t.Errorf("Temperature=%f expected 25", m.Temperature)
	}
	if m.Humidity != 48 {
		t.Errorf("Humidity=%f expected 48", m.Humidity)
	}

	// The same buffer read as floats is nonsense, but valid.
	if _, err := decodeMeasurement(r, FloatMode{}); err != nil {
		t.Error(err)
	}
}

func TestDecodeModeString(t *testing.T) {
	if s := (FloatMode{}).String(); s != "float" {
		t.Errorf("FloatMode.String()=%q", s)
	}
	if s := (FixedPointMode{}).String(); s != "fixed(co2/1, t/1+0, rh/1)" {
		t.Errorf("FixedPointMode{}.String()=%q", s)
	}
}
