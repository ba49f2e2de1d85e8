// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the CRC8 calculation and 16-bit word framing used by Sensirion
// sensors.
package common

import (
	"fmt"

	"github.com/sigurn/crc8"
)

// WordSize is the length of a framed word on the wire: MSB, LSB and CRC.
const WordSize = 3

var crcTable = crc8.MakeTable(crc8.Params{
	Poly:   0x31,
	Init:   0xff,
	RefIn:  false,
	RefOut: false,
	XorOut: 0x00,
	Check:  0xf7,
	Name:   "CRC-8/NRSC-5",
})

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. CRC bytes are used in sensors from TI and Sensirion.
//
// The seed is 0xff and the polynomial 0x31 (x⁸ + x⁵ + x⁴ + 1), without
// reflection or final XOR.
func CRC8(bytes []byte) byte {
	return crc8.Checksum(bytes, crcTable)
}

// WordError is returned when the CRC byte of a framed word does not match
// the two data bytes in front of it.
type WordError struct {
	// Index of the word within the buffer, starting at 0.
	Index int
	// Want is the CRC computed over the data bytes.
	Want byte
	// Got is the CRC byte received.
	Got byte
}

func (e *WordError) Error() string {
	return fmt.Sprintf("crc mismatch in word %d: computed 0x%02x received 0x%02x", e.Index, e.Want, e.Got)
}

// PutWord writes v big-endian into dst[0:2] followed by its CRC in dst[2].
// dst must be at least WordSize long.
func PutWord(dst []byte, v uint16) {
	dst[0] = byte(v >> 8)
	dst[1] = byte(v)
	dst[2] = CRC8(dst[:2])
}

// CheckWords verifies every 3 byte group of r. It returns a *WordError for the
// first group whose CRC does not match. len(r) must be a multiple of WordSize.
func CheckWords(r []byte) error {
	if len(r)%WordSize != 0 {
		return fmt.Errorf("buffer length %d is not a multiple of %d", len(r), WordSize)
	}
	for ix := 0; ix < len(r); ix += WordSize {
		if crc := CRC8(r[ix : ix+2]); crc != r[ix+2] {
			return &WordError{Index: ix / WordSize, Want: crc, Got: r[ix+2]}
		}
	}
	return nil
}

// Words verifies r with CheckWords and returns the data words it carries.
func Words(r []byte) ([]uint16, error) {
	if err := CheckWords(r); err != nil {
		return nil, err
	}
	result := make([]uint16, len(r)/WordSize)
	for ix := range result {
		result[ix] = uint16(r[ix*WordSize])<<8 | uint16(r[ix*WordSize+1])
	}
	return result, nil
}
