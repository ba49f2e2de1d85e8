// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package scd30

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by every operation on a Dev that was not
// returned by NewI2C.
var ErrNotInitialized = errors.New("scd30: device not initialized")

// ErrTimeout is returned by Sense when the device does not report data ready
// within one measurement interval.
var ErrTimeout = errors.New("scd30: timeout waiting for data ready status")

// ChecksumError is returned when a word of a measurement fails its CRC check.
// The whole reading is discarded.
type ChecksumError struct {
	// Group is the index of the failing 3 byte group, 0 to 5.
	Group int
	Want  byte
	Got   byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("scd30: crc mismatch in group %d: computed 0x%02x received 0x%02x", e.Group, e.Want, e.Got)
}
