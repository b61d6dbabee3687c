package ble

import "github.com/pkg/errors"

// ErrEIRPacketTooLong is returned when an advertising data or scan
// response payload exceeds the 31 byte EIR limit.
var ErrEIRPacketTooLong = errors.New("max packet length is 31")
