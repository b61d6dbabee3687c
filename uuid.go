package ble

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/larkwire/ble/sliceops"
)

// A UUID is a BLE UUID in little-endian byte order, 2, 4 or 16 bytes
// long.
type UUID []byte

// UUID16 converts a uint16 (e.g. 0x1800) to a UUID.
func UUID16(i uint16) UUID {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, i)
	return UUID(b)
}

// UUID32 converts a uint32 to a UUID.
func UUID32(i uint32) UUID {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, i)
	return UUID(b)
}

// Parse parses a standard-format UUID string, like "1800" or
// "34DA3AD1-7110-41A1-B1EF-4430F509CDE7".
func Parse(s string) (UUID, error) {
	s = strings.Replace(s, "-", "", -1)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	switch len(b) {
	case 2, 4, 16:
	default:
		return nil, fmt.Errorf("UUIDs must be 2, 4, or 16 bytes")
	}
	return UUID(Reverse(b)), nil
}

// MustParse parses a standard-format UUID string, or panics.
func MustParse(s string) UUID {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Len returns the length of the UUID in bytes.
func (u UUID) Len() int {
	return len(u)
}

// String hex-encodes the UUID in display order.
func (u UUID) String() string {
	return fmt.Sprintf("%x", Reverse(u))
}

// Equal tests two UUIDs for equality.
func (u UUID) Equal(v UUID) bool {
	return bytes.Equal(u, v)
}

// Contains reports whether u is in s.
func Contains(s []UUID, u UUID) bool {
	for _, v := range s {
		if u.Equal(v) {
			return true
		}
	}
	return false
}

// Reverse returns a reversed copy of u, converting between wire order
// and display order.
func Reverse(u []byte) []byte {
	return sliceops.SwapBuf(u)
}
