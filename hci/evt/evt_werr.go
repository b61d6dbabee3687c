package evt

import (
	"encoding/binary"
	"fmt"
)

func (e CommandComplete) NumHCICommandPacketsWErr() (uint8, error) {
	return getByte(e, 0, 0)
}

func (e CommandComplete) CommandOpcodeWErr() (uint16, error) {
	return getUint16LE(e, 1, 0xffff)
}

func (e CommandComplete) ReturnParametersWErr() ([]byte, error) {
	return getBytes(e, 3, -1)
}

func (e CommandStatus) StatusWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}

func (e CommandStatus) NumHCICommandPacketsWErr() (uint8, error) {
	return getByte(e, 1, 0)
}

func (e CommandStatus) CommandOpcodeWErr() (uint16, error) {
	return getUint16LE(e, 2, 0xffff)
}

func (e LEAdvertisingReport) SubeventCodeWErr() (uint8, error) {
	return getByte(e, 0, 0xff)
}

func (e LEAdvertisingReport) NumReportsWErr() (uint8, error) {
	return getByte(e, 1, 0)
}

func (e LEAdvertisingReport) EventTypeWErr(i int) (uint8, error) {
	return getByte(e, 2+i, 0xff)
}

func (e LEAdvertisingReport) AddressTypeWErr(i int) (uint8, error) {
	nr, err := e.NumReportsWErr()
	if err != nil {
		return 0, err
	}

	si := 2 + int(nr) + i
	return getByte(e, si, 0xff)
}

func (e LEAdvertisingReport) AddressWErr(i int) ([6]byte, error) {
	nr, err := e.NumReportsWErr()
	if err != nil {
		return [6]byte{}, err
	}

	si := 2 + int(nr)*2 + (6 * i)
	bb, err := getBytes(e, si, 6)
	if err != nil {
		return [6]byte{}, err
	}

	out := [6]byte{}
	copy(out[:], bb)
	return out, nil
}

func (e LEAdvertisingReport) LengthDataWErr(i int) (uint8, error) {
	nr, err := e.NumReportsWErr()
	if err != nil {
		return 0, err
	}

	si := 2 + int(nr)*8 + i
	return getByte(e, si, 0)
}

func (e LEAdvertisingReport) DataWErr(i int) ([]byte, error) {
	nr, err := e.NumReportsWErr()
	if err != nil {
		return nil, err
	}

	prior, err := e.sumLengthData(i)
	if err != nil {
		return nil, err
	}

	ll, err := e.LengthDataWErr(i)
	if err != nil {
		return nil, err
	}

	si := 2 + int(nr)*9 + prior
	return getBytes(e, si, int(ll))
}

func (e LEAdvertisingReport) RSSIWErr(i int) (int8, error) {
	nr, err := e.NumReportsWErr()
	if err != nil {
		return 0, err
	}

	total, err := e.sumLengthData(int(nr))
	if err != nil {
		return 0, err
	}

	si := 2 + int(nr)*9 + total + i
	rssi, err := getByte(e, si, 0)
	return int8(rssi), err
}

// sumLengthData adds up the data lengths of the first n reports, which
// is the data column offset of report n.
func (e LEAdvertisingReport) sumLengthData(n int) (int, error) {
	l := 0
	for j := 0; j < n; j++ {
		ll, err := e.LengthDataWErr(j)
		if err != nil {
			return 0, err
		}

		l += int(ll)
	}
	return l, nil
}

//get or default
func getByte(b []byte, i int, def byte) (byte, error) {
	bb, err := getBytes(b, i, 1)
	if err != nil {
		return def, err
	}
	return bb[0], nil
}

//get or default
func getUint16LE(b []byte, i int, def uint16) (uint16, error) {
	bb, err := getBytes(b, i, 2)
	if err != nil {
		return def, err
	}
	return binary.LittleEndian.Uint16(bb), nil
}

func getBytes(bytes []byte, start int, count int) ([]byte, error) {
	if bytes == nil || start >= len(bytes) {
		return nil, fmt.Errorf("index error")
	}

	if count < 0 {
		return bytes[start:], nil
	}

	end := start + count
	//end is non-inclusive
	if end > len(bytes) {
		return nil, fmt.Errorf("index error")
	}

	return bytes[start:end], nil
}
