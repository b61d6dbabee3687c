package adv

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/larkwire/ble"
)

// MaxEIRPacketLength is the maximum allowed AdvertisingData and
// ScanResponseData length.
const MaxEIRPacketLength = 31

// ErrNotFit means the field does not fit into the packet.
var ErrNotFit = errors.New("data not fit")

// ErrInvalid means the field content is malformed.
var ErrInvalid = errors.New("invalid field")

// Packet is an advertising packet or scan response being crafted or
// parsed.
type Packet struct {
	b []byte
	m map[string]interface{}
}

// Bytes returns the bytes of the packet.
func (p *Packet) Bytes() []byte {
	return p.b
}

// Len returns the length of the packet.
func (p *Packet) Len() int {
	return len(p.b)
}

// NewPacket builds a Packet from the given fields.
func NewPacket(fields ...Field) (*Packet, error) {
	p := &Packet{b: make([]byte, 0, MaxEIRPacketLength)}
	for _, f := range fields {
		if err := f(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// NewRawPacket parses a Packet from raw bytes, such as the data of an
// advertising report.
func NewRawPacket(bytes ...[]byte) (*Packet, error) {
	b := make([]byte, 0, MaxEIRPacketLength)
	for _, bb := range bytes {
		b = append(b, bb...)
	}

	m, err := decode(b)
	if err != nil {
		return nil, errors.Wrap(err, "pdu decode")
	}

	return &Packet{b: b, m: m}, nil
}

// Field is an advertising field which can be appended to a packet.
type Field func(p *Packet) error

// Append appends a field to the packet. It returns ErrNotFit if the
// field doesn't fit into the packet, and leaves the packet intact.
func (p *Packet) Append(f Field) error {
	return f(p)
}

// append appends a field to the packet. It returns ErrNotFit if the
// field doesn't fit into the packet, and leaves the packet intact.
func (p *Packet) append(typ byte, b []byte) error {
	if p.Len()+1+1+len(b) > MaxEIRPacketLength {
		return ErrNotFit
	}
	p.b = append(p.b, byte(len(b)+1))
	p.b = append(p.b, typ)
	p.b = append(p.b, b...)
	return nil
}

// Raw appends the bytes to the current packet.
// This is helpful for creating a new packet from existing packets.
func Raw(b []byte) Field {
	return func(p *Packet) error {
		if p.Len()+len(b) > MaxEIRPacketLength {
			return ErrNotFit
		}
		p.b = append(p.b, b...)
		return nil
	}
}

// IBeaconData returns an iBeacon field from raw manufacturer data.
func IBeaconData(md []byte) Field {
	return func(p *Packet) error {
		return ManufacturerData(0x004C, md)(p)
	}
}

// IBeacon returns an iBeacon field with the specified parameters.
func IBeacon(u ble.UUID, major, minor uint16, pwr int8) Field {
	return func(p *Packet) error {
		if u.Len() != 16 {
			return ErrInvalid
		}
		md := make([]byte, 23)
		md[0] = 0x02                               // Data type: iBeacon
		md[1] = 0x15                               // Data length: 21 bytes
		copy(md[2:], ble.Reverse(u))               // Big endian
		binary.BigEndian.PutUint16(md[18:], major) // Big endian
		binary.BigEndian.PutUint16(md[20:], minor) // Big endian
		md[22] = uint8(pwr)                        // Measured Tx Power
		return ManufacturerData(0x004C, md)(p)
	}
}

// Flags is a flags field.
func Flags(f byte) Field {
	return func(p *Packet) error {
		return p.append(flags, []byte{f})
	}
}

// ShortName is a shortened local name.
func ShortName(n string) Field {
	return func(p *Packet) error {
		return p.append(shortName, []byte(n))
	}
}

// CompleteName is a complete local name.
func CompleteName(n string) Field {
	return func(p *Packet) error {
		return p.append(completeName, []byte(n))
	}
}

// TxPower is a transmit power level field.
func TxPower(pwr int8) Field {
	return func(p *Packet) error {
		return p.append(txPower, []byte{uint8(pwr)})
	}
}

// ManufacturerData is manufacturer specific data.
func ManufacturerData(id uint16, b []byte) Field {
	return func(p *Packet) error {
		d := append([]byte{uint8(id), uint8(id >> 8)}, b...)
		return p.append(manufacturerData, d)
	}
}

// AllUUID is an element of the complete service UUID list.
func AllUUID(u ble.UUID) Field {
	return func(p *Packet) error {
		if u.Len() == 2 {
			return p.append(allUUID16, u)
		}
		if u.Len() == 4 {
			return p.append(allUUID32, u)
		}
		return p.append(allUUID128, u)
	}
}

// SomeUUID is an element of the incomplete service UUID list.
func SomeUUID(u ble.UUID) Field {
	return func(p *Packet) error {
		if u.Len() == 2 {
			return p.append(someUUID16, u)
		}
		if u.Len() == 4 {
			return p.append(someUUID32, u)
		}
		return p.append(someUUID128, u)
	}
}

// ServiceData16 is service data for a 16bit service uuid.
func ServiceData16(id uint16, b []byte) Field {
	return func(p *Packet) error {
		uuid := ble.UUID16(id)
		if err := p.append(allUUID16, uuid); err != nil {
			return err
		}
		return p.append(serviceData16, append(uuid, b...))
	}
}

// Flags returns the flags of the packet, if present.
func (p *Packet) Flags() (f byte, present bool) {
	if b, ok := p.m[keys.flags].([]byte); ok {
		return b[0], true
	}
	return 0, false
}

// LocalName returns the local name of the packet, if present.
// Shortened and complete names share a key, so either satisfies it.
func (p *Packet) LocalName() string {
	if b, ok := p.m[keys.name].([]byte); ok {
		return string(b)
	}
	return ""
}

// TxPower returns the transmit power level of the packet, if present.
func (p *Packet) TxPower() (pwr int, present bool) {
	if b, ok := p.m[keys.txpwr].([]byte); ok {
		return int(int8(b[0])), true
	}
	return 0, false
}

// UUIDs returns the service UUIDs advertised by the packet.
func (p *Packet) UUIDs() []ble.UUID {
	var u []ble.UUID
	u = p.uuidsByKey(keys.uuid16, u)
	u = p.uuidsByKey(keys.uuid32, u)
	u = p.uuidsByKey(keys.uuid128, u)
	return u
}

func (p *Packet) uuidsByKey(k string, u []ble.UUID) []ble.UUID {
	v, ok := p.m[k].([]interface{})
	if !ok {
		return u
	}
	for _, vv := range v {
		b, ok := vv.([]byte)
		if !ok {
			continue
		}
		u = append(u, ble.UUID(b))
	}
	return u
}

// ServiceSol returns the solicited service UUIDs of the packet.
func (p *Packet) ServiceSol() []ble.UUID {
	var u []ble.UUID
	u = p.uuidsByKey(keys.sol16, u)
	u = p.uuidsByKey(keys.sol32, u)
	u = p.uuidsByKey(keys.sol128, u)
	return u
}

// ServiceData returns the service data of the packet.
func (p *Packet) ServiceData() []ble.ServiceData {
	var s []ble.ServiceData
	if b, ok := p.m[keys.svc16].([]byte); ok {
		s = serviceDataList(s, b, 2)
	}
	if b, ok := p.m[keys.svc32].([]byte); ok {
		s = serviceDataList(s, b, 4)
	}
	if b, ok := p.m[keys.svc128].([]byte); ok {
		s = serviceDataList(s, b, 16)
	}
	return s
}

// ManufacturerData returns the manufacturer data of the packet, if
// present.
func (p *Packet) ManufacturerData() []byte {
	v, _ := p.m[keys.mfg].([]byte)
	return v
}

func serviceDataList(sd []ble.ServiceData, d []byte, w int) []ble.ServiceData {
	if len(d) < w {
		return sd
	}
	s := ble.ServiceData{
		UUID: ble.UUID(d[:w]),
		Data: make([]byte, len(d)-w),
	}
	copy(s.Data, d[w:])
	return append(sd, s)
}
