package adv

import (
	"bytes"
	"testing"

	"github.com/larkwire/ble"
)

func TestPacketFields(t *testing.T) {
	p, err := NewPacket(Flags(0x06), CompleteName("go"), TxPower(-4))
	if err != nil {
		t.Fatal(err)
	}

	want := []byte{
		0x02, 0x01, 0x06,
		0x03, 0x09, 'g', 'o',
		0x02, 0x0a, 0xfc,
	}
	if !bytes.Equal(p.Bytes(), want) {
		t.Fatalf("got [% X], want [% X]", p.Bytes(), want)
	}
	if p.Len() != len(want) {
		t.Fatalf("got len %v, want %v", p.Len(), len(want))
	}
}

func TestPacketRoundTrip(t *testing.T) {
	p, err := NewPacket(
		Flags(0x06),
		CompleteName("gopher"),
		TxPower(-4),
		AllUUID(ble.UUID16(0x180d)),
		ServiceData16(0x180f, []byte{0x64}),
	)
	if err != nil {
		t.Fatal(err)
	}

	q, err := NewRawPacket(p.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	f, ok := q.Flags()
	if !ok || f != 0x06 {
		t.Fatalf("flags: got %v %v", f, ok)
	}
	if n := q.LocalName(); n != "gopher" {
		t.Fatalf("local name: got %q", n)
	}
	pwr, ok := q.TxPower()
	if !ok || pwr != -4 {
		t.Fatalf("tx power: got %v %v", pwr, ok)
	}

	u := q.UUIDs()
	if len(u) != 2 {
		t.Fatalf("uuids: got %v, want 2", len(u))
	}
	if !ble.Contains(u, ble.UUID16(0x180d)) || !ble.Contains(u, ble.UUID16(0x180f)) {
		t.Fatalf("uuids: got %v", u)
	}

	sd := q.ServiceData()
	if len(sd) != 1 {
		t.Fatalf("service data: got %v entries", len(sd))
	}
	if !sd[0].UUID.Equal(ble.UUID16(0x180f)) || !bytes.Equal(sd[0].Data, []byte{0x64}) {
		t.Fatalf("service data: got %v [% X]", sd[0].UUID, sd[0].Data)
	}
}

func TestPacketRaw(t *testing.T) {
	b := []byte{0x02, 0x01, 0x06}
	p, err := NewPacket(Raw(b))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(p.Bytes(), b) {
		t.Fatalf("got [% X], want [% X]", p.Bytes(), b)
	}
}

func TestPacketNotFit(t *testing.T) {
	long := make([]byte, MaxEIRPacketLength)
	if _, err := NewPacket(CompleteName(string(long))); err != ErrNotFit {
		t.Fatalf("got %v, want ErrNotFit", err)
	}

	p, err := NewPacket(Flags(0x06))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Append(ManufacturerData(0x004c, make([]byte, 27))); err != ErrNotFit {
		t.Fatalf("got %v, want ErrNotFit", err)
	}
	//the failed append leaves the packet intact
	if p.Len() != 3 {
		t.Fatalf("got len %v, want 3", p.Len())
	}
}

func TestIBeacon(t *testing.T) {
	u := ble.MustParse("e2c56db5-dffb-48d2-b060-d0f5a71096e0")
	p, err := NewPacket(IBeacon(u, 1, 2, -59))
	if err != nil {
		t.Fatal(err)
	}

	want := []byte{
		0x1a, 0xff, 0x4c, 0x00, 0x02, 0x15,
		0xe2, 0xc5, 0x6d, 0xb5, 0xdf, 0xfb, 0x48, 0xd2,
		0xb0, 0x60, 0xd0, 0xf5, 0xa7, 0x10, 0x96, 0xe0,
		0x00, 0x01, 0x00, 0x02, 0xc5,
	}
	if !bytes.Equal(p.Bytes(), want) {
		t.Fatalf("got [% X], want [% X]", p.Bytes(), want)
	}

	q, err := NewRawPacket(p.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	md := q.ManufacturerData()
	if len(md) != 25 || md[0] != 0x4c || md[1] != 0x00 {
		t.Fatalf("manufacturer data: got [% X]", md)
	}
}

func TestIBeaconInvalidUUID(t *testing.T) {
	if _, err := NewPacket(IBeacon(ble.UUID16(0x180d), 1, 2, -59)); err != ErrInvalid {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
}
