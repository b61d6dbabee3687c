package hci

import (
	"bytes"
	"context"
	"testing"

	"github.com/larkwire/ble"
	"github.com/larkwire/ble/hci/cmd"
)

func testLEAdapter(skt *testSkt) *LEAdapter {
	return NewLEAdapter(testAdapter(skt))
}

func TestSetAdvertisingData(t *testing.T) {
	skt := &testSkt{}
	skt.queue(ccFrame(0x2008, 0x00))
	la := testLEAdapter(skt)

	if err := la.SetAdvertisingData(context.Background(), []byte{2, 1, 6}); err != nil {
		t.Fatal(err)
	}

	w := skt.wrote[0]
	if w[1] != 0x08 || w[2] != 0x20 || w[3] != 32 {
		t.Fatalf("header: got [% X]", w[:4])
	}
	if w[4] != 3 || !bytes.Equal(w[5:8], []byte{2, 1, 6}) {
		t.Fatalf("payload: got [% X]", w[4:])
	}
	//the fixed-size block is zero padded
	if !bytes.Equal(w[8:], make([]byte, 28)) {
		t.Fatalf("padding: got [% X]", w[8:])
	}
}

func TestSetAdvertisingDataTooLong(t *testing.T) {
	skt := &testSkt{}
	la := testLEAdapter(skt)

	err := la.SetAdvertisingData(context.Background(), make([]byte, 32))
	if err != ble.ErrEIRPacketTooLong {
		t.Fatalf("got %v, want ErrEIRPacketTooLong", err)
	}
	if len(skt.wrote) != 0 {
		t.Fatal("oversized payload reached the transport")
	}
}

func TestSetAdvertisementChecksBothFirst(t *testing.T) {
	skt := &testSkt{}
	la := testLEAdapter(skt)

	err := la.SetAdvertisement(context.Background(), []byte{2, 1, 6}, make([]byte, 32))
	if err != ble.ErrEIRPacketTooLong {
		t.Fatalf("got %v, want ErrEIRPacketTooLong", err)
	}
	if len(skt.wrote) != 0 {
		t.Fatal("advertising data sent despite oversized scan response")
	}
}

func TestAdvertiseEnable(t *testing.T) {
	skt := &testSkt{}
	skt.queue(ccFrame(0x200A, 0x00), ccFrame(0x200A, 0x00))
	la := testLEAdapter(skt)

	if err := la.Advertise(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := la.StopAdvertising(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(skt.wrote[0], []byte{0x01, 0x0A, 0x20, 0x01, 0x01}) {
		t.Fatalf("enable: got [% X]", skt.wrote[0])
	}
	if !bytes.Equal(skt.wrote[1], []byte{0x01, 0x0A, 0x20, 0x01, 0x00}) {
		t.Fatalf("disable: got [% X]", skt.wrote[1])
	}
}

func TestScanEnable(t *testing.T) {
	skt := &testSkt{}
	skt.queue(ccFrame(0x200C, 0x00), ccFrame(0x200C, 0x00), ccFrame(0x200C, 0x00))
	la := testLEAdapter(skt)

	//duplicate filtering is on unless duplicates are requested
	if err := la.Scan(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if err := la.Scan(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if err := la.StopScanning(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(skt.wrote[0][4:], []byte{0x01, 0x01}) {
		t.Fatalf("scan: got [% X]", skt.wrote[0][4:])
	}
	if !bytes.Equal(skt.wrote[1][4:], []byte{0x01, 0x00}) {
		t.Fatalf("scan with dups: got [% X]", skt.wrote[1][4:])
	}
	if !bytes.Equal(skt.wrote[2][4:], []byte{0x00, 0x00}) {
		t.Fatalf("stop: got [% X]", skt.wrote[2][4:])
	}
}

func TestRand(t *testing.T) {
	skt := &testSkt{}
	skt.queue(ccFrame(0x2018, 0x00, 1, 2, 3, 4, 5, 6, 7, 8))
	la := testLEAdapter(skt)

	b, err := la.Rand(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if b != [RandLen]byte{1, 2, 3, 4, 5, 6, 7, 8} {
		t.Fatalf("got [% X]", b)
	}
}

func TestReadAdvertisingTxPower(t *testing.T) {
	skt := &testSkt{}
	skt.queue(ccFrame(0x2007, 0x00, 0xF6))
	la := testLEAdapter(skt)

	pwr, err := la.ReadAdvertisingTxPower(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if pwr != -10 {
		t.Fatalf("got %v, want -10", pwr)
	}
}

func TestMaskAdvertisingReports(t *testing.T) {
	skt := &testSkt{}
	skt.queue(ccFrame(0x0C01, 0x00), ccFrame(0x2001, 0x00))
	la := testLEAdapter(skt)

	if err := la.MaskAdvertisingReports(context.Background()); err != nil {
		t.Fatal(err)
	}

	//host mask down to the LE Meta bit alone
	want := []byte{0x01, 0x01, 0x0C, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x20}
	if !bytes.Equal(skt.wrote[0], want) {
		t.Fatalf("event mask: got [% X], want [% X]", skt.wrote[0], want)
	}

	//le mask down to the advertising report bit alone
	want = []byte{0x01, 0x01, 0x20, 0x08, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(skt.wrote[1], want) {
		t.Fatalf("le event mask: got [% X], want [% X]", skt.wrote[1], want)
	}
}

func TestSetAdvertisingParametersValidates(t *testing.T) {
	skt := &testSkt{}
	la := testLEAdapter(skt)

	p := cmd.LESetAdvertisingParameters{
		AdvertisingIntervalMin: 0x00A0,
		AdvertisingIntervalMax: 0x0020, //min above max
		AdvertisingChannelMap:  AdvChannelAll,
	}
	if err := la.SetAdvertisingParameters(context.Background(), p); err == nil {
		t.Fatal("no error on min above max")
	}
	if len(skt.wrote) != 0 {
		t.Fatal("invalid params reached the transport")
	}
}

func TestSetScanParametersValidates(t *testing.T) {
	skt := &testSkt{}
	la := testLEAdapter(skt)

	p := cmd.LESetScanParameters{
		LEScanType:     LEScanTypeActive,
		LEScanInterval: 0x0004,
		LEScanWindow:   0x0010, //window above interval
	}
	if err := la.SetScanParameters(context.Background(), p); err == nil {
		t.Fatal("no error on window above interval")
	}
	if len(skt.wrote) != 0 {
		t.Fatal("invalid params reached the transport")
	}
}

func TestSetScanParameters(t *testing.T) {
	skt := &testSkt{}
	skt.queue(ccFrame(0x200B, 0x00))
	la := testLEAdapter(skt)

	p := cmd.LESetScanParameters{
		LEScanType:     LEScanTypePassive,
		LEScanInterval: 0x0010,
		LEScanWindow:   0x0010,
	}
	if err := la.SetScanParameters(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	want := []byte{0x01, 0x0B, 0x20, 0x07, 0x00, 0x10, 0x00, 0x10, 0x00, 0x00, 0x00}
	if !bytes.Equal(skt.wrote[0], want) {
		t.Fatalf("got [% X], want [% X]", skt.wrote[0], want)
	}
	if la.params.scanParams != p {
		t.Fatal("params not kept as new default")
	}
}

func TestValidateAdvParams(t *testing.T) {
	good := cmd.LESetAdvertisingParameters{
		AdvertisingIntervalMin: 0x0020,
		AdvertisingIntervalMax: 0x0020,
		AdvertisingChannelMap:  AdvChannelAll,
	}
	if err := ValidateAdvParams(good); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		mod  func(*cmd.LESetAdvertisingParameters)
	}{
		{"interval min low", func(p *cmd.LESetAdvertisingParameters) { p.AdvertisingIntervalMin = 0x0010 }},
		{"interval max high", func(p *cmd.LESetAdvertisingParameters) { p.AdvertisingIntervalMax = 0x4001 }},
		{"bad type", func(p *cmd.LESetAdvertisingParameters) { p.AdvertisingType = 0x05 }},
		{"bad own address type", func(p *cmd.LESetAdvertisingParameters) { p.OwnAddressType = 0x02 }},
		{"empty channel map", func(p *cmd.LESetAdvertisingParameters) { p.AdvertisingChannelMap = 0 }},
		{"bad filter policy", func(p *cmd.LESetAdvertisingParameters) { p.AdvertisingFilterPolicy = 0x04 }},
	}
	for _, c := range cases {
		p := good
		c.mod(&p)
		if err := ValidateAdvParams(p); err == nil {
			t.Fatalf("%s: no error", c.name)
		}
	}
}

func TestValidateScanParams(t *testing.T) {
	good := cmd.LESetScanParameters{
		LEScanType:     LEScanTypeActive,
		LEScanInterval: 0x0010,
		LEScanWindow:   0x0010,
	}
	if err := ValidateScanParams(good); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		mod  func(*cmd.LESetScanParameters)
	}{
		{"bad type", func(p *cmd.LESetScanParameters) { p.LEScanType = 0x02 }},
		{"interval low", func(p *cmd.LESetScanParameters) { p.LEScanInterval = 0x0003 }},
		{"window high", func(p *cmd.LESetScanParameters) { p.LEScanWindow = 0x4001 }},
		{"bad own address type", func(p *cmd.LESetScanParameters) { p.OwnAddressType = 0x02 }},
		{"bad filter policy", func(p *cmd.LESetScanParameters) { p.ScanningFilterPolicy = 0x02 }},
	}
	for _, c := range cases {
		p := good
		c.mod(&p)
		if err := ValidateScanParams(p); err == nil {
			t.Fatalf("%s: no error", c.name)
		}
	}
}
