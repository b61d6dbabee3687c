package hci

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"
)

//le advertising report event with the given column payload
func advFrame(payload ...byte) []byte {
	return evtFrame(0x3E, payload...)
}

func reportStream(t *testing.T, skt *testSkt) *ReportStream {
	a := testAdapter(skt)
	la := NewLEAdapter(a)
	rs, err := la.ReportStream()
	if err != nil {
		t.Fatal(err)
	}
	return rs
}

func TestAdvertisingReportStreamDropsOtherEvents(t *testing.T) {
	skt := &testSkt{}
	skt.queue(
		evtFrame(0x13, 0x01, 0x40, 0x00, 0x01, 0x00), //number of completed packets
		evtFrame(0x10, 0x00),                         //hardware error
		advFrame(2, 1, 0, 0, 1, 2, 3, 4, 5, 6, 0, 127),
	)

	a := testAdapter(skt)
	es, err := a.EventStream()
	if err != nil {
		t.Fatal(err)
	}
	s := NewAdvertisingReportStream(es)

	rr, err := s.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rr) != 1 {
		t.Fatalf("got %v reports, want 1", len(rr))
	}
	if rr[0].RSSI != 127 {
		t.Fatalf("rssi: got %v", rr[0].RSSI)
	}
}

func TestAdvertisingReportStreamDecodeErrorNonFatal(t *testing.T) {
	skt := &testSkt{}
	skt.queue(
		advFrame(1, 0),    //wrong subevent
		advFrame(2, 1, 0), //report count says one, columns missing
		advFrame(2, 1, 0, 0, 1, 2, 3, 4, 5, 6, 0, 200),
	)

	a := testAdapter(skt)
	es, err := a.EventStream()
	if err != nil {
		t.Fatal(err)
	}
	s := NewAdvertisingReportStream(es)

	for i := 0; i < 2; i++ {
		_, err = s.Next(context.Background())
		if _, ok := err.(*DecodeError); !ok {
			t.Fatalf("pull %v: got %v, want DecodeError", i, err)
		}
	}

	rr, err := s.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rr) != 1 {
		t.Fatalf("got %v reports, want 1", len(rr))
	}
}

func TestAdvertisingReportStreamUnpacksBatch(t *testing.T) {
	skt := &testSkt{}
	skt.queue(advFrame(
		2, 2, //subevent, count
		0, 4, //event types
		0, 1, //address types
		1, 2, 3, 4, 5, 6, //mac 0
		7, 8, 9, 10, 11, 12, //mac 1
		3, 2, //data lens
		2, 1, 6, //data 0
		255, 0, //data 1
		200, 190, //rssi
	))

	a := testAdapter(skt)
	es, err := a.EventStream()
	if err != nil {
		t.Fatal(err)
	}
	s := NewAdvertisingReportStream(es)

	rr, err := s.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rr) != 2 {
		t.Fatalf("got %v reports, want 2", len(rr))
	}

	r := rr[0]
	if r.EventType != 0 || r.AddressType != 0 || r.RSSI != -56 {
		t.Fatalf("report 0: got %+v", r)
	}
	if got := r.Addr.String(); got != "06:05:04:03:02:01" {
		t.Fatalf("report 0 addr: got %q", got)
	}
	if !bytes.Equal(r.Data, []byte{2, 1, 6}) {
		t.Fatalf("report 0 data: got [% X]", r.Data)
	}

	r = rr[1]
	if r.EventType != 4 || r.AddressType != 1 || r.RSSI != -66 {
		t.Fatalf("report 1: got %+v", r)
	}
	if got := r.Addr.String(); got != "0c:0b:0a:09:08:07" {
		t.Fatalf("report 1 addr: got %q", got)
	}
	if !bytes.Equal(r.Data, []byte{255, 0}) {
		t.Fatalf("report 1 data: got [% X]", r.Data)
	}
}

func TestAdvertisingReportStreamIBeacon(t *testing.T) {
	skt := &testSkt{}
	skt.queue(advFrame(2, 1, 3, 1, 144, 17, 101, 210, 60, 246, 30, 2, 1, 2, 26, 255, 76, 0, 2, 21, 255, 254, 45, 18, 30, 75, 15, 164, 153, 78, 4, 99, 49, 239, 205, 171, 52, 18, 120, 86, 195, 205))

	a := testAdapter(skt)
	es, err := a.EventStream()
	if err != nil {
		t.Fatal(err)
	}
	s := NewAdvertisingReportStream(es)

	rr, err := s.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rr) != 1 {
		t.Fatalf("got %v reports, want 1", len(rr))
	}

	r := rr[0]
	if got := r.Addr.String(); got != "f6:3c:d2:65:11:90" {
		t.Fatalf("addr: got %q", got)
	}
	if r.RSSI != -51 || len(r.Data) != 30 {
		t.Fatalf("got rssi %v, data len %v", r.RSSI, len(r.Data))
	}
}

func TestReportStreamFlattens(t *testing.T) {
	skt := &testSkt{}
	skt.queue(
		advFrame(
			2, 2,
			0, 4,
			0, 1,
			1, 2, 3, 4, 5, 6,
			7, 8, 9, 10, 11, 12,
			0, 0,
			200, 190,
		),
		advFrame(2, 1, 0, 0, 13, 14, 15, 16, 17, 18, 0, 180),
	)

	rs := reportStream(t, skt)

	want := []struct {
		addr string
		rssi int8
	}{
		{"06:05:04:03:02:01", -56},
		{"0c:0b:0a:09:08:07", -66},
		{"12:11:10:0f:0e:0d", -76},
	}
	for i, w := range want {
		r, err := rs.Next(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got := r.Addr.String(); got != w.addr {
			t.Fatalf("report %v addr: got %q, want %q", i, got, w.addr)
		}
		if r.RSSI != w.rssi {
			t.Fatalf("report %v rssi: got %v, want %v", i, r.RSSI, w.rssi)
		}
	}
}

func TestReportStreamFlattensMaxBatch(t *testing.T) {
	//25 reports is the largest batch one event can carry
	const nr = 25
	payload := []byte{2, nr}
	for i := 0; i < nr; i++ {
		payload = append(payload, 0) //event types
	}
	for i := 0; i < nr; i++ {
		payload = append(payload, 0) //address types
	}
	for i := 0; i < nr; i++ {
		payload = append(payload, byte(i), 0, 0, 0, 0, 0)
	}
	for i := 0; i < nr; i++ {
		payload = append(payload, 0) //data lengths
	}
	for i := 0; i < nr; i++ {
		payload = append(payload, byte(200+i))
	}

	skt := &testSkt{}
	skt.queue(advFrame(payload...))

	rs := reportStream(t, skt)
	for i := 0; i < nr; i++ {
		r, err := rs.Next(context.Background())
		if err != nil {
			t.Fatalf("report %v: %v", i, err)
		}
		want := fmt.Sprintf("00:00:00:00:00:%02x", i)
		if got := r.Addr.String(); got != want {
			t.Fatalf("report %v addr: got %q, want %q", i, got, want)
		}
		if r.RSSI != int8(-56+i) {
			t.Fatalf("report %v rssi: got %v, want %v", i, r.RSSI, -56+i)
		}
	}
}

func TestReportStreamSkipsEmptyBatch(t *testing.T) {
	skt := &testSkt{}
	skt.queue(
		advFrame(2, 0), //valid batch of zero reports
		advFrame(2, 1, 0, 0, 1, 2, 3, 4, 5, 6, 0, 200),
	)

	rs := reportStream(t, skt)

	r, err := rs.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Addr.String(); got != "06:05:04:03:02:01" {
		t.Fatalf("addr: got %q", got)
	}
}

func TestReportStreamErrorItem(t *testing.T) {
	skt := &testSkt{}
	skt.queue(
		advFrame(1, 0), //wrong subevent
		advFrame(2, 1, 0, 0, 1, 2, 3, 4, 5, 6, 0, 200),
	)

	rs := reportStream(t, skt)

	_, err := rs.Next(context.Background())
	if _, ok := err.(*DecodeError); !ok {
		t.Fatalf("got %v, want DecodeError", err)
	}

	r, err := rs.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Addr.String(); got != "06:05:04:03:02:01" {
		t.Fatalf("addr: got %q", got)
	}
}

func TestReportStreamCtxDeadline(t *testing.T) {
	skt := &testSkt{}
	rs := reportStream(t, skt)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := rs.Next(ctx); err != context.DeadlineExceeded {
		t.Fatalf("got %v, want context.DeadlineExceeded", err)
	}
}

func TestEventStreamClosedNext(t *testing.T) {
	skt := &testSkt{}
	a := testAdapter(skt)

	es, err := a.EventStream()
	if err != nil {
		t.Fatal(err)
	}
	es.Close()

	if _, err := es.Next(context.Background()); err != ErrClosed {
		t.Fatalf("got %v, want ErrClosed", err)
	}
}

func TestReportStreamCloseReleasesAdapter(t *testing.T) {
	skt := &testSkt{}
	rs := reportStream(t, skt)

	if _, err := rs.rs.es.a.EventStream(); err != ErrStreamActive {
		t.Fatalf("got %v, want ErrStreamActive", err)
	}

	rs.Close()
	es, err := rs.rs.es.a.EventStream()
	if err != nil {
		t.Fatal(err)
	}
	es.Close()
}
