package hci

import (
	"context"
	"fmt"
	"net"

	"github.com/larkwire/ble"
	"github.com/larkwire/ble/hci/evt"
	"github.com/larkwire/ble/sliceops"
)

// An EventStream delivers controller events one pull at a time. It
// borrows the adapter exclusively; Send fails with ErrStreamActive
// until the stream is closed.
type EventStream struct {
	a      *Adapter
	closed bool
}

// EventStream borrows the adapter for event reading.
func (a *Adapter) EventStream() (*EventStream, error) {
	if err := a.hold(); err != nil {
		return nil, err
	}
	return &EventStream{a: a}, nil
}

// Next blocks until an event arrives, ctx is done, or the transport
// fails. Each call performs at most one successful transport read.
func (s *EventStream) Next(ctx context.Context) (EventPacket, error) {
	if s.closed {
		return EventPacket{}, ErrClosed
	}
	return s.a.readEvent(ctx)
}

// Close gives the adapter back. Closing twice is fine.
func (s *EventStream) Close() error {
	if !s.closed {
		s.closed = true
		s.a.release()
	}
	return nil
}

// An AdvertisingReportStream narrows an event stream to LE advertising
// report batches. Events of other kinds are dropped. A malformed
// report payload surfaces as a DecodeError item and the stream stays
// usable; transport errors are fatal as usual.
type AdvertisingReportStream struct {
	es     *EventStream
	logger ble.Logger
}

// NewAdvertisingReportStream wraps an event stream.
func NewAdvertisingReportStream(es *EventStream) *AdvertisingReportStream {
	return &AdvertisingReportStream{
		es:     es,
		logger: es.a.logger,
	}
}

// Next returns the reports of the next LE Advertising Report event, in
// the order the controller packed them.
func (s *AdvertisingReportStream) Next(ctx context.Context) ([]ble.Report, error) {
	for {
		p, err := s.es.Next(ctx)
		if err != nil {
			return nil, err
		}

		if p.Code != evt.LEMetaCode {
			s.logger.Debugf("hci: dropping event 0x%02X while scanning", p.Code)
			continue
		}

		rr, err := unpackReports(p.Payload)
		if err != nil {
			return nil, &DecodeError{Code: p.Code, Err: err}
		}
		return rr, nil
	}
}

// Close closes the underlying event stream.
func (s *AdvertisingReportStream) Close() error {
	return s.es.Close()
}

// unpackReports flattens an LE Advertising Report payload into one
// Report per entry, copying data out of the shared payload.
func unpackReports(b []byte) ([]ble.Report, error) {
	e := evt.LEAdvertisingReport(b)

	sub, err := e.SubeventCodeWErr()
	if err != nil {
		return nil, err
	}
	if sub != evt.LEAdvertisingReportSubCode {
		return nil, fmt.Errorf("unexpected subevent 0x%02X", sub)
	}

	nr, err := e.NumReportsWErr()
	if err != nil {
		return nil, err
	}

	rr := make([]ble.Report, 0, nr)
	for i := 0; i < int(nr); i++ {
		et, err := e.EventTypeWErr(i)
		if err != nil {
			return nil, err
		}
		at, err := e.AddressTypeWErr(i)
		if err != nil {
			return nil, err
		}
		ad, err := e.AddressWErr(i)
		if err != nil {
			return nil, err
		}
		data, err := e.DataWErr(i)
		if err != nil {
			return nil, err
		}
		rssi, err := e.RSSIWErr(i)
		if err != nil {
			return nil, err
		}

		d := make([]byte, len(data))
		copy(d, data)

		rr = append(rr, ble.Report{
			EventType:   ble.EventType(et),
			AddressType: ble.AddressType(at),
			Addr:        reportAddr(ad),
			Data:        d,
			RSSI:        rssi,
		})
	}

	return rr, nil
}

// reportAddr flips a wire-order device address into display order.
func reportAddr(b [6]byte) ble.Addr {
	return ble.NewAddr(net.HardwareAddr(sliceops.SwapBuf(b[:])).String())
}

// A ReportStream flattens report batches into individual reports,
// preserving order. A failed batch yields exactly one error item;
// empty batches yield nothing.
type ReportStream struct {
	rs      *AdvertisingReportStream
	pending []ble.Report
}

// NewReportStream wraps a report batch stream.
func NewReportStream(rs *AdvertisingReportStream) *ReportStream {
	return &ReportStream{rs: rs}
}

// Next returns the next report.
func (s *ReportStream) Next(ctx context.Context) (ble.Report, error) {
	for len(s.pending) == 0 {
		rr, err := s.rs.Next(ctx)
		if err != nil {
			return ble.Report{}, err
		}
		s.pending = rr
	}

	r := s.pending[0]
	s.pending = s.pending[1:]
	return r, nil
}

// Close closes the underlying streams.
func (s *ReportStream) Close() error {
	return s.rs.Close()
}
