// Package hci drives a Bluetooth LE controller over the Host
// Controller Interface. An Adapter owns one packet transport and
// executes one command at a time; event streams borrow the adapter
// for the duration of a scan.
package hci

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/larkwire/ble"
	"github.com/larkwire/ble/hci/cmd"
	"github.com/larkwire/ble/hci/evt"
)

// An EventPacket is one HCI event as read from the transport. Payload
// is a copy of the parameter bytes and is safe to retain.
type EventPacket struct {
	Code    int
	Payload []byte
}

// An Adapter is a single-owner handle to an HCI controller. It is not
// safe for concurrent use; the caller serializes access. Commands and
// event streams share the one transport, so Send fails with
// ErrStreamActive while a stream is open.
type Adapter struct {
	params params

	transport transport
	skt       io.ReadWriteCloser

	streaming bool
	closed    bool

	rxBuf []byte

	addr net.HardwareAddr

	logger ble.Logger
}

// NewAdapter returns an adapter configured by opts. The transport is
// not opened until Init.
func NewAdapter(opts ...ble.Option) (*Adapter, error) {
	a := &Adapter{
		rxBuf:  make([]byte, sktBufferSize),
		logger: ble.GetLogger(),
	}
	a.params.init()
	if err := a.Option(opts...); err != nil {
		return nil, errors.Wrap(err, "can't set options")
	}

	return a, nil
}

// Option sets the options specified.
func (a *Adapter) Option(opts ...ble.Option) error {
	var err error
	for _, opt := range opts {
		err = opt(a)
	}
	return err
}

// Init opens the configured transport and brings the controller to a
// known state: reset, event masks, default advertising and scanning
// parameters. The device address is read and kept.
func (a *Adapter) Init(ctx context.Context) error {
	if a.skt != nil {
		return errors.New("already initialized")
	}
	if err := a.params.validate(); err != nil {
		return err
	}

	skt, err := getTransport(a.transport)
	if err != nil {
		return errors.Wrap(err, "can't open transport")
	}
	a.skt = skt

	a.logger.Info("hci reset")
	if err := a.Send(ctx, &cmd.Reset{}, nil); err != nil {
		return errors.Wrap(err, "reset failed")
	}

	rp := cmd.ReadBDADDRRP{}
	if err := a.Send(ctx, &cmd.ReadBDADDR{}, &rp); err != nil {
		return errors.Wrap(err, "can't read bd address")
	}
	b := rp.BDADDR
	a.addr = net.HardwareAddr([]byte{b[5], b[4], b[3], b[2], b[1], b[0]})

	// LE Meta events are off in the power-on mask.
	m := &cmd.SetEventMask{EventMask: cmd.EventMaskDefault | cmd.EventMaskLEMeta}
	if err := a.Send(ctx, m, nil); err != nil {
		return errors.Wrap(err, "can't set event mask")
	}
	lm := &cmd.LESetEventMask{LEEventMask: cmd.LEEventMaskDefault}
	if err := a.Send(ctx, lm, nil); err != nil {
		return errors.Wrap(err, "can't set le event mask")
	}

	if err := a.Send(ctx, &a.params.advParams, nil); err != nil {
		return errors.Wrap(err, "can't set advertising params")
	}
	if err := a.Send(ctx, &a.params.scanParams, nil); err != nil {
		return errors.Wrap(err, "can't set scan params")
	}

	return nil
}

// Addr returns the device address read at Init.
func (a *Adapter) Addr() ble.Addr {
	return ble.NewAddr(a.addr.String())
}

// Close closes the transport. Open streams fail on their next pull.
func (a *Adapter) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if a.skt == nil {
		return nil
	}
	return errors.Wrap(a.skt.Close(), "can't close transport")
}

// Send executes c and unmarshals the return parameters into rp when rp
// is non-nil. A non-zero controller status comes back as ErrCommand
// and rp is left untouched. Cancellation of ctx is observed at the
// next transport wakeup.
func (a *Adapter) Send(ctx context.Context, c cmd.Command, rp cmd.CommandRP) error {
	b, err := a.send(ctx, c)
	if err != nil {
		return err
	}
	if len(b) > 0 && b[0] != 0x00 {
		return ErrCommand(b[0])
	}
	if rp != nil {
		return rp.Unmarshal(b)
	}
	return nil
}

func (a *Adapter) send(ctx context.Context, c cmd.Command) ([]byte, error) {
	switch {
	case a.closed:
		return nil, ErrClosed
	case a.streaming:
		return nil, ErrStreamActive
	case a.skt == nil:
		return nil, errors.New("transport not open")
	}

	b := make([]byte, 4+c.Len())
	b[0] = pktTypeCommand
	b[1] = byte(c.OpCode())
	b[2] = byte(c.OpCode() >> 8)
	b[3] = byte(c.Len())
	if err := c.Marshal(b[4:]); err != nil {
		return nil, errors.Wrap(err, "can't marshal cmd")
	}

	if n, err := a.skt.Write(b); err != nil {
		return nil, errors.Wrap(err, "can't send cmd")
	} else if n != len(b) {
		return nil, fmt.Errorf("can't send whole cmd pkt: %v of %v bytes", n, len(b))
	}
	a.logger.Debugf("hci: sent cmd [% X]", b)

	return a.response(ctx, c)
}

// response reads the next event and matches it against the command in
// flight. Command Complete yields the return parameters, Command
// Status yields the status alone. Anything else is a decode failure.
func (a *Adapter) response(ctx context.Context, c cmd.Command) ([]byte, error) {
	p, err := a.readEvent(ctx)
	if err != nil {
		return nil, err
	}

	switch p.Code {
	case evt.CommandCompleteCode:
		cc := evt.CommandComplete(p.Payload)
		op, err := cc.CommandOpcodeWErr()
		if err != nil {
			return nil, &DecodeError{Code: p.Code, Err: err}
		}
		if int(op) != c.OpCode() {
			return nil, &DecodeError{Code: p.Code,
				Err: fmt.Errorf("opcode mismatch: sent 0x%04X, got 0x%04X", c.OpCode(), op)}
		}
		// opcode check guarantees the header, so a missing block just
		// means the command returns nothing
		ret, _ := cc.ReturnParametersWErr()
		return ret, nil

	case evt.CommandStatusCode:
		cs := evt.CommandStatus(p.Payload)
		op, err := cs.CommandOpcodeWErr()
		if err != nil {
			return nil, &DecodeError{Code: p.Code, Err: err}
		}
		if int(op) != c.OpCode() {
			return nil, &DecodeError{Code: p.Code,
				Err: fmt.Errorf("opcode mismatch: sent 0x%04X, got 0x%04X", c.OpCode(), op)}
		}
		st, _ := cs.StatusWErr()
		return []byte{st}, nil

	default:
		return nil, &DecodeError{Code: p.Code,
			Err: fmt.Errorf("unexpected event awaiting response to 0x%04X", c.OpCode())}
	}
}

// readEvent pulls one event packet off the transport. Zero-byte reads
// are poll timeouts and retried after checking ctx.
func (a *Adapter) readEvent(ctx context.Context) (EventPacket, error) {
	for {
		if err := ctx.Err(); err != nil {
			return EventPacket{}, err
		}
		if a.closed {
			return EventPacket{}, ErrClosed
		}

		n, err := a.skt.Read(a.rxBuf)
		if err != nil {
			return EventPacket{}, errors.Wrap(err, "can't read event")
		}
		if n == 0 {
			continue
		}

		return parseEventPacket(a.rxBuf[:n])
	}
}

func parseEventPacket(b []byte) (EventPacket, error) {
	if len(b) < 1+evtHeaderLen {
		return EventPacket{}, &DecodeError{Err: fmt.Errorf("packet too short: %v bytes", len(b))}
	}
	if b[0] != pktTypeEvent {
		return EventPacket{}, &DecodeError{Err: fmt.Errorf("not an event packet: type 0x%02X", b[0])}
	}

	code, plen := int(b[1]), int(b[2])
	payload := b[3:]
	if len(payload) != plen {
		return EventPacket{}, &DecodeError{Code: code,
			Err: fmt.Errorf("payload length mismatch: header says %v, have %v", plen, len(payload))}
	}

	p := make([]byte, plen)
	copy(p, payload)
	return EventPacket{Code: code, Payload: p}, nil
}

// hold marks the adapter as borrowed by a stream.
func (a *Adapter) hold() error {
	switch {
	case a.closed:
		return ErrClosed
	case a.streaming:
		return ErrStreamActive
	case a.skt == nil:
		return errors.New("transport not open")
	}
	a.streaming = true
	return nil
}

func (a *Adapter) release() {
	a.streaming = false
}

// SetScanParams overrides default scanning parameters.
func (a *Adapter) SetScanParams(p cmd.LESetScanParameters) error {
	a.params.scanParams = p
	return nil
}

// SetAdvParams overrides default advertising parameters.
func (a *Adapter) SetAdvParams(p cmd.LESetAdvertisingParameters) error {
	a.params.advParams = p
	return nil
}

// SetTransportHCISocket sets HCI device for hci socket
func (a *Adapter) SetTransportHCISocket(id int) error {
	a.transport = transport{
		hci: &transportHci{id},
	}
	return nil
}

// SetTransportH4Socket sets h4 socket server
func (a *Adapter) SetTransportH4Socket(addr string, timeout time.Duration) error {
	a.transport = transport{
		h4socket: &transportH4Socket{addr, timeout},
	}
	return nil
}

// SetTransportH4Uart sets h4 uart path
func (a *Adapter) SetTransportH4Uart(path string) error {
	a.transport = transport{
		h4uart: &transportH4Uart{path},
	}
	return nil
}

// SetTransport sets an already open transport.
func (a *Adapter) SetTransport(rw io.ReadWriteCloser) error {
	a.transport = transport{
		raw: rw,
	}
	return nil
}
