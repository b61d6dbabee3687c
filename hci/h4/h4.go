// Package h4 implements the UART H4 transport: HCI packets carried
// over a serial port or a TCP tunnel, reassembled from the raw byte
// stream. Read returns one whole packet per call and 0 bytes on
// timeout, matching the hci socket convention.
package h4

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/chmorgan/go-serial2/serial"
	"github.com/pkg/errors"
)

const rxQueueSize = 64

type h4 struct {
	sp io.ReadWriteCloser

	rmu sync.Mutex
	wmu sync.Mutex
	cmu sync.Mutex
	emu sync.Mutex

	rxQueue chan []byte
	rxErr   error

	frame *frame

	done chan struct{}
}

// DefaultSerialOptions returns the settings commonly used by HCI
// UARTs, 115200 8N1 with hardware flow control. Set PortName before
// passing them to NewSerial.
func DefaultSerialOptions() serial.OpenOptions {
	return serial.OpenOptions{
		BaudRate:              115200,
		DataBits:              8,
		StopBits:              1,
		RTSCTSFlowControl:     true,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	}
}

// NewSerial opens an H4 controller on a serial port.
func NewSerial(opts serial.OpenOptions) (io.ReadWriteCloser, error) {
	// reads must time out so the rx loop can wind down on Close
	opts.MinimumReadSize = 0
	opts.InterCharacterTimeout = 100

	sp, err := serial.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "can't open serial port")
	}

	// nudge the controller with a reset and drain whatever is
	// buffered so framing starts clean
	sp.Write([]byte{commandPacket, 0x03, 0x0C, 0x00})
	<-time.After(time.Millisecond * 250)
	b := make([]byte, 2048)
	if _, err := sp.Read(b); err != nil {
		sp.Close()
		return nil, errors.Wrap(err, "can't flush serial port")
	}

	return newH4(sp), nil
}

// NewSocket connects to an H4 controller served over TCP.
func NewSocket(addr string, timeout time.Duration) (io.ReadWriteCloser, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "can't dial h4 server")
	}

	return newH4(&connWithTimeout{c: c, timeout: timeout}), nil
}

func newH4(sp io.ReadWriteCloser) *h4 {
	h := &h4{
		sp:      sp,
		rxQueue: make(chan []byte, rxQueueSize),
		done:    make(chan struct{}),
	}
	h.frame = newFrame(h.rxQueue)

	go h.rxLoop()

	return h
}

func (h *h4) Read(p []byte) (int, error) {
	if !h.isOpen() {
		return 0, io.EOF
	}

	h.rmu.Lock()
	defer h.rmu.Unlock()

	select {
	case t := <-h.rxQueue:
		if len(p) < len(t) {
			return 0, fmt.Errorf("buffer too small")
		}
		if !h.isOpen() {
			return 0, io.EOF
		}
		return copy(p, t), nil

	case <-time.After(time.Second):
		if err := h.readErr(); err != nil {
			return 0, err
		}
		// nothing assembled yet
		return 0, nil
	}
}

func (h *h4) Write(p []byte) (int, error) {
	if !h.isOpen() {
		return 0, io.EOF
	}

	h.wmu.Lock()
	defer h.wmu.Unlock()
	n, err := h.sp.Write(p)
	return n, errors.Wrap(err, "can't write h4")
}

func (h *h4) Close() error {
	h.cmu.Lock()
	defer h.cmu.Unlock()

	select {
	case <-h.done:
		return nil

	default:
		close(h.done)
		return errors.Wrap(h.sp.Close(), "can't close h4")
	}
}

func (h *h4) isOpen() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *h4) readErr() error {
	h.emu.Lock()
	defer h.emu.Unlock()
	return h.rxErr
}

func (h *h4) setReadErr(err error) {
	h.emu.Lock()
	h.rxErr = err
	h.emu.Unlock()
}

// rxLoop feeds the frame assembler until the transport closes or
// fails. A failure is kept for the next Read to report.
func (h *h4) rxLoop() {
	tmp := make([]byte, 512)
	for {
		select {
		case <-h.done:
			return
		default:
		}

		n, err := h.sp.Read(tmp)
		switch {
		case err != nil && isTimeout(err):
			continue
		case err != nil:
			if h.isOpen() {
				h.setReadErr(errors.Wrap(err, "h4 read failed"))
			}
			return
		case n == 0:
			continue
		}

		h.frame.Assemble(tmp[:n])
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
