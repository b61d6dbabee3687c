package h4

import (
	"fmt"
	"time"
)

const (
	commandPacket byte = 0x01
	aclPacket     byte = 0x02
	eventPacket   byte = 0x04
)

const (
	evtHeaderLength = 3
	aclHeaderLength = 5
	frameTimeout    = time.Millisecond * 500
)

// frame reassembles HCI packets from the byte chunks a serial line
// delivers. Completed packets go to out as one slice per packet. Bytes
// that cannot start a packet are discarded until a start byte shows
// up; a partial packet older than frameTimeout is thrown away.
type frame struct {
	b       []byte
	timeout time.Time
	out     chan []byte
	pktType byte
}

func newFrame(c chan []byte) *frame {
	return &frame{
		b:   make([]byte, 0, 256),
		out: c,
	}
}

func (f *frame) Assemble(b []byte) {
	if len(b) == 0 {
		return
	}
	if !f.timeout.IsZero() && time.Now().After(f.timeout) {
		f.reset()
	}

	if len(f.b) == 0 {
		if err := f.findStart(b); err != nil {
			return
		}
	} else {
		f.b = append(f.b, b...)
	}

	pkt, err := f.complete()
	if err != nil {
		// keep collecting
		return
	}
	out := make([]byte, len(pkt))
	copy(out, pkt)
	f.out <- out

	if len(f.b) > len(pkt) {
		rem := make([]byte, len(f.b)-len(pkt))
		copy(rem, f.b[len(pkt):])
		f.reset()
		f.Assemble(rem)
	} else {
		f.reset()
	}
}

func (f *frame) reset() {
	f.b = f.b[:0]
	f.timeout = time.Time{}
}

// findStart scans for a packet type byte and starts collecting there.
func (f *frame) findStart(b []byte) error {
	for i, v := range b {
		switch v {
		case eventPacket, aclPacket:
			f.pktType = v
		default:
			continue
		}

		f.timeout = time.Now().Add(frameTimeout)
		f.b = append(f.b, b[i:]...)
		return nil
	}

	return fmt.Errorf("no start byte")
}

// packetLength returns the total packet size once enough header bytes
// have been collected to know it.
func (f *frame) packetLength() (int, error) {
	switch f.pktType {
	case aclPacket:
		if len(f.b) < aclHeaderLength {
			return 0, fmt.Errorf("not enough bytes")
		}
		l := int(f.b[3]) | int(f.b[4])<<8
		return l + aclHeaderLength, nil

	case eventPacket:
		if len(f.b) < evtHeaderLength {
			return 0, fmt.Errorf("not enough bytes")
		}
		return int(f.b[2]) + evtHeaderLength, nil

	default:
		return 0, fmt.Errorf("invalid packet type %v", f.pktType)
	}
}

func (f *frame) complete() ([]byte, error) {
	tl, err := f.packetLength()
	if err != nil {
		return nil, err
	}

	if len(f.b) < tl {
		return nil, fmt.Errorf("not enough bytes")
	}
	return f.b[:tl], nil
}
