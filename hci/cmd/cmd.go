// Package cmd provides the typed catalog of HCI commands and their
// return parameters. Commands marshal to the little-endian wire layout
// defined in the Bluetooth Core Specification [Vol 2, Part E, 7].
package cmd

import (
	"bytes"
	"encoding/binary"
	"io"
)

// A Command is a binary serializable HCI command with a fixed opcode.
type Command interface {
	// OpCode returns the 16-bit opcode, OGF<<10|OCF.
	OpCode() int

	// Len returns the length of the parameter block.
	Len() int

	// Marshal serializes the command parameters into b, which must have
	// capacity for Len bytes.
	Marshal(b []byte) error
}

// A CommandRP is the typed return parameter block of a command. The
// first byte of the block is the status code.
type CommandRP interface {
	Unmarshal(b []byte) error
}

func marshal(c Command, b []byte) error {
	buf := bytes.NewBuffer(b)
	buf.Reset()
	if buf.Cap() < c.Len() {
		return io.ErrShortBuffer
	}
	return binary.Write(buf, binary.LittleEndian, c)
}

func unmarshal(c CommandRP, b []byte) error {
	return binary.Read(bytes.NewBuffer(b), binary.LittleEndian, c)
}
