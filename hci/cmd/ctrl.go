package cmd

// SetEventMask implements Set Event Mask (0x03|0x0001) [Vol 2, Part E, 7.3.1].
type SetEventMask struct {
	EventMask uint64
}

// String returns the name and opcode of the command.
func (c *SetEventMask) String() string { return "Set Event Mask (0x03|0x0001)" }

// OpCode returns the opcode of the command.
func (c *SetEventMask) OpCode() int { return 0x03<<10 | 0x0001 }

// Len returns the length of the command parameters.
func (c *SetEventMask) Len() int { return 8 }

// Marshal serializes the command parameters into binary form.
func (c *SetEventMask) Marshal(b []byte) error { return marshal(c, b) }

// SetEventMaskRP returns the return parameter of Set Event Mask.
type SetEventMaskRP struct {
	Status uint8
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *SetEventMaskRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// Reset implements Reset (0x03|0x0003) [Vol 2, Part E, 7.3.2].
type Reset struct{}

// String returns the name and opcode of the command.
func (c *Reset) String() string { return "Reset (0x03|0x0003)" }

// OpCode returns the opcode of the command.
func (c *Reset) OpCode() int { return 0x03<<10 | 0x0003 }

// Len returns the length of the command parameters.
func (c *Reset) Len() int { return 0 }

// Marshal serializes the command parameters into binary form.
func (c *Reset) Marshal(b []byte) error { return marshal(c, b) }

// ResetRP returns the return parameter of Reset.
type ResetRP struct {
	Status uint8
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *ResetRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// ReadBDADDR implements Read BD_ADDR (0x04|0x0009) [Vol 2, Part E, 7.4.6].
type ReadBDADDR struct{}

// String returns the name and opcode of the command.
func (c *ReadBDADDR) String() string { return "Read BD_ADDR (0x04|0x0009)" }

// OpCode returns the opcode of the command.
func (c *ReadBDADDR) OpCode() int { return 0x04<<10 | 0x0009 }

// Len returns the length of the command parameters.
func (c *ReadBDADDR) Len() int { return 0 }

// Marshal serializes the command parameters into binary form.
func (c *ReadBDADDR) Marshal(b []byte) error { return marshal(c, b) }

// ReadBDADDRRP returns the return parameter of Read BD_ADDR. BDADDR is
// in wire order, least significant byte first.
type ReadBDADDRRP struct {
	Status uint8
	BDADDR [6]byte
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *ReadBDADDRRP) Unmarshal(b []byte) error { return unmarshal(c, b) }
