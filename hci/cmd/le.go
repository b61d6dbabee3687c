package cmd

// LESetEventMask implements LE Set Event Mask (0x08|0x0001) [Vol 2, Part E, 7.8.1].
type LESetEventMask struct {
	LEEventMask uint64
}

// String returns the name and opcode of the command.
func (c *LESetEventMask) String() string { return "LE Set Event Mask (0x08|0x0001)" }

// OpCode returns the opcode of the command.
func (c *LESetEventMask) OpCode() int { return 0x08<<10 | 0x0001 }

// Len returns the length of the command parameters.
func (c *LESetEventMask) Len() int { return 8 }

// Marshal serializes the command parameters into binary form.
func (c *LESetEventMask) Marshal(b []byte) error { return marshal(c, b) }

// LESetEventMaskRP returns the return parameter of LE Set Event Mask.
type LESetEventMaskRP struct {
	Status uint8
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *LESetEventMaskRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LESetAdvertisingParameters implements LE Set Advertising Parameters (0x08|0x0006) [Vol 2, Part E, 7.8.5].
type LESetAdvertisingParameters struct {
	AdvertisingIntervalMin  uint16
	AdvertisingIntervalMax  uint16
	AdvertisingType         uint8
	OwnAddressType          uint8
	DirectAddressType       uint8
	DirectAddress           [6]byte
	AdvertisingChannelMap   uint8
	AdvertisingFilterPolicy uint8
}

// String returns the name and opcode of the command.
func (c *LESetAdvertisingParameters) String() string {
	return "LE Set Advertising Parameters (0x08|0x0006)"
}

// OpCode returns the opcode of the command.
func (c *LESetAdvertisingParameters) OpCode() int { return 0x08<<10 | 0x0006 }

// Len returns the length of the command parameters.
func (c *LESetAdvertisingParameters) Len() int { return 15 }

// Marshal serializes the command parameters into binary form.
func (c *LESetAdvertisingParameters) Marshal(b []byte) error { return marshal(c, b) }

// LESetAdvertisingParametersRP returns the return parameter of LE Set Advertising Parameters.
type LESetAdvertisingParametersRP struct {
	Status uint8
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *LESetAdvertisingParametersRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LEReadAdvertisingChannelTxPower implements LE Read Advertising Channel Tx Power (0x08|0x0007) [Vol 2, Part E, 7.8.6].
type LEReadAdvertisingChannelTxPower struct{}

// String returns the name and opcode of the command.
func (c *LEReadAdvertisingChannelTxPower) String() string {
	return "LE Read Advertising Channel Tx Power (0x08|0x0007)"
}

// OpCode returns the opcode of the command.
func (c *LEReadAdvertisingChannelTxPower) OpCode() int { return 0x08<<10 | 0x0007 }

// Len returns the length of the command parameters.
func (c *LEReadAdvertisingChannelTxPower) Len() int { return 0 }

// Marshal serializes the command parameters into binary form.
func (c *LEReadAdvertisingChannelTxPower) Marshal(b []byte) error { return marshal(c, b) }

// LEReadAdvertisingChannelTxPowerRP returns the return parameter of LE
// Read Advertising Channel Tx Power. TransmitPowerLevel is in dBm,
// -20 to +10.
type LEReadAdvertisingChannelTxPowerRP struct {
	Status             uint8
	TransmitPowerLevel int8
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *LEReadAdvertisingChannelTxPowerRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LESetAdvertisingData implements LE Set Advertising Data (0x08|0x0008) [Vol 2, Part E, 7.8.7].
type LESetAdvertisingData struct {
	AdvertisingDataLength uint8
	AdvertisingData       [31]byte
}

// String returns the name and opcode of the command.
func (c *LESetAdvertisingData) String() string { return "LE Set Advertising Data (0x08|0x0008)" }

// OpCode returns the opcode of the command.
func (c *LESetAdvertisingData) OpCode() int { return 0x08<<10 | 0x0008 }

// Len returns the length of the command parameters.
func (c *LESetAdvertisingData) Len() int { return 32 }

// Marshal serializes the command parameters into binary form.
func (c *LESetAdvertisingData) Marshal(b []byte) error { return marshal(c, b) }

// LESetAdvertisingDataRP returns the return parameter of LE Set Advertising Data.
type LESetAdvertisingDataRP struct {
	Status uint8
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *LESetAdvertisingDataRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LESetScanResponseData implements LE Set Scan Response Data (0x08|0x0009) [Vol 2, Part E, 7.8.8].
type LESetScanResponseData struct {
	ScanResponseDataLength uint8
	ScanResponseData       [31]byte
}

// String returns the name and opcode of the command.
func (c *LESetScanResponseData) String() string { return "LE Set Scan Response Data (0x08|0x0009)" }

// OpCode returns the opcode of the command.
func (c *LESetScanResponseData) OpCode() int { return 0x08<<10 | 0x0009 }

// Len returns the length of the command parameters.
func (c *LESetScanResponseData) Len() int { return 32 }

// Marshal serializes the command parameters into binary form.
func (c *LESetScanResponseData) Marshal(b []byte) error { return marshal(c, b) }

// LESetScanResponseDataRP returns the return parameter of LE Set Scan Response Data.
type LESetScanResponseDataRP struct {
	Status uint8
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *LESetScanResponseDataRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LESetAdvertiseEnable implements LE Set Advertise Enable (0x08|0x000A) [Vol 2, Part E, 7.8.9].
type LESetAdvertiseEnable struct {
	AdvertisingEnable uint8
}

// String returns the name and opcode of the command.
func (c *LESetAdvertiseEnable) String() string { return "LE Set Advertise Enable (0x08|0x000A)" }

// OpCode returns the opcode of the command.
func (c *LESetAdvertiseEnable) OpCode() int { return 0x08<<10 | 0x000A }

// Len returns the length of the command parameters.
func (c *LESetAdvertiseEnable) Len() int { return 1 }

// Marshal serializes the command parameters into binary form.
func (c *LESetAdvertiseEnable) Marshal(b []byte) error { return marshal(c, b) }

// LESetAdvertiseEnableRP returns the return parameter of LE Set Advertise Enable.
type LESetAdvertiseEnableRP struct {
	Status uint8
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *LESetAdvertiseEnableRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LESetScanParameters implements LE Set Scan Parameters (0x08|0x000B) [Vol 2, Part E, 7.8.10].
type LESetScanParameters struct {
	LEScanType           uint8
	LEScanInterval       uint16
	LEScanWindow         uint16
	OwnAddressType       uint8
	ScanningFilterPolicy uint8
}

// String returns the name and opcode of the command.
func (c *LESetScanParameters) String() string { return "LE Set Scan Parameters (0x08|0x000B)" }

// OpCode returns the opcode of the command.
func (c *LESetScanParameters) OpCode() int { return 0x08<<10 | 0x000B }

// Len returns the length of the command parameters.
func (c *LESetScanParameters) Len() int { return 7 }

// Marshal serializes the command parameters into binary form.
func (c *LESetScanParameters) Marshal(b []byte) error { return marshal(c, b) }

// LESetScanParametersRP returns the return parameter of LE Set Scan Parameters.
type LESetScanParametersRP struct {
	Status uint8
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *LESetScanParametersRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LESetScanEnable implements LE Set Scan Enable (0x08|0x000C) [Vol 2, Part E, 7.8.11].
type LESetScanEnable struct {
	LEScanEnable     uint8
	FilterDuplicates uint8
}

// String returns the name and opcode of the command.
func (c *LESetScanEnable) String() string { return "LE Set Scan Enable (0x08|0x000C)" }

// OpCode returns the opcode of the command.
func (c *LESetScanEnable) OpCode() int { return 0x08<<10 | 0x000C }

// Len returns the length of the command parameters.
func (c *LESetScanEnable) Len() int { return 2 }

// Marshal serializes the command parameters into binary form.
func (c *LESetScanEnable) Marshal(b []byte) error { return marshal(c, b) }

// LESetScanEnableRP returns the return parameter of LE Set Scan Enable.
type LESetScanEnableRP struct {
	Status uint8
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *LESetScanEnableRP) Unmarshal(b []byte) error { return unmarshal(c, b) }

// LERand implements LE Rand (0x08|0x0018) [Vol 2, Part E, 7.8.23].
type LERand struct{}

// String returns the name and opcode of the command.
func (c *LERand) String() string { return "LE Rand (0x08|0x0018)" }

// OpCode returns the opcode of the command.
func (c *LERand) OpCode() int { return 0x08<<10 | 0x0018 }

// Len returns the length of the command parameters.
func (c *LERand) Len() int { return 0 }

// Marshal serializes the command parameters into binary form.
func (c *LERand) Marshal(b []byte) error { return marshal(c, b) }

// LERandRP returns the return parameter of LE Rand. RandomNumber holds
// the 8 random octets in wire order, least significant byte first.
type LERandRP struct {
	Status       uint8
	RandomNumber uint64
}

// Unmarshal de-serializes the binary data and stores the result in the receiver.
func (c *LERandRP) Unmarshal(b []byte) error { return unmarshal(c, b) }
