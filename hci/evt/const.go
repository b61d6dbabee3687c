// Package evt provides read-only views over HCI event payloads. A view
// wraps the raw payload bytes without copying; accessors decode fields
// on demand and the WErr variants report malformed payloads instead of
// returning defaults.
package evt

// Event codes [Vol 2, Part E, 7.7].
const (
	DisconnectionCompleteCode    = 0x05
	EncryptionChangeCode         = 0x08
	CommandCompleteCode          = 0x0E
	CommandStatusCode            = 0x0F
	HardwareErrorCode            = 0x10
	NumberOfCompletedPacketsCode = 0x13
	DataBufferOverflowCode       = 0x1A
	LEMetaCode                   = 0x3E
)

// LE Meta subevent codes [Vol 2, Part E, 7.7.65].
const (
	LEConnectionCompleteSubCode             = 0x01
	LEAdvertisingReportSubCode              = 0x02
	LEConnectionUpdateCompleteSubCode       = 0x03
	LEReadRemoteUsedFeaturesCompleteSubCode = 0x04
	LELongTermKeyRequestSubCode             = 0x05
)

// CommandComplete is a view over a Command Complete payload
// [Vol 2, Part E, 7.7.14].
type CommandComplete []byte

// CommandStatus is a view over a Command Status payload
// [Vol 2, Part E, 7.7.15].
type CommandStatus []byte

// LEAdvertisingReport is a view over an LE Advertising Report subevent
// payload, starting at the subevent code [Vol 2, Part E, 7.7.65.2].
// Reports are packed column-wise: all event types, then all address
// types, addresses, data lengths, data blocks and finally all RSSIs.
type LEAdvertisingReport []byte
