package hci

// HCI packet types, the first byte of every transport frame
// [Vol 4, Part A, 2].
const (
	pktTypeCommand uint8 = 0x01
	pktTypeACLData uint8 = 0x02
	pktTypeSCOData uint8 = 0x03
	pktTypeEvent   uint8 = 0x04
	pktTypeVendor  uint8 = 0xFF
)

// Event packets carry an event code, a length byte and at most 255
// parameter bytes [Vol 2, Part E, 5.4.4].
const (
	evtHeaderLen  = 2
	sktBufferSize = 4096
)

// RandLen is the size of the random block returned by LERand.
const RandLen = 8
