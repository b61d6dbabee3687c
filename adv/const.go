// Package adv crafts and parses advertising packets and scan responses.
// Refer to the Supplement to the Bluetooth Core Specification, Part A.
package adv

// Advertising data types.
// https://www.bluetooth.org/en-us/specification/assigned-numbers/generic-access-profile
const (
	flags            = 0x01
	someUUID16       = 0x02
	allUUID16        = 0x03
	someUUID32       = 0x04
	allUUID32        = 0x05
	someUUID128      = 0x06
	allUUID128       = 0x07
	shortName        = 0x08
	completeName     = 0x09
	txPower          = 0x0A
	serviceSol16     = 0x14
	serviceSol128    = 0x15
	serviceData16    = 0x16
	serviceSol32     = 0x1F
	serviceData32    = 0x20
	serviceData128   = 0x21
	manufacturerData = 0xFF
)
