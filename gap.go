package ble

import (
	"context"

	"github.com/larkwire/ble/hci/cmd"
)

// An Advertiser controls undirected LE advertising on a device.
type Advertiser interface {
	// SetAdvertisingEnable starts or stops advertising with the
	// parameters and data configured beforehand.
	SetAdvertisingEnable(ctx context.Context, enable bool) error

	// SetAdvertisingParameters configures interval, channel map,
	// advertising type and address/filter policy.
	SetAdvertisingParameters(ctx context.Context, p cmd.LESetAdvertisingParameters) error

	// SetAdvertisingData sets the advertising payload. The payload is
	// limited to 31 bytes; longer payloads fail with ErrEIRPacketTooLong
	// before anything is sent to the controller.
	SetAdvertisingData(ctx context.Context, data []byte) error
}

// A Scanner controls LE scanning and delivers the resulting reports.
type Scanner interface {
	// SetScanParameters configures scan type, interval and window.
	SetScanParameters(ctx context.Context, p cmd.LESetScanParameters) error

	// SetScanEnable starts or stops scanning. Duplicate filtering is
	// applied by the controller when filterDuplicates is set.
	SetScanEnable(ctx context.Context, enable, filterDuplicates bool) error
}
