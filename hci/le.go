package hci

import (
	"context"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/larkwire/ble"
	"github.com/larkwire/ble/adv"
	"github.com/larkwire/ble/hci/cmd"
)

// An LEAdapter layers the LE controller operations over the base
// adapter: advertising control, scanning, event masking and the
// report streams.
type LEAdapter struct {
	*Adapter
}

// NewLEAdapter wraps an adapter.
func NewLEAdapter(a *Adapter) *LEAdapter {
	return &LEAdapter{Adapter: a}
}

// SetAdvertisingEnable starts or stops advertising with the configured
// parameters and data.
func (la *LEAdapter) SetAdvertisingEnable(ctx context.Context, enable bool) error {
	c := &cmd.LESetAdvertiseEnable{}
	if enable {
		c.AdvertisingEnable = 1
	}
	return la.Send(ctx, c, nil)
}

// Advertise starts advertising.
func (la *LEAdapter) Advertise(ctx context.Context) error {
	return la.SetAdvertisingEnable(ctx, true)
}

// StopAdvertising stops advertising.
func (la *LEAdapter) StopAdvertising(ctx context.Context) error {
	return la.SetAdvertisingEnable(ctx, false)
}

// SetAdvertisingParameters validates p, keeps it as the new default
// and hands it to the controller.
func (la *LEAdapter) SetAdvertisingParameters(ctx context.Context, p cmd.LESetAdvertisingParameters) error {
	if err := ValidateAdvParams(p); err != nil {
		return err
	}
	la.params.advParams = p
	return la.Send(ctx, &p, nil)
}

// SetAdvertisingData sets the advertising payload. Payloads over 31
// bytes fail with ErrEIRPacketTooLong before anything reaches the
// controller.
func (la *LEAdapter) SetAdvertisingData(ctx context.Context, data []byte) error {
	if len(data) > adv.MaxEIRPacketLength {
		return ble.ErrEIRPacketTooLong
	}
	c := &cmd.LESetAdvertisingData{AdvertisingDataLength: uint8(len(data))}
	copy(c.AdvertisingData[:], data)
	return la.Send(ctx, c, nil)
}

// SetScanResponseData sets the payload answered to active scanners,
// with the same 31 byte limit as SetAdvertisingData.
func (la *LEAdapter) SetScanResponseData(ctx context.Context, data []byte) error {
	if len(data) > adv.MaxEIRPacketLength {
		return ble.ErrEIRPacketTooLong
	}
	c := &cmd.LESetScanResponseData{ScanResponseDataLength: uint8(len(data))}
	copy(c.ScanResponseData[:], data)
	return la.Send(ctx, c, nil)
}

// SetAdvertisement sets advertising data and scan response together.
// Both are checked against the limit before either is sent.
func (la *LEAdapter) SetAdvertisement(ctx context.Context, ad, sr []byte) error {
	if len(ad) > adv.MaxEIRPacketLength || len(sr) > adv.MaxEIRPacketLength {
		return ble.ErrEIRPacketTooLong
	}
	if err := la.SetAdvertisingData(ctx, ad); err != nil {
		return err
	}
	return la.SetScanResponseData(ctx, sr)
}

// SetScanParameters validates p, keeps it as the new default and hands
// it to the controller.
func (la *LEAdapter) SetScanParameters(ctx context.Context, p cmd.LESetScanParameters) error {
	if err := ValidateScanParams(p); err != nil {
		return err
	}
	la.params.scanParams = p
	return la.Send(ctx, &p, nil)
}

// SetScanEnable starts or stops scanning. With filterDuplicates the
// controller reports each device once per scan.
func (la *LEAdapter) SetScanEnable(ctx context.Context, enable, filterDuplicates bool) error {
	c := &cmd.LESetScanEnable{}
	if enable {
		c.LEScanEnable = 1
	}
	if filterDuplicates {
		c.FilterDuplicates = 1
	}
	return la.Send(ctx, c, nil)
}

// Scan starts scanning. Duplicate reports are filtered out unless
// allowDup is set.
func (la *LEAdapter) Scan(ctx context.Context, allowDup bool) error {
	return la.SetScanEnable(ctx, true, !allowDup)
}

// StopScanning stops scanning.
func (la *LEAdapter) StopScanning(ctx context.Context) error {
	return la.SetScanEnable(ctx, false, false)
}

// ReadAdvertisingTxPower returns the advertising channel transmit
// power in dBm, -20 to +10.
func (la *LEAdapter) ReadAdvertisingTxPower(ctx context.Context) (int8, error) {
	rp := cmd.LEReadAdvertisingChannelTxPowerRP{}
	if err := la.Send(ctx, &cmd.LEReadAdvertisingChannelTxPower{}, &rp); err != nil {
		return 0, err
	}
	return rp.TransmitPowerLevel, nil
}

// Rand returns 8 bytes from the controller random number generator.
func (la *LEAdapter) Rand(ctx context.Context) ([RandLen]byte, error) {
	rp := cmd.LERandRP{}
	if err := la.Send(ctx, &cmd.LERand{}, &rp); err != nil {
		return [RandLen]byte{}, err
	}

	var out [RandLen]byte
	binary.LittleEndian.PutUint64(out[:], rp.RandomNumber)
	return out, nil
}

// MaskAdvertisingReports narrows both event masks so that, besides
// command responses, only LE advertising reports reach the host. Call
// it before opening a report stream to keep other traffic out.
func (la *LEAdapter) MaskAdvertisingReports(ctx context.Context) error {
	m := &cmd.SetEventMask{EventMask: cmd.EventMaskLEMeta}
	if err := la.Send(ctx, m, nil); err != nil {
		return errors.Wrap(err, "can't mask events")
	}

	lm := &cmd.LESetEventMask{LEEventMask: cmd.LEEventMaskAdvertisingReport}
	return errors.Wrap(la.Send(ctx, lm, nil), "can't mask le events")
}

// AdvertisingReportStream borrows the adapter and narrows its events
// to advertising report batches.
func (la *LEAdapter) AdvertisingReportStream() (*AdvertisingReportStream, error) {
	es, err := la.EventStream()
	if err != nil {
		return nil, err
	}
	return NewAdvertisingReportStream(es), nil
}

// ReportStream borrows the adapter and delivers individual advertising
// reports.
func (la *LEAdapter) ReportStream() (*ReportStream, error) {
	rs, err := la.AdvertisingReportStream()
	if err != nil {
		return nil, err
	}
	return NewReportStream(rs), nil
}

var _ ble.Advertiser = (*LEAdapter)(nil)
var _ ble.Scanner = (*LEAdapter)(nil)
