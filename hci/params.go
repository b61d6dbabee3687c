package hci

import (
	"fmt"

	"github.com/larkwire/ble/hci/cmd"
)

const (
	AddressTypePublic           = 0
	AddressTypeRandom           = 1
	FilterPolicyAcceptAll       = 0
	FilterPolicyAcceptWhitelist = 1
	LEScanTypePassive           = 0
	LEScanTypeActive            = 1

	LEScanIntervalMin = 0x0004
	LEScanIntervalMax = 0x4000
	LEScanWindowMin   = 0x0004
	LEScanWindowMax   = 0x4000

	AdvIntervalMin = 0x0020
	AdvIntervalMax = 0x4000

	AdvTypeADVInd        = 0x00
	AdvTypeDirectIndHigh = 0x01
	AdvTypeScanInd       = 0x02
	AdvTypeNonconnInd    = 0x03
	AdvTypeDirectIndLow  = 0x04

	AdvChannelAll = 0x07
)

type params struct {
	advParams  cmd.LESetAdvertisingParameters
	scanParams cmd.LESetScanParameters
}

func (p *params) init() {
	p.scanParams = cmd.LESetScanParameters{
		LEScanType:           0x01,   // 0x00: passive, 0x01: active
		LEScanInterval:       0x0004, // 0x0004 - 0x4000; N * 0.625msec
		LEScanWindow:         0x0004, // 0x0004 - 0x4000; N * 0.625msec
		OwnAddressType:       0x00,   // 0x00: public, 0x01: random
		ScanningFilterPolicy: 0x00,   // 0x00: accept all, 0x01: ignore non-white-listed.
	}
	p.advParams = cmd.LESetAdvertisingParameters{
		AdvertisingIntervalMin:  0x0020,    // 0x0020 - 0x4000; N * 0.625 msec
		AdvertisingIntervalMax:  0x0020,    // 0x0020 - 0x4000; N * 0.625 msec
		AdvertisingType:         0x00,      // 00: ADV_IND, 0x01: DIRECT(HIGH), 0x02: SCAN, 0x03: NONCONN, 0x04: DIRECT(LOW)
		OwnAddressType:          0x00,      // 0x00: public, 0x01: random
		DirectAddressType:       0x00,      // 0x00: public, 0x01: random
		DirectAddress:           [6]byte{}, // Public or Random Address of the Device to be connected
		AdvertisingChannelMap:   0x7,       // 0x07 0x01: ch37, 0x2: ch38, 0x4: ch39
		AdvertisingFilterPolicy: 0x00,
	}
}

func (p *params) validate() error {
	if p == nil {
		return fmt.Errorf("params nil")
	}
	if err := ValidateScanParams(p.scanParams); err != nil {
		return err
	}
	if err := ValidateAdvParams(p.advParams); err != nil {
		return err
	}

	return nil
}

func ValidateScanParams(p cmd.LESetScanParameters) error {
	switch {
	case p.LEScanType != LEScanTypeActive && p.LEScanType != LEScanTypePassive:
		return fmt.Errorf("invalid LEScanType %v", p.LEScanType)

	case p.LEScanInterval < LEScanIntervalMin || p.LEScanInterval > LEScanIntervalMax:
		return fmt.Errorf("invalid LEScanInterval %v", p.LEScanInterval)

	case p.LEScanWindow < LEScanWindowMin || p.LEScanWindow > LEScanWindowMax:
		return fmt.Errorf("invalid LEScanWindow %v", p.LEScanWindow)

	case p.LEScanWindow > p.LEScanInterval:
		return fmt.Errorf("LEScanWindow %v > LEScanInterval %v", p.LEScanWindow, p.LEScanInterval)

	case p.OwnAddressType != AddressTypePublic && p.OwnAddressType != AddressTypeRandom:
		return fmt.Errorf("invalid OwnAddressType %v", p.OwnAddressType)

	case p.ScanningFilterPolicy != FilterPolicyAcceptAll && p.ScanningFilterPolicy != FilterPolicyAcceptWhitelist:
		return fmt.Errorf("invalid ScanningFilterPolicy %v", p.ScanningFilterPolicy)
	}

	return nil
}

func ValidateAdvParams(p cmd.LESetAdvertisingParameters) error {
	switch {
	case p.AdvertisingIntervalMin < AdvIntervalMin || p.AdvertisingIntervalMin > AdvIntervalMax:
		return fmt.Errorf("invalid AdvertisingIntervalMin %v", p.AdvertisingIntervalMin)

	case p.AdvertisingIntervalMax < AdvIntervalMin || p.AdvertisingIntervalMax > AdvIntervalMax:
		return fmt.Errorf("invalid AdvertisingIntervalMax %v", p.AdvertisingIntervalMax)

	case p.AdvertisingIntervalMin > p.AdvertisingIntervalMax:
		return fmt.Errorf("AdvertisingIntervalMin %v > AdvertisingIntervalMax %v",
			p.AdvertisingIntervalMin, p.AdvertisingIntervalMax)

	case p.AdvertisingType > AdvTypeDirectIndLow:
		return fmt.Errorf("invalid AdvertisingType %v", p.AdvertisingType)

	case p.OwnAddressType != AddressTypePublic && p.OwnAddressType != AddressTypeRandom:
		return fmt.Errorf("invalid OwnAddressType %v", p.OwnAddressType)

	case p.AdvertisingChannelMap == 0 || p.AdvertisingChannelMap > AdvChannelAll:
		return fmt.Errorf("invalid AdvertisingChannelMap %v", p.AdvertisingChannelMap)

	case p.AdvertisingFilterPolicy > 0x03:
		return fmt.Errorf("invalid AdvertisingFilterPolicy %v", p.AdvertisingFilterPolicy)
	}

	return nil
}
