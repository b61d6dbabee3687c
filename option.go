package ble

import (
	"io"
	"time"

	"github.com/larkwire/ble/hci/cmd"
)

// DeviceOption is an interface which the device should implement to allow using configuration options
type DeviceOption interface {
	SetScanParams(cmd.LESetScanParameters) error
	SetAdvParams(cmd.LESetAdvertisingParameters) error

	SetTransportHCISocket(id int) error
	SetTransportH4Socket(addr string, timeout time.Duration) error
	SetTransportH4Uart(path string) error
	SetTransport(rw io.ReadWriteCloser) error
}

// An Option is a configuration function, which configures the device.
type Option func(DeviceOption) error

// OptScanParams overrides default scanning parameters.
func OptScanParams(param cmd.LESetScanParameters) Option {
	return func(opt DeviceOption) error {
		opt.SetScanParams(param)
		return nil
	}
}

// OptAdvParams overrides default advertising parameters.
func OptAdvParams(param cmd.LESetAdvertisingParameters) Option {
	return func(opt DeviceOption) error {
		opt.SetAdvParams(param)
		return nil
	}
}

// OptTransportHCISocket set hci socket transport
func OptTransportHCISocket(id int) Option {
	return func(opt DeviceOption) error {
		opt.SetTransportHCISocket(id)
		return nil
	}
}

// OptTransportH4Socket set h4 socket transport
func OptTransportH4Socket(addr string, timeout time.Duration) Option {
	return func(opt DeviceOption) error {
		opt.SetTransportH4Socket(addr, timeout)
		return nil
	}
}

// OptTransportH4Uart set h4 uart transport
func OptTransportH4Uart(path string) Option {
	return func(opt DeviceOption) error {
		opt.SetTransportH4Uart(path)
		return nil
	}
}

// OptTransport sets an already open HCI transport, mainly for tests and
// custom integrations.
func OptTransport(rw io.ReadWriteCloser) Option {
	return func(opt DeviceOption) error {
		opt.SetTransport(rw)
		return nil
	}
}
