//go:build !linux
// +build !linux

package socket

import (
	"fmt"
	"io"
)

// NewSocket is a placeholder on non-Linux platforms.
func NewSocket(id int) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("hci socket only available on linux")
}
