//go:build !rp2040

package logging

import (
	"os"

	"tinygo.org/x/drivers"
)

// hostUART stands in for the board UART on host builds: TX goes to stdout,
// RX comes from stdin.
type hostUART struct {
	out *os.File
	in  *os.File
}

var _ drivers.UART = (*hostUART)(nil)

func (u *hostUART) Write(p []byte) (int, error) { return u.out.Write(p) }
func (u *hostUART) Read(p []byte) (int, error)  { return u.in.Read(p) }
func (u *hostUART) Buffered() int               { return 0 }

// DefaultSerial returns the port the serial drain and direct mode write to.
func DefaultSerial() drivers.UART {
	return &hostUART{out: os.Stdout, in: os.Stdin}
}
