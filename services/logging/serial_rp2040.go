//go:build rp2040

package logging

import (
	"context"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"
)

// consoleUART adapts the board console UART to drivers.UART.
type consoleUART struct{ u *uartx.UART }

var _ drivers.UART = (*consoleUART)(nil)

func (c *consoleUART) Write(p []byte) (int, error) { return c.u.Write(p) }
func (c *consoleUART) Read(p []byte) (int, error) {
	return c.u.RecvSomeContext(context.Background(), p)
}
func (c *consoleUART) Buffered() int { return 0 }

// DefaultSerial configures UART0 at the console baud. Pin defaults come
// from uartx when left zero.
func DefaultSerial() drivers.UART {
	hw := uartx.UART0
	_ = hw.Configure(uartx.UARTConfig{BaudRate: DefaultSerialBaud})
	return &consoleUART{u: hw}
}
