// services/logging/serial.go
package logging

import (
	"context"
	"time"
)

// TxFIFO is implemented by serial ports with a non-blocking transmit FIFO.
// The drain then never hands the port more than it can take in one pass.
type TxFIFO interface {
	TxFree() int
}

// serialLoop drains the serial cursor into the serial port until ctx ends.
// Bytes that were overrun before the drain got to them show up as a single
// '^' in place of the first byte after the gap.
func (e *Engine) serialLoop(ctx context.Context) {
	buf := make([]byte, e.opts.ChunkSize)
	fifo, _ := e.serial.(TxFIFO)

	tick := time.NewTicker(e.opts.PollEvery)
	defer tick.Stop()

	for {
		for e.drainSerial(buf, fifo) {
		}
		select {
		case <-ctx.Done():
			return
		case <-e.ring.Readable(cursorSerial):
		case <-tick.C:
		}
	}
}

// drainSerial moves one chunk and reports whether another pass may find more.
func (e *Engine) drainSerial(buf []byte, fifo TxFIFO) bool {
	want := len(buf)
	if fifo != nil {
		free := fifo.TxFree()
		if free <= 0 {
			return false
		}
		want = min(want, free)
	}
	n, _ := e.ring.Read(cursorSerial, buf[:want])
	if n == 0 {
		return false
	}
	if _, err := e.writeSink(e.serial, buf[:n]); err != nil {
		return false
	}
	return n == want
}
