package logging

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

// syncBuffer is a bytes.Buffer safe for one writer goroutine and a test reader.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// fakeUART has a transmit FIFO that only takes free bytes per pass.
type fakeUART struct {
	syncBuffer
	free   int
	writes []int
}

func (f *fakeUART) TxFree() int { return f.free }

func (f *fakeUART) Write(p []byte) (int, error) {
	f.mu.Lock()
	f.writes = append(f.writes, len(p))
	f.mu.Unlock()
	return f.syncBuffer.Write(p)
}

type panicWriter struct{}

func (panicWriter) Write(p []byte) (int, error) { panic("sink exploded") }

func testOptions(serial io.Writer) Options {
	opts := DefaultOptions()
	opts.TCPAddr = ""
	opts.SerialBaud = 0
	opts.Serial = serial
	opts.Diag = io.Discard
	return opts
}

func newTestEngine(t *testing.T, serial io.Writer) *Engine {
	t.Helper()
	if serial == nil {
		serial = io.Discard
	}
	return New(testOptions(serial))
}

func snapshot(t *testing.T, e *Engine) string {
	t.Helper()
	var b bytes.Buffer
	_, err := e.Snapshot(&b, false)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return b.String()
}
