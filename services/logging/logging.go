// services/logging/logging.go
package logging

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"relaycode-go/x/logring"
	"relaycode-go/x/mathx"
	"relaycode-go/x/timex"
)

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

const (
	DefaultRingSize      = 4096
	DefaultScratchSize   = 1024
	DefaultChunkSize     = 128
	DefaultPollEvery     = 10 * time.Millisecond
	DefaultLockWait      = 100 * time.Millisecond
	DefaultTCPAddr       = ":9000"
	DefaultMaxTCPClients = 4
	DefaultSerialBaud    = 115200

	// Budget for computed delays (logdelay < 0).
	delayBaud = 115200
	// Extra pause added to computed delays.
	delaySlackMS = 2

	rawSinkTimeout = 50 * time.Millisecond
)

type Options struct {
	RingSize      int           // power of two
	ScratchSize   int           // max rendered line incl. terminator
	ChunkSize     int           // per-read copy size of every consumer
	PollEvery     time.Duration // consumer poll period
	LockWait      time.Duration // bounded wait for ring and producer locks
	TCPAddr       string        // live feed listener; "" disables
	HTTPAddr      string        // standalone snapshot server; "" disables
	MaxTCPClients int
	SerialBaud    int       // direct-mode pacing; 0 disables
	Serial        io.Writer // nil: platform default port
	Diag          io.Writer // engine's own diagnostics; nil: os.Stderr
}

func DefaultOptions() Options {
	return Options{
		RingSize:      DefaultRingSize,
		ScratchSize:   DefaultScratchSize,
		ChunkSize:     DefaultChunkSize,
		PollEvery:     DefaultPollEvery,
		LockWait:      DefaultLockWait,
		TCPAddr:       DefaultTCPAddr,
		MaxTCPClients: DefaultMaxTCPClients,
		SerialBaud:    DefaultSerialBaud,
	}
}

func (o *Options) normalise() {
	if o.RingSize <= 0 {
		o.RingSize = DefaultRingSize
	}
	if o.ScratchSize <= len(lineEnd) {
		o.ScratchSize = DefaultScratchSize
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	o.ChunkSize = mathx.Clamp(o.ChunkSize, 16, o.RingSize)
	if o.PollEvery <= 0 {
		o.PollEvery = DefaultPollEvery
	}
	if o.LockWait < 0 {
		o.LockWait = 0
	}
	o.MaxTCPClients = mathx.Max(o.MaxTCPClients, 0)
	o.SerialBaud = mathx.Max(o.SerialBaud, 0)
	if o.Serial == nil {
		o.Serial = DefaultSerial()
	}
	if o.Diag == nil {
		o.Diag = os.Stderr
	}
}

// -----------------------------------------------------------------------------
// Engine
// -----------------------------------------------------------------------------

// Ring cursor slots: two fixed consumers, then the TCP client pool.
const (
	cursorSerial logring.Cursor = iota
	cursorHTTP
	cursorTCPBase
)

// Engine is the multi-sink logger. Producers call Logf from any goroutine;
// consumers drain the ring through their own cursors.
type Engine struct {
	opts     Options
	settings *Settings
	ring     *logring.Ring

	// producer lock: guards scratch and serialises direct writes
	emitMu  sync.Mutex
	scratch []byte

	serial  io.Writer
	pacer   *rate.Limiter
	diag    io.Writer
	diagMu  sync.Mutex
	httpMu  sync.Mutex
	httpBuf []byte

	startOnce sync.Once
	startErr  error
	started   atomic.Bool

	stats struct {
		written      atomic.Uint64
		filtered     atomic.Uint64
		dropped      atomic.Uint64
		tcpClients   atomic.Int32
		tcpRejected  atomic.Uint64
		sinkFailures atomic.Uint64
	}
}

// New allocates the ring and buffers. No goroutine runs until Start.
func New(opts Options) *Engine {
	opts.normalise()
	e := &Engine{
		opts:     opts,
		settings: newSettings(),
		ring:     logring.New(opts.RingSize, int(cursorTCPBase)+opts.MaxTCPClients),
		scratch:  make([]byte, 0, opts.ScratchSize),
		serial:   opts.Serial,
		diag:     opts.Diag,
		httpBuf:  make([]byte, opts.ChunkSize),
	}
	e.ring.SetLockWait(opts.LockWait)
	// Fixed consumers exist from boot so nothing logged before Start is lost.
	e.ring.AttachAt(cursorSerial, 0, true)
	e.ring.AttachAt(cursorHTTP, 0, false)
	if opts.SerialBaud > 0 {
		cps := float64(opts.SerialBaud) / 8
		e.pacer = rate.NewLimiter(rate.Limit(cps), opts.ScratchSize)
	}
	return e
}

func (e *Engine) Settings() *Settings { return e.settings }

func (e *Engine) Ring() *logring.Ring { return e.ring }

// Admit reports whether a line at level/feature passes the filter.
func (e *Engine) Admit(level Level, feature Feature) bool {
	bit := feature.Bit()
	if bit == 0 || e.settings.Features()&bit == 0 {
		return false
	}
	return level <= e.settings.Level()
}

// -----------------------------------------------------------------------------
// Emit
// -----------------------------------------------------------------------------

// Logf formats and delivers one line. format is always a printf format,
// with or without args. It never fails visibly: rejected
// lines are ignored, long ones truncated and lines that cannot get the
// producer lock in time are dropped.
func (e *Engine) Logf(level Level, feature Feature, format string, args ...any) {
	if !e.Admit(level, feature) {
		e.stats.filtered.Add(1)
		return
	}
	if !e.lockEmit() {
		e.stats.dropped.Add(1)
		return
	}
	line := formatLine(e.scratch, level, feature, format, args)
	n := len(line)

	if e.settings.Direct() {
		e.pace(n)
		e.writeSink(e.serial, line)
		e.writeRaw(line)
		e.emitMu.Unlock()
		e.stats.written.Add(1)
		return
	}

	e.writeRaw(line)
	ok := e.ring.Write(line)
	e.emitMu.Unlock()
	if ok {
		e.stats.written.Add(1)
	} else {
		e.stats.dropped.Add(1)
	}

	if d := e.delayFor(n); d > 0 {
		time.Sleep(d)
	}
}

func (e *Engine) Error(f Feature, format string, args ...any) {
	e.Logf(LevelError, f, format, args...)
}
func (e *Engine) Warn(f Feature, format string, args ...any) { e.Logf(LevelWarn, f, format, args...) }
func (e *Engine) Info(f Feature, format string, args ...any) { e.Logf(LevelInfo, f, format, args...) }
func (e *Engine) Debug(f Feature, format string, args ...any) {
	e.Logf(LevelDebug, f, format, args...)
}
func (e *Engine) ExtraDebug(f Feature, format string, args ...any) {
	e.Logf(LevelExtraDebug, f, format, args...)
}

func (e *Engine) lockEmit() bool {
	if e.emitMu.TryLock() {
		return true
	}
	if e.opts.LockWait <= 0 {
		return false
	}
	deadline := time.Now().Add(e.opts.LockWait)
	for time.Now().Before(deadline) {
		time.Sleep(50 * time.Microsecond)
		if e.emitMu.TryLock() {
			return true
		}
	}
	return false
}

// delayFor is the producer-side back-pressure after a buffered write.
func (e *Engine) delayFor(n int) time.Duration {
	ms := e.settings.Delay()
	switch {
	case ms == 0:
		return 0
	case ms < 0:
		return timex.ForBytes(n, delayBaud) + delaySlackMS*time.Millisecond
	default:
		return time.Duration(ms) * time.Millisecond
	}
}

// pace holds a direct write back to the serial line rate.
func (e *Engine) pace(n int) {
	if e.pacer == nil {
		return
	}
	_ = e.pacer.WaitN(context.Background(), mathx.Min(n, e.pacer.Burst()))
}

// -----------------------------------------------------------------------------
// Sinks
// -----------------------------------------------------------------------------

// writeSink never lets a sink failure or panic reach the producer.
func (e *Engine) writeSink(w io.Writer, p []byte) (n int, err error) {
	if w == nil {
		return 0, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic writing log sink: %v", r)
		}
		if err != nil {
			e.stats.sinkFailures.Add(1)
		}
	}()
	return w.Write(p)
}

func (e *Engine) writeRaw(line []byte) {
	w := e.settings.RawSink()
	if w == nil {
		return
	}
	if c, ok := w.(net.Conn); ok {
		_ = c.SetWriteDeadline(time.Now().Add(rawSinkTimeout))
	}
	_, _ = e.writeSink(w, line)
}

// SetRawSink installs the ad hoc live-tail writer (nil clears it).
func (e *Engine) SetRawSink(w io.Writer) { e.settings.SetRawSink(w) }

func (e *Engine) diagf(format string, args ...any) {
	e.diagMu.Lock()
	defer e.diagMu.Unlock()
	fmt.Fprintf(e.diag, "logging: "+format+"\n", args...)
}
