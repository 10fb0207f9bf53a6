// services/logging/start.go
package logging

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
)

// Start launches the consumers once: serial drain, TCP feed and, when
// configured, the standalone HTTP server. Later calls are no-ops and return
// the first call's result. A consumer that cannot start is reported on the
// diagnostic writer and left out; the engine keeps running without it.
func (e *Engine) Start(ctx context.Context) error {
	e.startOnce.Do(func() {
		e.startErr = e.start(ctx)
		e.started.Store(true)
	})
	return e.startErr
}

func (e *Engine) Started() bool { return e.started.Load() }

func (e *Engine) start(ctx context.Context) error {
	var errs []error

	go e.serialLoop(ctx)

	if addr := e.opts.TCPAddr; addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			e.diagf("tcp feed on %s not started: %v", addr, err)
			errs = append(errs, err)
		} else {
			go func() {
				if err := e.ServeTCP(ctx, ln); err != nil {
					e.diagf("tcp feed stopped: %v", err)
				}
			}()
		}
	}

	if addr := e.opts.HTTPAddr; addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			e.diagf("http snapshot on %s not started: %v", addr, err)
			errs = append(errs, err)
		} else {
			go func() {
				if err := e.serveHTTP(ctx, ln); err != nil {
					e.diagf("http snapshot stopped: %v", err)
				}
			}()
		}
	}
	return errors.Join(errs...)
}

// -----------------------------------------------------------------------------
// Process-wide engine
// -----------------------------------------------------------------------------

var (
	defMu  sync.Mutex
	defEng atomic.Pointer[Engine]
)

// Init sets the options of the process-wide engine and starts it. Only the
// first of Init and Default has any effect; the engine lives until reset.
func Init(opts Options) *Engine {
	defMu.Lock()
	defer defMu.Unlock()
	if e := defEng.Load(); e != nil {
		return e
	}
	e := New(opts)
	_ = e.Start(context.Background())
	defEng.Store(e)
	return e
}

// Default returns the process-wide engine, creating and starting it with
// default options on first use.
func Default() *Engine {
	if e := defEng.Load(); e != nil {
		return e
	}
	return Init(DefaultOptions())
}

func Logf(level Level, feature Feature, format string, args ...any) {
	Default().Logf(level, feature, format, args...)
}

func Error(f Feature, format string, args ...any) { Default().Logf(LevelError, f, format, args...) }
func Warn(f Feature, format string, args ...any)  { Default().Logf(LevelWarn, f, format, args...) }
func Info(f Feature, format string, args ...any)  { Default().Logf(LevelInfo, f, format, args...) }
func Debug(f Feature, format string, args ...any) { Default().Logf(LevelDebug, f, format, args...) }
func ExtraDebug(f Feature, format string, args ...any) {
	Default().Logf(LevelExtraDebug, f, format, args...)
}
