// services/logging/tcp.go
package logging

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"relaycode-go/x/logring"
)

// ServeTCP accepts live-feed clients on ln until ctx ends or ln is closed.
// Every client gets its own ring cursor, attached at the current head, so
// it sees lines produced after it connected and never competes with other
// clients for bytes. When all cursor slots are taken the connection is
// closed straight away.
func (e *Engine) ServeTCP(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			// Transient (EMFILE, aborted handshakes): keep accepting.
			backoff = nextAcceptBackoff(backoff)
			e.diagf("tcp accept: %v; retrying in %v", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return nil
			}
			continue
		}
		backoff = 0
		cur, ok := e.ring.Attach(false)
		if !ok {
			e.stats.tcpRejected.Add(1)
			_ = conn.Close()
			continue
		}
		e.stats.tcpClients.Add(1)
		go e.serveClient(ctx, conn, cur)
	}
}

// serveClient forwards ring bytes to one socket. Any short or failed write
// ends the client; there is no retry.
func (e *Engine) serveClient(ctx context.Context, conn net.Conn, cur logring.Cursor) {
	defer func() {
		e.ring.Detach(cur)
		e.stats.tcpClients.Add(-1)
		_ = conn.Close()
	}()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	// Clients only listen; a finished read side means the peer hung up,
	// which frees the slot without waiting for the next failed write.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		_, _ = io.Copy(io.Discard, conn)
	}()

	buf := make([]byte, e.opts.ChunkSize)
	tick := time.NewTicker(e.opts.PollEvery)
	defer tick.Stop()

	for {
		for {
			n, _ := e.ring.Read(cur, buf)
			if n == 0 {
				break
			}
			w, err := conn.Write(buf[:n])
			if err != nil || w != n {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-gone:
			return
		case <-e.ring.Readable(cur):
		case <-tick.C:
		}
	}
}

func (e *Engine) TCPClients() int { return int(e.stats.tcpClients.Load()) }

const (
	acceptBackoffMin = 5 * time.Millisecond
	acceptBackoffMax = time.Second
)

func nextAcceptBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return acceptBackoffMin
	}
	return min(2*d, acceptBackoffMax)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
