// services/logging/http.go
package logging

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	PathLogs    = "/logs"
	PathLogsRaw = "/lograw"
)

const (
	htmlHead = "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>Log</title></head><body>" +
		"<a href=\"/\">Return to menu</a><pre>"
	htmlFoot = "</pre></body></html>"
)

// RegisterHTTP mounts the snapshot endpoints on mux.
func (e *Engine) RegisterHTTP(mux *http.ServeMux) {
	mux.HandleFunc("GET "+PathLogs, e.handleLogs)
	mux.HandleFunc("GET "+PathLogsRaw, e.handleLogsRaw)
}

// Handler returns a mux serving only the snapshot endpoints.
func (e *Engine) Handler() http.Handler {
	mux := http.NewServeMux()
	e.RegisterHTTP(mux)
	return mux
}

func (e *Engine) handleLogsRaw(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = e.Snapshot(w, false)
}

func (e *Engine) handleLogs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := io.WriteString(w, htmlHead); err != nil {
		return
	}
	if _, err := e.Snapshot(w, true); err != nil {
		return
	}
	_, _ = io.WriteString(w, htmlFoot)
}

// Snapshot drains everything the HTTP cursor has not seen yet into w, one
// chunk at a time, until a read comes back empty. With escape set the bytes
// are HTML-escaped. Concurrent snapshots are serialised so each request
// gets a contiguous range.
func (e *Engine) Snapshot(w io.Writer, escape bool) (int, error) {
	e.httpMu.Lock()
	defer e.httpMu.Unlock()

	total := 0
	for {
		n, _ := e.ring.Read(cursorHTTP, e.httpBuf)
		if n == 0 {
			return total, nil
		}
		total += n
		if escape {
			template.HTMLEscape(w, e.httpBuf[:n])
			continue
		}
		if _, err := w.Write(e.httpBuf[:n]); err != nil {
			return total, err
		}
	}
}

// serveHTTP runs a standalone snapshot server on ln until ctx ends.
func (e *Engine) serveHTTP(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           e.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	})
	defer stop()
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
