package logging

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHTTP_RawSnapshotDrainsOnce(t *testing.T) {
	e := newTestEngine(t, nil)
	srv := httptest.NewServer(e.Handler())
	defer srv.Close()

	e.Info(FeatureHTTP, "one")
	e.Error(FeatureMQTT, "two")

	resp, body := get(t, srv.URL+PathLogsRaw)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "Info:HTTP:one\r\nError:MQTT:two\r\n", body)

	_, body = get(t, srv.URL+PathLogsRaw)
	assert.Empty(t, body)

	e.Info(FeatureHTTP, "three")
	_, body = get(t, srv.URL+PathLogsRaw)
	assert.Equal(t, "Info:HTTP:three\r\n", body)
}

func TestHTTP_HTMLSnapshotIsEscaped(t *testing.T) {
	e := newTestEngine(t, nil)
	srv := httptest.NewServer(e.Handler())
	defer srv.Close()

	e.Info(FeatureAPI, "<b>bold</b> & more")

	resp, body := get(t, srv.URL+PathLogs)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "Return to menu")
	assert.Contains(t, body, "<pre>Info:API:&lt;b&gt;bold&lt;/b&gt; &amp; more\r\n</pre>")
}

func TestHTTP_OnlyGET(t *testing.T) {
	e := newTestEngine(t, nil)
	srv := httptest.NewServer(e.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+PathLogsRaw, "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHTTP_RegisterOnExistingMux(t *testing.T) {
	e := newTestEngine(t, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "menu")
	})
	e.RegisterHTTP(mux)

	e.Info(FeatureMain, "mounted")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathLogsRaw, nil))
	assert.Equal(t, "Info:MAIN:mounted\r\n", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "menu", rec.Body.String())
}

func TestHTTP_StandaloneServerStopsWithContext(t *testing.T) {
	e := newTestEngine(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.serveHTTP(ctx, ln) }()

	e.Info(FeatureMain, "served")
	_, body := get(t, "http://"+ln.Addr().String()+PathLogsRaw)
	assert.Equal(t, "Info:MAIN:served\r\n", body)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("http server did not stop")
	}
}
