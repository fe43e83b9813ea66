package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer deixa o teste ler o log enquanto o servidor ainda escreve.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startRun(t *testing.T) (addr string, logs *syncBuffer, cancel context.CancelFunc, done <-chan error) {
	t.Helper()
	clearEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logs = &syncBuffer{}
	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, []string{"--listen", "127.0.0.1:0"}, logs, func(a string) { addrCh <- a })
	}()

	select {
	case addr = <-addrCh:
	case err := <-errCh:
		t.Fatalf("run returned before listening: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for listener")
	}
	return addr, logs, cancel, errCh
}

func TestRun_ServesUntilContextCancelled(t *testing.T) {
	addr, logs, cancel, done := startRun(t)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}

	assert.Contains(t, logs.String(), "days-api stopped")
	_, err = net.DialTimeout("tcp", addr, 200*time.Millisecond)
	assert.Error(t, err, "listener should be closed")
}

func TestRun_DrainsInFlightRequestBeforeReturning(t *testing.T) {
	addr, _, cancel, done := startRun(t)

	// o corpo chega em duas partes; o handler fica preso no decode
	pr, pw := io.Pipe()
	req, err := http.NewRequest(http.MethodPost, "http://"+addr+"/between", pr)
	require.NoError(t, err)

	type result struct {
		status int
		days   int
		err    error
	}
	respCh := make(chan result, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			respCh <- result{err: err}
			return
		}
		defer resp.Body.Close()
		var body struct {
			Days int `json:"days"`
		}
		err = json.NewDecoder(resp.Body).Decode(&body)
		respCh <- result{status: resp.StatusCode, days: body.Days, err: err}
	}()

	_, err = pw.Write([]byte(`{"first": "01.01.2024", `))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		t.Fatalf("run returned with a request in flight: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	_, err = pw.Write([]byte(`"last": "10.01.2024"}`))
	require.NoError(t, err)
	require.NoError(t, pw.Close())

	select {
	case r := <-respCh:
		require.NoError(t, r.err)
		assert.Equal(t, http.StatusOK, r.status)
		assert.Equal(t, 9, r.days)
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting in-flight response")
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after draining")
	}
}

func TestRun_ListenErrorIsReturned(t *testing.T) {
	clearEnv(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = run(context.Background(), []string{"--listen", ln.Addr().String()}, io.Discard, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}
