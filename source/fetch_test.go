package source

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// ============================================================================
// DIR FETCHER
// ============================================================================

func TestDirFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vahan.csv"), []byte(vahanCSV), 0o644))

	compressed, err := Compress([]byte(aqiCSV))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aqi.csv.zst"), compressed, 0o644))

	f, err := NewDirFetcher(dir)
	require.NoError(t, err)
	defer f.Close()
	ctx := context.Background()

	t.Run("plain file", func(t *testing.T) {
		data, err := f.Fetch(ctx, "vahan.csv")
		require.NoError(t, err)
		assert.Equal(t, vahanCSV, string(data))
	})

	t.Run("compressed sibling", func(t *testing.T) {
		data, err := f.Fetch(ctx, "aqi.csv")
		require.NoError(t, err)
		assert.Equal(t, aqiCSV, string(data))
	})

	t.Run("compressed by name", func(t *testing.T) {
		data, err := f.Fetch(ctx, "aqi.csv.zst")
		require.NoError(t, err)
		assert.Equal(t, aqiCSV, string(data))
	})

	t.Run("missing", func(t *testing.T) {
		_, err := f.Fetch(ctx, "idsp.csv")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("paths stay inside dir", func(t *testing.T) {
		_, err := f.Fetch(ctx, "../vahan.csv")
		require.NoError(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := f.Fetch(cctx, "vahan.csv")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// ============================================================================
// HTTP FETCHER
// ============================================================================

func newTestHTTPFetcher(url string) *HTTPFetcher {
	f := NewHTTPFetcher(url+"/", quietLogger())
	f.BaseDelay = time.Millisecond
	return f
}

func TestHTTPFetcherRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/vahan.csv", r.URL.Path)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(vahanCSV))
	}))
	defer srv.Close()

	data, err := newTestHTTPFetcher(srv.URL+"/data").Fetch(context.Background(), "vahan.csv")
	require.NoError(t, err)
	assert.Equal(t, vahanCSV, string(data))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPFetcherRejectsShortBodies(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("  a,b \n "))
	}))
	defer srv.Close()

	_, err := newTestHTTPFetcher(srv.URL).Fetch(context.Background(), "aqi.csv")
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Equal(t, int32(DefaultAttempts), calls.Load())
}

func TestHTTPFetcherStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestHTTPFetcher(srv.URL)
	f.BaseDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Fetch(ctx, "idsp.csv")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}
