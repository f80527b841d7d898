package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ============================================================================
// FETCHERS — Where raw CSV bytes come from
// ============================================================================

// zstdSuffix marks a compressed dataset file ("vahan.csv.zst").
const zstdSuffix = ".zst"

// DirFetcher reads dataset files from a local directory. When name is absent
// but name+".zst" exists, the compressed file is decoded transparently.
type DirFetcher struct {
	Dir     string
	decoder *zstd.Decoder
}

// NewDirFetcher creates a fetcher rooted at dir.
func NewDirFetcher(dir string) (*DirFetcher, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &DirFetcher{Dir: dir, decoder: dec}, nil
}

// Fetch returns the content of Dir/name, decompressing Dir/name.zst if needed.
func (f *DirFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(f.Dir, filepath.Base(name))
	data, err := os.ReadFile(path)
	if err == nil {
		if strings.HasSuffix(path, zstdSuffix) {
			return f.decode(path, data)
		}
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	compressed, zerr := os.ReadFile(path + zstdSuffix)
	if zerr != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return f.decode(path+zstdSuffix, compressed)
}

func (f *DirFetcher) decode(path string, data []byte) ([]byte, error) {
	out, err := f.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	return out, nil
}

// Close releases the decoder.
func (f *DirFetcher) Close() {
	f.decoder.Close()
}

// Compress zstd-encodes data in the format DirFetcher reads.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// ============================================================================
// HTTP
// ============================================================================

// Retry defaults for HTTPFetcher.
const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
	minContentLength = 10
)

// HTTPFetcher GETs BaseURL/name. A failed attempt n (1-based) waits
// BaseDelay·2^n before the next one, so the defaults wait 2s then 4s.
type HTTPFetcher struct {
	BaseURL   string
	Client    *http.Client
	Attempts  int
	BaseDelay time.Duration
	Logger    *slog.Logger
}

// NewHTTPFetcher creates a fetcher with the default retry policy.
func NewHTTPFetcher(baseURL string, logger *slog.Logger) *HTTPFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Client:    &http.Client{Timeout: 30 * time.Second},
		Attempts:  DefaultAttempts,
		BaseDelay: DefaultBaseDelay,
		Logger:    logger,
	}
}

// Fetch downloads name, retrying transport errors, non-2xx responses and
// bodies too short to hold a CSV header.
func (f *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	url := f.BaseURL + "/" + name
	attempts := max(f.Attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := f.get(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}

		f.Logger.Warn("dataset fetch failed",
			"url", url,
			"attempt", attempt,
			"attempts", attempts,
			"error", err,
		)
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(f.BaseDelay << attempt)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("fetch %s: %w", url, ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", url, attempts, lastErr)
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) < minContentLength {
		return nil, ErrEmptyContent
	}
	return body, nil
}
