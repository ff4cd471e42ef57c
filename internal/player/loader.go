package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/llehouerou/tapedeck/internal/playback"
)

const userAgent = "tapedeck/1.0 (https://github.com/llehouerou/tapedeck)"

// ErrUnsupportedFormat is returned for extensions no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Loader fetches the bytes of a location. progress receives the loaded
// fraction in [0,1] as the fetch advances.
type Loader interface {
	Open(ctx context.Context, location string, progress func(float64)) (io.ReadSeekCloser, error)
}

// HTTPLoader opens local files directly and downloads http(s) locations
// into memory.
type HTTPLoader struct {
	client *http.Client
}

// NewHTTPLoader creates a loader using client, or a default client when nil.
func NewHTTPLoader(client *http.Client) *HTTPLoader {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &HTTPLoader{client: client}
}

func (l *HTTPLoader) Open(ctx context.Context, location string, progress func(float64)) (io.ReadSeekCloser, error) {
	if !playback.IsRemote(location) {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		progress(1)
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}
	body := &progressReader{r: resp.Body, total: resp.ContentLength, report: progress}
	if _, err := io.Copy(&buf, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	progress(1)
	return nopSeekCloser{bytes.NewReader(buf.Bytes())}, nil
}

// progressReader reports the fraction read whenever it grows by a percent.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   float64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		f := min(float64(p.read)/float64(p.total), 1)
		if f-p.last >= 0.01 {
			p.last = f
			p.report(f)
		}
	}
	return n, err
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }
