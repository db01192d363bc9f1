package feed

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

const acceptEncoding = "gzip, deflate, br, zstd"

// NewHTTPClient returns the client shared by every fetch task. It advertises
// gzip, deflate, brotli and zstd and hands callers decoded bodies.
// Timeouts are applied per request through the context.
func NewHTTPClient() *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.DisableCompression = true
	base.MaxIdleConnsPerHost = 8
	base.IdleConnTimeout = 90 * time.Second

	return &http.Client{Transport: &decompressingTransport{next: base}}
}

type decompressingTransport struct {
	next http.RoundTripper
}

func (t *decompressingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	if encoding == "" || encoding == "identity" {
		return resp, nil
	}

	body, err := decodeBody(encoding, resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	resp.Body = body
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

func decodeBody(encoding string, raw io.ReadCloser) (io.ReadCloser, error) {
	switch encoding {
	case "gzip", "x-gzip":
		r, err := gzip.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		return &decodedBody{Reader: r, closers: []io.Closer{r, raw}}, nil
	case "deflate":
		r, err := zlib.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("deflate body: %w", err)
		}
		return &decodedBody{Reader: r, closers: []io.Closer{r, raw}}, nil
	case "br":
		return &decodedBody{Reader: brotli.NewReader(raw), closers: []io.Closer{raw}}, nil
	case "zstd":
		d, err := zstd.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("zstd body: %w", err)
		}
		return &decodedBody{Reader: d, closers: []io.Closer{d.IOReadCloser(), raw}}, nil
	}
	return nil, fmt.Errorf("unsupported content encoding %q", encoding)
}

type decodedBody struct {
	io.Reader
	closers []io.Closer
}

func (b *decodedBody) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
