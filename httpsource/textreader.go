package httpsource

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pipecraft/pipecraft/compressio"
	"github.com/pipecraft/pipecraft/pipe"
)

// Config controls TextReader's HTTP client. Redirects are always
// followed (net/http's default CheckRedirect policy), per §4.7.
type Config struct {
	// ConnectTimeout bounds TCP connection establishment. Zero uses
	// DefaultConnectTimeout.
	ConnectTimeout time.Duration
	// ResponseHeaderTimeout bounds the wait for response headers once
	// the request is sent. Zero uses DefaultResponseHeaderTimeout.
	ResponseHeaderTimeout time.Duration
	// Client overrides the constructed *http.Client entirely, for
	// callers that need e.g. a custom RoundTripper or proxy.
	Client *http.Client
}

// DefaultConnectTimeout and DefaultResponseHeaderTimeout are used when
// the corresponding Config field is zero.
const (
	DefaultConnectTimeout         = 10 * time.Second
	DefaultResponseHeaderTimeout = 30 * time.Second
)

func (c Config) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	connectTimeout := c.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	headerTimeout := c.ResponseHeaderTimeout
	if headerTimeout <= 0 {
		headerTimeout = DefaultResponseHeaderTimeout
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: connectTimeout,
			}).DialContext,
			ResponseHeaderTimeout: headerTimeout,
		},
	}
}

// TextReader is a pipe.Pipe[string] over the lines of a text document
// fetched from url, grounded on sort.codecSourcePipe's prime-then-peek
// shape (decode one line ahead of what the caller asked for, cache it,
// serve Peek from the cache, clear it on Next).
type TextReader struct {
	lc lifecycle

	url string
	cfg Config

	resp     *http.Response
	counting *compressio.CountingReader
	scanner  *bufio.Scanner
	length   int64 // -1 if unknown

	pending    string
	pendingErr error
	primed     bool

	closeOnce closeOnce
}

// NewTextReader builds a TextReader over url. The request is not sent
// until Start.
func NewTextReader(url string, cfg Config) *TextReader {
	return &TextReader{url: url, cfg: cfg}
}

func (t *TextReader) Start(ctx context.Context) error {
	if !t.lc.transition(pipe.Created, pipe.Started) {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		t.lc.set(pipe.Failed)
		return err
	}
	resp, err := t.cfg.client().Do(req)
	if err != nil {
		t.lc.set(pipe.Failed)
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		t.lc.set(pipe.Failed)
		return fmt.Errorf("httpsource: %s: unexpected status %s", t.url, resp.Status)
	}

	t.resp = resp
	t.length = resp.ContentLength
	t.counting = compressio.NewCountingReader(resp.Body)
	t.scanner = bufio.NewScanner(t.counting)
	t.scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return nil
}

func (t *TextReader) prime() {
	if t.primed {
		return
	}
	t.primed = true
	if t.scanner.Scan() {
		t.pending = t.scanner.Text()
		t.pendingErr = nil
		return
	}
	t.pendingErr = t.scanner.Err()
	if t.pendingErr == nil {
		t.pendingErr = pipe.EOF
	}
}

func (t *TextReader) Peek(ctx context.Context) (string, error) {
	t.prime()
	if t.pendingErr == pipe.EOF {
		t.lc.set(pipe.Exhausted)
		return "", pipe.EOF
	}
	if t.pendingErr != nil {
		t.lc.set(pipe.Failed)
		return "", t.pendingErr
	}
	return t.pending, nil
}

func (t *TextReader) Next(ctx context.Context) (string, error) {
	item, err := t.Peek(ctx)
	if err == nil {
		t.primed = false
	}
	return item, err
}

// Progress reports bytes read over Content-Length, or 0 if the server
// didn't report a length (§4.7's size-bearing stream feeding
// pipe.Progress from Content-Length).
func (t *TextReader) Progress() float64 {
	if t.counting == nil || t.length <= 0 {
		return 0
	}
	p := float64(t.counting.Count()) / float64(t.length)
	if p > 1 {
		p = 1
	}
	return p
}

func (t *TextReader) Close() error {
	return t.closeOnce.do(func() error {
		t.lc.set(pipe.Closed)
		if t.resp != nil {
			return t.resp.Body.Close()
		}
		return nil
	})
}
