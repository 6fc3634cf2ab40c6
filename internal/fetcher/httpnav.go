package fetcher

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"

	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/fingerprint"
	"github.com/chrisarusso/ai-website-quality-analyzer-sub000/internal/htmldoc"
)

// DefaultMaxBodySize caps how much of a response the HTTP engine reads.
const DefaultMaxBodySize = 10 * 1024 * 1024

// HTTPNavigator fetches pages without a browser. Scripts do not run, so it
// sees only server-rendered markup. It is used when Chrome is unavailable.
type HTTPNavigator struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
	maxBody   int64
	logger    *slog.Logger
}

// HTTPOption configures an HTTPNavigator.
type HTTPOption func(*HTTPNavigator)

// WithHTTPClient sets the HTTP client. Redirects follow the client policy.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(n *HTTPNavigator) {
		if client != nil {
			n.client = client
		}
	}
}

// WithHTTPUserAgent overrides the user agent.
func WithHTTPUserAgent(ua string) HTTPOption {
	return func(n *HTTPNavigator) {
		if ua != "" {
			n.userAgent = ua
		}
	}
}

// WithHTTPHeaders adds headers sent with every request.
func WithHTTPHeaders(headers map[string]string) HTTPOption {
	return func(n *HTTPNavigator) {
		for k, v := range headers {
			n.headers[k] = v
		}
	}
}

// WithMaxBodySize limits the bytes read per response.
func WithMaxBodySize(size int64) HTTPOption {
	return func(n *HTTPNavigator) {
		if size > 0 {
			n.maxBody = size
		}
	}
}

// WithHTTPLogger sets the logger.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(n *HTTPNavigator) {
		n.logger = logger
	}
}

// NewHTTPNavigator creates an HTTP engine.
func NewHTTPNavigator(opts ...HTTPOption) *HTTPNavigator {
	n := &HTTPNavigator{
		client:    &http.Client{},
		userAgent: fingerprint.UserAgent,
		headers:   fingerprint.NavigationHeaders(),
		maxBody:   DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	return n
}

// Navigate performs a GET of req.URL.
func (n *HTTPNavigator) Navigate(ctx context.Context, req Request) (*Snapshot, error) {
	reqCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNavigation, err)
	}
	for k, v := range n.headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNavigation, req.Strategy, req.URL, err)
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrNavigation, req.URL, err)
	}
	raw, err := io.ReadAll(io.LimitReader(body, n.maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrNavigation, req.URL, err)
	}

	if req.Strategy == WaitCommit {
		if err := SleepContext(ctx, req.Settle); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNavigation, err)
		}
	}

	snap := &Snapshot{
		Status:   resp.StatusCode,
		FinalURL: resp.Request.URL.String(),
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		n.logger.Debug("non-html response", "url", req.URL, "content_type", contentType)
		return snap, nil
	}

	decoded, err := htmldoc.DecodeReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: charset %s: %v", ErrNavigation, req.URL, err)
	}
	markup, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: charset %s: %v", ErrNavigation, req.URL, err)
	}
	snap.HTML = string(markup)

	if doc, err := htmldoc.Parse(snap.HTML); err == nil {
		snap.Text = doc.VisibleText()
	}
	return snap, nil
}

// Close is a no-op apart from releasing idle connections.
func (n *HTTPNavigator) Close() error {
	n.client.CloseIdleConnections()
	return nil
}

// decodeBody undoes the Content-Encoding. Setting Accept-Encoding by hand
// turns off the transport's transparent gzip handling.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return resp.Body, nil
	case "gzip", "x-gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "deflate":
		return zlib.NewReader(resp.Body)
	default:
		return resp.Body, nil
	}
}

// isHTML reports whether a Content-Type denotes markup. A missing type is
// treated as HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
