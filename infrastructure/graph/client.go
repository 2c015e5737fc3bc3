package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nhbrcforms/domain/apperrors"
	"nhbrcforms/domain/contracts"
	"nhbrcforms/infrastructure/metrics"
	"nhbrcforms/logging"
	"nhbrcforms/spauth"
)

// DefaultSimpleUploadMaxBytes is the largest file sent with a single PUT.
const DefaultSimpleUploadMaxBytes int64 = 4 << 20

// Client acquires Graph sessions with the client-credentials flow.
type Client struct {
	cfg            spauth.Config
	httpClient     *http.Client
	metrics        *metrics.Recorder
	logger         *logging.Logger
	simpleMaxBytes int64
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport used for token and Graph calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records Graph traffic on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *Client) { c.metrics = rec }
}

// WithSimpleUploadMaxBytes sets the size above which uploads use an upload session.
func WithSimpleUploadMaxBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.simpleMaxBytes = n
		}
	}
}

// NewClient creates a Graph client. It performs no network calls.
func NewClient(cfg spauth.Config, opts ...Option) *Client {
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = spauth.DefaultGraphBaseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &Client{
		cfg:            cfg,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logging.Default().WithComponent("graph_client"),
		simpleMaxBytes: DefaultSimpleUploadMaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire exchanges the configured credentials for a token and binds it to a new session.
func (c *Client) Acquire(ctx context.Context) (contracts.GraphSession, error) {
	return c.AcquireSession(ctx)
}

// AcquireSession is Acquire returning the concrete session type.
func (c *Client) AcquireSession(ctx context.Context) (*Session, error) {
	start := time.Now()
	token, err := spauth.AcquireToken(ctx, c.cfg, c.httpClient)
	if err != nil {
		c.logger.WithContext(ctx).Security("Graph token acquisition failed", "error", err.Error())
		return nil, err
	}
	c.logger.WithContext(ctx).Debug("Graph token acquired", "duration_ms", time.Since(start).Milliseconds())

	return &Session{
		token:          token,
		baseURL:        strings.TrimRight(c.cfg.GraphBaseURL, "/"),
		httpClient:     c.httpClient,
		metrics:        c.metrics,
		logger:         c.logger,
		simpleMaxBytes: c.simpleMaxBytes,
	}, nil
}

// Session is an authenticated Graph handle. It holds nothing mutable beyond its token.
type Session struct {
	token          string
	baseURL        string
	httpClient     *http.Client
	metrics        *metrics.Recorder
	logger         *logging.Logger
	simpleMaxBytes int64
}

var _ contracts.GraphSession = (*Session)(nil)

// request describes one HTTP round trip.
type request struct {
	method        string
	url           string
	body          io.Reader
	contentType   string
	contentLength int64
	headers       map[string]string
	anonymous     bool // pre-authenticated URLs (upload sessions) must not carry the bearer token
}

// Call issues method against path (relative to the Graph base URL, or absolute)
// with body JSON-encoded when non-nil. Non-2xx responses become *apperrors.GraphError.
func (s *Session) Call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	req := request{method: method, url: s.resolve(path), contentLength: -1}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		req.body = bytes.NewReader(payload)
		req.contentType = "application/json"
		req.contentLength = int64(len(payload))
	}
	return s.send(ctx, req)
}

func (s *Session) resolve(path string) string {
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return path
	}
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (s *Session) send(ctx context.Context, r request) (json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, r.method, r.url, r.body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", r.method, err)
	}
	if r.contentLength >= 0 && r.body != nil {
		httpReq.ContentLength = r.contentLength
	}
	if !r.anonymous {
		httpReq.Header.Set("Authorization", "Bearer "+s.token)
	}
	httpReq.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		httpReq.Header.Set("Content-Type", r.contentType)
	}
	for k, v := range r.headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.GraphRequest(r.method, 0, elapsed)
		return nil, fmt.Errorf("graph %s %s: %w", r.method, httpReq.URL.Path, err)
	}
	defer resp.Body.Close()

	s.metrics.GraphRequest(r.method, resp.StatusCode, elapsed)
	s.logger.WithContext(ctx).Debug("Graph request",
		"method", r.method,
		"path", httpReq.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", elapsed.Milliseconds())

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read graph %s %s response: %w", r.method, httpReq.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperrors.GraphError{
			Method:     r.method,
			Path:       httpReq.URL.Path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
			Body:       string(data),
		}
	}
	return data, nil
}

// decode unmarshals a Graph response into out.
func decode(data json.RawMessage, out any, what string) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	return nil
}
