package prices

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/guarzo/pcmatch/internal/metrics"
	"github.com/guarzo/pcmatch/internal/ratelimit"
)

const (
	DefaultBaseURL = "https://www.pricecharting.com"
	DefaultTimeout = 10 * time.Second

	// TokenLength is the length of a PriceCharting API token.
	TokenLength = 40

	productEndpoint = "/api/product"

	errorBodyLimit    = 4096
	errorSnippetLimit = 512
)

// DefaultSearchEndpoints are tried in order until one answers. The catalog
// documents /api/products; the others cover older deployments.
var DefaultSearchEndpoints = []string{"/api/products", "/api/search", "/api/product"}

// Client talks to the PriceCharting JSON API.
type Client struct {
	baseURL   string
	token     string
	client    *http.Client
	throttle  ratelimit.Throttle
	timeout   time.Duration
	endpoints []string
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

func WithThrottle(t ratelimit.Throttle) ClientOption {
	return func(c *Client) {
		if t != nil {
			c.throttle = t
		}
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSearchEndpoints replaces the search fallback list.
func WithSearchEndpoints(endpoints []string) ClientOption {
	return func(c *Client) {
		if len(endpoints) > 0 {
			c.endpoints = append([]string(nil), endpoints...)
		}
	}
}

func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		token:     strings.TrimSpace(token),
		client:    &http.Client{},
		throttle:  ratelimit.NewMinDelay(ratelimit.DefaultDelay),
		timeout:   DefaultTimeout,
		endpoints: append([]string(nil), DefaultSearchEndpoints...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether the token is usable.
func (c *Client) Available() bool {
	return c.validateToken() == nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) validateToken() error {
	if c.token == "" {
		return &ConfigurationError{Reason: "PriceCharting API token is not set"}
	}
	if len(c.token) != TokenLength {
		return &ConfigurationError{Reason: fmt.Sprintf("PriceCharting API token must be %d characters, got %d", TokenLength, len(c.token))}
	}
	return nil
}

// Request performs a throttled GET against endpoint and returns the decoded
// JSON object. Empty parameter values are not sent.
func (c *Client) Request(ctx context.Context, endpoint string, params map[string]string) (map[string]any, error) {
	if err := c.validateToken(); err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues(endpoint, "config_error").Inc()
		return nil, err
	}

	if err := c.throttle.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle: %w", err)
	}

	q := url.Values{}
	q.Set("t", c.token)
	for k, v := range params {
		if v == "" {
			continue
		}
		q.Set(k, v)
	}
	u := c.baseURL + endpoint + "?" + q.Encode()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	body, err := c.getJSON(reqCtx, endpoint, u)
	metrics.CatalogRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues(endpoint, outcomeOf(err)).Inc()
		return nil, err
	}

	if strings.EqualFold(stringValue(body["status"]), "error") {
		msg := stringValue(body["error-message"])
		if msg == "" {
			msg = stringValue(body["error"])
		}
		if msg == "" {
			msg = "unknown error"
		}
		metrics.CatalogRequestsTotal.WithLabelValues(endpoint, "api_error").Inc()
		return nil, &APIError{Endpoint: endpoint, Message: msg}
	}

	metrics.CatalogRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, u string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, &TimeoutError{Endpoint: endpoint, Err: err}
		}
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	encoding := resp.Header.Get("Content-Encoding")
	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &NetworkError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: errorSnippet(encoding, raw)}
	}

	reader, err := decodedBody(encoding, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	defer reader.Close()

	var body map[string]any
	if err := json.NewDecoder(reader).Decode(&body); err != nil {
		if isTimeout(ctx, err) {
			return nil, &TimeoutError{Endpoint: endpoint, Err: err}
		}
		return nil, fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return body, nil
}

// decodedBody unwraps a gzip or brotli body. Closing the result does not
// close r.
func decodedBody(encoding string, r io.Reader) (io.ReadCloser, error) {
	switch encoding {
	case "gzip":
		return gzip.NewReader(r)
	case "br":
		return io.NopCloser(brotli.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}

// errorSnippet returns the start of an error body, decoded when possible
// and raw otherwise.
func errorSnippet(encoding string, raw []byte) string {
	if r, err := decodedBody(encoding, bytes.NewReader(raw)); err == nil {
		b, err := io.ReadAll(io.LimitReader(r, errorSnippetLimit))
		r.Close()
		if err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	if len(raw) > errorSnippetLimit {
		raw = raw[:errorSnippetLimit]
	}
	return strings.TrimSpace(string(raw))
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

func outcomeOf(err error) string {
	var te *TimeoutError
	var ne *NetworkError
	switch {
	case errors.As(err, &te):
		return "timeout"
	case errors.As(err, &ne) && ne.StatusCode != 0:
		return "http_error"
	case errors.As(err, &ne):
		return "transport_error"
	default:
		return "decode_error"
	}
}

// SearchProducts queries the catalog, trying each search endpoint in order
// until one succeeds. The last error is returned if all of them fail.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]Candidate, error) {
	if err := c.validateToken(); err != nil {
		return nil, err
	}

	params := map[string]string{"q": query}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var lastErr error
	for i, endpoint := range c.endpoints {
		body, err := c.Request(ctx, endpoint, params)
		if err == nil {
			if candidates, ok := candidatesFrom(body); ok {
				return candidates, nil
			}
			err = &APIError{Endpoint: endpoint, Message: "response contains no products"}
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if i < len(c.endpoints)-1 {
			log.Printf("pricecharting: search via %s failed, trying next endpoint: %v", endpoint, err)
		}
	}
	if lastErr == nil {
		lastErr = &ConfigurationError{Reason: "no search endpoints configured"}
	}
	return nil, lastErr
}

// Product fetches a single product by catalog id.
func (c *Client) Product(ctx context.Context, id string) (*Candidate, error) {
	body, err := c.Request(ctx, productEndpoint, map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	candidates, ok := candidatesFrom(body)
	if !ok || len(candidates) == 0 {
		return nil, &APIError{Endpoint: productEndpoint, Message: "product " + id + " not found"}
	}
	return &candidates[0], nil
}
