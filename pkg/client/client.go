// Package client provides the JSON HTTP transport used to talk to the
// marketplace API, with error normalization and request metrics.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for transport operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_requests_total",
		Help: "Total marketplace API requests by route and status",
	}, []string{"route", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketplace_request_duration_seconds",
		Help:    "Marketplace API request duration in seconds by route",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"route"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_errors_total",
		Help: "Total marketplace API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of transport errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// DefaultBaseURL is the CarOnSale development API.
const DefaultBaseURL = "https://api-core-dev.caronsale.de/api"

// Client is a JSON transport bound to one base URL.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL every request path is resolved against (REQUIRED)
	BaseURL string

	// User-Agent header sent with every request
	UserAgent string

	// Timeout for a single HTTP round trip
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "auction-monitor/0.1.0",
		Timeout:   30 * time.Second,
	}
}

// New creates a new transport client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", base.Scheme)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}

	logger := log.With().Str("component", "transport").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, headers http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path, query), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	return c.Do(req, out)
}

// Put performs a PUT request with a JSON body and decodes the JSON response into out.
func (c *Client) Put(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.resolve(path, nil), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.Do(req, out)
}

// Do executes req, normalizes error statuses into *TransportError and
// decodes a successful JSON body into out (skipped when out is nil).
func (c *Client) Do(req *http.Request, out any) error {
	route := routeLabel(req.URL.Path)

	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(route).Observe(time.Since(startTime).Seconds())
	}()

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("route", route).
		Str("method", req.Method).
		Msg("Executing marketplace request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		apiRequestsTotal.WithLabelValues(route, "network_error").Inc()
		c.logger.Error().Err(err).Str("route", route).Msg("HTTP request failed")
		return fmt.Errorf("%s %s: %w", req.Method, route, err)
	}
	defer resp.Body.Close()

	apiRequestsTotal.WithLabelValues(route, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		errClass := classifyStatus(resp.StatusCode)
		apiErrorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Str("route", route).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Marketplace request error")

		return &TransportError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Body:       parseErrorBody(data, resp.Status),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// resolve joins an already-escaped path onto the base URL, keeping the
// base path prefix and any trailing slash.
func (c *Client) resolve(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	u.RawQuery = query.Encode()
	return u.String()
}

// classifyStatus categorizes an error status for observability.
func classifyStatus(status int) ErrorClass {
	if status >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}

// routeLabel collapses per-user path segments so metric labels stay bounded
// and never carry an email address.
func routeLabel(path string) string {
	const authPrefix = "/v1/authentication/"
	if i := strings.Index(path, authPrefix); i >= 0 {
		return path[:i] + authPrefix + "{email}"
	}
	return path
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}
