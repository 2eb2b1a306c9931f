package sola

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-kratos/kit/retry"
	"github.com/rs/zerolog"
)

// Service identifies one of the backends reachable through the Client.
type Service string

const (
	ServiceData        Service = "data"
	ServiceWallet      Service = "wallet"
	ServiceGoatIndex   Service = "goatIndex"
	ServiceNextJS      Service = "nextjs"
	ServiceDexScreener Service = "dexScreener"
)

const (
	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 10 * time.Second
	// DefaultAttempts is the number of attempts per request, including the first one.
	DefaultAttempts = 4

	maxResponseSize = 8 << 20
)

// Config holds the base URLs of the Sola services.
// A service with an empty URL is not available to capabilities.
type Config struct {
	DataURL        string `mapstructure:"data_url" yaml:"data_url"`
	WalletURL      string `mapstructure:"wallet_url" yaml:"wallet_url"`
	GoatIndexURL   string `mapstructure:"goat_index_url" yaml:"goat_index_url"`
	NextJSURL      string `mapstructure:"nextjs_url" yaml:"nextjs_url"`
	DexScreenerURL string `mapstructure:"dexscreener_url" yaml:"dexscreener_url"`
}

// DefaultConfig returns the production service URLs.
func DefaultConfig() Config {
	return Config{
		DataURL:        "https://data-stream-service.solaai.tech/",
		WalletURL:      "https://wallet-service.solaai.tech/",
		GoatIndexURL:   "https://loadbalance.goatindex.ai/",
		NextJSURL:      "https://beta.solaai.xyz/",
		DexScreenerURL: "https://api.dexscreener.com/",
	}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request tracing. Auth tokens are never logged.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetry sets the number of attempts and the retry behavior.
// Only network errors and 5xx responses are retried.
func WithRetry(attempts int, opts ...retry.Option) ClientOption {
	return func(c *Client) {
		c.attempts = attempts
		c.retryOpts = opts
	}
}

// Client is a JSON REST client for the Sola services.
// The bearer token is passed per call, so one Client can serve many users.
type Client struct {
	bases     map[Service]*url.URL
	http      *http.Client
	logger    zerolog.Logger
	attempts  int
	retryOpts []retry.Option
}

// NewClient creates a client for the services configured in cfg.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	c := &Client{
		bases:     make(map[Service]*url.URL),
		http:      &http.Client{Timeout: DefaultTimeout},
		logger:    zerolog.Nop(),
		attempts:  DefaultAttempts,
		retryOpts: []retry.Option{retry.WithBackoff(retry.NewExponentialBackoff())},
	}
	for svc, raw := range map[Service]string{
		ServiceData:        cfg.DataURL,
		ServiceWallet:      cfg.WalletURL,
		ServiceGoatIndex:   cfg.GoatIndexURL,
		ServiceNextJS:      cfg.NextJSURL,
		ServiceDexScreener: cfg.DexScreenerURL,
	} {
		if raw == "" {
			continue
		}
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("sola: parse %s url: %w", svc, err)
		}
		c.bases[svc] = u
	}
	for _, apply := range opts {
		apply(c)
	}
	if c.attempts < 1 {
		c.attempts = 1
	}
	return c, nil
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, svc Service, path string, query url.Values, token string, out any) error {
	return c.do(ctx, http.MethodGet, svc, path, query, nil, token, out)
}

// Post issues a POST request with a JSON body and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, svc Service, path string, body any, token string, out any) error {
	return c.do(ctx, http.MethodPost, svc, path, nil, body, token, out)
}

func (c *Client) do(ctx context.Context, method string, svc Service, path string, query url.Values, body any, token string, out any) error {
	base, ok := c.bases[svc]
	if !ok {
		return fmt.Errorf("%w: %s", ErrServiceNotConfigured, svc)
	}
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return fmt.Errorf("sola %s: parse path: %w", svc, err)
	}
	target := base.ResolveReference(ref)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("sola %s: encode request: %w", svc, err)
		}
	}
	opts := append([]retry.Option{retry.WithRetryable(retryable)}, c.retryOpts...)
	attempt := 0
	return retry.New(c.attempts, opts...).Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			c.logger.Warn().Str("service", string(svc)).Str("url", target.String()).Int("attempt", attempt).Msg("retrying sola request")
		}
		err := c.send(ctx, method, svc, target.String(), payload, token, out)
		if err != nil && ctx.Err() != nil {
			return fmt.Errorf("sola %s: %w", svc, ctx.Err())
		}
		return err
	})
}

func (c *Client) send(ctx context.Context, method string, svc Service, target string, payload []byte, token string, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("sola %s: new request: %w", svc, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	auth := "none"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		auth = "Bearer [REDACTED]"
	}
	c.logger.Debug().
		Str("service", string(svc)).
		Str("method", method).
		Str("url", target).
		Str("authorization", auth).
		Msg("sola request")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("service", string(svc)).Str("url", target).Msg("sola request failed")
		return networkError(svc, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return networkError(svc, err)
	}
	c.logger.Debug().
		Str("service", string(svc)).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("sola response")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(svc, resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("sola %s: decode response: %w", svc, err)
	}
	return nil
}

func networkError(svc Service, err error) *APIError {
	return &APIError{
		Service: svc,
		Type:    ErrorTypeNetwork,
		Errors:  []ErrorDetail{{Code: "network", Detail: err.Error()}},
		cause:   err,
	}
}

// responseError maps a non-2xx response. Services report failures as {"error": "..."};
// only the data service classifies them as data errors.
func responseError(svc Service, status int, data []byte) *APIError {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		typ := ErrorTypeUnknown
		if svc == ServiceData {
			typ = ErrorTypeData
		}
		return &APIError{
			Service:    svc,
			Type:       typ,
			Errors:     []ErrorDetail{{Code: "error", Detail: body.Error}},
			StatusCode: status,
		}
	}
	return &APIError{
		Service:    svc,
		Type:       ErrorTypeUnknown,
		Errors:     []ErrorDetail{{Code: "unknown", Detail: "An unexpected error occurred."}},
		StatusCode: status,
	}
}

func retryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Temporary()
}
