package pagespeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/lighthouse-monitor/internal/model"
)

const (
	// DefaultEndpoint is the PageSpeed Insights v5 runPagespeed endpoint.
	DefaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

	// DefaultTimeout bounds one audit. Lighthouse runs take tens of seconds.
	DefaultTimeout = 120 * time.Second

	// StrategyMobile and StrategyDesktop are the device profiles the API accepts.
	StrategyMobile  = "mobile"
	StrategyDesktop = "desktop"

	// maxBodySize caps the response body we read. Full Lighthouse reports
	// are a few megabytes.
	maxBodySize = 32 << 20
)

// Client fetches category scores for a URL.
type Client struct {
	apiKey     string
	categories []model.Category
	endpoint   string
	strategy   string
	timeout    time.Duration
	proxyAddr  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the API endpoint. Used by tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithStrategy sets the device strategy (mobile or desktop).
func WithStrategy(strategy string) Option {
	return func(c *Client) {
		c.strategy = strategy
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
// It takes precedence over WithProxy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithProxy routes requests through the SOCKS5 proxy at address ("host:port").
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddr = address
	}
}

// NewClient creates a Client that requests the given categories.
// An empty apiKey is allowed; the API then applies its anonymous quota.
func NewClient(apiKey string, categories []model.Category, opts ...Option) (*Client, error) {
	c := &Client{
		apiKey:     apiKey,
		categories: append([]model.Category(nil), categories...),
		endpoint:   DefaultEndpoint,
		strategy:   StrategyMobile,
		timeout:    DefaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if len(c.categories) == 0 {
		c.categories = model.AllCategories()
	}

	if c.strategy != StrategyMobile && c.strategy != StrategyDesktop {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, c.strategy)
	}

	if c.httpClient == nil {
		hc, err := newHTTPClient(c.proxyAddr, c.timeout)
		if err != nil {
			return nil, err
		}
		c.httpClient = hc
	}

	return c, nil
}

// newHTTPClient builds the default HTTP client, dialing through a SOCKS5
// proxy when proxyAddr is set.
func newHTTPClient(proxyAddr string, timeout time.Duration) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // DefaultTransport is always *http.Transport

	if proxyAddr != "" {
		if !isValidProxyAddress(proxyAddr) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, proxyAddr)
		}

		// nil auth: the proxy is expected to be local or network-restricted.
		dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}

		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// isValidProxyAddress checks if the address is in valid "host:port" format.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return portNum >= 1 && portNum <= 65535
}

// Fetch runs a Lighthouse audit of target and returns its category scores
// in the order the client was configured with.
func (c *Client) Fetch(ctx context.Context, target string) (model.ScoreRecord, error) {
	reqURL, err := c.requestURL(target)
	if err != nil {
		return model.ScoreRecord{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error embeds the request URL, which carries the API key.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return model.ScoreRecord{}, fmt.Errorf("pagespeed request for %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("failed to read pagespeed response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.ScoreRecord{}, parseAPIError(resp.StatusCode, body)
	}

	return parseScores(body, c.categories)
}

// requestURL builds the runPagespeed query for target.
// The category parameter is repeated once per category.
func (c *Client) requestURL(target string) (string, error) {
	base, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid pagespeed endpoint %q: %w", c.endpoint, err)
	}

	q := base.Query()
	q.Set("url", target)
	q.Set("strategy", c.strategy)
	for _, cat := range c.categories {
		q.Add("category", strings.ToUpper(strings.ReplaceAll(cat.String(), "-", "_")))
	}
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	base.RawQuery = q.Encode()

	return base.String(), nil
}
