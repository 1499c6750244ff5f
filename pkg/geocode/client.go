// Package geocode resolves postal addresses to coordinates with the Google
// Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// AddressInput is a postal address to geocode.
type AddressInput struct {
	Street  string
	City    string
	State   string
	ZipCode string
}

// OneLine renders the address as "street, city, state zip".
func (a AddressInput) OneLine() string {
	return strings.TrimSpace(a.Street) + ", " + strings.TrimSpace(a.City) + ", " +
		strings.TrimSpace(a.State) + " " + strings.TrimSpace(a.ZipCode)
}

// Coordinate is a latitude/longitude pair kept as the decimal text the
// service reported, so "34.6950" is never re-rendered as "34.695".
type Coordinate struct {
	Lat json.Number `json:"lat"`
	Lng json.Number `json:"lng"`
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. A nil client keeps the default.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the Geocoding API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client. It has
// no effect on a client supplied through WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Client geocodes single addresses. It does no pacing of its own.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	baseURL    string
	key        string
}

// New creates a Client. An empty key yields a disabled client whose Geocode
// always returns nil without making requests.
func New(key string, opts ...Option) *Client {
	c := &Client{
		timeout: 10 * time.Second,
		baseURL: defaultBaseURL,
		key:     strings.TrimSpace(key),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.key == "" {
		zap.L().Warn("geocode: google api key not configured, geocoding disabled")
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.key != ""
}

// Geocode returns the coordinates of addr, or nil when the address could not
// be geocoded for any reason. Failures are logged, never returned.
func (c *Client) Geocode(ctx context.Context, addr AddressInput) *Coordinate {
	if !c.Enabled() {
		return nil
	}

	coord, err := c.Lookup(ctx, addr)
	if err != nil {
		zap.L().Warn("geocode: lookup failed",
			zap.String("address", addr.OneLine()),
			zap.Error(err),
		)
		return nil
	}
	return coord
}
