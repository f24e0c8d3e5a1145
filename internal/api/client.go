// Package api is the HTTP client for the geospatial backend.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"gridmap/internal/geom"
)

const (
	BoundaryPath = "/api/op/boundary"
	PowerPath    = "/api/op/power"
	HealthPath   = "/health"
)

// PowerResult is the body of the power endpoint.
type PowerResult struct {
	GeoJSON *geojson.FeatureCollection `json:"geojson"`
	Stats   geom.Stats                 `json:"stats"`
}

// StatusError is returned for non-2xx responses. Detail carries the
// backend's explanation when it sent one.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Code)
}

type Client struct {
	base string
	http *http.Client
	log  zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 60 * time.Second},
		log:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Health returns the backend's reported status.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	body, err := c.get(ctx, HealthPath, nil)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode health: %w", err)
	}
	return out.Status, nil
}

// Boundary fetches the municipal boundary polygons.
func (c *Client) Boundary(ctx context.Context) (*geojson.FeatureCollection, error) {
	body, err := c.get(ctx, BoundaryPath, nil)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode boundary: %w", err)
	}
	return fc, nil
}

// Power fetches the infrastructure and statistics inside r.
func (c *Client) Power(ctx context.Context, r geom.Region) (*PowerResult, error) {
	q := url.Values{}
	q.Set("bbox", r.String())
	body, err := c.get(ctx, PowerPath, q)
	if err != nil {
		return nil, err
	}
	var res PowerResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode power: %w", err)
	}
	if res.GeoJSON == nil {
		res.GeoJSON = geojson.NewFeatureCollection()
	}
	return &res, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("url", u).Msg("request failed")
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("url", u).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Int("bytes", len(body)).Msg("backend response")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Detail: detail(body)}
	}
	return body, nil
}

// detail extracts a human readable message from an error body. Both
// {"detail": "..."} and problem+json bodies use the detail field.
func detail(body []byte) string {
	var e struct {
		Detail any    `json:"detail"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	switch d := e.Detail.(type) {
	case string:
		return d
	case nil:
		return e.Title
	default:
		b, _ := json.Marshal(d)
		return string(b)
	}
}
