package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint is the free ip-api.com JSON endpoint. It needs no key
// and resolves the caller's public IP to coordinates.
const DefaultEndpoint = "http://ip-api.com/json"

const lookupTimeout = 10 * time.Second

// HTTPLocator resolves position through an IP geolocation service.
type HTTPLocator struct {
	endpoint string
	client   *http.Client
}

// NewHTTPLocator creates a locator against endpoint. An empty endpoint
// selects DefaultEndpoint.
func NewHTTPLocator(endpoint string) *HTTPLocator {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &HTTPLocator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: lookupTimeout},
	}
}

// Locate queries the service and decodes its position fields.
func (l *HTTPLocator) Locate(ctx context.Context) (Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return Position{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("geolocation request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Position{}, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Position{}, fmt.Errorf("geolocation service: status %d", resp.StatusCode)
	}

	var payload struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Position{}, fmt.Errorf("parse response: %w", err)
	}
	if payload.Status != "success" {
		return Position{}, fmt.Errorf("geolocation service: %s", payload.Message)
	}

	return Position{Lat: payload.Lat, Lon: payload.Lon}, nil
}
