package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chronica/backend/internal/config"
	"github.com/chronica/backend/pkg/logger"
)

const unknownLocation = "unknown"

// GeoIPClient resolves a client IP to "City, Country" via the ip-api
// HTTP service. Lookups are best-effort; every failure degrades to
// "unknown" so login never blocks on geolocation.
type GeoIPClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewGeoIPClient(cfg config.GeoIPConfig) *GeoIPClient {
	return &GeoIPClient{
		BaseURL: cfg.BaseURL,
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type geoIPResponse struct {
	Status  string `json:"status"`
	City    string `json:"city"`
	Country string `json:"country"`
	Message string `json:"message"`
}

func (g *GeoIPClient) Locate(ctx context.Context, ip string) string {
	if ip == "" {
		return unknownLocation
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/json/%s", g.BaseURL, ip), nil)
	if err != nil {
		return unknownLocation
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		logger.Warn("geoip_lookup_failed", map[string]interface{}{
			"ip":    ip,
			"error": err.Error(),
		})
		return unknownLocation
	}
	defer resp.Body.Close()

	var payload geoIPResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		logger.Warn("geoip_decode_failed", map[string]interface{}{
			"ip":    ip,
			"error": err.Error(),
		})
		return unknownLocation
	}

	if payload.Status != "success" {
		logger.Warn("geoip_lookup_rejected", map[string]interface{}{
			"ip":      ip,
			"message": payload.Message,
		})
		return unknownLocation
	}

	return fmt.Sprintf("%s, %s", payload.City, payload.Country)
}
