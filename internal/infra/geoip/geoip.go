// Package geoip resolves client IP addresses to coarse location and ISP
// facts via the ipapi.co JSON endpoint. Lookups are advisory: every failure
// path collapses to "unknown" fields and never reaches the caller as an error.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/linktrail/linktrail/internal/app/model"
	"go.uber.org/zap"
)

const (
	defaultEndpoint = "https://ipapi.co"
	defaultTimeout  = 3 * time.Second
	userAgentHeader = "LinkTrail/1.0"
)

// Location is the resolver output for one IP address.
type Location struct {
	Country string
	City    string
	Region  string
	ISP     string
}

func unknownLocation() Location {
	return Location{
		Country: model.Unknown,
		City:    model.Unknown,
		Region:  model.Unknown,
		ISP:     model.Unknown,
	}
}

// Config drives how the resolver reaches the geolocation service.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Resolver performs best-effort IP geolocation lookups.
type Resolver struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewResolver builds a resolver with the provided config, falling back to
// the public ipapi.co endpoint and a 3 second timeout.
func NewResolver(cfg Config, logger *zap.Logger) *Resolver {
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type apiResponse struct {
	CountryName string `json:"country_name"`
	City        string `json:"city"`
	Region      string `json:"region"`
	Org         string `json:"org"`
}

// Resolve maps an IP address to a Location. Loopback and private ranges
// short-circuit without any outbound request; these dominate development
// traffic and must not leak to the external service.
func (r *Resolver) Resolve(ctx context.Context, ip string) Location {
	if ip == "" || isInternal(ip) {
		return unknownLocation()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s/json/", r.endpoint, ip), nil)
	if err != nil {
		return unknownLocation()
	}
	req.Header.Set("User-Agent", userAgentHeader)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("geoip lookup failed", zap.String("ip", ip), zap.Error(err))
		return unknownLocation()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Debug("geoip lookup non-OK status",
			zap.String("ip", ip), zap.Int("status", resp.StatusCode))
		return unknownLocation()
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		r.logger.Debug("geoip payload decode failed", zap.String("ip", ip), zap.Error(err))
		return unknownLocation()
	}

	loc := unknownLocation()
	if body.CountryName != "" {
		loc.Country = body.CountryName
	}
	if body.City != "" {
		loc.City = body.City
	}
	if body.Region != "" {
		loc.Region = body.Region
	}
	if body.Org != "" {
		loc.ISP = body.Org
	}
	return loc
}

// isInternal covers loopback, RFC1918 ranges, and the whole 172.* block,
// which historical click data already treats as internal.
func isInternal(ip string) bool {
	if parsed := net.ParseIP(ip); parsed != nil {
		if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast() {
			return true
		}
	}
	return strings.HasPrefix(ip, "172.")
}
