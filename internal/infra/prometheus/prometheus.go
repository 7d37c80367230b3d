package prometheus

import (
	"fmt"
	"net/http"
	"time"

	"github.com/linktrail/linktrail/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	defaultPort       = 9090
)

// Metrics bundles the service counters exported for scraping.
type Metrics struct {
	LinksCreated        prometheus.Counter
	InterstitialsServed prometheus.Counter
	ClicksRecorded      prometheus.Counter
}

// NewMetrics registers the service counters on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		LinksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linktrail_links_created_total",
			Help: "Short links created.",
		}),
		InterstitialsServed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linktrail_interstitials_served_total",
			Help: "Telemetry interstitial pages served by the redirect gateway.",
		}),
		ClicksRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "linktrail_clicks_recorded_total",
			Help: "Click events recorded.",
		}),
	}
}

// NewServer builds a basic HTTP server that exposes /metrics for Prometheus scraping.
func NewServer(cfg config.PrometheusConfig) *http.Server {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
}
