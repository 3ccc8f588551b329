// ABOUTME: Prometheus collectors for Zoho token refreshes and API requests
// ABOUTME: Registered on the default registry and exposed by the web server's /metrics endpoint
package zoho

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokenRefreshCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zohosync_token_refresh_total",
		Help: "Number of OAuth token refresh attempts",
	}, []string{"service", "result"})

	apiRequestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zohosync_api_requests_total",
		Help: "Number of Zoho API requests by service, method and status",
	}, []string{"service", "method", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zohosync_api_request_duration_seconds",
		Help:    "Zoho API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"service"})
)
