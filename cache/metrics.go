// ABOUTME: Prometheus counters for cache lookups
// ABOUTME: Exposed through the default registry
package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "zohosync_cache_requests_total",
	Help: "Cache lookups by result",
}, []string{"result"})
