package swr

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comments_swr_requests_total",
	Help: "Cache lookups by outcome (hit, stale, miss)",
}, []string{"cache", "result"})

var cacheCoalesced = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comments_swr_coalesced_total",
	Help: "Computations or refreshes that piggybacked on one already in flight",
}, []string{"cache"})

var cacheRefreshErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comments_swr_refresh_errors_total",
	Help: "Background refreshes that failed and kept the stale value",
}, []string{"cache"})
