package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var streamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "comments_stream_subscribers",
	Help: "Connected live stats subscribers",
})

var streamBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "comments_stream_broadcasts_total",
	Help: "Snapshots fanned out to subscribers",
})
