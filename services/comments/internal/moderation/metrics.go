package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var moderationActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comments_moderation_actions_total",
	Help: "Moderation actions by action and result",
}, []string{"action", "result"})
