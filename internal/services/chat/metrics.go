package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var turnsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "courier",
		Subsystem: "chat",
		Name:      "turns_total",
		Help:      "Conversational turns by outcome.",
	},
	[]string{"outcome"},
)
