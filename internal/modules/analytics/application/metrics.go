package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_events_recorded_total",
		Help: "Analytics events stored, by event type.",
	}, []string{"kind"})

	eventFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_event_failures_total",
		Help: "Analytics events rejected or lost, by reason.",
	}, []string{"reason"})
)
