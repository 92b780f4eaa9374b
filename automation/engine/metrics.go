package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var deliveriesReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automation_deliveries_received",
	Help: "Number of webhook deliveries received",
})

var deliveriesMalformed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automation_deliveries_malformed",
	Help: "Number of webhook deliveries dropped as unparseable",
})

var entriesFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automation_entries_failed",
	Help: "Number of delivery entries which faulted during processing",
})

var eventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automation_events_processed",
	Help: "Number of comment events processed",
})

var eventsSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automation_events_skipped",
	Help: "Number of webhook changes skipped during normalization",
})

var eventErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automation_event_errors",
	Help: "Number of comment events which failed processing",
})

var rulesFired = promauto.NewCounter(prometheus.CounterOpts{
	Name: "automation_rules_fired",
	Help: "Number of automation rules fired",
})

var actionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "automation_actions",
	Help: "Number of automation actions attempted, by kind and outcome",
}, []string{"kind", "outcome"})
