package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SamplesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pump_gateway_samples_ingested_total",
		Help: "Total telemetry samples accepted from sensor units.",
	})
	SamplesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pump_gateway_samples_rejected_total",
		Help: "Total samples rejected for an unknown device id.",
	})
	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pump_gateway_persist_failures_total",
		Help: "Total durable writes dropped after a backend error.",
	})
	MirrorFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pump_gateway_mirror_failures_total",
		Help: "Total live-state mirror writes dropped after a Redis error.",
	})
	AlertsRaised = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pump_gateway_alerts_raised_total",
		Help: "Total new alerts inserted by the evaluator.",
	})
	PollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pump_gateway_poll_failures_total",
		Help: "Total poll cycles that kept stale in-memory state after a backend read error.",
	})
)
