package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	outboundLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "postman_clone_outbound_latency_seconds",
		Help:    "Wall-clock time of outbound request executions, including body transfer",
		Buckets: prometheus.DefBuckets,
	})
	executionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postman_clone_executions_total",
		Help: "Executions by outcome (success or network_failure)",
	}, []string{"outcome"})
	recordingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postman_clone_recording_failures_total",
		Help: "Executions whose audit records could not be persisted",
	})
)
