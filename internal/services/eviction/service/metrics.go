package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_eviction_sweeps_total",
	Help: "Number of sweep requests by outcome",
}, []string{"outcome", "trigger"})

var sweepsRunning = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "warden_eviction_sweeps_running",
	Help: "Number of sweeps currently running",
})

var sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "warden_eviction_sweep_duration_seconds",
	Help:    "Wall time of finished sweeps",
	Buckets: prometheus.ExponentialBuckets(1, 4, 10),
})

var rolesRemoved = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_eviction_roles_removed_total",
	Help: "Number of membership roles removed by sweeps",
})

var auditPagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_audit_pages_fetched_total",
	Help: "Number of audit trail pages fetched",
}, []string{"status"})
