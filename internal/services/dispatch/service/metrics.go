package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_dispatch_events_total",
	Help: "Number of inbound events by route and result",
}, []string{"route", "result"})

var eventsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "warden_dispatch_events_in_flight",
	Help: "Number of events being handled",
})
