package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_active_sessions",
		Help: "Sessions currently bound to a live websocket connection",
	})
	BroadcastsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_messages_broadcast_total",
		Help: "Valid messages fanned out to peers",
	})
	EvictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_evictions_total",
		Help: "Sessions torn down, by reason",
	}, []string{"reason"})
)

func Init() {
	prometheus.MustRegister(ActiveSessions, BroadcastsTotal, EvictionsTotal)
}
