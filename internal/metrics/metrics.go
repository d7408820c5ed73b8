// Package metrics exposes the server's ambient observability surface:
// tick counts, connected-session counts, and per-team scores, backed by
// prometheus/client_golang — already present in the teacher's dependency
// graph and promoted here from indirect to direct use, per SPEC_FULL's
// AMBIENT STACK section.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rlbot-go/matchserver/internal/utils"
)

var (
	TicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "matchserver",
		Name:      "ticks_total",
		Help:      "Total number of simulation ticks processed.",
	})

	ConnectedSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "matchserver",
		Name:      "connected_sessions",
		Help:      "Number of currently connected client sessions.",
	})

	TeamScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "matchserver",
		Name:      "team_score",
		Help:      "Current score per team.",
	}, []string{"team"})

	DroppedBroadcastFrames = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "matchserver",
		Name:      "dropped_broadcast_frames_total",
		Help:      "Frames dropped by slow client sessions under broadcast backpressure.",
	})
)

func init() {
	prometheus.MustRegister(TicksTotal, ConnectedSessions, TeamScore, DroppedBroadcastFrames)
}

// Serve starts the /metrics HTTP endpoint on addr. Intended to run in its
// own goroutine from main; a failure here is logged, not fatal, since
// metrics are an ambient concern and must never take down the match loop.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	utils.LogInfof("Metrics endpoint listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		utils.LogErrorf("Metrics server stopped: %v", err)
	}
}
